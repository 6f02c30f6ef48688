package service

import (
	"context"
	"fmt"

	"creditmeter/models"
)

type statsService struct {
	uowFactory UnitOfWorkFactory
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{
		uowFactory: uowFactory,
	}
}

// GetStats returns the per-module rollup for the account's resolved owner.
// The map always covers every known module so consumers get a stable shape:
// unprovisioned modules report zeros, privileged accounts report the
// unlimited sentinel regardless of any ledger rows stored under their id.
func (s *statsService) GetStats(ctx context.Context, account *models.Account) (map[models.Module]models.ModuleUsage, error) {
	if account == nil {
		return nil, fmt.Errorf("account is required")
	}

	stats := make(map[models.Module]models.ModuleUsage, len(models.AllModules()))

	owner := ResolveOwner(account)
	if owner.Unlimited() {
		for _, module := range models.AllModules() {
			stats[module] = models.UnlimitedUsage()
		}
		return stats, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // Read-only; rollback is the normal exit

	entries, err := uow.LedgerRepository().GetAllByOwner(ctx, owner.AccountID())
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}

	for _, module := range models.AllModules() {
		stats[module] = models.ModuleUsage{}
	}
	for _, entry := range entries {
		if !entry.Module.Valid() {
			continue
		}
		stats[entry.Module] = models.ModuleUsage{
			Credits:   entry.Credits,
			Used:      entry.Used,
			Available: entry.Available(),
		}
	}

	return stats, nil
}

// GetUsageHistory returns recent audit records for the account's resolved
// owner, newest first. Privileged accounts have no ledger identity and get
// an empty history.
func (s *statsService) GetUsageHistory(ctx context.Context, account *models.Account, limit int) ([]*models.UsageRecord, error) {
	if account == nil {
		return nil, fmt.Errorf("account is required")
	}

	owner := ResolveOwner(account)
	if owner.Unlimited() {
		return nil, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // Read-only; rollback is the normal exit

	records, err := uow.UsageRecordRepository().GetByOwner(ctx, owner.AccountID(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage records: %w", err)
	}

	return records, nil
}
