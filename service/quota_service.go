package service

import (
	"context"
	"fmt"
	"time"

	"creditmeter/events"
	"creditmeter/models"
	log "github.com/sirupsen/logrus"
)

type quotaService struct {
	uowFactory UnitOfWorkFactory
	metrics    MetricsRecorder // optional
}

// NewQuotaService creates a new quota service. metrics may be nil.
func NewQuotaService(uowFactory UnitOfWorkFactory, metrics MetricsRecorder) QuotaService {
	return &quotaService{
		uowFactory: uowFactory,
		metrics:    metrics,
	}
}

func (s *quotaService) HasEnough(ctx context.Context, account *models.Account, module models.Module, amount int64) (bool, error) {
	if err := validateRequest(account, module, amount); err != nil {
		return false, err
	}

	owner := ResolveOwner(account)
	if owner.Unlimited() {
		return true, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // Read-only; rollback is the normal exit

	entry, err := uow.LedgerRepository().Get(ctx, owner.AccountID(), module)
	if err != nil {
		return false, fmt.Errorf("failed to read ledger entry: %w", err)
	}

	return entry.Available() >= amount, nil
}

func (s *quotaService) Consume(ctx context.Context, account *models.Account, module models.Module, amount int64) (bool, error) {
	if err := validateRequest(account, module, amount); err != nil {
		return false, err
	}
	start := time.Now()

	owner := ResolveOwner(account)
	if owner.Unlimited() {
		// Privileged accounts bypass the ledger entirely: no read, no
		// mutation, no lock
		return true, nil
	}
	ownerID := owner.AccountID()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	entry, ok, err := uow.LedgerRepository().Consume(ctx, ownerID, module, amount)
	if err != nil {
		if models.IsLockContention(err) {
			if s.metrics != nil {
				s.metrics.RecordLockTimeout(ctx, module)
			}
			log.WithFields(log.Fields{
				"ownerId": ownerID,
				"module":  module,
				"amount":  amount,
			}).Warn("Ledger row lock contention timeout")
		}
		return false, err
	}

	if !ok {
		return false, s.recordRejection(ctx, uow, account, ownerID, module, amount)
	}

	record := &models.UsageRecord{
		OwnerID:    ownerID,
		Module:     module,
		Operation:  models.OperationConsume,
		Amount:     amount,
		UsedBefore: entry.Used - amount,
		UsedAfter:  entry.Used,
		Credits:    entry.Credits,
		Metadata: map[string]any{
			"account_id": account.ID,
		},
	}
	if err := uow.UsageRecordRepository().Record(ctx, record); err != nil {
		return false, fmt.Errorf("failed to record usage: %w", err)
	}

	uow.EventBus().Publish(events.CreditsConsumedEvent{
		OwnerID:   ownerID,
		AccountID: account.ID,
		Module:    module,
		Amount:    amount,
		UsedAfter: entry.Used,
		Credits:   entry.Credits,
	})

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordConsume(ctx, module, amount)
		s.metrics.RecordDuration(ctx, module, models.OperationConsume, time.Since(start))
	}

	return true, nil
}

// recordRejection commits an audit-only record for a refused consume. The
// ledger itself is untouched, so committing mutates nothing but the trail.
func (s *quotaService) recordRejection(ctx context.Context, uow UnitOfWork, account *models.Account, ownerID int64, module models.Module, amount int64) error {
	entry, err := uow.LedgerRepository().Get(ctx, ownerID, module)
	if err != nil {
		return fmt.Errorf("failed to read ledger entry: %w", err)
	}

	record := &models.UsageRecord{
		OwnerID:    ownerID,
		Module:     module,
		Operation:  models.OperationRejected,
		Amount:     amount,
		UsedBefore: entry.Used,
		UsedAfter:  entry.Used,
		Credits:    entry.Credits,
		Metadata: map[string]any{
			"account_id": account.ID,
			"available":  entry.Available(),
		},
	}
	if err := uow.UsageRecordRepository().Record(ctx, record); err != nil {
		return fmt.Errorf("failed to record rejected usage: %w", err)
	}

	uow.EventBus().Publish(events.QuotaExhaustedEvent{
		OwnerID:   ownerID,
		AccountID: account.ID,
		Module:    module,
		Requested: amount,
		Available: entry.Available(),
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRejection(ctx, module)
	}

	// A business rejection, not a fault
	log.WithFields(log.Fields{
		"ownerId":   ownerID,
		"accountId": account.ID,
		"module":    module,
		"requested": amount,
		"available": entry.Available(),
	}).Info("Consume rejected: insufficient credits")

	return nil
}

func (s *quotaService) Release(ctx context.Context, account *models.Account, module models.Module, amount int64) error {
	if err := validateRequest(account, module, amount); err != nil {
		return err
	}

	start := time.Now()

	owner := ResolveOwner(account)
	if owner.Unlimited() {
		return nil
	}
	ownerID := owner.AccountID()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	entry, usedBefore, err := uow.LedgerRepository().Release(ctx, ownerID, module, amount)
	if err != nil {
		if models.IsLockContention(err) && s.metrics != nil {
			s.metrics.RecordLockTimeout(ctx, module)
		}
		return err
	}
	if entry == nil {
		// Nothing granted for this owner/module; releasing is a no-op
		return nil
	}

	record := &models.UsageRecord{
		OwnerID:    ownerID,
		Module:     module,
		Operation:  models.OperationRelease,
		Amount:     amount,
		UsedBefore: usedBefore,
		UsedAfter:  entry.Used,
		Credits:    entry.Credits,
		Metadata: map[string]any{
			"account_id": account.ID,
		},
	}
	if err := uow.UsageRecordRepository().Record(ctx, record); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	uow.EventBus().Publish(events.CreditsReleasedEvent{
		OwnerID:   ownerID,
		AccountID: account.ID,
		Module:    module,
		Amount:    amount,
		UsedAfter: entry.Used,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRelease(ctx, module, amount)
		s.metrics.RecordDuration(ctx, module, models.OperationRelease, time.Since(start))
	}

	return nil
}

func (s *quotaService) CheckAndConsume(ctx context.Context, account *models.Account, module models.Module, amount int64) error {
	ok, err := s.Consume(ctx, account, module, amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: module %s, requested %d", models.ErrInsufficientCredits, module, amount)
	}
	return nil
}

func validateRequest(account *models.Account, module models.Module, amount int64) error {
	if account == nil {
		return fmt.Errorf("account is required")
	}
	if !module.Valid() {
		return fmt.Errorf("unknown module: %s", module)
	}
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}
