package service

import (
	"context"
	"fmt"
	"time"

	"creditmeter/events"
	"creditmeter/models"
	log "github.com/sirupsen/logrus"
)

type grantService struct {
	uowFactory UnitOfWorkFactory
	metrics    MetricsRecorder // optional
}

// NewGrantService creates a new grant service. metrics may be nil.
func NewGrantService(uowFactory UnitOfWorkFactory, metrics MetricsRecorder) GrantService {
	return &grantService{
		uowFactory: uowFactory,
		metrics:    metrics,
	}
}

// Grant sets ownerID's credit capacity for a module. Used consumption is
// never touched: shrinking credits below the current used leaves zero
// availability until releases catch up, and a later release never forgives
// the deficit.
func (s *grantService) Grant(ctx context.Context, ownerID int64, module models.Module, newCredits int64) (*models.LedgerEntry, error) {
	if !module.Valid() {
		return nil, fmt.Errorf("unknown module: %s", module)
	}
	if newCredits < 0 {
		return nil, fmt.Errorf("credits must not be negative")
	}
	start := time.Now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	previous, err := uow.LedgerRepository().Get(ctx, ownerID, module)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger entry: %w", err)
	}

	entry, err := uow.LedgerRepository().Grant(ctx, ownerID, module, newCredits)
	if err != nil {
		return nil, err
	}

	record := &models.UsageRecord{
		OwnerID:    ownerID,
		Module:     module,
		Operation:  models.OperationGrant,
		Amount:     newCredits - previous.Credits,
		UsedBefore: previous.Used,
		UsedAfter:  entry.Used,
		Credits:    newCredits,
		Metadata: map[string]any{
			"old_credits": previous.Credits,
		},
	}
	if err := uow.UsageRecordRepository().Record(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record grant: %w", err)
	}

	uow.EventBus().Publish(events.CreditsGrantedEvent{
		OwnerID:    ownerID,
		Module:     module,
		OldCredits: previous.Credits,
		NewCredits: newCredits,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordGrant(ctx, module)
		s.metrics.RecordDuration(ctx, module, models.OperationGrant, time.Since(start))
	}

	if newCredits < entry.Used {
		log.WithFields(log.Fields{
			"ownerId": ownerID,
			"module":  module,
			"credits": newCredits,
			"used":    entry.Used,
		}).Info("Credits shrunk below current usage; availability clamped at zero")
	}

	return entry, nil
}

// RemoveOwner deletes every ledger entry for an owner, as part of the
// account-deletion cascade. Usage records are kept for audit.
func (s *grantService) RemoveOwner(ctx context.Context, ownerID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.LedgerRepository().DeleteByOwner(ctx, ownerID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
