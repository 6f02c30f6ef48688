package service

import (
	"context"
	"time"

	"creditmeter/events"
	"creditmeter/models"
)

// LedgerRepository defines the interface for credit ledger data access.
// Every operation is keyed by (ownerID, module); the unlimited owner never
// reaches this layer.
type LedgerRepository interface {
	// Get retrieves the entry, returning the zero entry when none exists
	Get(ctx context.Context, ownerID int64, module models.Module) (*models.LedgerEntry, error)

	// GetAllByOwner returns every provisioned entry for an owner
	GetAllByOwner(ctx context.Context, ownerID int64) ([]*models.LedgerEntry, error)

	// Consume atomically charges amount, returning the updated entry and
	// true on success, or (nil, false, nil) without mutation when capacity
	// is insufficient
	Consume(ctx context.Context, ownerID int64, module models.Module, amount int64) (*models.LedgerEntry, bool, error)

	// Release refunds amount, clamping used at zero; returns the updated
	// entry plus the pre-release used value, or nil when no entry exists
	Release(ctx context.Context, ownerID int64, module models.Module, amount int64) (*models.LedgerEntry, int64, error)

	// Grant sets the credit capacity, creating the entry if needed; used is
	// never modified
	Grant(ctx context.Context, ownerID int64, module models.Module, newCredits int64) (*models.LedgerEntry, error)

	// DeleteByOwner removes all entries for an owner (account-deletion cascade)
	DeleteByOwner(ctx context.Context, ownerID int64) error
}

// UsageRecordRepository defines the interface for the ledger audit trail
type UsageRecordRepository interface {
	// Record creates a new usage record entry
	Record(ctx context.Context, record *models.UsageRecord) error

	// GetByOwner returns the most recent usage records for an owner
	GetByOwner(ctx context.Context, ownerID int64, limit int) ([]*models.UsageRecord, error)
}

// QuotaService defines the metering façade callers consult before
// performing a metered action. The pattern for callers is saga-style:
// CheckAndConsume, perform the action outside any lock, Release on failure.
type QuotaService interface {
	// HasEnough reports whether the resolved owner has capacity for amount;
	// always true for privileged accounts
	HasEnough(ctx context.Context, account *models.Account, module models.Module, amount int64) (bool, error)

	// Consume atomically charges amount against the resolved owner's pool.
	// Returns false (without error) when capacity is insufficient.
	Consume(ctx context.Context, account *models.Account, module models.Module, amount int64) (bool, error)

	// Release refunds amount to the resolved owner's pool, clamping at zero
	Release(ctx context.Context, account *models.Account, module models.Module, amount int64) error

	// CheckAndConsume behaves like Consume but returns
	// models.ErrInsufficientCredits on rejection, for callers that want
	// explicit error semantics
	CheckAndConsume(ctx context.Context, account *models.Account, module models.Module, amount int64) error
}

// GrantService defines the administrative provisioning write path
type GrantService interface {
	// Grant sets an owner's credit capacity for a module
	Grant(ctx context.Context, ownerID int64, module models.Module, newCredits int64) (*models.LedgerEntry, error)

	// RemoveOwner deletes all ledger entries for an owner
	RemoveOwner(ctx context.Context, ownerID int64) error
}

// StatsService defines the read-only consumption rollups
type StatsService interface {
	// GetStats returns per-module usage for the account's resolved owner.
	// The map always covers every known module; privileged accounts get the
	// unlimited sentinel for each.
	GetStats(ctx context.Context, account *models.Account) (map[models.Module]models.ModuleUsage, error)

	// GetUsageHistory returns recent audit records for the resolved owner
	GetUsageHistory(ctx context.Context, account *models.Account, limit int) ([]*models.UsageRecord, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// MetricsRecorder receives ledger operation metrics. Implementations must
// tolerate being called from concurrent goroutines.
type MetricsRecorder interface {
	RecordConsume(ctx context.Context, module models.Module, amount int64)
	RecordRejection(ctx context.Context, module models.Module)
	RecordRelease(ctx context.Context, module models.Module, amount int64)
	RecordGrant(ctx context.Context, module models.Module)
	RecordLockTimeout(ctx context.Context, module models.Module)
	RecordDuration(ctx context.Context, module models.Module, operation models.OperationType, elapsed time.Duration)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	LedgerRepository() LedgerRepository
	UsageRecordRepository() UsageRecordRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
