package repository

import (
	"context"
	"fmt"

	"creditmeter/database"
	"creditmeter/events"
	"creditmeter/service"
	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                *database.DB
	tx                pgx.Tx
	ctx               context.Context
	lockTimeoutMillis int
	transactionalBus  *events.TransactionalBus
	ledgerRepo        service.LedgerRepository
	usageRecordRepo   service.UsageRecordRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. lockTimeoutMillis
// bounds how long a transaction waits for a ledger row lock before the
// operation fails with a contention error.
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus, lockTimeoutMillis int) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:                db,
		eventBus:          eventBus,
		lockTimeoutMillis: lockTimeoutMillis,
	}
}

type unitOfWorkFactory struct {
	db                *database.DB
	eventBus          *events.Bus
	lockTimeoutMillis int
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:                f.db,
		lockTimeoutMillis: f.lockTimeoutMillis,
		transactionalBus:  events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Bound row-lock waits so contention surfaces as SQLSTATE 55P03 instead
	// of blocking indefinitely. SET LOCAL scopes the setting to this
	// transaction only.
	if u.lockTimeoutMillis > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeoutMillis)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.ledgerRepo = newLedgerRepositoryWithTx(tx)
	u.usageRecordRepo = newUsageRecordRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// LedgerRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerRepository() service.LedgerRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// UsageRecordRepository returns the usage record repository for this unit of work
func (u *unitOfWork) UsageRecordRepository() service.UsageRecordRepository {
	if u.usageRecordRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.usageRecordRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
