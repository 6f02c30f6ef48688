package repository

import (
	"context"
	"errors"
	"fmt"

	"creditmeter/database"
	"creditmeter/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgLockNotAvailable is the SQLSTATE raised when lock_timeout expires while
// waiting for a row lock
const pgLockNotAvailable = "55P03"

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

// newLedgerRepositoryWithTx creates a new ledger repository with a transaction
func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// Get retrieves the ledger entry for (ownerID, module). A missing row is
// returned as the zero entry, never as an error.
func (r *LedgerRepository) Get(ctx context.Context, ownerID int64, module models.Module) (*models.LedgerEntry, error) {
	query := `
		SELECT owner_id, module, credits, used, created_at, updated_at
		FROM credit_ledger
		WHERE owner_id = $1 AND module = $2
	`

	var entry models.LedgerEntry
	err := r.q.QueryRow(ctx, query, ownerID, module).Scan(
		&entry.OwnerID,
		&entry.Module,
		&entry.Credits,
		&entry.Used,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return models.ZeroLedgerEntry(ownerID, module), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry for owner %d module %s: %w", ownerID, module, err)
	}

	return &entry, nil
}

// GetAllByOwner returns every ledger entry provisioned for an owner
func (r *LedgerRepository) GetAllByOwner(ctx context.Context, ownerID int64) ([]*models.LedgerEntry, error) {
	query := `
		SELECT owner_id, module, credits, used, created_at, updated_at
		FROM credit_ledger
		WHERE owner_id = $1
		ORDER BY module
	`

	rows, err := r.q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		err := rows.Scan(
			&entry.OwnerID,
			&entry.Module,
			&entry.Credits,
			&entry.Used,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}

// Consume atomically charges amount against (ownerID, module). The capacity
// check and the increment execute as one statement, serialized by the row
// lock, so two racing consumers can never both succeed on the last unit.
// Returns (nil, false, nil) without mutating anything when capacity is
// insufficient or no entry exists.
func (r *LedgerRepository) Consume(ctx context.Context, ownerID int64, module models.Module, amount int64) (*models.LedgerEntry, bool, error) {
	if amount <= 0 {
		return nil, false, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE credit_ledger
		SET used = used + $3, updated_at = NOW()
		WHERE owner_id = $1 AND module = $2 AND credits - used >= $3
		RETURNING owner_id, module, credits, used, created_at, updated_at
	`

	var entry models.LedgerEntry
	err := r.q.QueryRow(ctx, query, ownerID, module, amount).Scan(
		&entry.OwnerID,
		&entry.Module,
		&entry.Credits,
		&entry.Used,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		// Insufficient capacity, or no entry was ever granted
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapLedgerError(err, ownerID, module, "consume")
	}

	return &entry, true, nil
}

// Release refunds amount to (ownerID, module), clamping used at zero. A
// refund overlapping a grant resize can legitimately exceed what is
// currently consumed; the clamp is a correction, not an error. The returned
// usedBefore is the pre-release value, for auditing the exact transition.
func (r *LedgerRepository) Release(ctx context.Context, ownerID int64, module models.Module, amount int64) (*models.LedgerEntry, int64, error) {
	if amount <= 0 {
		return nil, 0, fmt.Errorf("amount must be positive")
	}

	// The CTE locks the row and captures the pre-release used value
	query := `
		WITH current AS (
			SELECT used AS used_before
			FROM credit_ledger
			WHERE owner_id = $1 AND module = $2
			FOR UPDATE
		)
		UPDATE credit_ledger
		SET used = GREATEST(0, credit_ledger.used - $3), updated_at = NOW()
		FROM current
		WHERE owner_id = $1 AND module = $2
		RETURNING current.used_before, owner_id, module, credits, used, created_at, updated_at
	`

	var entry models.LedgerEntry
	var usedBefore int64
	err := r.q.QueryRow(ctx, query, ownerID, module, amount).Scan(
		&usedBefore,
		&entry.OwnerID,
		&entry.Module,
		&entry.Credits,
		&entry.Used,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		// Nothing was ever granted; releasing against the zero entry is a no-op
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, mapLedgerError(err, ownerID, module, "release")
	}

	return &entry, usedBefore, nil
}

// Grant sets the credit capacity for (ownerID, module), creating the entry
// if needed. Used is never touched: shrinking credits below used leaves the
// entry with zero availability until releases catch up.
func (r *LedgerRepository) Grant(ctx context.Context, ownerID int64, module models.Module, newCredits int64) (*models.LedgerEntry, error) {
	if newCredits < 0 {
		return nil, fmt.Errorf("credits must not be negative")
	}

	query := `
		INSERT INTO credit_ledger (owner_id, module, credits, used)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (owner_id, module)
		DO UPDATE SET credits = EXCLUDED.credits, updated_at = NOW()
		RETURNING owner_id, module, credits, used, created_at, updated_at
	`

	var entry models.LedgerEntry
	err := r.q.QueryRow(ctx, query, ownerID, module, newCredits).Scan(
		&entry.OwnerID,
		&entry.Module,
		&entry.Credits,
		&entry.Used,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err != nil {
		return nil, mapLedgerError(err, ownerID, module, "grant")
	}

	return &entry, nil
}

// DeleteByOwner removes every ledger entry for an owner. Called by the
// provisioning layer as part of account-deletion cascade.
func (r *LedgerRepository) DeleteByOwner(ctx context.Context, ownerID int64) error {
	query := `DELETE FROM credit_ledger WHERE owner_id = $1`

	if _, err := r.q.Exec(ctx, query, ownerID); err != nil {
		return fmt.Errorf("failed to delete ledger entries for owner %d: %w", ownerID, err)
	}

	return nil
}

// mapLedgerError translates a lock_timeout expiry into the retryable
// contention error; everything else is wrapped as-is
func mapLedgerError(err error, ownerID int64, module models.Module, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return fmt.Errorf("%w: %s on owner %d module %s", models.ErrLockContention, op, ownerID, module)
	}
	return fmt.Errorf("failed to %s for owner %d module %s: %w", op, ownerID, module, err)
}
