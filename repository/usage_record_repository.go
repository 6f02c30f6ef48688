package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"creditmeter/database"
	"creditmeter/models"
)

// UsageRecordRepository implements the UsageRecordRepository interface
type UsageRecordRepository struct {
	q queryable
}

// NewUsageRecordRepository creates a new usage record repository
func NewUsageRecordRepository(db *database.DB) *UsageRecordRepository {
	return &UsageRecordRepository{q: db.Pool}
}

// newUsageRecordRepositoryWithTx creates a new usage record repository with a transaction
func newUsageRecordRepositoryWithTx(tx queryable) *UsageRecordRepository {
	return &UsageRecordRepository{q: tx}
}

// Record creates a new usage record entry
func (r *UsageRecordRepository) Record(ctx context.Context, record *models.UsageRecord) error {
	// Convert metadata to JSON
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record metadata: %w", err)
	}

	query := `
		INSERT INTO usage_records
		(owner_id, module, operation, amount, used_before, used_after, credits, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		record.OwnerID,
		record.Module,
		record.Operation,
		record.Amount,
		record.UsedBefore,
		record.UsedAfter,
		record.Credits,
		metadataJSON,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record usage for owner %d: %w", record.OwnerID, err)
	}

	return nil
}

// GetByOwner returns the most recent usage records for an owner
func (r *UsageRecordRepository) GetByOwner(ctx context.Context, ownerID int64, limit int) ([]*models.UsageRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, owner_id, module, operation, amount, used_before, used_after, credits, metadata, created_at
		FROM usage_records
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage records for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var records []*models.UsageRecord
	for rows.Next() {
		var record models.UsageRecord
		var metadataJSON []byte
		err := rows.Scan(
			&record.ID,
			&record.OwnerID,
			&record.Module,
			&record.Operation,
			&record.Amount,
			&record.UsedBefore,
			&record.UsedAfter,
			&record.Credits,
			&metadataJSON,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal usage record metadata: %w", err)
			}
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage records: %w", err)
	}

	return records, nil
}
