package models

import (
	"time"
)

// OperationType classifies a ledger operation in the audit trail
type OperationType string

const (
	OperationConsume  OperationType = "consume"
	OperationRelease  OperationType = "release"
	OperationGrant    OperationType = "grant"
	OperationRejected OperationType = "rejected"
)

// UsageRecord is an audit entry for a single ledger operation
type UsageRecord struct {
	ID         int64          `db:"id"`
	OwnerID    int64          `db:"owner_id"`
	Module     Module         `db:"module"`
	Operation  OperationType  `db:"operation"`
	Amount     int64          `db:"amount"`
	UsedBefore int64          `db:"used_before"`
	UsedAfter  int64          `db:"used_after"`
	Credits    int64          `db:"credits"`
	Metadata   map[string]any `db:"metadata"`
	CreatedAt  time.Time      `db:"created_at"`
}
