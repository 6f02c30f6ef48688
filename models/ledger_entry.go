package models

import (
	"time"
)

// LedgerEntry is the persisted (owner, module) record tracking granted
// versus consumed quota. A missing row is equivalent to the zero entry:
// zero capacity, nothing consumed.
type LedgerEntry struct {
	OwnerID   int64     `db:"owner_id"`
	Module    Module    `db:"module"`
	Credits   int64     `db:"credits"`
	Used      int64     `db:"used"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ZeroLedgerEntry returns the implicit zero-capacity entry for a missing row
func ZeroLedgerEntry(ownerID int64, module Module) *LedgerEntry {
	return &LedgerEntry{OwnerID: ownerID, Module: module}
}

// Available returns the remaining capacity, clamped at zero. Credits can be
// administratively shrunk below used; availability never goes negative.
func (e *LedgerEntry) Available() int64 {
	if e.Credits <= e.Used {
		return 0
	}
	return e.Credits - e.Used
}
