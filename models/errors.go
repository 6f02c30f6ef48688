package models

import (
	"errors"
)

// ErrInsufficientCredits is the business-rule rejection returned when the
// resolved owner's available capacity is below the requested amount. It is
// not an infrastructure fault and is never logged above info level.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrLockContention is the transient infrastructure fault surfaced when the
// row lock on a ledger entry could not be acquired within the configured
// bound. Callers may retry; it must never be conflated with
// ErrInsufficientCredits.
var ErrLockContention = errors.New("ledger row lock contention timeout")

// IsInsufficientCredits reports whether err is a quota rejection
func IsInsufficientCredits(err error) bool {
	return errors.Is(err, ErrInsufficientCredits)
}

// IsLockContention reports whether err is a retryable lock timeout
func IsLockContention(err error) bool {
	return errors.Is(err, ErrLockContention)
}
