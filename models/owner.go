package models

// Owner is the ledger identity actually charged for an action, after
// hierarchical delegation has been resolved. It is either a concrete account
// ID or the unlimited sentinel for privileged roles.
type Owner struct {
	accountID int64
	unlimited bool
}

// AccountOwner returns an owner charged against the given account's pool
func AccountOwner(accountID int64) Owner {
	return Owner{accountID: accountID}
}

// UnlimitedOwner returns the sentinel owner exempt from metering
func UnlimitedOwner() Owner {
	return Owner{unlimited: true}
}

// Unlimited reports whether this owner is exempt from metering
func (o Owner) Unlimited() bool {
	return o.unlimited
}

// AccountID returns the charged account ID. Only meaningful when the owner
// is not unlimited.
func (o Owner) AccountID() int64 {
	return o.accountID
}
