package models

// UnlimitedSentinel is the value reported for every field of a privileged
// account's usage. Consumers must treat negative values as "no limit", not
// as counts.
const UnlimitedSentinel int64 = -1

// ModuleUsage is the per-module rollup served to dashboards
type ModuleUsage struct {
	Credits   int64
	Used      int64
	Available int64
}

// UnlimitedUsage returns the sentinel rollup for privileged accounts
func UnlimitedUsage() ModuleUsage {
	return ModuleUsage{
		Credits:   UnlimitedSentinel,
		Used:      UnlimitedSentinel,
		Available: UnlimitedSentinel,
	}
}

// Unlimited reports whether the rollup carries the sentinel values
func (u ModuleUsage) Unlimited() bool {
	return u.Credits == UnlimitedSentinel
}
