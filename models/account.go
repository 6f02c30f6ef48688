package models

// Role classifies an account for metering purposes
type Role string

const (
	// RolePrivileged accounts are exempt from metering entirely
	RolePrivileged Role = "privileged"
	// RoleDelegating accounts own a credit pool that members draw against
	RoleDelegating Role = "delegating"
	// RoleMember accounts are delegated members of a parent account's pool
	RoleMember Role = "member"
	// RoleRestricted accounts own their own (typically small) pool
	RoleRestricted Role = "restricted"
)

// Account is the authenticated identity passed into every quota call.
// It is owned by the identity provider; the engine only reads it.
type Account struct {
	ID       int64
	Role     Role
	ParentID *int64 // set when the account draws against another account's pool
}
