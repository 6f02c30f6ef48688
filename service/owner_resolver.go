package service

import (
	"creditmeter/models"
)

// ResolveOwner determines which ledger identity is charged for an account's
// actions. Privileged accounts resolve to the unlimited sentinel and never
// touch the ledger; member accounts with a parent draw against the parent's
// pool; everyone else is the top of their own pool.
//
// Pure function, safe to call from any goroutine.
func ResolveOwner(account *models.Account) models.Owner {
	if account.Role == models.RolePrivileged {
		return models.UnlimitedOwner()
	}
	if account.ParentID != nil {
		return models.AccountOwner(*account.ParentID)
	}
	return models.AccountOwner(account.ID)
}
