package service

import (
	"testing"

	"creditmeter/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveOwner(t *testing.T) {
	parentID := int64(77)

	tests := []struct {
		name          string
		account       *models.Account
		wantUnlimited bool
		wantOwnerID   int64
	}{
		{
			name:          "privileged account is unlimited",
			account:       &models.Account{ID: 1, Role: models.RolePrivileged},
			wantUnlimited: true,
		},
		{
			name:          "privileged account ignores parent",
			account:       &models.Account{ID: 1, Role: models.RolePrivileged, ParentID: &parentID},
			wantUnlimited: true,
		},
		{
			name:        "member with parent charges the parent",
			account:     &models.Account{ID: 2, Role: models.RoleMember, ParentID: &parentID},
			wantOwnerID: 77,
		},
		{
			name:        "member without parent charges itself",
			account:     &models.Account{ID: 3, Role: models.RoleMember},
			wantOwnerID: 3,
		},
		{
			name:        "delegating account is its own pool",
			account:     &models.Account{ID: 4, Role: models.RoleDelegating},
			wantOwnerID: 4,
		},
		{
			name:        "restricted account with parent charges the parent",
			account:     &models.Account{ID: 5, Role: models.RoleRestricted, ParentID: &parentID},
			wantOwnerID: 77,
		},
		{
			name:        "restricted account without parent charges itself",
			account:     &models.Account{ID: 6, Role: models.RoleRestricted},
			wantOwnerID: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := ResolveOwner(tt.account)

			assert.Equal(t, tt.wantUnlimited, owner.Unlimited())
			if !tt.wantUnlimited {
				assert.Equal(t, tt.wantOwnerID, owner.AccountID())
			}
		})
	}
}
