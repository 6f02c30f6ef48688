package testutil

import (
	"creditmeter/models"
)

// CreateTestAccount creates a delegating account charged against its own pool
func CreateTestAccount(id int64) *models.Account {
	return &models.Account{
		ID:   id,
		Role: models.RoleDelegating,
	}
}

// CreateTestMemberAccount creates a member account drawing against parentID's pool
func CreateTestMemberAccount(id, parentID int64) *models.Account {
	return &models.Account{
		ID:       id,
		Role:     models.RoleMember,
		ParentID: &parentID,
	}
}

// CreateTestPrivilegedAccount creates an account exempt from metering
func CreateTestPrivilegedAccount(id int64) *models.Account {
	return &models.Account{
		ID:   id,
		Role: models.RolePrivileged,
	}
}

// CreateTestUsageRecord creates a usage record with default values
func CreateTestUsageRecord(ownerID int64, module models.Module, operation models.OperationType) *models.UsageRecord {
	return &models.UsageRecord{
		OwnerID:    ownerID,
		Module:     module,
		Operation:  operation,
		Amount:     10,
		UsedBefore: 0,
		UsedAfter:  10,
		Credits:    100,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
