package service

import (
	"context"
	"testing"

	"creditmeter/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStatsService(t *testing.T) (StatsService, *quotaServiceMocks) {
	t.Helper()

	m := &quotaServiceMocks{
		uowFactory: new(MockUnitOfWorkFactory),
		uow:        new(MockUnitOfWork),
		ledger:     new(MockLedgerRepository),
		usage:      new(MockUsageRecordRepository),
		bus:        new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.ledger, m.usage, m.bus)
	m.uowFactory.On("Create").Return(m.uow).Maybe()
	m.uow.On("Rollback").Return(nil).Maybe()

	return NewStatsService(m.uowFactory), m
}

func TestStatsService_GetStats_CompleteShape(t *testing.T) {
	svc, m := setupStatsService(t)
	ctx := context.Background()
	account := &models.Account{ID: 42, Role: models.RoleDelegating}

	// Only email is provisioned; the rest must still appear as zeros
	entries := []*models.LedgerEntry{
		{OwnerID: 42, Module: models.ModuleEmail, Credits: 100, Used: 30},
	}
	m.uow.On("Begin", ctx).Return(nil)
	m.ledger.On("GetAllByOwner", ctx, int64(42)).Return(entries, nil)

	stats, err := svc.GetStats(ctx, account)

	require.NoError(t, err)
	require.Len(t, stats, len(models.AllModules()))
	assert.Equal(t, models.ModuleUsage{Credits: 100, Used: 30, Available: 70}, stats[models.ModuleEmail])
	assert.Equal(t, models.ModuleUsage{}, stats[models.ModuleUser])
	assert.Equal(t, models.ModuleUsage{}, stats[models.ModuleTask])
}

func TestStatsService_GetStats_PrivilegedSentinel(t *testing.T) {
	svc, m := setupStatsService(t)
	ctx := context.Background()
	account := &models.Account{ID: 1, Role: models.RolePrivileged}

	stats, err := svc.GetStats(ctx, account)

	require.NoError(t, err)
	require.Len(t, stats, len(models.AllModules()))
	for _, module := range models.AllModules() {
		assert.True(t, stats[module].Unlimited())
		assert.Equal(t, models.UnlimitedSentinel, stats[module].Credits)
	}
	m.uowFactory.AssertNotCalled(t, "Create")
}

func TestStatsService_GetStats_MemberSeesParentPool(t *testing.T) {
	svc, m := setupStatsService(t)
	ctx := context.Background()
	parentID := int64(7)
	account := &models.Account{ID: 42, Role: models.RoleMember, ParentID: &parentID}

	entries := []*models.LedgerEntry{
		{OwnerID: 7, Module: models.ModuleTask, Credits: 50, Used: 10},
	}
	m.uow.On("Begin", ctx).Return(nil)
	m.ledger.On("GetAllByOwner", ctx, int64(7)).Return(entries, nil)

	stats, err := svc.GetStats(ctx, account)

	require.NoError(t, err)
	assert.Equal(t, models.ModuleUsage{Credits: 50, Used: 10, Available: 40}, stats[models.ModuleTask])
}

func TestStatsService_GetStats_ShrunkCreditsClampAvailable(t *testing.T) {
	svc, m := setupStatsService(t)
	ctx := context.Background()
	account := &models.Account{ID: 42, Role: models.RoleDelegating}

	entries := []*models.LedgerEntry{
		{OwnerID: 42, Module: models.ModuleUser, Credits: 5, Used: 9},
	}
	m.uow.On("Begin", ctx).Return(nil)
	m.ledger.On("GetAllByOwner", ctx, int64(42)).Return(entries, nil)

	stats, err := svc.GetStats(ctx, account)

	require.NoError(t, err)
	assert.Equal(t, models.ModuleUsage{Credits: 5, Used: 9, Available: 0}, stats[models.ModuleUser])
}

func TestStatsService_GetUsageHistory(t *testing.T) {
	svc, m := setupStatsService(t)
	ctx := context.Background()
	account := &models.Account{ID: 42, Role: models.RoleDelegating}

	records := []*models.UsageRecord{
		{ID: 2, OwnerID: 42, Module: models.ModuleEmail, Operation: models.OperationConsume},
		{ID: 1, OwnerID: 42, Module: models.ModuleEmail, Operation: models.OperationGrant},
	}
	m.uow.On("Begin", ctx).Return(nil)
	m.usage.On("GetByOwner", ctx, int64(42), 10).Return(records, nil)

	got, err := svc.GetUsageHistory(ctx, account, 10)

	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestStatsService_GetUsageHistory_PrivilegedIsEmpty(t *testing.T) {
	svc, m := setupStatsService(t)
	ctx := context.Background()
	account := &models.Account{ID: 1, Role: models.RolePrivileged}

	got, err := svc.GetUsageHistory(ctx, account, 10)

	require.NoError(t, err)
	assert.Nil(t, got)
	m.uowFactory.AssertNotCalled(t, "Create")
}
