package service

import (
	"context"
	"testing"

	"creditmeter/events"
	"creditmeter/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupGrantService(t *testing.T) (GrantService, *quotaServiceMocks) {
	t.Helper()

	m := &quotaServiceMocks{
		uowFactory: new(MockUnitOfWorkFactory),
		uow:        new(MockUnitOfWork),
		ledger:     new(MockLedgerRepository),
		usage:      new(MockUsageRecordRepository),
		bus:        new(MockEventPublisher),
		metrics:    new(MockMetricsRecorder),
	}
	m.uow.SetRepositories(m.ledger, m.usage, m.bus)
	m.uowFactory.On("Create").Return(m.uow).Maybe()
	m.uow.On("Rollback").Return(nil).Maybe()

	return NewGrantService(m.uowFactory, m.metrics), m
}

func TestGrantService_Grant_NewOwner(t *testing.T) {
	svc, m := setupGrantService(t)
	ctx := context.Background()

	granted := &models.LedgerEntry{OwnerID: 42, Module: models.ModuleEmail, Credits: 100, Used: 0}
	m.uow.On("Begin", ctx).Return(nil)
	m.ledger.On("Get", ctx, int64(42), models.ModuleEmail).Return(models.ZeroLedgerEntry(42, models.ModuleEmail), nil)
	m.ledger.On("Grant", ctx, int64(42), models.ModuleEmail, int64(100)).Return(granted, nil)
	m.usage.On("Record", ctx, mock.MatchedBy(func(r *models.UsageRecord) bool {
		return r.Operation == models.OperationGrant &&
			r.Amount == 100 &&
			r.Credits == 100 &&
			r.Metadata["old_credits"] == int64(0)
	})).Return(nil)
	m.bus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		g, ok := e.(events.CreditsGrantedEvent)
		return ok && g.OldCredits == 0 && g.NewCredits == 100
	})).Return()
	m.uow.On("Commit").Return(nil)
	m.metrics.On("RecordGrant", ctx, models.ModuleEmail).Return()
	m.metrics.On("RecordDuration", ctx, models.ModuleEmail, models.OperationGrant, mock.AnythingOfType("time.Duration")).Return()

	entry, err := svc.Grant(ctx, 42, models.ModuleEmail, 100)

	require.NoError(t, err)
	assert.Equal(t, int64(100), entry.Credits)
	assert.Equal(t, int64(0), entry.Used)
	m.assertExpectations(t)
}

func TestGrantService_Grant_ShrinkBelowUsed(t *testing.T) {
	svc, m := setupGrantService(t)
	ctx := context.Background()

	previous := &models.LedgerEntry{OwnerID: 42, Module: models.ModuleEmail, Credits: 100, Used: 60}
	shrunk := &models.LedgerEntry{OwnerID: 42, Module: models.ModuleEmail, Credits: 40, Used: 60}
	m.uow.On("Begin", ctx).Return(nil)
	m.ledger.On("Get", ctx, int64(42), models.ModuleEmail).Return(previous, nil)
	m.ledger.On("Grant", ctx, int64(42), models.ModuleEmail, int64(40)).Return(shrunk, nil)
	m.usage.On("Record", ctx, mock.MatchedBy(func(r *models.UsageRecord) bool {
		// Consumption is never adjusted by a grant
		return r.Operation == models.OperationGrant &&
			r.Amount == -60 &&
			r.UsedBefore == 60 &&
			r.UsedAfter == 60
	})).Return(nil)
	m.bus.On("Publish", mock.AnythingOfType("events.CreditsGrantedEvent")).Return()
	m.uow.On("Commit").Return(nil)
	m.metrics.On("RecordGrant", ctx, models.ModuleEmail).Return()
	m.metrics.On("RecordDuration", ctx, models.ModuleEmail, models.OperationGrant, mock.AnythingOfType("time.Duration")).Return()

	entry, err := svc.Grant(ctx, 42, models.ModuleEmail, 40)

	require.NoError(t, err)
	assert.Equal(t, int64(40), entry.Credits)
	assert.Equal(t, int64(60), entry.Used)
	assert.Equal(t, int64(0), entry.Available())
	m.assertExpectations(t)
}

func TestGrantService_Grant_Validation(t *testing.T) {
	svc, m := setupGrantService(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, 42, models.Module("bogus"), 100)
	assert.Error(t, err)

	_, err = svc.Grant(ctx, 42, models.ModuleEmail, -1)
	assert.Error(t, err)

	m.uowFactory.AssertNotCalled(t, "Create")
}

func TestGrantService_RemoveOwner(t *testing.T) {
	svc, m := setupGrantService(t)
	ctx := context.Background()

	m.uow.On("Begin", ctx).Return(nil)
	m.ledger.On("DeleteByOwner", ctx, int64(42)).Return(nil)
	m.uow.On("Commit").Return(nil)

	err := svc.RemoveOwner(ctx, 42)

	require.NoError(t, err)
	m.assertExpectations(t)
}
