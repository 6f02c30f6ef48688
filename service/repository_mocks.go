package service

import (
	"context"
	"time"

	"creditmeter/events"
	"creditmeter/models"

	"github.com/stretchr/testify/mock"
)

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Get(ctx context.Context, ownerID int64, module models.Module) (*models.LedgerEntry, error) {
	args := m.Called(ctx, ownerID, module)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) GetAllByOwner(ctx context.Context, ownerID int64) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Consume(ctx context.Context, ownerID int64, module models.Module, amount int64) (*models.LedgerEntry, bool, error) {
	args := m.Called(ctx, ownerID, module, amount)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.LedgerEntry), args.Bool(1), args.Error(2)
}

func (m *MockLedgerRepository) Release(ctx context.Context, ownerID int64, module models.Module, amount int64) (*models.LedgerEntry, int64, error) {
	args := m.Called(ctx, ownerID, module, amount)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(*models.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) Grant(ctx context.Context, ownerID int64, module models.Module, newCredits int64) (*models.LedgerEntry, error) {
	args := m.Called(ctx, ownerID, module, newCredits)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) DeleteByOwner(ctx context.Context, ownerID int64) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// MockUsageRecordRepository is a mock implementation of UsageRecordRepository
type MockUsageRecordRepository struct {
	mock.Mock
}

func (m *MockUsageRecordRepository) Record(ctx context.Context, record *models.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUsageRecordRepository) GetByOwner(ctx context.Context, ownerID int64, limit int) ([]*models.UsageRecord, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UsageRecord), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	ledgerRepo      LedgerRepository
	usageRecordRepo UsageRecordRepository
	eventBus        EventPublisher
}

// SetRepositories wires the mocked repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(ledger LedgerRepository, usage UsageRecordRepository, bus EventPublisher) {
	m.ledgerRepo = ledger
	m.usageRecordRepo = usage
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) LedgerRepository() LedgerRepository {
	return m.ledgerRepo
}

func (m *MockUnitOfWork) UsageRecordRepository() UsageRecordRepository {
	return m.usageRecordRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockMetricsRecorder is a mock implementation of MetricsRecorder
type MockMetricsRecorder struct {
	mock.Mock
}

func (m *MockMetricsRecorder) RecordConsume(ctx context.Context, module models.Module, amount int64) {
	m.Called(ctx, module, amount)
}

func (m *MockMetricsRecorder) RecordRejection(ctx context.Context, module models.Module) {
	m.Called(ctx, module)
}

func (m *MockMetricsRecorder) RecordRelease(ctx context.Context, module models.Module, amount int64) {
	m.Called(ctx, module, amount)
}

func (m *MockMetricsRecorder) RecordGrant(ctx context.Context, module models.Module) {
	m.Called(ctx, module)
}

func (m *MockMetricsRecorder) RecordLockTimeout(ctx context.Context, module models.Module) {
	m.Called(ctx, module)
}

func (m *MockMetricsRecorder) RecordDuration(ctx context.Context, module models.Module, operation models.OperationType, elapsed time.Duration) {
	m.Called(ctx, module, operation, elapsed)
}
