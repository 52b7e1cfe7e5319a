package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
)

// MockInventoryClient is a mock implementation of ports.InventoryClient
type MockInventoryClient struct {
	mock.Mock
}

func (m *MockInventoryClient) Type() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockInventoryClient) ListRecords(ctx context.Context, account domain.Account) ([]domain.SourcedRecord, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourcedRecord), args.Error(1)
}

// MockAccountSource is a mock implementation of ports.AccountSource
type MockAccountSource struct {
	mock.Mock
}

func (m *MockAccountSource) Accounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

// MockCatalogSink is a mock implementation of ports.CatalogSink
type MockCatalogSink struct {
	mock.Mock
}

func (m *MockCatalogSink) Type() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCatalogSink) ApplyMutation(ctx context.Context, mutation domain.Mutation) error {
	args := m.Called(ctx, mutation)
	return args.Error(0)
}

// MockTickRecorder is a mock implementation of ports.TickRecorder
type MockTickRecorder struct {
	mock.Mock
}

func (m *MockTickRecorder) ObserveTick(result domain.TickResult) {
	m.Called(result)
}

// MockEntityProvider is a mock implementation of ports.EntityProvider
type MockEntityProvider struct {
	mock.Mock
}

func (m *MockEntityProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockEntityProvider) Tick(ctx context.Context) domain.TickResult {
	args := m.Called(ctx)
	return args.Get(0).(domain.TickResult)
}
