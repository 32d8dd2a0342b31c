package mocks

import (
	"context"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of the Repository interface.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a new MockRepository instance.
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

func (m *MockRepository) UpsertDocument(ctx context.Context, doc *models.Document, generation int64) error {
	args := m.Called(ctx, doc, generation)
	return args.Error(0)
}

func (m *MockRepository) GetDocument(ctx context.Context, id int) (*models.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockRepository) ListDocuments(ctx context.Context, limit, offset int, statusFilter string) ([]*models.Document, int, error) {
	args := m.Called(ctx, limit, offset, statusFilter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Document), args.Int(1), args.Error(2)
}

func (m *MockRepository) DeleteDocument(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) PruneDocuments(ctx context.Context, generation int64) (int, error) {
	args := m.Called(ctx, generation)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) UpsertDatasource(ctx context.Context, ds *models.Datasource, generation int64) error {
	args := m.Called(ctx, ds, generation)
	return args.Error(0)
}

func (m *MockRepository) ListDatasources(ctx context.Context) ([]*models.Datasource, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Datasource), args.Error(1)
}

func (m *MockRepository) PruneDatasources(ctx context.Context, generation int64) (int, error) {
	args := m.Called(ctx, generation)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ repository.Repository = (*MockRepository)(nil)
