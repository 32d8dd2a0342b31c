package mocks

import (
	"context"
	"io"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockDocumentsClient is a mock implementation of DocumentsClientInterface.
type MockDocumentsClient struct {
	mock.Mock
}

func NewMockDocumentsClient() *MockDocumentsClient {
	return &MockDocumentsClient{}
}

func (m *MockDocumentsClient) List(ctx context.Context, params services.ListDocumentsParams) (models.Page[models.Document], error) {
	args := m.Called(ctx, params)
	return args.Get(0).(models.Page[models.Document]), args.Error(1)
}

func (m *MockDocumentsClient) Get(ctx context.Context, id int) (models.Document, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Document), args.Error(1)
}

func (m *MockDocumentsClient) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDatasourcesClient is a mock implementation of DatasourcesClientInterface.
type MockDatasourcesClient struct {
	mock.Mock
}

func NewMockDatasourcesClient() *MockDatasourcesClient {
	return &MockDatasourcesClient{}
}

func (m *MockDatasourcesClient) List(ctx context.Context, params services.ListParams) (models.Page[models.Datasource], error) {
	args := m.Called(ctx, params)
	return args.Get(0).(models.Page[models.Datasource]), args.Error(1)
}

func (m *MockDatasourcesClient) Get(ctx context.Context, id int) (models.Datasource, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Datasource), args.Error(1)
}

func (m *MockDatasourcesClient) Create(ctx context.Context, params models.CreateDatasourceParams) (models.Datasource, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(models.Datasource), args.Error(1)
}

func (m *MockDatasourcesClient) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIndexProgressClient is a mock implementation of IndexProgressClientInterface.
type MockIndexProgressClient struct {
	mock.Mock
}

func NewMockIndexProgressClient() *MockIndexProgressClient {
	return &MockIndexProgressClient{}
}

func (m *MockIndexProgressClient) Overview(ctx context.Context, datasourceID int) (models.DatasourceOverview, error) {
	args := m.Called(ctx, datasourceID)
	return args.Get(0).(models.DatasourceOverview), args.Error(1)
}

func (m *MockIndexProgressClient) RetryFailedTasks(ctx context.Context, datasourceID int) error {
	args := m.Called(ctx, datasourceID)
	return args.Error(0)
}

// MockUploadsClient is a mock implementation of UploadsClientInterface.
type MockUploadsClient struct {
	mock.Mock
}

func NewMockUploadsClient() *MockUploadsClient {
	return &MockUploadsClient{}
}

func (m *MockUploadsClient) UploadFiles(ctx context.Context, files []models.FileHandle) ([]models.Upload, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Upload), args.Error(1)
}

// MockChatsClient is a mock implementation of ChatsClientInterface.
type MockChatsClient struct {
	mock.Mock
}

func NewMockChatsClient() *MockChatsClient {
	return &MockChatsClient{}
}

func (m *MockChatsClient) List(ctx context.Context, params services.ListParams) (models.Page[models.Chat], error) {
	args := m.Called(ctx, params)
	return args.Get(0).(models.Page[models.Chat]), args.Error(1)
}

func (m *MockChatsClient) Get(ctx context.Context, id uuid.UUID) (models.Chat, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Chat), args.Error(1)
}

func (m *MockChatsClient) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLLMsClient is a mock implementation of LLMsClientInterface.
type MockLLMsClient struct {
	mock.Mock
}

func NewMockLLMsClient() *MockLLMsClient {
	return &MockLLMsClient{}
}

func (m *MockLLMsClient) List(ctx context.Context, params services.ListParams) (models.Page[models.LLM], error) {
	args := m.Called(ctx, params)
	return args.Get(0).(models.Page[models.LLM]), args.Error(1)
}

func (m *MockLLMsClient) Get(ctx context.Context, id int) (models.LLM, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.LLM), args.Error(1)
}

// MockSiteSettingsClient is a mock implementation of SiteSettingsClientInterface.
type MockSiteSettingsClient struct {
	mock.Mock
}

func NewMockSiteSettingsClient() *MockSiteSettingsClient {
	return &MockSiteSettingsClient{}
}

func (m *MockSiteSettingsClient) List(ctx context.Context) (map[string]models.SiteSetting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.SiteSetting), args.Error(1)
}

func (m *MockSiteSettingsClient) Update(ctx context.Context, name string, value any) error {
	args := m.Called(ctx, name, value)
	return args.Error(0)
}

// MockSystemClient is a mock implementation of SystemClientInterface.
type MockSystemClient struct {
	mock.Mock
}

func NewMockSystemClient() *MockSystemClient {
	return &MockSystemClient{}
}

func (m *MockSystemClient) BootstrapStatus(ctx context.Context) (models.BootstrapStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.BootstrapStatus), args.Error(1)
}

// MockVectorAuditor is a mock implementation of VectorAuditorInterface.
type MockVectorAuditor struct {
	mock.Mock
}

func NewMockVectorAuditor() *MockVectorAuditor {
	return &MockVectorAuditor{}
}

func (m *MockVectorAuditor) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockVectorAuditor) CountDocumentVectors(ctx context.Context, documentID int) (uint64, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(uint64), args.Error(1)
}

// MockSyncScheduler is a mock implementation of SyncSchedulerInterface.
type MockSyncScheduler struct {
	mock.Mock
}

func NewMockSyncScheduler() *MockSyncScheduler {
	return &MockSyncScheduler{}
}

func (m *MockSyncScheduler) Close() {
	m.Called()
}

func (m *MockSyncScheduler) StartSyncWorkflow(ctx context.Context, req models.SyncRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockSyncScheduler) QueryWorkflowStatus(ctx context.Context, workflowID string) (models.SyncStatus, error) {
	args := m.Called(ctx, workflowID)
	return args.Get(0).(models.SyncStatus), args.Error(1)
}

func (m *MockSyncScheduler) CancelWorkflow(ctx context.Context, workflowID string) error {
	args := m.Called(ctx, workflowID)
	return args.Error(0)
}

func (m *MockSyncScheduler) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockObjectSource is a mock implementation of ObjectSource.
type MockObjectSource struct {
	mock.Mock
}

func NewMockObjectSource() *MockObjectSource {
	return &MockObjectSource{}
}

func (m *MockObjectSource) List(ctx context.Context, prefix string) ([]services.ObjectInfo, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.ObjectInfo), args.Error(1)
}

func (m *MockObjectSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

var (
	_ services.DocumentsClientInterface     = (*MockDocumentsClient)(nil)
	_ services.DatasourcesClientInterface   = (*MockDatasourcesClient)(nil)
	_ services.IndexProgressClientInterface = (*MockIndexProgressClient)(nil)
	_ services.UploadsClientInterface       = (*MockUploadsClient)(nil)
	_ services.ChatsClientInterface         = (*MockChatsClient)(nil)
	_ services.LLMsClientInterface          = (*MockLLMsClient)(nil)
	_ services.SiteSettingsClientInterface  = (*MockSiteSettingsClient)(nil)
	_ services.SystemClientInterface        = (*MockSystemClient)(nil)
	_ services.VectorAuditorInterface       = (*MockVectorAuditor)(nil)
	_ services.SyncSchedulerInterface       = (*MockSyncScheduler)(nil)
	_ services.ObjectSource                 = (*MockObjectSource)(nil)
)
