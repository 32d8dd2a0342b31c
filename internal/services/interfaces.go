package services

import (
	"context"
	"io"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"

	"github.com/google/uuid"
)

// DocumentsClientInterface defines the document operations of the backend.
type DocumentsClientInterface interface {
	// List returns one page of documents matching params.
	List(ctx context.Context, params ListDocumentsParams) (models.Page[models.Document], error)

	// Get returns a single document. A missing id yields a 404 *client.HTTPError.
	Get(ctx context.Context, id int) (models.Document, error)

	// Delete removes a document.
	Delete(ctx context.Context, id int) error
}

// DatasourcesClientInterface defines the datasource operations of the backend.
type DatasourcesClientInterface interface {
	List(ctx context.Context, params ListParams) (models.Page[models.Datasource], error)
	Get(ctx context.Context, id int) (models.Datasource, error)
	Create(ctx context.Context, params models.CreateDatasourceParams) (models.Datasource, error)
	Delete(ctx context.Context, id int) error
}

// IndexProgressClientInterface reads and repairs indexing progress.
type IndexProgressClientInterface interface {
	Overview(ctx context.Context, datasourceID int) (models.DatasourceOverview, error)
	RetryFailedTasks(ctx context.Context, datasourceID int) error
}

// UploadsClientInterface sends files to the backend.
type UploadsClientInterface interface {
	UploadFiles(ctx context.Context, files []models.FileHandle) ([]models.Upload, error)
}

type ChatsClientInterface interface {
	List(ctx context.Context, params ListParams) (models.Page[models.Chat], error)
	Get(ctx context.Context, id uuid.UUID) (models.Chat, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LLMsClientInterface interface {
	List(ctx context.Context, params ListParams) (models.Page[models.LLM], error)
	Get(ctx context.Context, id int) (models.LLM, error)
}

type SiteSettingsClientInterface interface {
	List(ctx context.Context) (map[string]models.SiteSetting, error)
	Update(ctx context.Context, name string, value any) error
}

type SystemClientInterface interface {
	BootstrapStatus(ctx context.Context) (models.BootstrapStatus, error)
}

// VectorAuditorInterface defines the read-only vector store checks.
type VectorAuditorInterface interface {
	// Close closes the vector store connection.
	Close() error

	// CountDocumentVectors counts the vectors stored for a document.
	CountDocumentVectors(ctx context.Context, documentID int) (uint64, error)
}

// SyncSchedulerInterface defines the Temporal operations for mirror syncs.
type SyncSchedulerInterface interface {
	// Close closes the Temporal client connection.
	Close()

	// StartSyncWorkflow starts a mirror sync and returns its workflow ID.
	StartSyncWorkflow(ctx context.Context, req models.SyncRequest) (string, error)

	// QueryWorkflowStatus describes a sync workflow.
	QueryWorkflowStatus(ctx context.Context, workflowID string) (models.SyncStatus, error)

	// CancelWorkflow cancels a sync workflow.
	CancelWorkflow(ctx context.Context, workflowID string) error

	// HealthCheck checks the health of the Temporal service.
	HealthCheck(ctx context.Context) error
}

// ObjectSource lists and opens objects in an external store.
type ObjectSource interface {
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Backend groups the resource clients that share one *client.Client.
type Backend struct {
	Documents     DocumentsClientInterface
	Datasources   DatasourcesClientInterface
	IndexProgress IndexProgressClientInterface
	Uploads       UploadsClientInterface
	Chats         ChatsClientInterface
	LLMs          LLMsClientInterface
	SiteSettings  SiteSettingsClientInterface
	System        SystemClientInterface
}

func NewBackend(c *client.Client) *Backend {
	return &Backend{
		Documents:     NewDocumentsClient(c),
		Datasources:   NewDatasourcesClient(c),
		IndexProgress: NewIndexProgressClient(c),
		Uploads:       NewUploadsClient(c),
		Chats:         NewChatsClient(c),
		LLMs:          NewLLMsClient(c),
		SiteSettings:  NewSiteSettingsClient(c),
		System:        NewSystemClient(c),
	}
}

var (
	_ DocumentsClientInterface     = (*DocumentsClient)(nil)
	_ DatasourcesClientInterface   = (*DatasourcesClient)(nil)
	_ IndexProgressClientInterface = (*IndexProgressClient)(nil)
	_ UploadsClientInterface       = (*UploadsClient)(nil)
	_ ChatsClientInterface         = (*ChatsClient)(nil)
	_ LLMsClientInterface          = (*LLMsClient)(nil)
	_ SiteSettingsClientInterface  = (*SiteSettingsClient)(nil)
	_ SystemClientInterface        = (*SystemClient)(nil)
	_ VectorAuditorInterface       = (*VectorAuditor)(nil)
	_ SyncSchedulerInterface       = (*SyncScheduler)(nil)
	_ ObjectSource                 = (*S3Source)(nil)
)
