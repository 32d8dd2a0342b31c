package repository

import (
	"context"

	"kb-admin-client/internal/models"
)

// DocumentRepository stores the local snapshot of backend documents. Every
// upsert is stamped with the generation of the sync that wrote it, so rows a
// later sync did not see can be pruned.
type DocumentRepository interface {
	UpsertDocument(ctx context.Context, doc *models.Document, generation int64) error
	GetDocument(ctx context.Context, id int) (*models.Document, error)
	ListDocuments(ctx context.Context, limit, offset int, statusFilter string) ([]*models.Document, int, error)
	DeleteDocument(ctx context.Context, id int) error
	PruneDocuments(ctx context.Context, generation int64) (int, error)
}

type DatasourceRepository interface {
	UpsertDatasource(ctx context.Context, ds *models.Datasource, generation int64) error
	ListDatasources(ctx context.Context) ([]*models.Datasource, error)
	PruneDatasources(ctx context.Context, generation int64) (int, error)
}

type Repository interface {
	DocumentRepository
	DatasourceRepository
	Close() error
}
