package services

import (
	"context"
	"fmt"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"
	"kb-admin-client/internal/schema"
)

const documentsPath = "/api/v1/admin/documents"

// ListDocumentsParams filters the document list. Empty filters are not sent.
type ListDocumentsParams struct {
	ListParams
	Query        string
	DataSourceID *int
	IndexStatus  string
	MimeType     string
}

type DocumentsClient struct {
	c *client.Client
}

func NewDocumentsClient(c *client.Client) *DocumentsClient {
	return &DocumentsClient{c: c}
}

func (d *DocumentsClient) List(ctx context.Context, params ListDocumentsParams) (models.Page[models.Document], error) {
	query, err := params.query()
	if err != nil {
		return models.Page[models.Document]{}, err
	}
	query["search"] = optional(params.Query)
	query["data_source_id"] = params.DataSourceID
	query["index_status"] = optional(params.IndexStatus)
	query["mime_type"] = optional(params.MimeType)

	return client.Get(ctx, d.c, documentsPath, client.BuildURLParams(query), schema.DocumentPage)
}

func (d *DocumentsClient) Get(ctx context.Context, id int) (models.Document, error) {
	return client.Get(ctx, d.c, fmt.Sprintf("%s/%d", documentsPath, id), nil, schema.Document)
}

func (d *DocumentsClient) Delete(ctx context.Context, id int) error {
	return client.Delete(ctx, d.c, fmt.Sprintf("%s/%d", documentsPath, id))
}
