package services

import (
	"context"
	"fmt"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"
	"kb-admin-client/internal/schema"
)

const datasourcesPath = "/api/v1/admin/datasources"

type DatasourcesClient struct {
	c *client.Client
}

func NewDatasourcesClient(c *client.Client) *DatasourcesClient {
	return &DatasourcesClient{c: c}
}

func (d *DatasourcesClient) List(ctx context.Context, params ListParams) (models.Page[models.Datasource], error) {
	query, err := params.query()
	if err != nil {
		return models.Page[models.Datasource]{}, err
	}
	return client.Get(ctx, d.c, datasourcesPath, client.BuildURLParams(query), schema.DatasourcePage)
}

func (d *DatasourcesClient) Get(ctx context.Context, id int) (models.Datasource, error) {
	return client.Get(ctx, d.c, fmt.Sprintf("%s/%d", datasourcesPath, id), nil, schema.Datasource)
}

// Create registers a datasource. The returned value is the backend's record,
// validated like any other response.
func (d *DatasourcesClient) Create(ctx context.Context, params models.CreateDatasourceParams) (models.Datasource, error) {
	if params.Config == nil {
		return models.Datasource{}, fmt.Errorf("%w: datasource config is required", client.ErrInvalidArgument)
	}
	return client.Post(ctx, d.c, datasourcesPath, params, schema.Datasource)
}

func (d *DatasourcesClient) Delete(ctx context.Context, id int) error {
	return client.Delete(ctx, d.c, fmt.Sprintf("%s/%d", datasourcesPath, id))
}

// IndexProgressClient reads indexing progress of a datasource.
type IndexProgressClient struct {
	c *client.Client
}

func NewIndexProgressClient(c *client.Client) *IndexProgressClient {
	return &IndexProgressClient{c: c}
}

func (p *IndexProgressClient) Overview(ctx context.Context, datasourceID int) (models.DatasourceOverview, error) {
	return client.Get(ctx, p.c, fmt.Sprintf("%s/%d/overview", datasourcesPath, datasourceID), nil, schema.DatasourceOverview)
}

// RetryFailedTasks asks the backend to requeue the failed indexing tasks of a
// datasource.
func (p *IndexProgressClient) RetryFailedTasks(ctx context.Context, datasourceID int) error {
	return client.PostNoContent(ctx, p.c, fmt.Sprintf("%s/%d/retry-failed-tasks", datasourcesPath, datasourceID), nil)
}
