package services

import (
	"context"
	"fmt"
	"net/url"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"
	"kb-admin-client/internal/schema"
)

const (
	llmsPath            = "/api/v1/admin/llms"
	siteSettingsPath    = "/api/v1/admin/site-settings"
	bootstrapStatusPath = "/api/v1/system/bootstrap-status"
)

type LLMsClient struct {
	c *client.Client
}

func NewLLMsClient(c *client.Client) *LLMsClient {
	return &LLMsClient{c: c}
}

func (l *LLMsClient) List(ctx context.Context, params ListParams) (models.Page[models.LLM], error) {
	query, err := params.query()
	if err != nil {
		return models.Page[models.LLM]{}, err
	}
	return client.Get(ctx, l.c, llmsPath, client.BuildURLParams(query), schema.LLMPage)
}

func (l *LLMsClient) Get(ctx context.Context, id int) (models.LLM, error) {
	return client.Get(ctx, l.c, fmt.Sprintf("%s/%d", llmsPath, id), nil, schema.LLM)
}

type SiteSettingsClient struct {
	c *client.Client
}

func NewSiteSettingsClient(c *client.Client) *SiteSettingsClient {
	return &SiteSettingsClient{c: c}
}

func (s *SiteSettingsClient) List(ctx context.Context) (map[string]models.SiteSetting, error) {
	return client.Get(ctx, s.c, siteSettingsPath, nil, schema.SiteSettings)
}

// Update replaces the value of one setting. value is sent as arbitrary JSON.
func (s *SiteSettingsClient) Update(ctx context.Context, name string, value any) error {
	if name == "" {
		return fmt.Errorf("%w: setting name is required", client.ErrInvalidArgument)
	}
	body := map[string]any{"value": value}
	return client.PutNoContent(ctx, s.c, siteSettingsPath+"/"+url.PathEscape(name), body)
}

type SystemClient struct {
	c *client.Client
}

func NewSystemClient(c *client.Client) *SystemClient {
	return &SystemClient{c: c}
}

func (s *SystemClient) BootstrapStatus(ctx context.Context) (models.BootstrapStatus, error) {
	return client.Get(ctx, s.c, bootstrapStatusPath, nil, schema.BootstrapStatus)
}
