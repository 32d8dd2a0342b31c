package models

import (
	"encoding/json"
	"time"
)

type DatasourceType string

const (
	DatasourceTypeFile          DatasourceType = "file"
	DatasourceTypeWebSitemap    DatasourceType = "web_sitemap"
	DatasourceTypeWebSinglePage DatasourceType = "web_single_page"
)

// DatasourceConfig is the variant part of a Datasource. The discriminant is
// always derived from the concrete config, so type and shape cannot disagree.
// Implemented only by FileConfig, WebSitemapConfig and WebSinglePageConfig.
type DatasourceConfig interface {
	Type() DatasourceType
	isDatasourceConfig()
}

type FileRef struct {
	FileID   int    `json:"file_id"`
	FileName string `json:"file_name"`
}

// FileConfig is encoded on the wire as a bare list of file references.
type FileConfig struct {
	Files []FileRef
}

func (FileConfig) Type() DatasourceType { return DatasourceTypeFile }
func (FileConfig) isDatasourceConfig()  {}

func (c FileConfig) MarshalJSON() ([]byte, error) {
	files := c.Files
	if files == nil {
		files = []FileRef{}
	}
	return json.Marshal(files)
}

type WebSitemapConfig struct {
	URL string `json:"url"`
}

func (WebSitemapConfig) Type() DatasourceType { return DatasourceTypeWebSitemap }
func (WebSitemapConfig) isDatasourceConfig()  {}

type WebSinglePageConfig struct {
	URLs []string `json:"urls"`
}

func (WebSinglePageConfig) Type() DatasourceType { return DatasourceTypeWebSinglePage }
func (WebSinglePageConfig) isDatasourceConfig()  {}

type Datasource struct {
	ID           int
	Name         string
	Description  string
	UserID       string
	BuildKGIndex bool
	LLMID        *int
	Config       DatasourceConfig
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Type returns the discriminant of the datasource's config.
func (d Datasource) Type() DatasourceType {
	if d.Config == nil {
		return ""
	}
	return d.Config.Type()
}

type datasourceJSON struct {
	ID             int              `json:"id"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	UserID         string           `json:"user_id"`
	BuildKGIndex   bool             `json:"build_kg_index"`
	LLMID          *int             `json:"llm_id,omitempty"`
	DataSourceType DatasourceType   `json:"data_source_type"`
	Config         DatasourceConfig `json:"config"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (d Datasource) MarshalJSON() ([]byte, error) {
	return json.Marshal(datasourceJSON{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		UserID:         d.UserID,
		BuildKGIndex:   d.BuildKGIndex,
		LLMID:          d.LLMID,
		DataSourceType: d.Type(),
		Config:         d.Config,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	})
}

// CreateDatasourceParams is the request body for creating a datasource.
type CreateDatasourceParams struct {
	Name         string
	Description  string
	BuildKGIndex bool
	LLMID        *int
	Config       DatasourceConfig
}

type createDatasourceJSON struct {
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	BuildKGIndex   bool             `json:"build_kg_index"`
	LLMID          *int             `json:"llm_id,omitempty"`
	DataSourceType DatasourceType   `json:"data_source_type"`
	Config         DatasourceConfig `json:"config"`
}

func (p CreateDatasourceParams) MarshalJSON() ([]byte, error) {
	body := createDatasourceJSON{
		Name:         p.Name,
		Description:  p.Description,
		BuildKGIndex: p.BuildKGIndex,
		LLMID:        p.LLMID,
		Config:       p.Config,
	}
	if p.Config != nil {
		body.DataSourceType = p.Config.Type()
	}
	return json.Marshal(body)
}
