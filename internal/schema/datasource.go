package schema

import (
	"encoding/json"
	"fmt"

	"kb-admin-client/internal/models"
)

type datasourceWire struct {
	ID             *int            `json:"id" validate:"required"`
	Name           *string         `json:"name" validate:"required"`
	Description    *string         `json:"description" validate:"required"`
	UserID         *string         `json:"user_id" validate:"required"`
	BuildKGIndex   *bool           `json:"build_kg_index" validate:"required"`
	LLMID          *int            `json:"llm_id"`
	DataSourceType *string         `json:"data_source_type" validate:"required,oneof=file web_sitemap web_single_page"`
	Config         json.RawMessage `json:"config"`
	CreatedAt      *Time           `json:"created_at" validate:"required"`
	UpdatedAt      *Time           `json:"updated_at" validate:"required"`
}

type fileRefWire struct {
	FileID   *int    `json:"file_id" validate:"required"`
	FileName *string `json:"file_name" validate:"required"`
}

type webSitemapWire struct {
	URL *string `json:"url" validate:"required"`
}

// webSinglePageWire accepts both the current {urls} shape and the legacy
// single {url} shape.
type webSinglePageWire struct {
	URLs []string `json:"urls"`
	URL  *string  `json:"url"`
}

// Datasource validates a datasource payload. The data_source_type field
// selects the config shape; an unknown type or a config that does not match
// its type fails the whole payload.
var Datasource Schema[models.Datasource] = func(data []byte) (models.Datasource, error) {
	w, err := decodeObject[datasourceWire]("Datasource", data)
	if err != nil {
		return models.Datasource{}, err
	}

	cfg, issues := datasourceConfig(models.DatasourceType(*w.DataSourceType), w.Config)
	if len(issues) > 0 {
		return models.Datasource{}, invalid("Datasource", issues...)
	}

	return models.Datasource{
		ID:           *w.ID,
		Name:         *w.Name,
		Description:  *w.Description,
		UserID:       *w.UserID,
		BuildKGIndex: *w.BuildKGIndex,
		LLMID:        w.LLMID,
		Config:       cfg,
		CreatedAt:    w.CreatedAt.Time,
		UpdatedAt:    w.UpdatedAt.Time,
	}, nil
}

// DatasourcePage validates a page of datasources.
var DatasourcePage = PageOf(Datasource)

type createDatasourceWire struct {
	Name           *string         `json:"name" validate:"required"`
	Description    *string         `json:"description"`
	BuildKGIndex   *bool           `json:"build_kg_index"`
	LLMID          *int            `json:"llm_id"`
	DataSourceType *string         `json:"data_source_type" validate:"required,oneof=file web_sitemap web_single_page"`
	Config         json.RawMessage `json:"config"`
}

// CreateDatasourceParams validates a datasource creation request body.
var CreateDatasourceParams Schema[models.CreateDatasourceParams] = func(data []byte) (models.CreateDatasourceParams, error) {
	w, err := decodeObject[createDatasourceWire]("CreateDatasourceParams", data)
	if err != nil {
		return models.CreateDatasourceParams{}, err
	}

	cfg, issues := datasourceConfig(models.DatasourceType(*w.DataSourceType), w.Config)
	if len(issues) > 0 {
		return models.CreateDatasourceParams{}, invalid("CreateDatasourceParams", issues...)
	}

	return models.CreateDatasourceParams{
		Name:         *w.Name,
		Description:  deref(w.Description),
		BuildKGIndex: deref(w.BuildKGIndex),
		LLMID:        w.LLMID,
		Config:       cfg,
	}, nil
}

// DatasourceConfig decodes a stored config for the given discriminant.
func DatasourceConfig(t models.DatasourceType, raw []byte) (models.DatasourceConfig, error) {
	cfg, issues := datasourceConfig(t, raw)
	if len(issues) > 0 {
		return nil, invalid("DatasourceConfig", issues...)
	}
	return cfg, nil
}

func datasourceConfig(t models.DatasourceType, raw json.RawMessage) (models.DatasourceConfig, []Issue) {
	if isNull(raw) {
		return nil, []Issue{{Path: "config", Message: "required"}}
	}

	switch t {
	case models.DatasourceTypeFile:
		return fileConfig(raw)
	case models.DatasourceTypeWebSitemap:
		w, err := decodeObject[webSitemapWire]("web_sitemap config", raw)
		if err != nil {
			return nil, prefixed("config", err)
		}
		return models.WebSitemapConfig{URL: *w.URL}, nil
	case models.DatasourceTypeWebSinglePage:
		return webSinglePageConfig(raw)
	default:
		return nil, []Issue{{
			Path:    "data_source_type",
			Message: fmt.Sprintf("unsupported datasource type %q", t),
		}}
	}
}

func fileConfig(raw json.RawMessage) (models.DatasourceConfig, []Issue) {
	elems, err := decodeArray("file config", raw)
	if err != nil {
		return nil, prefixed("config", err)
	}

	files := make([]models.FileRef, 0, len(elems))
	var issues []Issue
	for i, elem := range elems {
		ref, err := decodeObject[fileRefWire]("file reference", elem)
		if err != nil {
			_, issues = collect(err, fmt.Sprintf("config[%d]", i), "", issues)
			continue
		}
		files = append(files, models.FileRef{FileID: *ref.FileID, FileName: *ref.FileName})
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return models.FileConfig{Files: files}, nil
}

// webSinglePageConfig normalizes the legacy {url} shape into {urls: [url]}.
// This is the only place that knows about the legacy shape.
func webSinglePageConfig(raw json.RawMessage) (models.DatasourceConfig, []Issue) {
	w, err := decodeObject[webSinglePageWire]("web_single_page config", raw)
	if err != nil {
		return nil, prefixed("config", err)
	}
	switch {
	case w.URLs != nil:
		return models.WebSinglePageConfig{URLs: w.URLs}, nil
	case w.URL != nil:
		return models.WebSinglePageConfig{URLs: []string{*w.URL}}, nil
	default:
		return nil, []Issue{{Path: "config.urls", Message: "required"}}
	}
}

func prefixed(prefix string, err error) []Issue {
	_, issues := collect(err, prefix, "", nil)
	return issues
}
