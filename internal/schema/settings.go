package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"kb-admin-client/internal/models"
)

type llmWire struct {
	ID        *int           `json:"id" validate:"required"`
	Name      *string        `json:"name" validate:"required"`
	Provider  *string        `json:"provider" validate:"required,oneof=openai gemini anthropic_vertex openai_like bedrock"`
	Model     *string        `json:"model" validate:"required"`
	Config    map[string]any `json:"config"`
	IsDefault *bool          `json:"is_default"`
	CreatedAt *Time          `json:"created_at"`
	UpdatedAt *Time          `json:"updated_at"`
}

// LLM validates a language model reference.
var LLM Schema[models.LLM] = func(data []byte) (models.LLM, error) {
	w, err := decodeObject[llmWire]("LLM", data)
	if err != nil {
		return models.LLM{}, err
	}
	return models.LLM{
		ID:        *w.ID,
		Name:      *w.Name,
		Provider:  models.LLMProvider(*w.Provider),
		Model:     *w.Model,
		Config:    w.Config,
		IsDefault: deref(w.IsDefault),
		CreatedAt: timeOrZero(w.CreatedAt),
		UpdatedAt: timeOrZero(w.UpdatedAt),
	}, nil
}

var LLMPage = PageOf(LLM)

type settingWire struct {
	Name        *string         `json:"name"`
	Default     json.RawMessage `json:"default"`
	Value       json.RawMessage `json:"value"`
	DataType    *string         `json:"data_type" validate:"required"`
	Description *string         `json:"description" validate:"required"`
	Group       *string         `json:"group" validate:"required"`
	Client      *bool           `json:"client"`
}

// SiteSettings validates the settings map keyed by setting name. A setting
// without an embedded name takes its key.
var SiteSettings Schema[map[string]models.SiteSetting] = func(data []byte) (map[string]models.SiteSetting, error) {
	trimmed := bytes.TrimSpace(data)
	var raw map[string]json.RawMessage
	if describeJSON(trimmed) != "object" {
		return nil, invalid("SiteSettings", Issue{Message: "expected object, received " + describeJSON(trimmed)})
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, invalid("SiteSettings", decodeIssue(err))
	}

	settings := make(map[string]models.SiteSetting, len(raw))
	var issues []Issue
	for key, value := range raw {
		w, err := decodeObject[settingWire]("SiteSetting", value)
		if err != nil {
			_, issues = collect(err, key, "", issues)
			continue
		}
		if w.Name != nil && *w.Name != "" && *w.Name != key {
			issues = append(issues, Issue{Path: key + ".name", Message: fmt.Sprintf("does not match key, received %q", *w.Name)})
			continue
		}
		setting := models.SiteSetting{
			Name:        key,
			DataType:    *w.DataType,
			Description: *w.Description,
			Group:       *w.Group,
			Client:      deref(w.Client),
		}
		if !isNull(w.Default) {
			setting.Default = w.Default
		}
		if !isNull(w.Value) {
			setting.Value = w.Value
		}
		settings[key] = setting
	}
	if len(issues) > 0 {
		return nil, invalid("SiteSettings", issues...)
	}
	return settings, nil
}

type bootstrapWire struct {
	Required *struct {
		DefaultLLM            *bool `json:"default_llm" validate:"required"`
		DefaultEmbeddingModel *bool `json:"default_embedding_model" validate:"required"`
		Datasource            *bool `json:"datasource" validate:"required"`
	} `json:"required" validate:"required"`
	Optional *struct {
		Langfuse        *bool `json:"langfuse"`
		DefaultReranker *bool `json:"default_reranker"`
	} `json:"optional"`
}

// BootstrapStatus validates the backend's configuration readiness report.
var BootstrapStatus Schema[models.BootstrapStatus] = func(data []byte) (models.BootstrapStatus, error) {
	w, err := decodeObject[bootstrapWire]("BootstrapStatus", data)
	if err != nil {
		return models.BootstrapStatus{}, err
	}
	status := models.BootstrapStatus{
		Required: models.RequiredConfigStatus{
			DefaultLLM:            *w.Required.DefaultLLM,
			DefaultEmbeddingModel: *w.Required.DefaultEmbeddingModel,
			Datasource:            *w.Required.Datasource,
		},
	}
	if w.Optional != nil {
		status.Optional = models.OptionalConfigStatus{
			Langfuse:        deref(w.Optional.Langfuse),
			DefaultReranker: deref(w.Optional.DefaultReranker),
		}
	}
	return status, nil
}
