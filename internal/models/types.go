package models

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Hash           string          `json:"hash"`
	Content        string          `json:"content"`
	Meta           map[string]any  `json:"meta,omitempty"`
	MimeType       string          `json:"mime_type"`
	SourceURI      string          `json:"source_uri"`
	IndexStatus    string          `json:"index_status"`
	IndexResult    json.RawMessage `json:"index_result,omitempty"`
	DataSourceID   int             `json:"data_source_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	LastModifiedAt time.Time       `json:"last_modified_at"`
}

type Upload struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Size      int64      `json:"size"`
	Path      string     `json:"path"`
	MimeType  string     `json:"mime_type"`
	UserID    string     `json:"user_id"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// FileHandle is one file submitted to the uploads endpoint.
type FileHandle struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Page is the pagination envelope returned by list endpoints. Page numbers are 1-indexed.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages,omitempty"`
}

type IndexProgress struct {
	NotStarted int `json:"not_started,omitempty"`
	Pending    int `json:"pending,omitempty"`
	Running    int `json:"running,omitempty"`
	Completed  int `json:"completed,omitempty"`
	Failed     int `json:"failed,omitempty"`
}

// Total is the number of items known to the stage.
func (p IndexProgress) Total() int {
	return p.NotStarted + p.Pending + p.Running + p.Completed + p.Failed
}

// Done reports whether nothing is left to process in the stage.
func (p IndexProgress) Done() bool {
	return p.NotStarted == 0 && p.Pending == 0 && p.Running == 0
}

type IndexTotalStats struct {
	Documents     int  `json:"documents"`
	Chunks        int  `json:"chunks"`
	Entities      *int `json:"entities,omitempty"`
	Relationships *int `json:"relationships,omitempty"`
}

type DatasourceOverview struct {
	IndexTotalStats
	VectorIndex IndexProgress  `json:"vector_index"`
	KGIndex     *IndexProgress `json:"kg_index,omitempty"`
}

type Chat struct {
	ID            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	EngineID      *int           `json:"engine_id,omitempty"`
	EngineOptions map[string]any `json:"engine_options,omitempty"`
	UserID        *uuid.UUID     `json:"user_id,omitempty"`
	BrowserID     string         `json:"browser_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty"`
}

type LLMProvider string

const (
	LLMProviderOpenAI          LLMProvider = "openai"
	LLMProviderGemini          LLMProvider = "gemini"
	LLMProviderAnthropicVertex LLMProvider = "anthropic_vertex"
	LLMProviderOpenAILike      LLMProvider = "openai_like"
	LLMProviderBedrock         LLMProvider = "bedrock"
)

type LLM struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Provider  LLMProvider    `json:"provider"`
	Model     string         `json:"model"`
	Config    map[string]any `json:"config,omitempty"`
	IsDefault bool           `json:"is_default"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SiteSetting is a named backend setting. Default and Value are arbitrary JSON.
type SiteSetting struct {
	Name        string          `json:"name"`
	Default     json.RawMessage `json:"default,omitempty"`
	Value       json.RawMessage `json:"value,omitempty"`
	DataType    string          `json:"data_type"`
	Description string          `json:"description"`
	Group       string          `json:"group"`
	Client      bool            `json:"client"`
}

type RequiredConfigStatus struct {
	DefaultLLM            bool `json:"default_llm"`
	DefaultEmbeddingModel bool `json:"default_embedding_model"`
	Datasource            bool `json:"datasource"`
}

type OptionalConfigStatus struct {
	Langfuse        bool `json:"langfuse"`
	DefaultReranker bool `json:"default_reranker"`
}

type BootstrapStatus struct {
	Required RequiredConfigStatus `json:"required"`
	Optional OptionalConfigStatus `json:"optional"`
}

// Ready reports whether every required component is configured.
func (s BootstrapStatus) Ready() bool {
	return s.Required.DefaultLLM && s.Required.DefaultEmbeddingModel && s.Required.Datasource
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// DocumentListResponse is a window of the local mirror.
type DocumentListResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

type SyncResponse struct {
	WorkflowID string `json:"workflow_id"`
}

type VectorCountResponse struct {
	DocumentID int    `json:"document_id"`
	Vectors    uint64 `json:"vectors"`
}

// SyncWorkflowName is the registered name of the mirror sync workflow.
const SyncWorkflowName = "MirrorSyncWorkflow"

type SyncRequest struct {
	SkipDatasources bool `json:"skip_datasources"`
	SkipDocuments   bool `json:"skip_documents"`
}

type SyncResult struct {
	Datasources int `json:"datasources"`
	Documents   int `json:"documents"`
	Pruned      int `json:"pruned"`
}

type SyncStatus struct {
	WorkflowID string     `json:"workflow_id"`
	RunID      string     `json:"run_id"`
	Status     string     `json:"status"`
	StartTime  *time.Time `json:"start_time,omitempty"`
	CloseTime  *time.Time `json:"close_time,omitempty"`
}
