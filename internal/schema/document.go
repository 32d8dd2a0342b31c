package schema

import (
	"encoding/json"

	"kb-admin-client/internal/models"
)

type documentWire struct {
	ID             *int            `json:"id" validate:"required"`
	Name           *string         `json:"name" validate:"required"`
	CreatedAt      *Time           `json:"created_at" validate:"required"`
	UpdatedAt      *Time           `json:"updated_at" validate:"required"`
	LastModifiedAt *Time           `json:"last_modified_at" validate:"required"`
	Hash           *string         `json:"hash" validate:"required"`
	Content        *string         `json:"content" validate:"required"`
	Meta           map[string]any  `json:"meta"`
	MimeType       *string         `json:"mime_type" validate:"required"`
	SourceURI      *string         `json:"source_uri" validate:"required"`
	IndexStatus    *string         `json:"index_status" validate:"required"`
	IndexResult    json.RawMessage `json:"index_result"`
	DataSourceID   *int            `json:"data_source_id" validate:"required"`
}

// Document validates a single document payload.
var Document Schema[models.Document] = func(data []byte) (models.Document, error) {
	w, err := decodeObject[documentWire]("Document", data)
	if err != nil {
		return models.Document{}, err
	}

	doc := models.Document{
		ID:             *w.ID,
		Name:           *w.Name,
		Hash:           *w.Hash,
		Content:        *w.Content,
		Meta:           w.Meta,
		MimeType:       *w.MimeType,
		SourceURI:      *w.SourceURI,
		IndexStatus:    *w.IndexStatus,
		DataSourceID:   *w.DataSourceID,
		CreatedAt:      w.CreatedAt.Time,
		UpdatedAt:      w.UpdatedAt.Time,
		LastModifiedAt: w.LastModifiedAt.Time,
	}
	if !isNull(w.IndexResult) {
		doc.IndexResult = w.IndexResult
	}
	return doc, nil
}

// DocumentPage validates a page of documents.
var DocumentPage = PageOf(Document)
