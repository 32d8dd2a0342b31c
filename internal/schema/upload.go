package schema

import "kb-admin-client/internal/models"

type uploadWire struct {
	ID        *int    `json:"id" validate:"required"`
	Name      *string `json:"name" validate:"required"`
	Size      *int64  `json:"size" validate:"required,gte=0"`
	Path      *string `json:"path" validate:"required"`
	MimeType  *string `json:"mime_type" validate:"required"`
	UserID    *string `json:"user_id" validate:"required"`
	CreatedAt *Time   `json:"created_at"`
	UpdatedAt *Time   `json:"updated_at"`
}

// Upload validates one upload record. Timestamps are absent on records the
// backend has not persisted yet.
var Upload Schema[models.Upload] = func(data []byte) (models.Upload, error) {
	w, err := decodeObject[uploadWire]("Upload", data)
	if err != nil {
		return models.Upload{}, err
	}
	return models.Upload{
		ID:        *w.ID,
		Name:      *w.Name,
		Size:      *w.Size,
		Path:      *w.Path,
		MimeType:  *w.MimeType,
		UserID:    *w.UserID,
		CreatedAt: timePtr(w.CreatedAt),
		UpdatedAt: timePtr(w.UpdatedAt),
	}, nil
}

// Uploads validates the list returned by a multi-file upload.
var Uploads = ArrayOf(Upload)
