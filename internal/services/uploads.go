package services

import (
	"context"
	"fmt"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"
	"kb-admin-client/internal/schema"
)

const uploadsPath = "/api/v1/admin/uploads"

type UploadsClient struct {
	c *client.Client
}

func NewUploadsClient(c *client.Client) *UploadsClient {
	return &UploadsClient{c: c}
}

// UploadFiles sends files as one multipart request. The returned records are
// in the order the backend reports them, which need not match files. Names
// must be unique so the records can be correlated by name.
func (u *UploadsClient) UploadFiles(ctx context.Context, files []models.FileHandle) ([]models.Upload, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one file is required", client.ErrInvalidArgument)
	}
	seen := make(map[string]bool, len(files))
	for i, f := range files {
		if f.Name == "" || f.Body == nil {
			return nil, fmt.Errorf("%w: file %d needs a name and a body", client.ErrInvalidArgument, i)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: file name %q appears more than once", client.ErrInvalidArgument, f.Name)
		}
		seen[f.Name] = true
	}
	return client.PostFiles(ctx, u.c, uploadsPath, "files", files, schema.Uploads)
}

// UploadsByName indexes upload records by file name. Names that appear more
// than once cannot be correlated and are reported as an error.
func UploadsByName(uploads []models.Upload) (map[string]models.Upload, error) {
	byName := make(map[string]models.Upload, len(uploads))
	for _, u := range uploads {
		if _, dup := byName[u.Name]; dup {
			return nil, fmt.Errorf("upload name %q is not unique", u.Name)
		}
		byName[u.Name] = u
	}
	return byName, nil
}

// FileRefs returns the datasource file references for names, looked up in
// uploads by name and kept in the order of names.
func FileRefs(names []string, uploads []models.Upload) ([]models.FileRef, error) {
	byName, err := UploadsByName(uploads)
	if err != nil {
		return nil, err
	}
	refs := make([]models.FileRef, 0, len(names))
	for _, name := range names {
		u, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("no upload record returned for %q", name)
		}
		refs = append(refs, models.FileRef{FileID: u.ID, FileName: u.Name})
	}
	return refs, nil
}
