package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/schema"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// PostFiles streams files as repeated multipart parts named field and
// validates the response with s. File bodies are read once, in order.
func PostFiles[T any](ctx context.Context, c *Client, path, field string, files []models.FileHandle, s schema.Schema[T]) (T, error) {
	var zero T

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := c.NewRequest(ctx, http.MethodPost, path, nil, pr)
	if err != nil {
		pr.Close()
		return zero, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	go func() {
		pw.CloseWithError(writeParts(mw, field, files))
	}()

	resp, err := c.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return zero, err
	}
	return HandleResponse(s)(resp)
}

func writeParts(mw *multipart.Writer, field string, files []models.FileHandle) error {
	for _, f := range files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to create part for %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return fmt.Errorf("failed to stream %s: %w", f.Name, err)
		}
	}
	return mw.Close()
}
