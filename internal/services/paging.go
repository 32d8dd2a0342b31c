package services

import (
	"fmt"

	"kb-admin-client/internal/client"
)

const (
	DefaultPage = 1
	DefaultSize = 10
)

// ListParams selects one page of a list endpoint. Zero values fall back to
// DefaultPage and DefaultSize.
type ListParams struct {
	Page int
	Size int
}

func (p ListParams) query() (map[string]any, error) {
	if p.Page < 0 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", client.ErrInvalidArgument, p.Page)
	}
	if p.Size < 0 {
		return nil, fmt.Errorf("%w: size must be >= 1, got %d", client.ErrInvalidArgument, p.Size)
	}

	page, size := p.Page, p.Size
	if page == 0 {
		page = DefaultPage
	}
	if size == 0 {
		size = DefaultSize
	}
	return map[string]any{"page": page, "size": size}, nil
}

// optional maps the zero value of a filter to nil so BuildURLParams omits it.
func optional[T comparable](v T) any {
	var zero T
	if v == zero {
		return nil
	}
	return v
}
