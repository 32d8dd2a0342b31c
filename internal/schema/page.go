package schema

import (
	"encoding/json"
	"fmt"

	"kb-admin-client/internal/models"
)

type pageWire struct {
	Items []json.RawMessage `json:"items" validate:"required"`
	Total *int              `json:"total" validate:"required,gte=0"`
	Page  *int              `json:"page" validate:"required,gte=1"`
	Size  *int              `json:"size" validate:"required,gte=1"`
	Pages *int              `json:"pages" validate:"omitempty,gte=0"`
}

// PageOf wraps an item schema into the pagination envelope schema. The
// envelope is validated first, then every item; a page holding more items
// than its size is rejected.
func PageOf[T any](item Schema[T]) Schema[models.Page[T]] {
	return func(data []byte) (models.Page[T], error) {
		w, err := decodeObject[pageWire]("Page", data)
		if err != nil {
			return models.Page[T]{}, err
		}
		if len(w.Items) > *w.Size {
			return models.Page[T]{}, invalid("Page", Issue{
				Path:    "items",
				Message: fmt.Sprintf("holds %d items, more than page size %d", len(w.Items), *w.Size),
			})
		}

		items := make([]T, 0, len(w.Items))
		var issues []Issue
		var name string
		for i, raw := range w.Items {
			v, err := item(raw)
			if err != nil {
				name, issues = collect(err, fmt.Sprintf("items[%d]", i), name, issues)
				continue
			}
			items = append(items, v)
		}
		if len(issues) > 0 {
			return models.Page[T]{}, invalid("Page["+name+"]", issues...)
		}

		return models.Page[T]{
			Items: items,
			Total: *w.Total,
			Page:  *w.Page,
			Size:  *w.Size,
			Pages: deref(w.Pages),
		}, nil
	}
}
