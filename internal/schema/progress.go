package schema

import "kb-admin-client/internal/models"

type totalWire struct {
	Total *int `json:"total" validate:"required,gte=0"`
}

type progressWire struct {
	NotStarted *int `json:"not_started" validate:"omitempty,gte=0"`
	Pending    *int `json:"pending" validate:"omitempty,gte=0"`
	Running    *int `json:"running" validate:"omitempty,gte=0"`
	Completed  *int `json:"completed" validate:"omitempty,gte=0"`
	Failed     *int `json:"failed" validate:"omitempty,gte=0"`
}

type overviewWire struct {
	Documents     *totalWire    `json:"documents" validate:"required"`
	Chunks        *totalWire    `json:"chunks" validate:"required"`
	Entities      *totalWire    `json:"entities"`
	Relationships *totalWire    `json:"relationships"`
	VectorIndex   *progressWire `json:"vector_index" validate:"required"`
	KGIndex       *progressWire `json:"kg_index"`
}

// DatasourceOverview validates the indexing overview of one datasource.
var DatasourceOverview Schema[models.DatasourceOverview] = func(data []byte) (models.DatasourceOverview, error) {
	w, err := decodeObject[overviewWire]("DatasourceOverview", data)
	if err != nil {
		return models.DatasourceOverview{}, err
	}

	overview := models.DatasourceOverview{
		IndexTotalStats: models.IndexTotalStats{
			Documents: *w.Documents.Total,
			Chunks:    *w.Chunks.Total,
		},
		VectorIndex: w.VectorIndex.toModel(),
	}
	if w.Entities != nil {
		overview.Entities = w.Entities.Total
	}
	if w.Relationships != nil {
		overview.Relationships = w.Relationships.Total
	}
	if w.KGIndex != nil {
		kg := w.KGIndex.toModel()
		overview.KGIndex = &kg
	}
	return overview, nil
}

func (w *progressWire) toModel() models.IndexProgress {
	return models.IndexProgress{
		NotStarted: deref(w.NotStarted),
		Pending:    deref(w.Pending),
		Running:    deref(w.Running),
		Completed:  deref(w.Completed),
		Failed:     deref(w.Failed),
	}
}
