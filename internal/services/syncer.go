package services

import (
	"context"
	"fmt"
	"time"

	"kb-admin-client/internal/models"
	"kb-admin-client/internal/repository"

	"github.com/rs/zerolog"
)

const defaultSyncPageSize = 100

// Syncer copies backend datasources and documents into the local mirror.
// Rows the backend no longer reports are pruned after a complete pass.
type Syncer struct {
	documents   DocumentsClientInterface
	datasources DatasourcesClientInterface
	repo        repository.Repository
	pageSize    int
	logger      zerolog.Logger
	now         func() time.Time
}

func NewSyncer(documents DocumentsClientInterface, datasources DatasourcesClientInterface, repo repository.Repository, pageSize int, logger zerolog.Logger) *Syncer {
	if pageSize <= 0 {
		pageSize = defaultSyncPageSize
	}
	return &Syncer{
		documents:   documents,
		datasources: datasources,
		repo:        repo,
		pageSize:    pageSize,
		logger:      logger,
		now:         time.Now,
	}
}

// Sync runs the passes selected by req, datasources first.
func (s *Syncer) Sync(ctx context.Context, req models.SyncRequest) (models.SyncResult, error) {
	var result models.SyncResult

	if !req.SkipDatasources {
		n, pruned, err := s.SyncDatasources(ctx)
		if err != nil {
			return result, err
		}
		result.Datasources = n
		result.Pruned += pruned
	}
	if !req.SkipDocuments {
		n, pruned, err := s.SyncDocuments(ctx)
		if err != nil {
			return result, err
		}
		result.Documents = n
		result.Pruned += pruned
	}
	return result, nil
}

// SyncDatasources mirrors every datasource and returns how many were stored
// and how many stale rows were removed.
func (s *Syncer) SyncDatasources(ctx context.Context) (int, int, error) {
	generation := s.now().UnixNano()

	count, stable, err := walkPages(ctx, s.pageSize, func(ctx context.Context, params ListParams) (models.Page[models.Datasource], error) {
		return s.datasources.List(ctx, params)
	}, func(ctx context.Context, ds models.Datasource) error {
		return s.repo.UpsertDatasource(ctx, &ds, generation)
	})
	if err != nil {
		return count, 0, fmt.Errorf("failed to sync datasources: %w", err)
	}
	if !stable {
		s.logger.Warn().
			Int("datasources", count).
			Msg("Datasources changed during sync, pruning skipped until the next pass")
		return count, 0, nil
	}

	pruned, err := s.repo.PruneDatasources(ctx, generation)
	if err != nil {
		return count, 0, err
	}

	s.logger.Info().
		Int("datasources", count).
		Int("pruned", pruned).
		Msg("Datasources synced")
	return count, pruned, nil
}

// SyncDocuments mirrors every document and returns how many were stored and
// how many stale rows were removed.
func (s *Syncer) SyncDocuments(ctx context.Context) (int, int, error) {
	generation := s.now().UnixNano()

	count, stable, err := walkPages(ctx, s.pageSize, func(ctx context.Context, params ListParams) (models.Page[models.Document], error) {
		return s.documents.List(ctx, ListDocumentsParams{ListParams: params})
	}, func(ctx context.Context, doc models.Document) error {
		return s.repo.UpsertDocument(ctx, &doc, generation)
	})
	if err != nil {
		return count, 0, fmt.Errorf("failed to sync documents: %w", err)
	}
	if !stable {
		s.logger.Warn().
			Int("documents", count).
			Msg("Documents changed during sync, pruning skipped until the next pass")
		return count, 0, nil
	}

	pruned, err := s.repo.PruneDocuments(ctx, generation)
	if err != nil {
		return count, 0, err
	}

	s.logger.Info().
		Int("documents", count).
		Int("pruned", pruned).
		Msg("Documents synced")
	return count, pruned, nil
}

// walkPages fetches pages until the envelope is exhausted and hands every item
// to store. It stops at the first error. stable is false when the reported
// total moved between pages: offset paging may then have skipped items, so
// the walk cannot prove which rows are gone.
func walkPages[T any](
	ctx context.Context,
	size int,
	fetch func(context.Context, ListParams) (models.Page[T], error),
	store func(context.Context, T) error,
) (count int, stable bool, err error) {
	total := -1
	stable = true
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return count, false, err
		}

		p, err := fetch(ctx, ListParams{Page: page, Size: size})
		if err != nil {
			return count, false, err
		}
		if total >= 0 && p.Total != total {
			stable = false
		}
		total = p.Total

		for _, item := range p.Items {
			if err := store(ctx, item); err != nil {
				return count, false, err
			}
			count++
		}

		if len(p.Items) == 0 || page*p.Size >= p.Total {
			return count, stable, nil
		}
	}
}
