package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"kb-admin-client/internal/config"
	"kb-admin-client/internal/models"
	"kb-admin-client/internal/repository"
	repomocks "kb-admin-client/internal/repository/mocks"
	"kb-admin-client/internal/services"
	"kb-admin-client/internal/services/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mirror(t *testing.T) repository.Repository {
	t.Helper()
	repo, err := repository.New(context.Background(), &config.MirrorConfig{Driver: repository.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func document(id int) models.Document {
	ts := time.Date(2024, 5, 1, 10, id, 0, 0, time.UTC)
	return models.Document{
		ID:             id,
		Name:           "doc.md",
		Hash:           "h",
		Content:        "c",
		MimeType:       "text/markdown",
		SourceURI:      "uploads/doc.md",
		IndexStatus:    "completed",
		DataSourceID:   1,
		CreatedAt:      ts,
		UpdatedAt:      ts,
		LastModifiedAt: ts,
	}
}

func documentsPage(page, size, total int, docs ...models.Document) models.Page[models.Document] {
	return models.Page[models.Document]{Items: docs, Total: total, Page: page, Size: size}
}

func listParams(page, size int) services.ListDocumentsParams {
	return services.ListDocumentsParams{ListParams: services.ListParams{Page: page, Size: size}}
}

func TestSyncer(t *testing.T) {
	ctx := context.Background()

	t.Run("SyncDocuments_WalksEveryPageAndPrunes", func(t *testing.T) {
		repo := mirror(t)

		first := mocks.NewMockDocumentsClient()
		first.On("List", mock.Anything, listParams(1, 2)).Return(documentsPage(1, 2, 3, document(1), document(2)), nil)
		first.On("List", mock.Anything, listParams(2, 2)).Return(documentsPage(2, 2, 3, document(3)), nil)

		count, pruned, err := services.NewSyncer(first, nil, repo, 2, zerolog.Nop()).SyncDocuments(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.Zero(t, pruned)
		first.AssertExpectations(t)

		second := mocks.NewMockDocumentsClient()
		second.On("List", mock.Anything, listParams(1, 2)).Return(documentsPage(1, 2, 2, document(1), document(3)), nil)

		count, pruned, err = services.NewSyncer(second, nil, repo, 2, zerolog.Nop()).SyncDocuments(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, 1, pruned)
		gone, err := repo.GetDocument(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, gone)
		second.AssertExpectations(t)
	})

	t.Run("SyncDocuments_TotalMovesMidWalkSkipsPrune", func(t *testing.T) {
		repo := mirror(t)

		first := mocks.NewMockDocumentsClient()
		first.On("List", mock.Anything, listParams(1, 2)).Return(documentsPage(1, 2, 3, document(1), document(2)), nil)
		first.On("List", mock.Anything, listParams(2, 2)).Return(documentsPage(2, 2, 3, document(3)), nil)
		_, _, err := services.NewSyncer(first, nil, repo, 2, zerolog.Nop()).SyncDocuments(ctx)
		require.NoError(t, err)

		// document 1 is deleted after the first page, so document 3 shifts
		// onto page 1 and the second page comes back empty
		second := mocks.NewMockDocumentsClient()
		second.On("List", mock.Anything, listParams(1, 2)).Return(documentsPage(1, 2, 3, document(1), document(2)), nil)
		second.On("List", mock.Anything, listParams(2, 2)).Return(documentsPage(2, 2, 2), nil)

		count, pruned, err := services.NewSyncer(second, nil, repo, 2, zerolog.Nop()).SyncDocuments(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Zero(t, pruned)
		kept, err := repo.GetDocument(ctx, 3)
		require.NoError(t, err)
		require.NotNil(t, kept)
		second.AssertExpectations(t)
	})

	t.Run("SyncDocuments_ErrorKeepsMirror", func(t *testing.T) {
		repo := repomocks.NewMockRepository()
		docs := mocks.NewMockDocumentsClient()
		docs.On("List", mock.Anything, listParams(1, 100)).Return(models.Page[models.Document]{}, errors.New("backend down"))

		_, _, err := services.NewSyncer(docs, nil, repo, 0, zerolog.Nop()).SyncDocuments(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to sync documents")
		repo.AssertNotCalled(t, "PruneDocuments", mock.Anything, mock.Anything)
	})

	t.Run("Sync_DatasourcesThenDocuments", func(t *testing.T) {
		repo := repomocks.NewMockRepository()
		datasources := mocks.NewMockDatasourcesClient()
		docs := mocks.NewMockDocumentsClient()

		ds := models.Datasource{ID: 1, Name: "files", Config: models.FileConfig{}}
		datasources.On("List", mock.Anything, services.ListParams{Page: 1, Size: 100}).
			Return(models.Page[models.Datasource]{Items: []models.Datasource{ds}, Total: 1, Page: 1, Size: 100}, nil)
		docs.On("List", mock.Anything, listParams(1, 100)).Return(documentsPage(1, 100, 1, document(1)), nil)

		repo.On("UpsertDatasource", mock.Anything, mock.AnythingOfType("*models.Datasource"), mock.AnythingOfType("int64")).Return(nil)
		repo.On("PruneDatasources", mock.Anything, mock.AnythingOfType("int64")).Return(2, nil)
		repo.On("UpsertDocument", mock.Anything, mock.AnythingOfType("*models.Document"), mock.AnythingOfType("int64")).Return(nil)
		repo.On("PruneDocuments", mock.Anything, mock.AnythingOfType("int64")).Return(1, nil)

		result, err := services.NewSyncer(docs, datasources, repo, 0, zerolog.Nop()).Sync(ctx, models.SyncRequest{})

		require.NoError(t, err)
		assert.Equal(t, models.SyncResult{Datasources: 1, Documents: 1, Pruned: 3}, result)
		repo.AssertExpectations(t)
	})

	t.Run("Sync_SkipDatasources", func(t *testing.T) {
		repo := repomocks.NewMockRepository()
		docs := mocks.NewMockDocumentsClient()
		docs.On("List", mock.Anything, listParams(1, 100)).Return(documentsPage(1, 100, 0), nil)
		repo.On("PruneDocuments", mock.Anything, mock.AnythingOfType("int64")).Return(0, nil)

		result, err := services.NewSyncer(docs, nil, repo, 0, zerolog.Nop()).Sync(ctx, models.SyncRequest{SkipDatasources: true})

		require.NoError(t, err)
		assert.Equal(t, models.SyncResult{}, result)
		repo.AssertNotCalled(t, "PruneDatasources", mock.Anything, mock.Anything)
	})

	t.Run("Sync_CancelledContext", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := services.NewSyncer(mocks.NewMockDocumentsClient(), nil, repomocks.NewMockRepository(), 0, zerolog.Nop()).
			Sync(cancelled, models.SyncRequest{SkipDatasources: true})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
