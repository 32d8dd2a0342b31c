package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kb-admin-client/internal/api/handlers"
	"kb-admin-client/internal/api/routes"
	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"
	repomocks "kb-admin-client/internal/repository/mocks"
	"kb-admin-client/internal/services"
	"kb-admin-client/internal/services/mocks"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testDeps struct {
	siteSettings *mocks.MockSiteSettingsClient
	repo         *repomocks.MockRepository
	scheduler    *mocks.MockSyncScheduler
	auditor      *mocks.MockVectorAuditor
}

func setupTestRouter() (*gin.Engine, *testDeps) {
	gin.SetMode(gin.TestMode)
	deps := &testDeps{
		siteSettings: mocks.NewMockSiteSettingsClient(),
		repo:         repomocks.NewMockRepository(),
		scheduler:    mocks.NewMockSyncScheduler(),
		auditor:      mocks.NewMockVectorAuditor(),
	}
	backend := &services.Backend{
		Documents:     mocks.NewMockDocumentsClient(),
		Datasources:   mocks.NewMockDatasourcesClient(),
		IndexProgress: mocks.NewMockIndexProgressClient(),
		Uploads:       mocks.NewMockUploadsClient(),
		Chats:         mocks.NewMockChatsClient(),
		LLMs:          mocks.NewMockLLMsClient(),
		SiteSettings:  deps.siteSettings,
		System:        mocks.NewMockSystemClient(),
	}
	h := handlers.NewHandlers(backend, deps.repo, deps.scheduler, deps.auditor, zerolog.Nop())
	router := gin.New()
	routes.SetupRoutes(router, h)
	return router, deps
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestLocalRoutesVerifyCaller(t *testing.T) {
	t.Run("LocalRoutes_BogusToken_Returns401", func(t *testing.T) {
		router, deps := setupTestRouter()
		deps.siteSettings.On("List", mock.Anything).
			Return(nil, &client.HTTPError{StatusCode: http.StatusUnauthorized, Message: "invalid token"})

		for _, target := range []struct{ method, path string }{
			{"GET", "/api/v1/mirror/documents"},
			{"GET", "/api/v1/mirror/documents/1"},
			{"POST", "/api/v1/sync"},
			{"GET", "/api/v1/sync/mirror-sync-1"},
			{"DELETE", "/api/v1/sync/mirror-sync-1"},
			{"GET", "/api/v1/admin/documents/1/vectors"},
		} {
			resp := serve(router, target.method, target.path, "bogus")

			assert.Equal(t, http.StatusUnauthorized, resp.Code, target.path)
			var body models.ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			assert.Equal(t, "AUTHENTICATION_ERROR", body.Error.Code)
		}
		deps.repo.AssertNotCalled(t, "GetDocument", mock.Anything, mock.Anything)
		deps.repo.AssertNotCalled(t, "ListDocuments", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		deps.scheduler.AssertNotCalled(t, "StartSyncWorkflow", mock.Anything, mock.Anything)
		deps.scheduler.AssertNotCalled(t, "QueryWorkflowStatus", mock.Anything, mock.Anything)
		deps.scheduler.AssertNotCalled(t, "CancelWorkflow", mock.Anything, mock.Anything)
	})

	t.Run("LocalRoutes_NonAdminToken_Returns401", func(t *testing.T) {
		router, deps := setupTestRouter()
		deps.siteSettings.On("List", mock.Anything).
			Return(nil, &client.HTTPError{StatusCode: http.StatusForbidden, Message: "admin only"})

		resp := serve(router, "GET", "/api/v1/mirror/documents/1", "viewer")

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		deps.repo.AssertNotCalled(t, "GetDocument", mock.Anything, mock.Anything)
	})

	t.Run("LocalRoutes_BackendDown_Returns503", func(t *testing.T) {
		router, deps := setupTestRouter()
		deps.siteSettings.On("List", mock.Anything).Return(nil, assert.AnError)

		resp := serve(router, "POST", "/api/v1/sync", "admin")

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
		deps.scheduler.AssertNotCalled(t, "StartSyncWorkflow", mock.Anything, mock.Anything)
	})

	t.Run("LocalRoutes_ValidToken_Served", func(t *testing.T) {
		router, deps := setupTestRouter()
		deps.siteSettings.On("List", mock.Anything).Return(map[string]models.SiteSetting{}, nil)
		deps.repo.On("GetDocument", mock.Anything, 1).Return(&models.Document{ID: 1, Name: "a.md"}, nil)
		deps.scheduler.On("StartSyncWorkflow", mock.Anything, models.SyncRequest{}).Return("mirror-sync-1", nil)

		resp := serve(router, "GET", "/api/v1/mirror/documents/1", "admin")
		assert.Equal(t, http.StatusOK, resp.Code)

		resp = serve(router, "POST", "/api/v1/sync", "admin")
		assert.Equal(t, http.StatusAccepted, resp.Code)
		var body models.SyncResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "mirror-sync-1", body.WorkflowID)
		deps.siteSettings.AssertNumberOfCalls(t, "List", 2)
	})
}
