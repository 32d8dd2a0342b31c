package routes

import (
	"kb-admin-client/internal/api/handlers"
	"kb-admin-client/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, h *handlers.Handlers) {
	auth := middleware.ForwardCredentials()
	// Mirror, sync and vector audit answer without the backend, so the
	// caller is checked there first.
	verify := middleware.VerifyCredentials(h.VerifyCaller)

	api := router.Group("/api/v1")
	{
		admin := api.Group("/admin")
		admin.Use(auth)
		{
			docs := admin.Group("/documents")
			docs.GET("", h.ListDocuments)
			docs.GET("/:id", h.GetDocument)
			docs.DELETE("/:id", h.DeleteDocument)
			docs.GET("/:id/vectors", verify, h.DocumentVectors)

			datasources := admin.Group("/datasources")
			datasources.GET("", h.ListDatasources)
			datasources.POST("", h.CreateDatasource)
			datasources.GET("/:id", h.GetDatasource)
			datasources.DELETE("/:id", h.DeleteDatasource)
			datasources.GET("/:id/overview", h.DatasourceOverview)
			datasources.GET("/:id/progress", h.StreamProgress)
			datasources.POST("/:id/retry-failed-tasks", h.RetryFailedTasks)

			admin.POST("/uploads", h.UploadFiles)

			admin.GET("/llms", h.ListLLMs)
			admin.GET("/llms/:id", h.GetLLM)

			admin.GET("/site-settings", h.ListSiteSettings)
			admin.PUT("/site-settings/:name", h.UpdateSiteSetting)
		}

		chats := api.Group("/chats")
		chats.Use(auth)
		{
			chats.GET("", h.ListChats)
			chats.GET("/:id", h.GetChat)
			chats.DELETE("/:id", h.DeleteChat)
		}

		mirror := api.Group("/mirror")
		mirror.Use(auth, verify)
		{
			mirror.GET("/documents", h.ListMirrorDocuments)
			mirror.GET("/documents/:id", h.GetMirrorDocument)
		}

		sync := api.Group("/sync")
		sync.Use(auth, verify)
		{
			sync.POST("", h.StartSync)
			sync.GET("/:id", h.GetSyncStatus)
			sync.DELETE("/:id", h.CancelSync)
		}

		api.GET("/system/bootstrap-status", h.BootstrapStatus)
	}

	router.GET("/healthz", h.Health)
	router.GET("/readyz", h.Ready)
}
