package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kb-admin-client/internal/api/handlers"
	"kb-admin-client/internal/api/middleware"
	"kb-admin-client/internal/api/routes"
	"kb-admin-client/internal/client"
	"kb-admin-client/internal/config"
	"kb-admin-client/internal/repository"
	"kb-admin-client/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		logger = logger.Level(level)
	}
	logger.Info().Str("backend", cfg.Backend.BaseURL).Msg("Starting KB admin gateway")

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Initialize repository
	repo, err := repository.New(context.Background(), &cfg.Mirror)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	// Backend calls act as the caller when credentials are forwarded and as
	// the configured service credentials otherwise.
	backendClient, err := client.New(
		cfg.Backend.BaseURL,
		client.ForwardedOr(client.NewCredentials(cfg.Backend.APIKey, cfg.Backend.TokenCommand)),
		logger,
		client.WithTimeout(cfg.Backend.Timeout),
	)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	// Temporal and Qdrant are optional
	var scheduler services.SyncSchedulerInterface
	if s, err := services.NewSyncScheduler(&cfg.Temporal); err != nil {
		logger.Warn().Err(err).Msg("Temporal unavailable, sync routes disabled")
	} else {
		scheduler = s
	}
	var auditor services.VectorAuditorInterface
	if a, err := services.NewVectorAuditor(&cfg.Qdrant); err != nil {
		logger.Warn().Err(err).Msg("Qdrant unavailable, vector audit disabled")
	} else {
		auditor = a
	}

	// Setup middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	// Initialize handlers with services
	h := handlers.NewHandlers(services.NewBackend(backendClient), repo, scheduler, auditor, logger)
	defer h.Close()

	// Setup routes
	routes.SetupRoutes(router, h)

	// Create HTTP server. Progress streams outlive the write timeout, so it
	// is left unset.
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Server shutting down...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
