package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/config"
	"kb-admin-client/internal/repository"
	"kb-admin-client/internal/services"
	"kb-admin-client/internal/workflows"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

var _ workflows.Syncer = (*services.Syncer)(nil)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		logger = logger.Level(level)
	}
	logger.Info().
		Str("task_queue", cfg.Temporal.TaskQueue).
		Str("mirror_driver", cfg.Mirror.Driver).
		Msg("Starting mirror sync worker")

	repo, err := repository.New(context.Background(), &cfg.Mirror)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	backendClient, err := client.New(cfg.Backend.BaseURL, client.NewCredentials(cfg.Backend.APIKey, cfg.Backend.TokenCommand), logger,
		client.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}
	backend := services.NewBackend(backendClient)
	syncer := services.NewSyncer(backend.Documents, backend.Datasources, repo, cfg.Mirror.PageSize, logger)

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  fmt.Sprintf("%s:%d", cfg.Temporal.Host, cfg.Temporal.Port),
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("Failed to create temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	workflows.Register(w, workflows.NewActivities(syncer))

	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal().Err(err).Msg("Worker stopped")
	}
	logger.Info().Msg("Worker exited")
}
