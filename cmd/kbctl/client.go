package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/config"
	"kb-admin-client/internal/services"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// loadConfig reads the environment and applies the connection flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if backendURL != "" {
		cfg.Backend.BaseURL = strings.TrimRight(backendURL, "/")
	}
	if apiKey != "" {
		cfg.Backend.APIKey = apiKey
	}
	if tokenCommand != "" {
		cfg.Backend.TokenCommand = tokenCommand
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: w != os.Stderr}).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// newBackend builds the resource clients for one command invocation.
func newBackend(cmd *cobra.Command) (*services.Backend, *config.Config, zerolog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	c, err := client.New(cfg.Backend.BaseURL, client.NewCredentials(cfg.Backend.APIKey, cfg.Backend.TokenCommand), logger,
		client.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	return services.NewBackend(c), cfg, logger, nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", arg)
	}
	return id, nil
}
