package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/jarvis/internal/config"
	"github.com/dohr-michael/jarvis/internal/events"
	"github.com/dohr-michael/jarvis/internal/extract"
	"github.com/dohr-michael/jarvis/internal/models"
	"github.com/dohr-michael/jarvis/internal/tasks"
	"github.com/dohr-michael/jarvis/internal/tracker"
)

// loadConfig loads the config file named by the --config flag and applies
// the --debug flag to the default logger.
func loadConfig(cmd *cli.Command) *config.Config {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("config not loaded, using defaults", "path", configPath, "error", err)
		cfg = config.Default()
	}
	return cfg
}

// buildTracker opens the configured store, wires the extraction client
// when credentials resolve and loads the task cache.
func buildTracker(ctx context.Context, cfg *config.Config, bus *events.Bus) (*tracker.Tracker, tasks.Store, error) {
	store, err := tasks.Open(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	var extractor tracker.Extractor
	registry := models.NewRegistry(cfg.Models)
	if registry.DefaultAvailable() {
		extractor = extract.NewExtractor(registry)
	} else {
		slog.Warn("no model credentials, voice-to-task disabled", "provider", cfg.Models.Default)
	}

	tr := tracker.New(store, extractor, bus)
	if err := tr.Load(ctx); err != nil {
		// Tracker stays usable with an empty cache.
		slog.Error("load tasks", "error", err)
	}
	return tr, store, nil
}
