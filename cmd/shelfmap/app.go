package main

import (
	"fmt"
	"log/slog"

	"github.com/vbonduro/shelfmap/internal/config"
	"github.com/vbonduro/shelfmap/internal/db"
	"github.com/vbonduro/shelfmap/internal/kv"
	kvbadger "github.com/vbonduro/shelfmap/internal/kv/badger"
	kvsqlite "github.com/vbonduro/shelfmap/internal/kv/sqlite"
	"github.com/vbonduro/shelfmap/internal/logging"
	"github.com/vbonduro/shelfmap/internal/photostore/local"
	"github.com/vbonduro/shelfmap/internal/service"
	"github.com/vbonduro/shelfmap/internal/store"
	"github.com/vbonduro/shelfmap/internal/vision"
	claudevision "github.com/vbonduro/shelfmap/internal/vision/claude"
	ollamavision "github.com/vbonduro/shelfmap/internal/vision/ollama"
)

// app holds the dependency graph built once per command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend kv.Store
	photos  *local.LocalPhotoStore
	service *service.SpaceService

	cleanupLog func()
}

func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, cleanupLog: cleanup}

	a.backend, err = openBackend(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	a.photos, err = local.NewLocalPhotoStore(cfg.PhotoPath, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize photo store: %w", err)
	}

	opts := []service.Option{}
	if d := newDescriber(cfg, logger); d != nil {
		opts = append(opts, service.WithDescriber(d))
	}
	a.service = service.NewSpaceService(store.NewSpaceStore(a.backend, logger), a.photos, logger, opts...)
	return a, nil
}

func openBackend(cfg *config.Config, logger *slog.Logger) (kv.Store, error) {
	switch cfg.StoreBackend {
	case "badger":
		logger.Debug("using badger store", "path", cfg.BadgerPath)
		s, err := kvbadger.Open(cfg.BadgerPath, false, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		return s, nil
	default:
		logger.Debug("using sqlite store", "path", cfg.DBPath)
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return kvsqlite.New(database), nil
	}
}

func newDescriber(cfg *config.Config, logger *slog.Logger) vision.Describer {
	switch cfg.VisionBackend {
	case "claude":
		logger.Debug("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeDescriber(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Debug("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaDescriber(cfg.OllamaHost, cfg.OllamaModel)
	default:
		return nil
	}
}

func (a *app) close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("failed to close store", "error", err)
		}
		a.backend = nil
	}
	if a.cleanupLog != nil {
		a.cleanupLog()
		a.cleanupLog = nil
	}
}
