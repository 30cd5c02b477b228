package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"labqc/pkg/core/agent"
	"labqc/pkg/core/config"
	"labqc/pkg/core/logging"
	"labqc/pkg/core/metrics"
	"labqc/pkg/core/prompt"
	"labqc/pkg/core/report"
	"labqc/pkg/core/settings"
	"labqc/pkg/core/store"
)

// app holds the components every command shares.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	archive  store.Archive
	gateway  *store.Gateway
	manager  *agent.Manager
	settings *settings.Service
	source   *report.HTTPSource
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := logging.New(cfg.LogLevel, cfg.IsDev())
	return cfg, logger, nil
}

// openArchive picks Postgres when a database URL is configured and the
// local SQLite file otherwise. Both are migrated before use.
func openArchive(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (store.Archive, error) {
	if cfg.UsesPostgres() {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		archive := store.NewPostgresArchive(pool)
		if err := archive.Migrate(ctx); err != nil {
			_ = archive.Close()
			return nil, err
		}
		logger.Info().Msg("connected to postgres archive")
		return archive, nil
	}

	archive, err := store.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite archive")
	return archive, nil
}

// seedPrompts combines the stock version with the on-disk library. The stock
// version is registered last so it is active on first run.
func seedPrompts(dir string, logger zerolog.Logger) prompt.State {
	library, err := prompt.LoadLibrary(dir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("failed to load prompt library; using stock prompt")
		return prompt.InitialState()
	}
	if err := library.Register(prompt.DefaultVersion()); err != nil {
		logger.Warn().Err(err).Msg("register stock prompt")
	}
	logger.Info().Int("count", library.Count()).Str("dir", dir).Msg("loaded prompt library")
	return library.SeedState()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	catalog, err := agent.LoadCatalog(cfg.ModelsFile)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	archive, err := openArchive(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	gateway := store.NewGateway(archive, logger, m)

	manager := agent.NewManager(catalog, agent.Options{
		GeminiKey:       cfg.GeminiAPIKey,
		CerebrasKey:     cfg.CerebrasAPIKey,
		GeminiBaseURL:   cfg.GeminiBaseURL,
		CerebrasBaseURL: cfg.CerebrasBaseURL,
		Timeout:         cfg.RequestTimeout,
	}, logger, m)

	svc := settings.New(gateway, catalog, seedPrompts(cfg.PromptDir, logger), logger)
	svc.Load(ctx)

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		archive:  archive,
		gateway:  gateway,
		manager:  manager,
		settings: svc,
		source:   report.NewHTTPSource(cfg.ReportAPIURL, 30*time.Second, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.archive.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close archive")
	}
}
