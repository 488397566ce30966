// Package bootstrap wires configuration, storage, providers and the run
// machinery into an App used by every CLI command.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/config"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/events"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/ingest"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/links"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/metrics"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/repository"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/runstatus"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/stats"
)

// ServiceName identifies the service in logs, health responses and events.
const ServiceName = "review-ingestor"

// Options selects the config file and build version.
type Options struct {
	ConfigPath string
	Version    string
}

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Config  *config.Config
	Logger  logger.Logger
	Version string

	DB        *sqlx.DB
	Links     *repository.LinkRepository
	Reviews   *repository.ReviewRepository
	Cursors   *repository.CursorRepository
	Stats     *stats.Aggregator
	Registrar *links.Registrar

	Register  *runstatus.Register
	Launcher  *ingest.Launcher
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Publisher *events.Publisher

	cancelRuns context.CancelFunc
}

// New runs the startup phases: config, logger, database and migrations,
// optional event publisher, repositories, providers and the run launcher.
func New(opts Options) (*App, error) {
	// Phase 1: config and logger
	cfg, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg, opts.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &App{Config: cfg, Logger: log, Version: opts.Version}

	// Phase 2: database
	db, err := SetupDatabase(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Phase 3: event publisher (optional)
	app.Publisher = SetupEventPublisher(cfg, log)

	// Phase 4: repositories and read models
	app.Links = repository.NewLinkRepository(db)
	app.Reviews = repository.NewReviewRepository(db)
	app.Cursors = repository.NewCursorRepository(db)
	app.Stats = stats.NewAggregator(repository.NewStatsRepository(db))
	app.Registrar = links.NewRegistrar(app.Links, log)

	// Phase 5: run machinery
	SetupPipeline(app)

	return app, nil
}

// Close cancels in-flight runs, waits for them to release the register, and
// closes Redis and the database.
func (a *App) Close() {
	if a.cancelRuns != nil {
		a.cancelRuns()
	}
	if a.Launcher != nil {
		a.Launcher.Wait()
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Warn("Failed to close redis client", logger.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("Failed to close database", logger.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
