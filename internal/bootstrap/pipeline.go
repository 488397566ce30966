package bootstrap

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/ingest"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/metrics"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/provider"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/runstatus"
)

// SetupPipeline builds providers, metrics, the run register, the orchestrator
// and the launcher, and stores them on app.
func SetupPipeline(app *App) {
	cfg := app.Config
	log := app.Logger

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Metrics = metrics.NewMetrics(registry)
	app.Gatherer = registry

	metadata := provider.NewHTMLMetadataProvider(
		cfg.Providers.Metadata,
		provider.NewHTTPClient(cfg.Providers.Metadata.Timeout),
		log.With(logger.String("component", "metadata_provider")),
	)
	reviews := provider.NewSearchReviewProvider(
		cfg.Providers.Search,
		provider.NewHTTPClient(cfg.Providers.Search.Timeout),
		log.With(logger.String("component", "review_provider")),
	)
	if cfg.Providers.Search.APIKey == "" {
		log.Warn("No search API key configured; review fetches will fail")
	}

	app.Register = runstatus.New(log, runstatus.WithStaleAfter(cfg.Ingest.StaleRunAfter))

	orchestrator := ingest.NewOrchestrator(
		ingest.Stores{Links: app.Links, Reviews: app.Reviews, Cursors: app.Cursors},
		metadata,
		reviews,
		log.With(logger.String("component", "orchestrator")),
		ingest.WithLinkDelay(cfg.Ingest.LinkDelay),
		ingest.WithProgress(app.Register),
		ingest.WithObserver(app.Metrics),
	)

	runCtx, cancel := context.WithCancel(context.Background())
	app.cancelRuns = cancel

	launcherOpts := []ingest.LauncherOption{
		ingest.WithRunObserver(app.Metrics),
		ingest.WithBaseContext(runCtx),
	}
	if app.Publisher != nil {
		launcherOpts = append(launcherOpts, ingest.WithPublisher(app.Publisher))
	}

	app.Launcher = ingest.NewLauncher(orchestrator, app.Reviews, app.Register, log, launcherOpts...)
}
