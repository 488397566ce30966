package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/api"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/logger"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/scheduler"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/server"
)

// SetupHTTPServer builds the gin server with health, metrics and /api/v1 routes.
func SetupHTTPServer(app *App) *server.Server {
	handler := api.NewHandler(api.Deps{
		Links:    app.Registrar,
		Registry: app.Links,
		Runs:     app.Launcher,
		Status:   app.Register,
		Stats:    app.Stats,
		Reviews:  app.Reviews,
		Logger:   app.Logger,
	})

	startedAt := time.Now()
	return server.New(app.Config.Server, app.Config.Debug, app.Logger, func(router *gin.Engine) {
		server.RegisterHealthRoutes(router, server.HealthOptions{
			ServiceName: ServiceName,
			Version:     app.Version,
			StartTime:   startedAt,
			Checks: map[string]server.HealthCheck{
				"database": app.DB.PingContext,
			},
		})
		api.RegisterRoutes(router, handler, app.Gatherer)
	})
}

// Serve runs the HTTP server, and the extraction schedule when enabled,
// until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.Config.Schedule.Enabled {
		sched := scheduler.New(
			a.Config.Schedule.Cron,
			a.Config.Schedule.ShouldSkipExisting(),
			a.Launcher,
			a.Logger.With(logger.String("component", "scheduler")),
		)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv := SetupHTTPServer(a)
	if err := srv.Run(ctx); err != nil {
		a.Logger.Error("Server error", logger.Error(err))
		return err
	}

	a.Logger.Info("Server exited")
	return nil
}
