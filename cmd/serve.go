package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/bootstrap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control plane and the extraction schedule",
		Long: `Start the HTTP API under /api/v1 with /health and /metrics.
When schedule.enabled is set, extraction runs are also started on the configured cron expression.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(app *bootstrap.App) error {
				return app.Serve(cmd.Context())
			})
		},
	}
}
