package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/bootstrap"
)

func newRunCommand() *cobra.Command {
	var fullRefresh bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one extraction pass in the foreground",
		Long: `Process every registered link once and exit.
By default links that were already extracted are skipped. With --full-refresh all
stored reviews and cursors are purged first and every link is processed again.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(app *bootstrap.App) error {
				summary, err := app.Launcher.RunSync(cmd.Context(), !fullRefresh)
				if err != nil {
					return fmt.Errorf("extraction run: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary.Message())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fullRefresh, "full-refresh", false, "purge stored reviews and cursors before running")
	return cmd
}
