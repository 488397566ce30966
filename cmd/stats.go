package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show link and review counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(app *bootstrap.App) error {
				s, err := app.Stats.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("stats: %w", err)
				}
				renderStats(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
}

func renderStats(w io.Writer, s models.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Count"})
	t.AppendRows([]table.Row{
		{"Total links", s.TotalLinks},
		{"Processed products", s.ProcessedProducts},
		{"Pending products", s.PendingProducts},
		{"Total reviews", s.TotalReviews},
	})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()
}
