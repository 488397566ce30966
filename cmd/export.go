package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/export"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

func newExportCommand() *cobra.Command {
	var (
		filter models.ExportFilter
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored reviews to CSV or XLSX",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !export.IsSupported(format) {
				return fmt.Errorf("unsupported format %q", format)
			}
			if output == "" {
				output = export.FileName(format, time.Now())
			}

			return withApp(func(app *bootstrap.App) error {
				records, err := app.Reviews.Export(cmd.Context(), filter)
				if err != nil {
					return fmt.Errorf("export reviews: %w", err)
				}
				if len(records) == 0 {
					return errors.New("no reviews found")
				}

				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				if writeErr := export.Write(f, format, records); writeErr != nil {
					_ = f.Close()
					return writeErr
				}
				if closeErr := f.Close(); closeErr != nil {
					return closeErr
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d reviews to %s\n", len(records), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.ProductID, "product-id", "", "only reviews of this product id")
	cmd.Flags().StringVar(&filter.Category, "category", "", "only reviews of links in this category")
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatCSV, "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default reviews_<timestamp>.<format>)")
	return cmd
}
