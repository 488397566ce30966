package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/links"
	"github.com/jonesrussell/north-cloud/review-ingestor/internal/models"
)

func newLinksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage the link registry",
	}
	cmd.AddCommand(newLinksAddCommand(), newLinksListCommand(), newLinksImportCommand())
	return cmd
}

func newLinksAddCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "add URL...",
		Short: "Register product URLs under a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if category == "" {
				return errors.New("--category is required")
			}
			return withApp(func(app *bootstrap.App) error {
				result, err := app.Registrar.Register(cmd.Context(), args, category)
				if err != nil {
					return err
				}
				return renderRegistration(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category for the registered links")
	return cmd
}

func newLinksImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.xlsx",
		Short: "Register links from a spreadsheet with url and category columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open spreadsheet: %w", err)
			}
			defer func() { _ = f.Close() }()

			return withApp(func(app *bootstrap.App) error {
				result, importErr := app.Registrar.Import(cmd.Context(), f)
				if importErr != nil {
					return importErr
				}
				return renderRegistration(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newLinksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered links",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(app *bootstrap.App) error {
				registered, err := app.Links.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list links: %w", err)
				}
				renderLinks(cmd.OutOrStdout(), registered)
				return nil
			})
		},
	}
}

func renderLinks(w io.Writer, registered []*models.Link) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Product ID", "Category", "Display Name", "URL", "Added"})

	for _, l := range registered {
		t.AppendRow(table.Row{
			l.ID,
			l.ProductIDValue(),
			l.Category,
			l.DisplayNameValue(),
			l.URL,
			l.AddedAt.Format("2006-01-02 15:04"),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(registered)})
	t.Render()
}

func renderRegistration(w io.Writer, result links.Result) error {
	fmt.Fprintf(w, "Added %d, updated %d, rejected %d\n", result.Added, result.Updated, len(result.Errors))
	if len(result.Errors) == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Row", "Error"})
	for _, e := range result.Errors {
		t.AppendRow(table.Row{e.Row, e.Error})
	}
	t.Render()
	return nil
}
