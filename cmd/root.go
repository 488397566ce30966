// Package cmd implements the review-ingestor command line: the HTTP service,
// one-shot runs, link management, stats and export.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/review-ingestor/internal/bootstrap"
)

// Version is overridden at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var cfgFile string

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "review-ingestor",
		Short:         "Incremental product review extraction and dedup pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $CONFIG_PATH or ./config.yml)")

	root.AddCommand(
		newServeCommand(),
		newRunCommand(),
		newLinksCommand(),
		newStatsCommand(),
		newExportCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", bootstrap.ServiceName, Version)
			},
		},
	)
	return root
}

// Execute runs the root command, cancelling its context on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

// withApp builds the application, runs fn, and closes it.
func withApp(fn func(app *bootstrap.App) error) error {
	app, err := bootstrap.New(bootstrap.Options{ConfigPath: cfgFile, Version: Version})
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app)
}
