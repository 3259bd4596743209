// Package cli wires the portfolio command line: serve, migrate and seed.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dconn.dev/portfolio/internal/config"
	"dconn.dev/portfolio/internal/logging"
)

// NewRootCommand builds the portfolio command tree. Running it without a
// subcommand serves the site.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Serve the dconn.dev portfolio",
		Long:          `portfolio serves the project catalog as server-rendered pages and a read-only JSON API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedCommand())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and installs the default logger. The closer
// flushes the log file, if one is configured.
func bootstrap() (*config.Config, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	closer := logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	return cfg, closer, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
