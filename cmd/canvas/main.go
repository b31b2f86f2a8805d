package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/canvas/config"
	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/logger"
)

// ============================================================================
// CANVAS CLI — Report authoring engine tools
// ============================================================================

const version = "0.3.0"

var (
	envFile  string
	logLevel string

	cfg *config.Config
	log *slog.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "canvas",
		Short:         "Report authoring engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if envFile != "" {
				cfg, err = config.Load(envFile)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			logger.SetByName(cfg.Log.Level)
			log = logger.New(cmd.ErrOrStderr(), cfg.Log.Color)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "Path to .env file (default: ./.env when present)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: error, warn, info, debug")

	root.AddCommand(serveCmd(), optionsCmd(), tableCmd(), inspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newEngine() *engine.Engine {
	return engine.New(engine.WithLogger(log), engine.WithRowLimit(cfg.Query.RowLimit))
}
