package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/weather-data-etl/internal/config"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "etl",
	Short: "Daily weather observation ETL",
	Long: `etl ingests per-station daily weather CSV files, normalizes and validates
them, and appends the result to a SQLite or PostgreSQL store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $CONFIG_FILE)")
	rootCmd.AddCommand(runCmd, validateCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger and metrics shared by all
// commands. The logger becomes the slog default.
func setup() (*config.Config, *slog.Logger, *observability.Metrics, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	return cfg, logger, observability.NewMetrics(), nil
}
