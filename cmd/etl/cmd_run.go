package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/pipeline"
	"github.com/spf13/cobra"
)

var errRunFailed = errors.New("etl run failed")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once for a date",
	Long: `Extract every matching CSV file for the date, transform, validate and load
the batch. Exits non-zero when the run fails.`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().String("date", "", "date to process, YYYY-MM-DD (default today)")
}

func runOnce(cmd *cobra.Command, _ []string) error {
	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}

	cfg, logger, metrics, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ok := pipeline.Process(ctx, cfg, date, logger, metrics)

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL); err != nil {
			logger.Warn("push metrics failed", "error", err)
		}
	}

	if !ok {
		return errRunFailed
	}
	return nil
}
