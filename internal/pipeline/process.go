package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/weather-data-etl/internal/adapter/csvdir"
	"github.com/couchcryptid/weather-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/weather-data-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/weather-data-etl/internal/config"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
)

// StoreDSN returns the connection string for the configured store: the SQLite
// file under the output directory, or the PostgreSQL URL.
func StoreDSN(cfg *config.Config) string {
	if cfg.StoreDriver == config.StorePostgres {
		return cfg.DatabaseURL
	}
	return filepath.Join(cfg.OutputDirectory, sqlstore.DefaultFileName)
}

// NewFromConfig wires the default stages: directory extractor, record
// transformer, rule validator and SQL store loader, plus a Kafka publisher when
// brokers are configured. The returned close function releases the publisher.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) (*Pipeline, func()) {
	closeFn := func() {}
	if cfg.KafkaEnabled() {
		pub := kafka.NewPublisher(cfg, logger)
		opts = append(opts, WithPublisher(pub))
		closeFn = func() {
			if err := pub.Close(); err != nil {
				logger.Warn("close kafka publisher failed", "error", err)
			}
		}
	}

	p := New(
		csvdir.NewExtractor(logger),
		NewTransformer(logger, metrics),
		NewValidator(logger, metrics),
		NewStoreLoader(cfg.StoreDriver, StoreDSN(cfg), logger, metrics),
		logger,
		metrics,
		opts...,
	)
	return p, closeFn
}

// Process runs the pipeline once for date against the configured input
// directory and store, and reports whether the run succeeded.
func Process(ctx context.Context, cfg *config.Config, date string, logger *slog.Logger, metrics *observability.Metrics) bool {
	p, closeFn := NewFromConfig(cfg, logger, metrics)
	defer closeFn()

	return p.Run(ctx, cfg.InputDirectory, date).Success
}
