package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weather-data-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
)

// LoadResult reports what a Load call wrote.
type LoadResult struct {
	Attempted int                 `json:"attempted"`
	Inserted  int                 `json:"inserted"`
	Failures  []domain.RowFailure `json:"failures,omitempty"`
	Committed bool                `json:"committed"`
}

// OK reports whether the batch reached the store. Skipped rows do not count
// against it.
func (r LoadResult) OK() bool { return r.Committed }

// StoreLoader implements Loader on a sqlstore database. The connection is
// opened per call and closed before Load returns.
type StoreLoader struct {
	driver  string
	dsn     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStoreLoader creates a loader for the given store driver and DSN. For
// SQLite the DSN is the database file path.
func NewStoreLoader(driver, dsn string, logger *slog.Logger, metrics *observability.Metrics) *StoreLoader {
	return &StoreLoader{driver: driver, dsn: dsn, logger: logger, metrics: metrics}
}

// Load appends records in one transaction. An empty batch is a no-op that
// reports Committed=false without opening the store.
func (l *StoreLoader) Load(ctx context.Context, records []domain.CanonicalRecord) (LoadResult, error) {
	logger := observability.LoggerFrom(ctx, l.logger)
	if len(records) == 0 {
		logger.Warn("no records to load")
		return LoadResult{}, nil
	}

	res := LoadResult{Attempted: len(records)}

	store, err := sqlstore.Open(ctx, l.driver, l.dsn, logger)
	if err != nil {
		return res, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store failed", "error", err)
		}
	}()

	if err := store.EnsureSchema(ctx); err != nil {
		return res, fmt.Errorf("ensure schema: %w", err)
	}

	inserted, failures, err := store.InsertBatch(ctx, records)
	res.Failures = failures
	if err != nil {
		return res, err
	}
	res.Inserted = inserted
	res.Committed = true

	l.metrics.RowsLoaded.Add(float64(inserted))
	l.metrics.RowsFailed.Add(float64(len(failures)))
	logger.Info("loaded records",
		"driver", l.driver,
		"inserted", inserted,
		"failed", len(failures),
	)
	return res, nil
}
