package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
)

// TransformResult holds the records that survived transformation, in input
// order, and a Drop for every raw row that did not.
type TransformResult struct {
	Records []domain.CanonicalRecord
	Drops   []domain.Drop
}

// WeatherTransformer implements Transformer using domain.TransformRecord.
type WeatherTransformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	convert func(domain.RawRecord) (domain.CanonicalRecord, *domain.Drop)
}

// NewTransformer creates a WeatherTransformer.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *WeatherTransformer {
	return &WeatherTransformer{
		logger:  logger,
		metrics: metrics,
		convert: domain.TransformRecord,
	}
}

// Transform converts each raw row independently. A row that fails, including
// one that panics, is recorded as a drop and the rest of the batch continues.
func (t *WeatherTransformer) Transform(ctx context.Context, raws []domain.RawRecord) TransformResult {
	logger := observability.LoggerFrom(ctx, t.logger)
	res := TransformResult{
		Records: make([]domain.CanonicalRecord, 0, len(raws)),
	}

	for i, raw := range raws {
		rec, drop := t.transformOne(raw)
		if drop != nil {
			drop.Index = i
			logDrop(logger, *drop)
			t.metrics.RecordsDropped.WithLabelValues(string(drop.Reason)).Inc()
			res.Drops = append(res.Drops, *drop)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	t.metrics.RecordsTransformed.Add(float64(len(res.Records)))
	logger.Info("transformed records",
		"input", len(raws),
		"output", len(res.Records),
		"dropped", len(res.Drops),
	)
	return res
}

func (t *WeatherTransformer) transformOne(raw domain.RawRecord) (rec domain.CanonicalRecord, drop *domain.Drop) {
	defer func() {
		if r := recover(); r != nil {
			rec = domain.CanonicalRecord{}
			drop = &domain.Drop{
				StationID: raw[domain.FieldStationID],
				Reason:    domain.DropPanic,
				Detail:    fmt.Sprint(r),
			}
		}
	}()
	return t.convert(raw)
}

func logDrop(logger *slog.Logger, d domain.Drop) {
	attrs := []any{"index", d.Index, "station_id", d.StationID, "reason", d.Reason, "detail", d.Detail}
	switch d.Reason {
	case domain.DropMissingField:
		logger.Debug("skipping record with missing required field", attrs...)
	case domain.DropPanic:
		logger.Error("unexpected error transforming record", attrs...)
	default:
		logger.Warn("skipping invalid record", attrs...)
	}
}
