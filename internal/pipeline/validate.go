package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
)

// RuleValidator implements Validator with domain.Validate.
type RuleValidator struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewValidator creates a RuleValidator.
func NewValidator(logger *slog.Logger, metrics *observability.Metrics) *RuleValidator {
	return &RuleValidator{logger: logger, metrics: metrics}
}

func (v *RuleValidator) Validate(ctx context.Context, records []domain.CanonicalRecord) domain.ValidationReport {
	logger := observability.LoggerFrom(ctx, v.logger)
	report := domain.Validate(records)
	v.metrics.ValidationErrors.Add(float64(report.Total))

	if report.Valid {
		logger.Info("validation passed", "records", len(records))
		return report
	}

	logger.Warn("validation failed", "records", len(records), "errors", report.Total)
	for _, msg := range report.Errors {
		logger.Warn("validation error", "detail", msg)
	}
	return report
}
