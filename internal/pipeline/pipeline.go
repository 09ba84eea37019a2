package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/couchcryptid/weather-data-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Extractor reads the raw rows for one date from a source directory.
type Extractor interface {
	Extract(ctx context.Context, dir, date string) ([]domain.RawRecord, error)
}

// Transformer converts a batch of raw rows into canonical records.
type Transformer interface {
	Transform(ctx context.Context, raws []domain.RawRecord) TransformResult
}

// Validator applies business rules to the transformed batch.
type Validator interface {
	Validate(ctx context.Context, records []domain.CanonicalRecord) domain.ValidationReport
}

// Loader persists a validated batch.
type Loader interface {
	Load(ctx context.Context, records []domain.CanonicalRecord) (LoadResult, error)
}

// Publisher receives the records of a successful run.
type Publisher interface {
	Publish(ctx context.Context, runID string, records []domain.CanonicalRecord) error
}

// RunResult collects everything a run produced, including why it stopped.
type RunResult struct {
	RunID      string
	Date       string
	Extracted  int
	Records    []domain.CanonicalRecord
	Drops      []domain.Drop
	Validation domain.ValidationReport
	Load       LoadResult
	Err        error
	Success    bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the clock used for the default run date and durations.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithPublisher hands the records of every successful run to pub.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// Pipeline runs extract, transform, validate and load once per call to Run.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	validator   Validator
	loader      Loader
	publisher   Publisher
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, v Validator, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		validator:   v,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one ETL pass over dir for date. An empty date means today
// according to the pipeline clock. The returned result is never nil.
func (p *Pipeline) Run(ctx context.Context, dir, date string) *RunResult {
	start := p.clock.Now()
	if date == "" {
		date = start.Format(domain.DateLayout)
	}

	res := &RunResult{RunID: uuid.NewString(), Date: date}
	logger := p.logger.With("run_id", res.RunID, "date", date)
	logger.Info("starting etl run", "dir", dir)

	p.run(ctx, logger, dir, res, true)

	p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
	if res.Success {
		p.metrics.Runs.WithLabelValues("success").Inc()
		p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
		logger.Info("etl run completed",
			"extracted", res.Extracted,
			"dropped", len(res.Drops),
			"inserted", res.Load.Inserted,
			"failed_rows", len(res.Load.Failures),
		)
	} else {
		p.metrics.Runs.WithLabelValues("failure").Inc()
		logger.Error("etl run failed", "error", res.Err)
	}
	return res
}

// DryRun extracts, transforms and validates without loading or publishing.
// Success reports whether the batch would have been loaded.
func (p *Pipeline) DryRun(ctx context.Context, dir, date string) *RunResult {
	if date == "" {
		date = p.clock.Now().Format(domain.DateLayout)
	}
	res := &RunResult{RunID: uuid.NewString(), Date: date}
	logger := p.logger.With("run_id", res.RunID, "date", date, "dry_run", true)
	logger.Info("starting validation run", "dir", dir)

	p.run(ctx, logger, dir, res, false)
	return res
}

// run hands the run-scoped logger to every stage through ctx.
func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, dir string, res *RunResult, load bool) {
	ctx = observability.WithLogger(ctx, logger)

	raws, err := p.extractor.Extract(ctx, dir, res.Date)
	if err != nil {
		res.Err = err
		return
	}
	res.Extracted = len(raws)
	p.metrics.RecordsExtracted.Add(float64(len(raws)))
	if len(raws) == 0 {
		res.Err = domain.ErrNoData
		return
	}

	tr := p.transformer.Transform(ctx, raws)
	res.Records = tr.Records
	res.Drops = tr.Drops

	res.Validation = p.validator.Validate(ctx, tr.Records)
	if !res.Validation.Valid {
		res.Err = fmt.Errorf("validation failed with %d errors", res.Validation.Total)
		return
	}
	if !load {
		res.Success = true
		return
	}

	lr, err := p.loader.Load(ctx, tr.Records)
	res.Load = lr
	if err != nil {
		res.Err = fmt.Errorf("load: %w", err)
		return
	}
	if !lr.OK() {
		res.Err = errors.New("load did not commit")
		return
	}
	res.Success = true

	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, res.RunID, tr.Records); err != nil {
		p.metrics.PublishErrors.Inc()
		logger.Warn("publish failed", "error", err, "records", len(tr.Records))
	}
}
