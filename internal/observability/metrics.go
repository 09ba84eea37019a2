package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	Registry *prometheus.Registry

	RecordsExtracted   prometheus.Counter
	RecordsTransformed prometheus.Counter
	RecordsDropped     *prometheus.CounterVec // labels: reason
	ValidationErrors   prometheus.Counter
	RowsLoaded         prometheus.Counter
	RowsFailed         prometheus.Counter
	PublishErrors      prometheus.Counter

	Runs        *prometheus.CounterVec // labels: outcome={success,failure}
	RunDuration prometheus.Histogram
	LastSuccess prometheus.Gauge
}

// NewMetrics creates all pipeline metrics on a fresh registry. The registry
// also carries the Go and process collectors so /metrics and Pushgateway
// payloads look like the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.Registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// NewMetricsForTesting creates Metrics without the runtime collectors.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Raw CSV rows read from matching input files.",
		}),
		RecordsTransformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_transformed_total",
			Help:      "Raw rows converted into canonical records.",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Raw rows dropped during transformation, by reason.",
		}, []string{"reason"}),
		ValidationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Validation diagnostics recorded, before truncation.",
		}),
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Rows committed to the store.",
		}),
		RowsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_failed_total",
			Help:      "Rows skipped because the insert failed.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed attempts to publish loaded observations.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-validate-load run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	m.Registry.MustRegister(
		m.RecordsExtracted,
		m.RecordsTransformed,
		m.RecordsDropped,
		m.ValidationErrors,
		m.RowsLoaded,
		m.RowsFailed,
		m.PublishErrors,
		m.Runs,
		m.RunDuration,
		m.LastSuccess,
	)

	return m
}
