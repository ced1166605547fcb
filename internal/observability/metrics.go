package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline.
type Metrics struct {
	RowsParsed        prometheus.Counter
	RowsSkipped       prometheus.Counter
	DuplicatesDropped prometheus.Counter
	LookupErrors      *prometheus.CounterVec // label: entity={state,county,purpose,owner_type}
	RecordsInserted   prometheus.Counter
	RecordsFailed     prometheus.Counter
	CountUpdateErrors *prometheus.CounterVec // label: entity
	IngestRunning     prometheus.Gauge

	BatchDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsParsed,
		m.RowsSkipped,
		m.DuplicatesDropped,
		m.LookupErrors,
		m.RecordsInserted,
		m.RecordsFailed,
		m.CountUpdateErrors,
		m.IngestRunning,
		m.BatchDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nid_etl",
			Name:      "rows_parsed_total",
			Help:      "Data rows successfully mapped to dam records.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nid_etl",
			Name:      "rows_skipped_total",
			Help:      "Data rows skipped as malformed or missing a NID ID.",
		}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nid_etl",
			Name:      "duplicates_dropped_total",
			Help:      "Rows dropped because an earlier row had the same NID ID.",
		}),
		LookupErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nid_etl",
			Name:      "lookup_upsert_errors_total",
			Help:      "Reference-table upsert failures by entity type.",
		}, []string{"entity"}),
		RecordsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nid_etl",
			Name:      "records_inserted_total",
			Help:      "Dam records upserted into the primary table.",
		}),
		RecordsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nid_etl",
			Name:      "records_failed_total",
			Help:      "Dam records in batches the store rejected.",
		}),
		CountUpdateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nid_etl",
			Name:      "count_update_errors_total",
			Help:      "Aggregate count recompute failures by entity type.",
		}, []string{"entity"}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nid_etl",
			Name:      "ingest_running",
			Help:      "1 while an ingestion run is active, 0 otherwise.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nid_etl",
			Name:      "batch_upsert_duration_seconds",
			Help:      "Duration of one primary-table batch upsert.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
