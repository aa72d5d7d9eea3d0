// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	TransactionsIngested prometheus.Counter
	DonorsIngested       prometheus.Counter
	RowsDropped          *prometheus.CounterVec

	// Dataset metrics
	SnapshotExamplesBuilt prometheus.Counter
	SnapshotBuildDuration prometheus.Histogram

	// Training metrics
	TrainingRunsTotal *prometheus.CounterVec
	TrainingDuration  prometheus.Histogram

	// Prediction metrics
	PredictionsTotal  *prometheus.CounterVec
	PredictionLatency prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "donor_churn"
	}

	return &Metrics{
		TransactionsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "transactions_ingested_total",
			Help:      "Total number of transaction rows ingested",
		}),
		DonorsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "donors_ingested_total",
			Help:      "Total number of donor profile rows ingested",
		}),
		RowsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_dropped_total",
			Help:      "Total number of rows dropped during cleaning by reason",
		}, []string{"source", "reason"}),

		SnapshotExamplesBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "snapshot_examples_built_total",
			Help:      "Total number of snapshot examples emitted by the builder",
		}),
		SnapshotBuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dataset",
			Name:      "build_duration_seconds",
			Help:      "Snapshot dataset build duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),

		TrainingRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "runs_total",
			Help:      "Total number of training runs by status",
		}, []string{"status"}),
		TrainingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "duration_seconds",
			Help:      "Training run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		PredictionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "predictions_total",
			Help:      "Total number of predictions served by risk label",
		}, []string{"risk"}),
		PredictionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "latency_seconds",
			Help:      "Prediction latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRowsIngested increments the ingestion counters.
func RecordRowsIngested(transactions, donors int) {
	DefaultMetrics.TransactionsIngested.Add(float64(transactions))
	DefaultMetrics.DonorsIngested.Add(float64(donors))
}

// RecordRowDropped records a row dropped during cleaning.
func RecordRowDropped(source, reason string) {
	DefaultMetrics.RowsDropped.WithLabelValues(source, reason).Inc()
}

// RecordSnapshotBuild records a completed dataset build.
func RecordSnapshotBuild(examples int, durationSeconds float64) {
	DefaultMetrics.SnapshotExamplesBuilt.Add(float64(examples))
	DefaultMetrics.SnapshotBuildDuration.Observe(durationSeconds)
}

// RecordTrainingRun records a training run.
func RecordTrainingRun(status string, durationSeconds float64) {
	DefaultMetrics.TrainingRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.TrainingDuration.Observe(durationSeconds)
}

// RecordPredictions records one scored batch: a count per risk label and a
// single latency observation for the whole batch.
func RecordPredictions(risks []string, seconds float64) {
	for _, r := range risks {
		DefaultMetrics.PredictionsTotal.WithLabelValues(r).Inc()
	}
	DefaultMetrics.PredictionLatency.Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
