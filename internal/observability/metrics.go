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
	// Intake metrics
	MeasurementsProcessed prometheus.Counter
	MeasurementsRejected  *prometheus.CounterVec
	ResultsComputed       *prometheus.CounterVec
	ResultsPublished      prometheus.Counter
	ResultPublishErrors   prometheus.Counter

	// Reconciliation metrics
	ReconcileRunsTotal     *prometheus.CounterVec
	StaleResultsRecomputed prometheus.Counter
	OrphanResultsDeleted   prometheus.Counter

	// Pipeline metrics
	PipelineRunsTotal  *prometheus.CounterVec
	PipelineDuration   *prometheus.HistogramVec
	AggregatesComputed prometheus.Counter
	ReportsGenerated   prometheus.Counter

	// Health metrics
	LastSuccessfulIntake    prometheus.Gauge
	LastSuccessfulReconcile prometheus.Gauge
	LastSuccessfulPipeline  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "bodycomp_lab"
	}

	return &Metrics{
		// Intake metrics
		MeasurementsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "measurements_processed_total",
			Help:      "Total number of measurement messages processed successfully",
		}),
		MeasurementsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "measurements_rejected_total",
			Help:      "Total number of measurement messages rejected by reason",
		}, []string{"reason"}),
		ResultsComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "results_computed_total",
			Help:      "Total number of results computed by trigger",
		}, []string{"trigger"}),
		ResultsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "results_published_total",
			Help:      "Total number of result messages published to the broker",
		}),
		ResultPublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intake",
			Name:      "result_publish_errors_total",
			Help:      "Total number of failed result publishes",
		}),

		// Reconciliation metrics
		ReconcileRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Total number of reconciliation runs by status",
		}, []string{"status"}),
		StaleResultsRecomputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "stale_results_recomputed_total",
			Help:      "Total number of stale or missing results recomputed",
		}),
		OrphanResultsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "orphan_results_deleted_total",
			Help:      "Total number of orphaned results deleted",
		}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		AggregatesComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "aggregates_computed_total",
			Help:      "Total number of cohort aggregates computed",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Health metrics
		LastSuccessfulIntake: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_intake_timestamp",
			Help:      "Unix timestamp of last successfully processed measurement",
		}),
		LastSuccessfulReconcile: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_reconcile_timestamp",
			Help:      "Unix timestamp of last successful reconciliation run",
		}),
		LastSuccessfulPipeline: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordMeasurementProcessed increments the processed counter and refreshes
// the intake health timestamp.
func RecordMeasurementProcessed() {
	DefaultMetrics.MeasurementsProcessed.Inc()
	DefaultMetrics.LastSuccessfulIntake.SetToCurrentTime()
}

// RecordMeasurementRejected records a rejected measurement message.
func RecordMeasurementRejected(reason string) {
	DefaultMetrics.MeasurementsRejected.WithLabelValues(reason).Inc()
}

// RecordResultComputed records a computed result by trigger
// (intake, backfill, reconcile, pipeline).
func RecordResultComputed(trigger string) {
	DefaultMetrics.ResultsComputed.WithLabelValues(trigger).Inc()
}

// RecordResultPublished records the outcome of one result publish.
func RecordResultPublished(err error) {
	if err != nil {
		DefaultMetrics.ResultPublishErrors.Inc()
		return
	}
	DefaultMetrics.ResultsPublished.Inc()
}

// RecordReconcileRun records a reconciliation run.
func RecordReconcileRun(status string, recomputed, orphansDeleted int) {
	DefaultMetrics.ReconcileRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.StaleResultsRecomputed.Add(float64(recomputed))
	DefaultMetrics.OrphanResultsDeleted.Add(float64(orphansDeleted))
	if status == "success" {
		DefaultMetrics.LastSuccessfulReconcile.SetToCurrentTime()
	}
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulPipeline.SetToCurrentTime()
	}
}

// RecordAggregateComputed increments the aggregates computed counter.
func RecordAggregateComputed() {
	DefaultMetrics.AggregatesComputed.Inc()
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}
