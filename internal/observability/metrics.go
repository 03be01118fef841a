package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the research agent.
// Metrics are organized by subsystem: topics, workflows, stages, sources,
// and aggregation. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// TopicsSubmitted counts research topics accepted for processing.
	TopicsSubmitted prometheus.Counter

	// WorkflowsStarted counts workflow executions initiated.
	WorkflowsStarted prometheus.Counter

	// WorkflowsCompleted counts workflow executions that finished successfully.
	WorkflowsCompleted prometheus.Counter

	// WorkflowsFailed counts workflow executions that ended in failure.
	WorkflowsFailed prometheus.Counter

	// WorkflowDuration observes the end-to-end workflow duration in seconds.
	WorkflowDuration prometheus.Histogram

	// StageDuration observes per-stage duration in seconds, labeled by stage.
	StageDuration *prometheus.HistogramVec

	// StageFailures counts stage failures, labeled by stage.
	StageFailures *prometheus.CounterVec

	// SearchesCompleted counts successful source searches, labeled by source.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed source searches, labeled by source.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes source search duration in seconds, labeled by source.
	SearchDuration *prometheus.HistogramVec

	// ArticlesBySource counts articles collected, labeled by source.
	ArticlesBySource *prometheus.CounterVec

	// ArticlesDuplicate counts articles dropped by title deduplication.
	ArticlesDuplicate prometheus.Counter

	// ResultsPersisted counts research results written to storage.
	ResultsPersisted prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TopicsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topics_submitted_total",
			Help:      "Total number of research topics submitted",
		}),
		WorkflowsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_started_total",
			Help:      "Total number of research workflows started",
		}),
		WorkflowsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_completed_total",
			Help:      "Total number of research workflows completed successfully",
		}),
		WorkflowsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_failed_total",
			Help:      "Total number of research workflows that failed",
		}),
		WorkflowDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Duration of research workflows in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of workflow stages in seconds by stage",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage"}),
		StageFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Total number of workflow stage failures by stage",
		}, []string{"stage"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of source searches completed by source",
		}, []string{"source"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of source searches that failed by source",
		}, []string{"source"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of source searches in seconds by source",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
		ArticlesBySource: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_by_source_total",
			Help:      "Total number of articles collected by source",
		}, []string{"source"}),
		ArticlesDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_duplicate_total",
			Help:      "Total number of duplicate articles removed",
		}),
		ResultsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_persisted_total",
			Help:      "Total number of research results persisted",
		}),
	}
}

// RecordTopicSubmitted records that a topic was accepted.
func (m *Metrics) RecordTopicSubmitted() {
	m.TopicsSubmitted.Inc()
}

// RecordWorkflowStarted records that a workflow execution has started.
func (m *Metrics) RecordWorkflowStarted() {
	m.WorkflowsStarted.Inc()
}

// RecordWorkflowCompleted records a successful workflow execution.
func (m *Metrics) RecordWorkflowCompleted(durationSeconds float64) {
	m.WorkflowsCompleted.Inc()
	m.WorkflowDuration.Observe(durationSeconds)
}

// RecordWorkflowFailed records a failed workflow execution.
func (m *Metrics) RecordWorkflowFailed(durationSeconds float64) {
	m.WorkflowsFailed.Inc()
	m.WorkflowDuration.Observe(durationSeconds)
}

// RecordStageCompleted records the duration of a completed stage.
func (m *Metrics) RecordStageCompleted(stage string, durationSeconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordStageFailed records a failed stage.
func (m *Metrics) RecordStageFailed(stage string, durationSeconds float64) {
	m.StageFailures.WithLabelValues(stage).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordSearchCompleted records a completed source search.
func (m *Metrics) RecordSearchCompleted(source string, articleCount int, durationSeconds float64) {
	m.SearchesCompleted.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
	m.ArticlesBySource.WithLabelValues(source).Add(float64(articleCount))
}

// RecordSearchFailed records a failed source search.
func (m *Metrics) RecordSearchFailed(source string, durationSeconds float64) {
	m.SearchesFailed.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordDuplicatesRemoved records articles dropped during deduplication.
func (m *Metrics) RecordDuplicatesRemoved(count int) {
	m.ArticlesDuplicate.Add(float64(count))
}

// RecordResultsPersisted records results written to storage.
func (m *Metrics) RecordResultsPersisted(count int) {
	m.ResultsPersisted.Add(float64(count))
}
