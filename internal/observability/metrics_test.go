package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_research_agent_new")

	assert.NotNil(t, m.TopicsSubmitted)
	assert.NotNil(t, m.WorkflowsStarted)
	assert.NotNil(t, m.WorkflowsCompleted)
	assert.NotNil(t, m.WorkflowsFailed)
	assert.NotNil(t, m.WorkflowDuration)
	assert.NotNil(t, m.StageDuration)
	assert.NotNil(t, m.StageFailures)
	assert.NotNil(t, m.SearchesCompleted)
	assert.NotNil(t, m.SearchesFailed)
	assert.NotNil(t, m.ArticlesBySource)
	assert.NotNil(t, m.ArticlesDuplicate)
	assert.NotNil(t, m.ResultsPersisted)
}

func TestRecordTopicSubmitted(t *testing.T) {
	m := NewMetrics("test_topic_submitted")

	initial := testutil.ToFloat64(m.TopicsSubmitted)
	m.RecordTopicSubmitted()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.TopicsSubmitted))
}

func TestRecordWorkflowCompleted(t *testing.T) {
	m := NewMetrics("test_workflow_completed")

	initial := testutil.ToFloat64(m.WorkflowsCompleted)
	m.RecordWorkflowCompleted(3.2)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.WorkflowsCompleted))

	histCount, err := getHistogramSampleCount(m.WorkflowDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordWorkflowFailed(t *testing.T) {
	m := NewMetrics("test_workflow_failed")

	initial := testutil.ToFloat64(m.WorkflowsFailed)
	m.RecordWorkflowFailed(1.5)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.WorkflowsFailed))
}

func TestRecordStageFailed(t *testing.T) {
	m := NewMetrics("test_stage_failed")

	m.RecordStageFailed("Data Gathering", 0.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StageFailures.WithLabelValues("Data Gathering")))
}

func TestRecordSearchCompleted(t *testing.T) {
	m := NewMetrics("test_search_completed")

	m.RecordSearchCompleted("Wikipedia", 3, 0.8)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesCompleted.WithLabelValues("Wikipedia")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.ArticlesBySource.WithLabelValues("Wikipedia")))
}

func TestRecordSearchFailed(t *testing.T) {
	m := NewMetrics("test_search_failed")

	m.RecordSearchFailed("Reddit", 1.0)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SearchesFailed.WithLabelValues("Reddit")))
}

func TestRecordDuplicatesRemoved(t *testing.T) {
	m := NewMetrics("test_duplicates_removed")

	initial := testutil.ToFloat64(m.ArticlesDuplicate)
	m.RecordDuplicatesRemoved(4)
	assert.Equal(t, initial+4, testutil.ToFloat64(m.ArticlesDuplicate))
}

func TestRecordResultsPersisted(t *testing.T) {
	m := NewMetrics("test_results_persisted")

	initial := testutil.ToFloat64(m.ResultsPersisted)
	m.RecordResultsPersisted(5)
	assert.Equal(t, initial+5, testutil.ToFloat64(m.ResultsPersisted))
}

// Helper to get histogram sample count
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	var m prometheus.Metric
	for m = range ch {
		break
	}

	var d = &dto.Metric{}
	if err := m.Write(d); err != nil {
		return 0, err
	}

	return d.Histogram.GetSampleCount(), nil
}
