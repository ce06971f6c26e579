package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	require.NoError(t, metrics.Track("sweep").End(nil))
	cause := errors.New("boom")
	assert.Same(t, cause, metrics.Track("sweep").End(cause))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("sweep", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("sweep", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("sweep")))
	assert.Greater(t, testutil.ToFloat64(metrics.success.WithLabelValues("sweep")), 0.0)

	require.Error(t, metrics.Track("followup").End(cause))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.success.WithLabelValues("followup")))
}

func TestAddExpired(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.AddExpired(3)
	metrics.AddExpired(0)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.expired))
}

func TestNilMetricsTrackerPassesErrorThrough(t *testing.T) {
	var metrics *Metrics
	cause := errors.New("boom")
	assert.Same(t, cause, metrics.Track("sweep").End(cause))
	metrics.AddExpired(1)
}
