package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTurn("data_query", "ok")
	m.ObserveTurn("data_query", "ok")
	m.ObserveTurn("rag", "ok")
	m.ObserveFetchError("payments")
	m.ObserveDialogRetry()
	m.ObserveResolverTier("classifier")
	m.ObserveClassifierError()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.turns.WithLabelValues("data_query", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.turns.WithLabelValues("rag", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.fetchErrors.WithLabelValues("payments")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.dialogRetries))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.resolverTiers.WithLabelValues("classifier")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.classifierErrs))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveTurn("rag", "ok")
		m.ObserveFetchError("students")
		m.ObserveDialogRetry()
		m.ObserveResolverTier("fallback")
		m.ObserveClassifierError()
	})
}
