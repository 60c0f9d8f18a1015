// Package metrics exposes Prometheus instrumentation for the router pipeline.
// All methods are nil-safe so callers can pass a nil *Metrics to disable
// instrumentation without branching at every call site.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the pipeline's Prometheus collectors.
type Metrics struct {
	turns          *prometheus.CounterVec
	fetchErrors    *prometheus.CounterVec
	dialogRetries  prometheus.Counter
	resolverTiers  *prometheus.CounterVec
	classifierErrs prometheus.Counter
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry or a fresh
// prometheus.NewRegistry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusmesh",
			Name:      "turns_total",
			Help:      "Completed turns by answering agent and result status.",
		}, []string{"agent", "status"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusmesh",
			Name:      "fetch_errors_total",
			Help:      "Data source fetch failures by handler mode.",
		}, []string{"mode"}),
		dialogRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "campusmesh",
			Name:      "dialog_retries_total",
			Help:      "Dialog turns re-prompted after a failed slot parse.",
		}),
		resolverTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusmesh",
			Name:      "resolver_tier_hits_total",
			Help:      "Mode resolutions by winning precedence tier.",
		}, []string{"tier"}),
		classifierErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "campusmesh",
			Name:      "classifier_errors_total",
			Help:      "Intent classifier calls that returned an error.",
		}),
	}

	reg.MustRegister(m.turns, m.fetchErrors, m.dialogRetries, m.resolverTiers, m.classifierErrs)

	return m
}

// ObserveTurn counts one completed turn.
func (m *Metrics) ObserveTurn(agentID, status string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(agentID, status).Inc()
}

// ObserveFetchError counts one data source failure for the given mode.
func (m *Metrics) ObserveFetchError(mode string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(mode).Inc()
}

// ObserveDialogRetry counts one re-prompted dialog turn.
func (m *Metrics) ObserveDialogRetry() {
	if m == nil {
		return
	}
	m.dialogRetries.Inc()
}

// ObserveResolverTier counts one mode resolution by winning tier.
func (m *Metrics) ObserveResolverTier(tier string) {
	if m == nil {
		return
	}
	m.resolverTiers.WithLabelValues(tier).Inc()
}

// ObserveClassifierError counts one failed classifier call.
func (m *Metrics) ObserveClassifierError() {
	if m == nil {
		return
	}
	m.classifierErrs.Inc()
}
