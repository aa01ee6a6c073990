package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "obs"

// Metrics counts what the scheduler does.
type Metrics struct {
	flushes  prometheus.Counter
	runs     prometheus.Counter
	failures prometheus.Counter
	pruned   prometheus.Counter
	pending  prometheus.Gauge
}

// NewMetrics registers the scheduler metrics on reg.
// Registering twice on the same registry panics, so each runtime needs its own.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "flushes_total",
			Help:      "Number of batches flushed",
		}),
		runs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reactions_run_total",
			Help:      "Number of reaction runs triggered by flushes",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reaction_failures_total",
			Help:      "Number of reaction runs that panicked",
		}),
		pruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reactions_pruned_total",
			Help:      "Number of disposed reactions dropped from dependents lists",
		}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pending_observables",
			Help:      "Observables waiting for the next flush",
		}),
	}
}

func (m *Metrics) Flushes() prometheus.Counter  { return m.flushes }
func (m *Metrics) Runs() prometheus.Counter     { return m.runs }
func (m *Metrics) Failures() prometheus.Counter { return m.failures }
func (m *Metrics) Pruned() prometheus.Counter   { return m.pruned }
func (m *Metrics) Pending() prometheus.Gauge    { return m.pending }
