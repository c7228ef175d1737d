// Package metrics holds the Prometheus instruments recorded while bundles
// are scheduled. Instruments are registered on a caller-provided registry so
// runs and tests stay isolated from the global one.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bundlesched"

// Metrics are the per-run scheduling instruments.
type Metrics struct {
	registry *prometheus.Registry

	bundlesTotal   *prometheus.CounterVec
	nodesScheduled prometheus.Counter
	threadsTotal   prometheus.Counter
	sliceSetsTotal prometheus.Counter
	planDuration   prometheus.Histogram
}

// New creates the instruments and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bundlesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundles_total",
			Help:      "Bundles processed, by outcome (complete, incomplete, error).",
		}, []string{"outcome"}),
		nodesScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_scheduled_total",
			Help:      "Bundle members holding an operation index after scheduling.",
		}),
		threadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threads_total",
			Help:      "Threads created across all bundles.",
		}),
		sliceSetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slice_sets_total",
			Help:      "Slice sets sequenced across all bundles.",
		}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Time spent planning one bundle.",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1},
		}),
	}
	m.registry.MustRegister(m.bundlesTotal, m.nodesScheduled, m.threadsTotal, m.sliceSetsTotal, m.planDuration)
	return m
}

// ObservePlan records the size of a bundle plan and how long it took.
func (m *Metrics) ObservePlan(threads, sliceSets int, took time.Duration) {
	m.threadsTotal.Add(float64(threads))
	m.sliceSetsTotal.Add(float64(sliceSets))
	m.planDuration.Observe(took.Seconds())
}

// ObserveBundle records the outcome of scheduling one bundle.
func (m *Metrics) ObserveBundle(complete bool, scheduledNodes int) {
	outcome := "complete"
	if !complete {
		outcome = "incomplete"
	}
	m.bundlesTotal.WithLabelValues(outcome).Inc()
	m.nodesScheduled.Add(float64(scheduledNodes))
}

// ObserveError records a bundle that could not be scheduled.
func (m *Metrics) ObserveError() {
	m.bundlesTotal.WithLabelValues("error").Inc()
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile writes every metric in the Prometheus text format to path.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
