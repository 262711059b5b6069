package hooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records handler invocations.
type Metrics struct {
	calls    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newposter",
			Subsystem: "hooks",
			Name:      "handler_calls_total",
			Help:      "Extension handler invocations.",
		}, []string{"category", "hook", "extension"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newposter",
			Subsystem: "hooks",
			Name:      "handler_failures_total",
			Help:      "Extension handler invocations that returned an error or panicked.",
		}, []string{"category", "hook", "extension"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "newposter",
			Subsystem: "hooks",
			Name:      "handler_duration_seconds",
			Help:      "Extension handler latency.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"category", "hook"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.failures, m.duration)
	}
	return m
}

func (m *Metrics) observe(category Category, hook, extensionID string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(string(category), hook, extensionID).Inc()
	if err != nil {
		m.failures.WithLabelValues(string(category), hook, extensionID).Inc()
	}
	m.duration.WithLabelValues(string(category), hook).Observe(elapsed.Seconds())
}
