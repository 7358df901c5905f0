package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder observes update-path outcomes. Implementations must be
// safe for concurrent use.
type MetricsRecorder interface {
	ObserveUpdate(outcome string, duration time.Duration)
}

// Update outcome labels recorded per request.
const (
	OutcomeCommitted = "committed"
	OutcomeMalformed = "malformed"
	OutcomeNotFound  = "not_found"
	OutcomeRejected  = "rejected"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)

// NopMetrics discards all observations.
type NopMetrics struct{}

// ObserveUpdate implements MetricsRecorder.
func (NopMetrics) ObserveUpdate(string, time.Duration) {}

// PrometheusMetrics records update outcomes and latencies to a Prometheus
// registry.
type PrometheusMetrics struct {
	updates  *prometheus.CounterVec
	duration prometheus.Histogram
}

var _ MetricsRecorder = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics constructs and registers the update-path collectors.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schedcore",
			Name:      "operation_updates_total",
			Help:      "Operation update requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "schedcore",
			Name:      "operation_update_duration_seconds",
			Help:      "End-to-end latency of operation updates.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.updates, m.duration)
	return m
}

// ObserveUpdate implements MetricsRecorder.
func (m *PrometheusMetrics) ObserveUpdate(outcome string, duration time.Duration) {
	m.updates.WithLabelValues(outcome).Inc()
	m.duration.Observe(duration.Seconds())
}
