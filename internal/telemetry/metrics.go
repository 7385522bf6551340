// Package telemetry holds the prometheus collectors for chain calls and
// scheduled metric recording.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics groups the collectors. Build one per registry.
type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	scheduledRuns  *prometheus.CounterVec
	lastRecordedAt prometheus.Gauge
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kyv_chain_requests_total",
				Help: "Chain calls by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kyv_chain_request_duration_seconds",
				Help:    "Chain call latency",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"op"},
		),
		scheduledRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kyv_scheduled_record_runs_total",
				Help: "Scheduled record_metrics runs by outcome",
			},
			[]string{"outcome"},
		),
		lastRecordedAt: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kyv_last_recorded_timestamp_seconds",
				Help: "Timestamp passed to the last accepted record_metrics",
			},
		),
	}
	m.registry.MustRegister(m.requests, m.duration, m.scheduledRuns, m.lastRecordedAt)
	return m
}

// Observe records one chain call.
func (m *Metrics) Observe(op, outcome string, d time.Duration) {
	m.requests.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}

// ScheduledRun records one scheduled record_metrics attempt.
func (m *Metrics) ScheduledRun(outcome string, recordedAt int64) {
	m.scheduledRuns.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.lastRecordedAt.Set(float64(recordedAt))
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
