// Package telemetry wires Prometheus metrics and OpenTelemetry tracing for
// walkscale runs.
//
// Both are optional. A nil *Metrics is safe to use and records nothing, and
// Init with an empty trace file installs a no-op tracer.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one process. It owns its registry so that
// textfile output contains only walkscale series.
type Metrics struct {
	Registry      *prometheus.Registry
	OracleCalls   *prometheus.CounterVec
	OracleSeconds *prometheus.HistogramVec
	Runs          *prometheus.CounterVec
	Buckets       prometheus.Counter
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		OracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walkscale",
			Name:      "oracle_calls_total",
			Help:      "Simulation oracle calls by strategy and result.",
		}, []string{"strategy", "result"}),
		OracleSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "walkscale",
			Name:      "oracle_call_seconds",
			Help:      "Wall time of simulation oracle calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"strategy"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walkscale",
			Name:      "runs_total",
			Help:      "Experiment runs by final status.",
		}, []string{"status"}),
		Buckets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "walkscale",
			Name:      "buckets_completed_total",
			Help:      "Sweep buckets measured successfully.",
		}),
	}
	m.Registry.MustRegister(m.OracleCalls, m.OracleSeconds, m.Runs, m.Buckets)
	return m
}

// ObserveOracleCall records one oracle call.
func (m *Metrics) ObserveOracleCall(strategy string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.OracleCalls.WithLabelValues(strategy, result).Inc()
	m.OracleSeconds.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// ObserveBucket counts a completed bucket.
func (m *Metrics) ObserveBucket() {
	if m == nil {
		return
	}
	m.Buckets.Inc()
}

// ObserveRun counts a finished run by status.
func (m *Metrics) ObserveRun(status string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(status).Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
