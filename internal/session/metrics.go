package session

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collectors for live sessions, grounded on
// _examples/mattcburns-shoal-provision/internal/provisioner/metrics/metrics.go's
// package-level registry + Observe*/Inc* helper pattern.
var (
	metricsMu sync.RWMutex
	registry  *prometheus.Registry

	sessionsActive   prometheus.Gauge
	heartbeatRTT     prometheus.Histogram
	decodeErrors     *prometheus.CounterVec
	sessionsOpened   prometheus.Counter
	sessionsClosed   *prometheus.CounterVec
)

func init() {
	resetMetricsLocked()
}

// Registry exposes the metrics registry for an HTTP /metrics handler.
func Registry() *prometheus.Registry {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return registry
}

// ResetMetrics reinitializes all collectors; used by tests for clean state.
func ResetMetrics() {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	resetMetricsLocked()
}

func resetMetricsLocked() {
	reg := prometheus.NewRegistry()

	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "barto",
		Subsystem: "session",
		Name:      "active",
		Help:      "Number of currently live sessions.",
	})

	rtt := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "barto",
		Subsystem: "session",
		Name:      "heartbeat_rtt_seconds",
		Help:      "Observed heartbeat ping/pong round-trip time.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	decErr := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barto",
		Subsystem: "session",
		Name:      "decode_errors_total",
		Help:      "Decode errors on inbound frames, by reason.",
	}, []string{"reason"})

	opened := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "barto",
		Subsystem: "session",
		Name:      "opened_total",
		Help:      "Total sessions opened.",
	})

	closed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "barto",
		Subsystem: "session",
		Name:      "closed_total",
		Help:      "Total sessions closed, by reason.",
	}, []string{"reason"})

	reg.MustRegister(active, rtt, decErr, opened, closed)

	registry = reg
	sessionsActive = active
	heartbeatRTT = rtt
	decodeErrors = decErr
	sessionsOpened = opened
	sessionsClosed = closed
}

func observeOpen() {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	sessionsActive.Inc()
	sessionsOpened.Inc()
}

func observeClose(reason string) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	sessionsActive.Dec()
	sessionsClosed.WithLabelValues(reason).Inc()
}

func observeDecodeError(reason string) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	decodeErrors.WithLabelValues(reason).Inc()
}

func observeHeartbeatRTT(d time.Duration) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	heartbeatRTT.Observe(d.Seconds())
}
