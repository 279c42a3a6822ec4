package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vultisig/bigchain-connection/metrics"
)

var (
	// Requests by endpoint (used by RecordRequest)
	connectionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "connection",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by endpoint, method and result",
		},
		[]string{"endpoint", "method", "success"},
	)

	connectionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "connection",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests by endpoint",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Status checks (used by RecordPollAttempt)
	connectionPollAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "connection",
			Subsystem: "poll",
			Name:      "status_checks_total",
			Help:      "Total number of status checks made by poll sessions",
		},
	)

	// Settled sessions (used by RecordPollResult)
	connectionPollResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "connection",
			Subsystem: "poll",
			Name:      "results_total",
			Help:      "Total number of settled poll sessions by outcome",
		},
		[]string{"outcome"},
	)

	connectionPollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "connection",
			Subsystem: "poll",
			Name:      "duration_seconds",
			Help:      "Time from poll start to settlement by outcome",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	connectionPollChecks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "connection",
			Subsystem: "poll",
			Name:      "checks_per_session",
			Help:      "Number of status checks a poll session needed to settle",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	connectionActivePolls = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "connection",
			Subsystem: "poll",
			Name:      "active_sessions",
			Help:      "Number of running poll sessions",
		},
	)
)

// ConnectionMetrics provides Prometheus implementation of ConnectionMetrics interface
type ConnectionMetrics struct{}

func NewConnectionMetrics() metrics.ConnectionMetrics {
	return &ConnectionMetrics{}
}

func (cm *ConnectionMetrics) RecordRequest(endpoint, method string, success bool, duration float64) {
	connectionRequestsTotal.WithLabelValues(endpoint, method, strconv.FormatBool(success)).Inc()
	connectionRequestDuration.WithLabelValues(endpoint).Observe(duration)
}

func (cm *ConnectionMetrics) RecordPollAttempt() {
	connectionPollAttemptsTotal.Inc()
}

func (cm *ConnectionMetrics) RecordPollResult(outcome string, attempts int, duration float64) {
	connectionPollResultsTotal.WithLabelValues(outcome).Inc()
	connectionPollDuration.WithLabelValues(outcome).Observe(duration)
	connectionPollChecks.Observe(float64(attempts))
}

func (cm *ConnectionMetrics) IncActivePolls() {
	connectionActivePolls.Inc()
}

func (cm *ConnectionMetrics) DecActivePolls() {
	connectionActivePolls.Dec()
}
