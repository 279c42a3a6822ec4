package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// Service names for metrics registration
const (
	ServiceConnection = "connection"
)

// RegisterMetrics registers metrics for the specified services with a custom registry
func RegisterMetrics(services []string, registry *prometheus.Registry, logger *logrus.Logger) {
	// Always register Go and process metrics
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", registry, logger)
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector", registry, logger)

	for _, service := range services {
		switch service {
		case ServiceConnection:
			registerConnectionMetrics(registry, logger)
		default:
			logger.Warnf("Unknown service type for metrics registration: %s", service)
		}
	}
}

// registerIfNotExists registers a collector if it's not already registered
func registerIfNotExists(collector prometheus.Collector, name string, registry *prometheus.Registry, logger *logrus.Logger) {
	if err := registry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegErr) {
			logger.Errorf("Failed to register %s: %v", name, err)
		}
	}
}

func registerConnectionMetrics(registry *prometheus.Registry, logger *logrus.Logger) {
	registerIfNotExists(connectionRequestsTotal, "connection_requests_total", registry, logger)
	registerIfNotExists(connectionRequestDuration, "connection_request_duration", registry, logger)
	registerIfNotExists(connectionPollAttemptsTotal, "connection_poll_attempts_total", registry, logger)
	registerIfNotExists(connectionPollResultsTotal, "connection_poll_results_total", registry, logger)
	registerIfNotExists(connectionPollDuration, "connection_poll_duration", registry, logger)
	registerIfNotExists(connectionPollChecks, "connection_poll_checks", registry, logger)
	registerIfNotExists(connectionActivePolls, "connection_active_polls", registry, logger)
}
