package metrics

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const defaultPort = 9108

type Config struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled,omitempty" yaml:"enabled,omitempty" split_words:"true"`
	Host    string `mapstructure:"host" json:"host,omitempty" yaml:"host,omitempty" split_words:"true"`
	Port    int    `mapstructure:"port" json:"port,omitempty" yaml:"port,omitempty" split_words:"true" validate:"gte=0,lte=65535"`
	Token   string `mapstructure:"token" json:"token,omitempty" yaml:"token,omitempty" split_words:"true"`
}

func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Host:    "127.0.0.1",
		Port:    defaultPort,
	}
}

func (c Config) Addr() string {
	port := c.Port
	if port <= 0 {
		port = defaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

type Server struct {
	server *http.Server
	logger *logrus.Logger
}

func bearerAuthMiddleware(handler http.Handler, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

// NewHandler serves /metrics from registry (default registry when nil) and /health.
func NewHandler(registry *prometheus.Registry, token string) http.Handler {
	var metricsHandler http.Handler
	if registry != nil {
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	} else {
		metricsHandler = promhttp.Handler()
	}
	if token != "" {
		metricsHandler = bearerAuthMiddleware(metricsHandler, token)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

func NewServer(cfg Config, logger *logrus.Logger, registry *prometheus.Registry) *Server {
	if cfg.Token != "" {
		logger.Info("metrics endpoint authentication enabled")
	}

	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      NewHandler(registry, cfg.Token),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  15 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in a goroutine until Stop.
func (s *Server) Start() {
	go func() {
		s.logger.Infof("starting metrics server on %s", s.server.Addr)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("metrics server failed: %v", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("s.server.Shutdown: %w", err)
	}
	return nil
}

// StartMetricsServer registers services on a fresh registry and starts serving
// it. It returns nil when metrics are disabled.
func StartMetricsServer(cfg Config, services []string, logger *logrus.Logger) *Server {
	if !cfg.Enabled {
		logger.Info("metrics server disabled")
		return nil
	}

	registry := prometheus.NewRegistry()
	RegisterMetrics(services, registry, logger)

	server := NewServer(cfg, logger, registry)
	server.Start()
	return server
}
