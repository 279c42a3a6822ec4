package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vultisig/bigchain-connection/config"
	"github.com/vultisig/bigchain-connection/connection"
	"github.com/vultisig/bigchain-connection/internal/graceful"
	"github.com/vultisig/bigchain-connection/internal/logging"
	"github.com/vultisig/bigchain-connection/internal/metrics"
	"github.com/vultisig/bigchain-connection/libhttp"
	pmetrics "github.com/vultisig/bigchain-connection/metrics"
)

const metricsStopTimeout = 5 * time.Second

type app struct {
	cfg     *config.TxWatchConfig
	logger  *logrus.Logger
	conn    *connection.Connection
	metrics *metrics.Server
	cancel  context.CancelFunc
}

// runE loads the configuration and builds the connection before calling fn.
// The command context is cancelled on SIGINT/SIGTERM.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := a.setup(cmd)
		if err != nil {
			return err
		}
		return fn(cmd, args)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.ReadTxWatchConfig()
	if err != nil {
		return fmt.Errorf("config.ReadTxWatchConfig: %w", err)
	}
	logger, err := logging.NewLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logging.NewLogger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger

	ctx, cancel := context.WithCancel(cmd.Context())
	a.cancel = cancel
	cmd.SetContext(ctx)
	go func() {
		if graceful.HandleSignals(ctx, cancel) {
			logger.Info("got exit signal, stopping in-flight requests...")
		}
	}()

	var connMetrics pmetrics.ConnectionMetrics
	if cfg.Metrics.Enabled {
		connMetrics = metrics.NewConnectionMetrics()
	}
	a.metrics = metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceConnection}, logger)

	a.conn = connection.NewConnection(
		logger,
		cfg.Connection,
		libhttp.NewClient(logger, cfg.HTTP),
		connMetrics,
	)
	return nil
}

func (a *app) close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsStopTimeout)
		defer cancel()
		err := a.metrics.Stop(ctx)
		if err != nil {
			a.logger.WithError(err).Error("failed to stop metrics server")
		}
	}
}
