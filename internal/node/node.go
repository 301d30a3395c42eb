// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/ccgov"
	"github.com/blinklabs-io/ccgov/internal/config"
	"github.com/blinklabs-io/ccgov/power"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NodeOptions builds node options from the loaded config
func NodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) ([]ccgov.ConfigOptionFunc, error) {
	votingPeriod, err := cfg.VotingPeriodDuration()
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return nil, err
	}
	oracles, err := power.NewRouterFromConfig(cfg.PowerOracles)
	if err != nil {
		return nil, fmt.Errorf("invalid power oracle config: %w", err)
	}
	opts := []ccgov.ConfigOptionFunc{
		ccgov.WithLogger(logger),
		ccgov.WithPrometheusRegistry(promRegistry),
		ccgov.WithDatabasePath(cfg.DatabasePath),
		ccgov.WithBlobPlugin(cfg.BlobPlugin),
		ccgov.WithChainID(cfg.ChainID),
		ccgov.WithContract(cfg.Contract),
		ccgov.WithNamespace(cfg.Namespace),
		ccgov.WithVotingPeriod(votingPeriod),
		ccgov.WithPowerOracles(oracles),
		ccgov.WithPowerWhitelist(cfg.EnforceWhitelist, cfg.PowerWhitelist...),
		ccgov.WithPeers(cfg.Peers...),
		ccgov.WithTlsCertFilePath(cfg.TlsCertFilePath),
		ccgov.WithTlsKeyFilePath(cfg.TlsKeyFilePath),
		ccgov.WithTracing(cfg.Tracing),
		ccgov.WithTracingStdout(cfg.TracingStdout),
		ccgov.WithShutdownTimeout(shutdownTimeout),
	}
	if cfg.ApiPort > 0 {
		opts = append(
			opts,
			ccgov.WithApiListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
			),
		)
	}
	return opts, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := NodeOptions(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return err
	}
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	n, err := ccgov.New(ccgov.NewConfig(opts...))
	if err != nil {
		return err
	}

	// Metrics listener
	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error(
					fmt.Sprintf("failed to start metrics listener: %s", err),
					"component", "node",
				)
			}
		}()
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	runErr := n.Run(signalCtx)
	if runErr != nil {
		logger.Error("node error", "error", runErr, "component", "node")
	} else {
		logger.Info("signal received, shutdown complete", "component", "node")
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	return runErr
}
