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
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/blinklabs-io/ticketd"
	"github.com/blinklabs-io/ticketd/internal/config"
	"github.com/blinklabs-io/ticketd/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// NodeConfig translates the loaded configuration into node options
func NodeConfig(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (ticketd.Config, error) {
	byteCost, err := cfg.ParsedStorageByteCost()
	if err != nil {
		return ticketd.Config{}, err
	}
	receiverTimeout, err := cfg.ParsedReceiverTimeout()
	if err != nil {
		return ticketd.Config{}, err
	}
	shutdownTimeout, err := cfg.ParsedShutdownTimeout()
	if err != nil {
		return ticketd.Config{}, err
	}
	meta := registry.ContractMetadata{
		Name:   cfg.ContractName,
		Symbol: cfg.ContractSymbol,
	}
	if cfg.ContractBaseURI != "" {
		meta.BaseURI = &cfg.ContractBaseURI
	}
	if cfg.ContractIcon != "" {
		meta.Icon = &cfg.ContractIcon
	}
	var apiAddr string
	if cfg.ApiPort > 0 {
		apiAddr = net.JoinHostPort(
			cfg.BindAddr,
			strconv.FormatUint(uint64(cfg.ApiPort), 10),
		)
	}
	return ticketd.NewConfig(
		ticketd.WithLogger(logger),
		ticketd.WithPrometheusRegistry(promRegistry),
		ticketd.WithDatabasePath(cfg.DatabasePath),
		ticketd.WithBlobPlugin(cfg.BlobPlugin),
		ticketd.WithMetadataPlugin(cfg.MetadataPlugin),
		ticketd.WithOwnerID(cfg.OwnerID),
		ticketd.WithAccountID(cfg.AccountID),
		ticketd.WithStorageByteCost(byteCost),
		ticketd.WithContractMetadata(meta),
		ticketd.WithAPIListenAddress(apiAddr),
		ticketd.WithDispatchWorkers(cfg.DispatchWorkers),
		ticketd.WithDispatchQueueSize(cfg.DispatchQueueSize),
		ticketd.WithReceiverTimeout(receiverTimeout),
		ticketd.WithShutdownTimeout(shutdownTimeout),
		ticketd.WithTracing(cfg.Tracing),
		ticketd.WithTracingStdout(cfg.TracingStdout),
	), nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	// Enable metrics with default prometheus registry
	nodeCfg, err := NodeConfig(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	n, err := ticketd.New(nodeCfg)
	if err != nil {
		return err
	}
	shutdownTimeout, _ := cfg.ParsedShutdownTimeout()

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	g, ctx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		return n.Run(ctx)
	})
	if cfg.MetricsPort > 0 {
		metricsServer := &http.Server{
			Addr: net.JoinHostPort(
				cfg.BindAddr,
				strconv.FormatUint(uint64(cfg.MetricsPort), 10),
			),
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		logger.Info(
			"serving prometheus metrics on "+metricsServer.Addr,
			"component", "node",
		)
		g.Go(func() error {
			err := metricsServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			//nolint:contextcheck
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
			return nil
		})
	}

	runErr := g.Wait()
	if signalCtx.Err() != nil {
		logger.Info("signal received, initiating graceful shutdown")
	}
	if stopErr := n.Stop(); stopErr != nil {
		logger.Error("shutdown errors occurred", "error", stopErr)
		return errors.Join(runErr, stopErr)
	}
	if runErr != nil {
		logger.Error("node error", "error", runErr)
		return runErr
	}
	logger.Info("shutdown complete")
	return nil
}
