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

package ticketd

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/registry"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry      prometheus.Registerer
	logger            *slog.Logger
	storageByteCost   *types.Balance
	contractMetadata  registry.ContractMetadata
	dataDir           string
	blobPlugin        string
	metadataPlugin    string
	ownerID           string
	accountID         string
	apiListenAddress  string
	dispatchWorkers   int
	dispatchQueueSize int
	receiverTimeout   time.Duration
	shutdownTimeout   time.Duration
	tracing           bool
	tracingStdout     bool
}

func (n *Node) configValidate() error {
	if n.config.ownerID == "" {
		return errors.New("registry owner ID not set")
	}
	if n.config.accountID != "" && n.config.accountID == n.config.ownerID {
		return errors.New("registry account ID must differ from the owner ID")
	}
	if n.config.dispatchWorkers < 0 {
		return errors.New("dispatch worker count must not be negative")
	}
	if n.config.dispatchQueueSize < 0 {
		return errors.New("dispatch queue size must not be negative")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new ticketd config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithOwnerID specifies the registry administrator account. This is required
func WithOwnerID(ownerID string) ConfigOptionFunc {
	return func(c *Config) {
		c.ownerID = ownerID
	}
}

// WithAccountID specifies the registry's own account, which holds storage
// deposits. The default is "registry"
func WithAccountID(accountID string) ConfigOptionFunc {
	return func(c *Config) {
		c.accountID = accountID
	}
}

// WithStorageByteCost specifies the price of one byte of registry storage
func WithStorageByteCost(cost types.Balance) ConfigOptionFunc {
	return func(c *Config) {
		c.storageByteCost = &cost
	}
}

// WithContractMetadata specifies the metadata returned by the registry
func WithContractMetadata(meta registry.ContractMetadata) ConfigOptionFunc {
	return func(c *Config) {
		c.contractMetadata = meta
	}
}

// WithAPIListenAddress specifies the listen address for the REST API. An
// empty string disables the server
func WithAPIListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithDispatchWorkers specifies the number of concurrent receiver calls
func WithDispatchWorkers(workers int) ConfigOptionFunc {
	return func(c *Config) {
		c.dispatchWorkers = workers
	}
}

// WithDispatchQueueSize specifies how many outgoing calls may wait for a worker
func WithDispatchQueueSize(size int) ConfigOptionFunc {
	return func(c *Config) {
		c.dispatchQueueSize = size
	}
}

// WithReceiverTimeout bounds each receiver call. A call that times out is
// treated as failed
func WithReceiverTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.receiverTimeout = timeout
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
