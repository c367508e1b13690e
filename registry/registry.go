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

package registry

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/event"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultAccountID = "registry"

	// DefaultStorageByteCost is 10^19 units per byte
	DefaultStorageByteCost = "10000000000000000000"

	ContractSpec = "nft-1.0.0"

	tracerName = "github.com/blinklabs-io/ticketd/registry"
)

// ContractMetadata describes the registry as a whole
type ContractMetadata struct {
	Icon          *string `json:"icon,omitempty"`
	BaseURI       *string `json:"base_uri,omitempty"`
	Reference     *string `json:"reference,omitempty"`
	ReferenceHash *string `json:"reference_hash,omitempty"`
	Spec          string  `json:"spec"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
}

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Database     *database.Database
	EventBus     *event.EventBus
	// CallSink receives outgoing calls after the invocation that issued
	// them commits. Submit must not block on the registry.
	CallSink CallSink
	// OwnerID is the registry administrator
	OwnerID string
	// AccountID is the registry's own account. Attached deposits are
	// credited to it and refunds are paid from it.
	AccountID        string
	StorageByteCost  types.Balance
	ContractMetadata ContractMetadata
}

type Registry struct {
	config   Config
	logger   *slog.Logger
	db       *database.Database
	metrics  *registryMetrics
	tracer   trace.Tracer
	byteCost types.Balance
	mu       sync.RWMutex
}

func New(cfg Config) (*Registry, error) {
	if cfg.Database == nil {
		return nil, errors.New("registry: database is required")
	}
	if cfg.OwnerID == "" {
		return nil, errors.New("registry: owner ID is required")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.AccountID == "" {
		cfg.AccountID = DefaultAccountID
	}
	if cfg.OwnerID == cfg.AccountID {
		return nil, errors.New("registry: owner must differ from the registry account")
	}
	if cfg.StorageByteCost.IsZero() {
		cost, err := types.ParseBalance(DefaultStorageByteCost)
		if err != nil {
			return nil, err
		}
		cfg.StorageByteCost = cost
	}
	if cfg.ContractMetadata.Spec == "" {
		cfg.ContractMetadata.Spec = ContractSpec
	}
	promRegistry := cfg.PromRegistry
	if promRegistry == nil {
		promRegistry = prometheus.NewRegistry()
	}
	r := &Registry{
		config:   cfg,
		logger:   cfg.Logger.With("component", "registry"),
		db:       cfg.Database,
		byteCost: cfg.StorageByteCost,
		tracer:   otel.Tracer(tracerName),
	}
	r.initMetrics(promRegistry)
	return r, nil
}

// OwnerID returns the registry administrator
func (r *Registry) OwnerID() string {
	return r.config.OwnerID
}

// AccountID returns the registry's own account
func (r *Registry) AccountID() string {
	return r.config.AccountID
}

func (r *Registry) StorageByteCost() types.Balance {
	return r.byteCost
}

// SetCallSink replaces the destination for outgoing calls
func (r *Registry) SetCallSink(sink CallSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.CallSink = sink
}

// ContractMetadata returns the registry-wide metadata
func (r *Registry) ContractMetadata() ContractMetadata {
	return r.config.ContractMetadata
}
