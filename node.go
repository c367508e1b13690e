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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/ticketd/api"
	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/dispatch"
	"github.com/blinklabs-io/ticketd/event"
	"github.com/blinklabs-io/ticketd/registry"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	registry      *registry.Registry
	dispatcher    *dispatch.Dispatcher
	api           *api.API
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	ready         chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config: cfg,
		done:   make(chan struct{}),
		ready:  make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Run opens the database, starts the registry services and blocks until
// ctx is done or Stop is called
func (n *Node) Run(ctx context.Context) error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	n.eventBus = event.NewEventBus(n.config.promRegistry, n.config.logger)
	// Load registry
	regCfg := registry.Config{
		Logger:           n.config.logger,
		PromRegistry:     n.config.promRegistry,
		Database:         n.db,
		EventBus:         n.eventBus,
		OwnerID:          n.config.ownerID,
		AccountID:        n.config.accountID,
		ContractMetadata: n.config.contractMetadata,
	}
	if n.config.storageByteCost != nil {
		regCfg.StorageByteCost = *n.config.storageByteCost
	}
	reg, err := registry.New(regCfg)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	n.registry = reg
	// Configure dispatcher
	dispatcher, err := dispatch.New(dispatch.Config{
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Resolver:     n.registry,
		Workers:      n.config.dispatchWorkers,
		QueueSize:    n.config.dispatchQueueSize,
		Timeout:      n.config.receiverTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	n.dispatcher = dispatcher
	n.registry.SetCallSink(n.dispatcher)
	if err := n.dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	// Configure REST API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.Config{ListenAddress: n.config.apiListenAddress},
			n.registry,
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return err
		}
	}
	close(n.ready)

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

// Ready is closed once Run has started every service
func (n *Node) Ready() <-chan struct{} {
	return n.ready
}

// Registry returns the running registry. It is nil until Ready is closed
func (n *Node) Registry() *registry.Registry {
	return n.registry
}

// Dispatcher returns the running dispatcher. It is nil until Ready is closed
func (n *Node) Dispatcher() *dispatch.Dispatcher {
	return n.dispatcher
}

// APIAddr returns the address the REST API is listening on, or an empty
// string when it is disabled
func (n *Node) APIAddr() string {
	if n.api == nil {
		return ""
	}
	return n.api.Addr()
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Drain receiver calls
	n.config.logger.Debug("shutdown phase 2: stopping dispatcher")

	if n.dispatcher != nil {
		if stopErr := n.dispatcher.Stop(); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("dispatcher shutdown: %w", stopErr))
		}
	}

	// Phase 3: Close database
	n.config.logger.Debug("shutdown phase 3: closing database")

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 4: Cleanup resources
	n.config.logger.Debug("shutdown phase 4: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
