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

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/ticketd/registry"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 1000
	DefaultTimeout   = 10 * time.Second
)

const (
	resultSuccess = "success"
	resultFailed  = "failed"

	resolveReturned = "returned"
	resolveKept     = "kept"
	resolveError    = "error"
)

var ErrAlreadyStarted = errors.New("dispatcher already started")

// Resolver is the part of the registry the dispatcher drives
type Resolver interface {
	ResolvePending(ctx context.Context, pendingID uint64, outcome registry.Outcome) (bool, error)
	PendingCalls() ([]registry.OutgoingCall, error)
	ReceiverURL(accountID string) (string, error)
}

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Resolver     Resolver
	HTTPClient   *http.Client
	Workers      int
	QueueSize    int
	// Timeout bounds each receiver call
	Timeout time.Duration
}

// Dispatcher delivers outgoing calls to receivers on a bounded worker pool
// and feeds acknowledgment outcomes back to the registry. Delivery is
// at-least-once: unresolved calls are issued again on the next start.
type Dispatcher struct {
	config     Config
	logger     *slog.Logger
	metrics    *dispatchMetrics
	queue      chan registry.OutgoingCall
	stopCh     chan struct{}
	receivers  map[string]Receiver
	cancel     context.CancelFunc
	group      *errgroup.Group
	overflowWg sync.WaitGroup
	// submitMu orders overflow hand-offs against closing stopCh
	submitMu sync.Mutex
	mu       sync.RWMutex
	startMu  sync.Mutex
	started  bool
	stopped  bool
}

func New(cfg Config) (*Dispatcher, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("dispatch: resolver is required")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	promRegistry := cfg.PromRegistry
	if promRegistry == nil {
		promRegistry = prometheus.NewRegistry()
	}
	d := &Dispatcher{
		config:    cfg,
		logger:    cfg.Logger.With("component", "dispatch"),
		queue:     make(chan registry.OutgoingCall, cfg.QueueSize),
		stopCh:    make(chan struct{}),
		receivers: make(map[string]Receiver),
	}
	d.initMetrics(promRegistry)
	return d, nil
}

// RegisterReceiver installs an in-process receiver for an account. It takes
// precedence over any webhook registered for the account.
func (d *Dispatcher) RegisterReceiver(accountID string, recv Receiver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receivers[accountID] = recv
}

func (d *Dispatcher) UnregisterReceiver(accountID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.receivers, accountID)
}

// Submit queues calls for delivery without blocking
func (d *Dispatcher) Submit(calls ...registry.OutgoingCall) {
	d.submitMu.Lock()
	defer d.submitMu.Unlock()
	for _, call := range calls {
		select {
		case <-d.stopCh:
			d.logger.Warn(
				"dispatcher stopped, dropping call",
				"kind", call.Kind,
				"account_id", call.AccountID,
				"pending_id", call.PendingID,
			)
			continue
		default:
		}
		select {
		case d.queue <- call:
			d.metrics.queueDepth.Inc()
		default:
			// Hand off to a goroutine so the caller never waits on workers
			d.metrics.queueFull.Inc()
			d.overflowWg.Add(1)
			go func(call registry.OutgoingCall) {
				defer d.overflowWg.Done()
				select {
				case d.queue <- call:
					d.metrics.queueDepth.Inc()
				case <-d.stopCh:
				}
			}(call)
		}
	}
}

// Start launches the workers and re-issues calls whose outcome was never
// resolved
func (d *Dispatcher) Start(ctx context.Context) error {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if d.started {
		return ErrAlreadyStarted
	}
	pending, err := d.config.Resolver.PendingCalls()
	if err != nil {
		return fmt.Errorf("load pending calls: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.group, ctx = errgroup.WithContext(ctx)
	for range d.config.Workers {
		d.group.Go(func() error {
			d.worker(ctx)
			return nil
		})
	}
	d.started = true
	if len(pending) > 0 {
		d.logger.Info(
			"re-issuing unresolved calls",
			"count", len(pending),
		)
		d.Submit(pending...)
	}
	return nil
}

// Stop halts the workers. Calls still queued are dropped; transfer
// acknowledgments among them are re-issued on the next start.
func (d *Dispatcher) Stop() error {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if d.stopped {
		return nil
	}
	d.stopped = true
	// No overflow goroutine can be added once stopCh is closed
	d.submitMu.Lock()
	close(d.stopCh)
	d.submitMu.Unlock()
	d.overflowWg.Wait()
	if !d.started {
		return nil
	}
	d.cancel()
	return d.group.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case call := <-d.queue:
			d.metrics.queueDepth.Dec()
			d.process(ctx, call)
		}
	}
}

func (d *Dispatcher) receiverFor(accountID string) (Receiver, error) {
	d.mu.RLock()
	recv, ok := d.receivers[accountID]
	d.mu.RUnlock()
	if ok {
		return recv, nil
	}
	url, err := d.config.Resolver.ReceiverURL(accountID)
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, accountID)
	}
	return NewHTTPReceiver(url, d.config.HTTPClient), nil
}

// deliver runs one receiver call under the per-call timeout
func (d *Dispatcher) deliver(
	ctx context.Context,
	call registry.OutgoingCall,
) registry.Outcome {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()
	recv, err := d.receiverFor(call.AccountID)
	var result []byte
	if err == nil {
		result, err = recv.Receive(ctx, call)
	}
	d.metrics.callDuration.WithLabelValues(string(call.Kind)).
		Observe(time.Since(start).Seconds())
	if err != nil {
		d.metrics.calls.WithLabelValues(string(call.Kind), resultFailed).Inc()
		d.logger.Debug(
			"receiver call failed",
			"kind", call.Kind,
			"account_id", call.AccountID,
			"error", err,
		)
		return registry.Outcome{Status: registry.OutcomeFailed}
	}
	d.metrics.calls.WithLabelValues(string(call.Kind), resultSuccess).Inc()
	return registry.Outcome{Status: registry.OutcomeSuccess, Payload: result}
}

func (d *Dispatcher) process(ctx context.Context, call registry.OutgoingCall) {
	outcome := d.deliver(ctx, call)
	if call.PendingID == 0 {
		return
	}
	returned, err := d.config.Resolver.ResolvePending(ctx, call.PendingID, outcome)
	if err != nil {
		d.metrics.resolves.WithLabelValues(resolveError).Inc()
		if errors.Is(err, registry.ErrNotFound) {
			d.logger.Debug(
				"resolve context already consumed",
				"pending_id", call.PendingID,
			)
			return
		}
		d.logger.Error(
			"failed to resolve transfer",
			"pending_id", call.PendingID,
			"error", err,
		)
		return
	}
	result := resolveKept
	if returned {
		result = resolveReturned
	}
	d.metrics.resolves.WithLabelValues(result).Inc()
	d.logger.Debug(
		"transfer resolved",
		"pending_id", call.PendingID,
		"account_id", call.AccountID,
		"result", result,
	)
}
