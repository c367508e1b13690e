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

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"github.com/blinklabs-io/ticketd/registry"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const DefaultListenAddress = ":8080"

type Config struct {
	ListenAddress string
}

// API is the REST front end of the ticket registry
type API struct {
	config     Config
	logger     *slog.Logger
	registry   *registry.Registry
	health     *grpchealth.StaticChecker
	httpServer *http.Server
	listenAddr string
	mu         sync.Mutex
}

func New(
	cfg Config,
	reg *registry.Registry,
	logger *slog.Logger,
) *API {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	return &API{
		config:   cfg,
		logger:   logger,
		registry: reg,
		health:   grpchealth.NewStaticChecker(),
	}
}

// Handler returns the request router
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /api/v0/metadata", a.handleMetadata)
	mux.HandleFunc("GET /api/v0/events", a.handleEvents)

	mux.HandleFunc("POST /api/v0/raffles", a.handleCreateRaffle)
	mux.HandleFunc("GET /api/v0/raffles", a.handleRaffles)
	mux.HandleFunc("GET /api/v0/raffles/{id}", a.handleRaffle)
	mux.HandleFunc("POST /api/v0/raffles/{id}/mint", a.handleMint)
	mux.HandleFunc("GET /api/v0/raffles/{id}/tickets", a.handleRaffleTickets)

	mux.HandleFunc("GET /api/v0/tickets", a.handleTickets)
	mux.HandleFunc("GET /api/v0/tickets/{id}", a.handleTicket)
	mux.HandleFunc("POST /api/v0/tickets/{id}/approve", a.handleApprove)
	mux.HandleFunc(
		"GET /api/v0/tickets/{id}/approved/{account}",
		a.handleIsApproved,
	)
	mux.HandleFunc("POST /api/v0/tickets/{id}/revoke", a.handleRevoke)
	mux.HandleFunc("POST /api/v0/tickets/{id}/revoke-all", a.handleRevokeAll)
	mux.HandleFunc("POST /api/v0/tickets/{id}/transfer", a.handleTransfer)
	mux.HandleFunc(
		"POST /api/v0/tickets/{id}/transfer-call",
		a.handleTransferCall,
	)
	mux.HandleFunc(
		"POST /api/v0/tickets/{id}/transfer-payout",
		a.handleTransferPayout,
	)
	mux.HandleFunc("GET /api/v0/tickets/{id}/payout", a.handlePayout)

	mux.HandleFunc("GET /api/v0/accounts/{id}", a.handleAccount)
	mux.HandleFunc("GET /api/v0/accounts/{id}/tickets", a.handleAccountTickets)
	mux.HandleFunc("POST /api/v0/accounts/{id}/fund", a.handleFund)
	mux.HandleFunc("PUT /api/v0/accounts/{id}/receiver", a.handleSetReceiver)

	mux.HandleFunc("POST /api/v0/admin/minters/{id}", a.handleAddMinter)
	mux.HandleFunc("DELETE /api/v0/admin/minters/{id}", a.handleRemoveMinter)
	mux.HandleFunc("POST /api/v0/admin/creators/{id}", a.handleAddCreator)
	mux.HandleFunc("DELETE /api/v0/admin/creators/{id}", a.handleRemoveCreator)

	// gRPC health checking for load balancers and orchestrators
	compress1KB := connect.WithCompressMinBytes(1024)
	mux.Handle(grpchealth.NewHandler(a.health, compress1KB))
	mux.Handle(
		grpcreflect.NewHandlerV1(
			grpcreflect.NewStaticReflector(grpchealth.HealthV1ServiceName),
			compress1KB,
		),
	)
	return mux
}

// Start starts the HTTP server in a background goroutine
func (a *API) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr: a.config.ListenAddress,
		// Use h2c so we can serve HTTP/2 without TLS
		Handler:           h2c.NewHandler(a.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	// Bind first so port conflicts are reported to the caller
	lc := net.ListenConfig{Control: socketControl}
	ln, err := lc.Listen(ctx, "tcp", server.Addr)
	if err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	a.mu.Lock()
	a.listenAddr = ln.Addr().String()
	a.mu.Unlock()
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	a.logger.Info("API listener started on " + ln.Addr().String())

	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := a.Stop(shutdownCtx); err != nil {
			a.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()
	return nil
}

// Addr returns the address the server is listening on
func (a *API) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listenAddr
}

// Stop gracefully shuts down the HTTP server
func (a *API) Stop(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()
	if srv == nil {
		return nil
	}
	a.logger.Debug("shutting down API server")
	a.health.SetStatus("", grpchealth.StatusNotServing)
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}
