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

	"github.com/blinklabs-io/ticketd/archive"
	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/internal/config"
	"github.com/blinklabs-io/ticketd/registry"
)

func openDatabase(cfg *config.Config, logger *slog.Logger) (*database.Database, error) {
	db, err := database.New(&database.Config{
		DataDir:        cfg.DatabasePath,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// Export writes the event journal to dest without starting the node
func Export(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	dest string,
	fromSeq uint64,
	opts ...archive.ExporterOptionFunc,
) (*archive.Result, error) {
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	opts = append([]archive.ExporterOptionFunc{archive.WithLogger(logger)}, opts...)
	exporter, err := archive.New(db, opts...)
	if err != nil {
		return nil, err
	}
	return exporter.Export(ctx, dest, fromSeq)
}

// Payout computes the payout for a ticket sale from the stored registry
// state without starting the node
func Payout(
	cfg *config.Config,
	logger *slog.Logger,
	ticketID uint64,
	balance types.Balance,
	maxLenPayout uint32,
) (*registry.Payout, error) {
	if cfg.OwnerID == "" {
		return nil, errors.New("registry owner ID not set")
	}
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	byteCost, err := cfg.ParsedStorageByteCost()
	if err != nil {
		return nil, err
	}
	reg, err := registry.New(registry.Config{
		Logger:          logger,
		Database:        db,
		OwnerID:         cfg.OwnerID,
		AccountID:       cfg.AccountID,
		StorageByteCost: byteCost,
	})
	if err != nil {
		return nil, err
	}
	return reg.Payout(ticketID, balance, maxLenPayout)
}
