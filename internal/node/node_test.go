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
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/ticketd/archive"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/internal/config"
	"github.com/blinklabs-io/ticketd/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabasePath:      t.TempDir(),
		BlobPlugin:        config.DefaultBlobPlugin,
		MetadataPlugin:    config.DefaultMetadataPlugin,
		OwnerID:           "owner",
		StorageByteCost:   "1",
		ReceiverTimeout:   "1s",
		ShutdownTimeout:   "1s",
		ContractName:      "Raffle Tickets",
		ContractSymbol:    "TIX",
		ContractBaseURI:   "https://tickets.example",
		DispatchWorkers:   2,
		DispatchQueueSize: 10,
	}
}

// seedRegistry creates a raffle with a royalty schedule and mints one
// ticket to alice
func seedRegistry(t *testing.T, cfg *config.Config) {
	t.Helper()
	db, err := openDatabase(cfg, slog.Default())
	require.NoError(t, err)
	defer db.Close()
	reg, err := registry.New(registry.Config{
		Database:        db,
		OwnerID:         cfg.OwnerID,
		StorageByteCost: types.NewBalance(1),
	})
	require.NoError(t, err)
	ctx := context.Background()
	owner := registry.Invocation{Caller: cfg.OwnerID}
	require.NoError(t, reg.FundAccount(ctx, owner, cfg.OwnerID, types.NewBalance(1000)))
	require.NoError(t, reg.CreateRaffle(
		ctx,
		registry.Invocation{Caller: cfg.OwnerID, Deposit: types.NewBalance(500)},
		registry.CreateRaffleRequest{
			RaffleID: 1,
			Royalty:  map[string]uint32{"artist": 2500},
		},
	))
	_, err = reg.MintTickets(
		ctx,
		registry.Invocation{Caller: cfg.OwnerID, Deposit: types.NewBalance(400)},
		registry.MintRequest{RaffleID: 1, ReceiverID: "alice", Amount: 1},
	)
	require.NoError(t, err)
}

func TestNodeConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.BindAddr = "127.0.0.1"
	cfg.ApiPort = 8081
	_, err := NodeConfig(cfg, slog.Default(), nil)
	require.NoError(t, err)

	cfg.StorageByteCost = "-1"
	_, err = NodeConfig(cfg, slog.Default(), nil)
	require.Error(t, err)
}

func TestPayout(t *testing.T) {
	cfg := testConfig(t)
	seedRegistry(t, cfg)

	payout, err := Payout(cfg, slog.Default(), 0, types.NewBalance(1000), 5)
	require.NoError(t, err)
	require.Len(t, payout.Payout, 2)
	assert.Equal(t, "250", payout.Payout["artist"].String())
	assert.Equal(t, "750", payout.Payout["alice"].String())

	_, err = Payout(cfg, slog.Default(), 9, types.NewBalance(1000), 5)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestExport(t *testing.T) {
	cfg := testConfig(t)
	seedRegistry(t, cfg)

	dest := filepath.Join(t.TempDir(), "journal.jsonl.zst")
	res, err := Export(context.Background(), cfg, slog.Default(), dest, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Entries)

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	var events []string
	require.NoError(t, archive.Decode(f, func(line archive.Line) error {
		events = append(events, line.Event)
		return nil
	}))
	assert.Equal(t, []string{"nft_mint"}, events)
}

func TestOpenDatabaseBadPlugin(t *testing.T) {
	cfg := testConfig(t)
	cfg.BlobPlugin = "missing"
	_, err := openDatabase(cfg, slog.Default())
	require.Error(t, err)
}
