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

package registry_test

import (
	"context"
	"sync"
	"testing"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/registry"
	"github.com/stretchr/testify/require"
)

const (
	testOwner   = "owner"
	testAlice   = "alice"
	testBob     = "bob"
	testCarol   = "carol"
	testDave    = "dave"
	testFunding = 1000
)

type recordingSink struct {
	calls []registry.OutgoingCall
	mu    sync.Mutex
}

func (s *recordingSink) Submit(calls ...registry.OutgoingCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, calls...)
}

func (s *recordingSink) Calls() []registry.OutgoingCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]registry.OutgoingCall(nil), s.calls...)
}

type testEnv struct {
	reg  *registry.Registry
	db   *database.Database
	sink *recordingSink
	ctx  context.Context
}

func newTestEnv(t *testing.T, opts ...func(*registry.Config)) *testEnv {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	sink := &recordingSink{}
	cfg := registry.Config{
		Database: db,
		CallSink: sink,
		OwnerID:  testOwner,
		// One unit per byte keeps storage arithmetic readable
		StorageByteCost: types.NewBalance(1),
		ContractMetadata: registry.ContractMetadata{
			Name:   "Raffle Tickets",
			Symbol: "TIX",
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	reg, err := registry.New(cfg)
	require.NoError(t, err)
	env := &testEnv{reg: reg, db: db, sink: sink, ctx: context.Background()}
	for _, acct := range []string{testOwner, testAlice, testBob, testCarol, testDave} {
		require.NoError(t, reg.FundAccount(
			env.ctx,
			registry.Invocation{Caller: testOwner},
			acct,
			types.NewBalance(testFunding),
		))
	}
	return env
}

func inv(caller string, deposit uint64) registry.Invocation {
	return registry.Invocation{Caller: caller, Deposit: types.NewBalance(deposit)}
}

func ptr[T any](v T) *T {
	return &v
}

func (e *testEnv) createRaffle(t *testing.T, req registry.CreateRaffleRequest) {
	t.Helper()
	require.NoError(t, e.reg.CreateRaffle(e.ctx, inv(testOwner, 500), req))
}

func (e *testEnv) mint(t *testing.T, raffleID uint64, receiver string, amount uint64) []uint64 {
	t.Helper()
	ids, err := e.reg.MintTickets(e.ctx, inv(testOwner, 500), registry.MintRequest{
		RaffleID:   raffleID,
		ReceiverID: receiver,
		Amount:     amount,
	})
	require.NoError(t, err)
	return ids
}

// mintOne creates raffle 1 and mints one ticket to alice
func (e *testEnv) mintOne(t *testing.T) uint64 {
	t.Helper()
	e.createRaffle(t, registry.CreateRaffleRequest{RaffleID: 1})
	return e.mint(t, 1, testAlice, 1)[0]
}

func (e *testEnv) requireBalance(t *testing.T, accountID string, expected uint64) {
	t.Helper()
	bal, err := e.reg.AccountBalance(accountID)
	require.NoError(t, err)
	require.Equal(t, types.NewBalance(expected).String(), bal.String(), accountID)
}

func (e *testEnv) requireOwner(t *testing.T, ticketID uint64, owner string) {
	t.Helper()
	view, err := e.reg.Ticket(ticketID)
	require.NoError(t, err)
	require.Equal(t, owner, view.OwnerID)
	indexed, err := e.db.IndexedOwner(ticketID, nil)
	require.NoError(t, err)
	require.Equal(t, owner, indexed)
}

func approvalBytes(accountID string) uint64 {
	return uint64(len(accountID)) + 4 + 8
}
