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
	"testing"
	"time"

	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/event"
	"github.com/blinklabs-io/ticketd/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferByDelegate(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	env := newTestEnv(t, func(cfg *registry.Config) {
		cfg.EventBus = bus
	})
	ticketID := env.mintOne(t)
	_, evtCh := bus.Subscribe(event.EventTypeTransfer)

	_, err := env.reg.Approve(env.ctx, inv(testAlice, 20), ticketID, testBob, nil)
	require.NoError(t, err)
	err = env.reg.Transfer(env.ctx, inv(testBob, 1), registry.TransferRequest{
		ReceiverID: testCarol,
		TicketID:   ticketID,
		ApprovalID: ptr(uint64(0)),
		Memo:       ptr("gift"),
	})
	require.NoError(t, err)

	env.requireOwner(t, ticketID, testCarol)
	// Voided approval refunded to the previous owner right away
	env.requireBalance(t, testAlice, testFunding)
	env.requireBalance(t, testBob, testFunding-1)

	ticket, err := env.db.Ticket(ticketID, nil)
	require.NoError(t, err)
	assert.Empty(t, ticket.Approvals)
	assert.Equal(t, uint64(1), ticket.NextApprovalID)

	aliceCount, err := env.reg.SupplyForOwner(testAlice)
	require.NoError(t, err)
	assert.Zero(t, aliceCount)
	carolCount, err := env.reg.SupplyForOwner(testCarol)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), carolCount)

	select {
	case evt := <-evtCh:
		rec, ok := evt.Data.(event.Record)
		require.True(t, ok)
		assert.Equal(t, event.EventTypeTransfer, rec.Event)
		logs, ok := rec.Data.([]event.TransferLog)
		require.True(t, ok)
		require.Len(t, logs, 1)
		require.NotNil(t, logs[0].AuthorizedID)
		assert.Equal(t, testBob, *logs[0].AuthorizedID)
		assert.Equal(t, testAlice, logs[0].OldOwnerID)
		assert.Equal(t, testCarol, logs[0].NewOwnerID)
		assert.Equal(t, []string{"0"}, logs[0].TokenIDs)
		assert.Equal(t, "gift", *logs[0].Memo)
		assert.Equal(t, uint64(2), evt.Seq)
	case <-time.After(time.Second):
		t.Fatal("no transfer event published")
	}

	// The approval counter continues for the new owner
	approvalID, err := env.reg.Approve(env.ctx, inv(testCarol, 20), ticketID, testDave, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), approvalID)
}

func TestTransferByOwnerOmitsAuthorizedID(t *testing.T) {
	env := newTestEnv(t)
	ticketID := env.mintOne(t)
	require.NoError(t, env.reg.Transfer(env.ctx, inv(testAlice, 1), registry.TransferRequest{
		ReceiverID: testBob,
		TicketID:   ticketID,
		// Ignored for the owner
		ApprovalID: ptr(uint64(42)),
	}))
	env.requireOwner(t, ticketID, testBob)

	entries, err := env.db.JournalEntries(1, 0, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, string(event.EventTypeTransfer), entries[1].Event)
	assert.JSONEq(
		t,
		`{"standard":"nep171","version":"nft-1.0.0","event":"nft_transfer","data":[{"old_owner_id":"alice","new_owner_id":"bob","token_ids":["0"]}]}`,
		string(entries[1].Record),
	)
}

func TestTransferFailures(t *testing.T) {
	env := newTestEnv(t)
	ticketID := env.mintOne(t)
	_, err := env.reg.Approve(env.ctx, inv(testAlice, 20), ticketID, testBob, nil)
	require.NoError(t, err)
	_, err = env.reg.Approve(env.ctx, inv(testAlice, 1), ticketID, testBob, nil)
	require.NoError(t, err)
	aliceBalance := testFunding - approvalBytes(testBob) - 1

	testDefs := []struct {
		name   string
		caller string
		req    registry.TransferRequest
		dep    uint64
		expect error
	}{
		{
			name:   "stale approval",
			caller: testBob,
			req:    registry.TransferRequest{ReceiverID: testCarol, TicketID: ticketID, ApprovalID: ptr(uint64(0))},
			dep:    1,
			expect: registry.ErrStaleApproval,
		},
		{
			name:   "not approved",
			caller: testCarol,
			req:    registry.TransferRequest{ReceiverID: testDave, TicketID: ticketID},
			dep:    1,
			expect: registry.ErrUnauthorized,
		},
		{
			name:   "receiver is owner",
			caller: testBob,
			req:    registry.TransferRequest{ReceiverID: testAlice, TicketID: ticketID},
			dep:    1,
			expect: registry.ErrInvalidTarget,
		},
		{
			name:   "unauthorized before invalid target",
			caller: testCarol,
			req:    registry.TransferRequest{ReceiverID: testAlice, TicketID: ticketID},
			dep:    1,
			expect: registry.ErrUnauthorized,
		},
		{
			name:   "deposit too large",
			caller: testAlice,
			req:    registry.TransferRequest{ReceiverID: testCarol, TicketID: ticketID},
			dep:    2,
			expect: registry.ErrInsufficientPayment,
		},
		{
			name:   "no deposit",
			caller: testAlice,
			req:    registry.TransferRequest{ReceiverID: testCarol, TicketID: ticketID},
			dep:    0,
			expect: registry.ErrInsufficientPayment,
		},
		{
			name:   "unknown ticket",
			caller: testAlice,
			req:    registry.TransferRequest{ReceiverID: testCarol, TicketID: 77},
			dep:    1,
			expect: registry.ErrNotFound,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := env.reg.Transfer(env.ctx, inv(testDef.caller, testDef.dep), testDef.req)
			require.ErrorIs(t, err, testDef.expect)
		})
	}
	// Nothing committed
	env.requireOwner(t, ticketID, testAlice)
	env.requireBalance(t, testAlice, aliceBalance)
	env.requireBalance(t, testBob, testFunding)
	env.requireBalance(t, testCarol, testFunding)
	ok, err := env.reg.IsApproved(ticketID, testBob, ptr(uint64(1)))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDepositHeldByRegistryAccount(t *testing.T) {
	env := newTestEnv(t)
	ticketID := env.mintOne(t)
	before, err := env.reg.AccountBalance(registry.DefaultAccountID)
	require.NoError(t, err)
	require.NoError(t, env.reg.Transfer(env.ctx, inv(testAlice, 1), registry.TransferRequest{
		ReceiverID: testBob,
		TicketID:   ticketID,
	}))
	after, err := env.reg.AccountBalance(registry.DefaultAccountID)
	require.NoError(t, err)
	expected, err := before.Add(types.NewBalance(1))
	require.NoError(t, err)
	assert.Equal(t, expected.String(), after.String())
}
