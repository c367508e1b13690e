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
	"errors"
	"testing"

	"github.com/blinklabs-io/ticketd/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveSettlesStorage(t *testing.T) {
	env := newTestEnv(t)
	ticketID := env.mintOne(t)

	approvalID, err := env.reg.Approve(env.ctx, inv(testAlice, 20), ticketID, testBob, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), approvalID)
	// 15 bytes for bob, 5 refunded
	env.requireBalance(t, testAlice, testFunding-approvalBytes(testBob))

	ok, err := env.reg.IsApproved(ticketID, testBob, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.reg.IsApproved(ticketID, testBob, ptr(uint64(0)))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.reg.IsApproved(ticketID, testBob, ptr(uint64(1)))
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = env.reg.IsApproved(ticketID, testCarol, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReapproveIssuesFreshID(t *testing.T) {
	env := newTestEnv(t)
	ticketID := env.mintOne(t)

	_, err := env.reg.Approve(env.ctx, inv(testAlice, 20), ticketID, testBob, nil)
	require.NoError(t, err)
	approvalID, err := env.reg.Approve(env.ctx, inv(testAlice, 1), ticketID, testBob, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), approvalID)
	// No new storage, and a one unit excess is not refunded
	env.requireBalance(t, testAlice, testFunding-approvalBytes(testBob)-1)

	ok, err := env.reg.IsApproved(ticketID, testBob, ptr(uint64(0)))
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = env.reg.IsApproved(ticketID, testBob, ptr(uint64(1)))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDelegateTransfersFirstTicket(t *testing.T) {
	env := newTestEnv(t)
	env.createRaffle(t, registry.CreateRaffleRequest{RaffleID: 1})
	ids := env.mint(t, 1, testAlice, 2)
	require.Equal(t, []uint64{0, 1}, ids)
	for _, id := range ids {
		_, err := env.reg.Approve(env.ctx, inv(testAlice, 20), id, testBob, nil)
		require.NoError(t, err)
		ok, err := env.reg.IsApproved(id, testBob, nil)
		require.NoError(t, err)
		assert.True(t, ok, "ticket %d", id)
	}
	env.requireBalance(t, testAlice, testFunding-2*approvalBytes(testBob))

	// Re-approving on ticket 0 consumes no new storage
	_, err := env.reg.Approve(env.ctx, inv(testAlice, 1), 0, testBob, nil)
	require.NoError(t, err)
	env.requireBalance(t, testAlice, testFunding-2*approvalBytes(testBob)-1)

	require.NoError(t, env.reg.Transfer(
		env.ctx,
		inv(testBob, 1),
		registry.TransferRequest{TicketID: 0, ReceiverID: testCarol},
	))
	env.requireOwner(t, 0, testCarol)
	view, err := env.reg.Ticket(0)
	require.NoError(t, err)
	assert.Empty(t, view.ApprovedAccountIDs)
	// The voided approval is refunded to the previous owner
	env.requireBalance(t, testAlice, testFunding-approvalBytes(testBob)-1)
	env.requireBalance(t, testBob, testFunding-1)

	ok, err := env.reg.IsApproved(1, testBob, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApproveFailures(t *testing.T) {
	env := newTestEnv(t)
	ticketID := env.mintOne(t)

	_, err := env.reg.Approve(env.ctx, inv(testBob, 20), ticketID, testCarol, nil)
	assert.ErrorIs(t, err, registry.ErrUnauthorized)
	env.requireBalance(t, testBob, testFunding)

	_, err = env.reg.Approve(env.ctx, inv(testAlice, 0), ticketID, testCarol, nil)
	assert.ErrorIs(t, err, registry.ErrInsufficientPayment)

	_, err = env.reg.Approve(env.ctx, inv(testAlice, 10), ticketID, testCarol, nil)
	require.ErrorIs(t, err, registry.ErrInsufficientPayment)
	var payErr *registry.InsufficientPaymentError
	require.True(t, errors.As(err, &payErr))
	assert.Equal(t, "17", payErr.Required.String())
	assert.Equal(t, "10", payErr.Attached.String())
	env.requireBalance(t, testAlice, testFunding)

	_, err = env.reg.Approve(env.ctx, inv(testAlice, 20), 99, testCarol, nil)
	assert.ErrorIs(t, err, registry.ErrNotFound)

	_, err = env.reg.Approve(env.ctx, inv("pauper", 20), ticketID, testCarol, nil)
	assert.ErrorIs(t, err, registry.ErrInsufficientFunds)
}

func TestApproveWithMessageNotifiesDelegate(t *testing.T) {
	env := newTestEnv(t)
	ticketID := env.mintOne(t)

	approvalID, err := env.reg.Approve(env.ctx, inv(testAlice, 20), ticketID, testBob, ptr("list it"))
	require.NoError(t, err)
	calls := env.sink.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, registry.CallKindApprovalNotify, calls[0].Kind)
	assert.Equal(t, testBob, calls[0].AccountID)
	assert.Zero(t, calls[0].PendingID)
	require.NotNil(t, calls[0].Approval)
	assert.Equal(t, approvalID, calls[0].Approval.ApprovalID)
	assert.Equal(t, testAlice, calls[0].Approval.OwnerID)
	assert.Equal(t, "list it", calls[0].Approval.Message)

	payload, err := calls[0].Payload()
	require.NoError(t, err)
	assert.JSONEq(
		t,
		`{"token_id":"0","owner_id":"alice","approval_id":0,"msg":"list it"}`,
		string(payload),
	)

	// Failed invocations release nothing
	_, err = env.reg.Approve(env.ctx, inv(testAlice, 1), ticketID, testCarol, ptr("x"))
	require.Error(t, err)
	assert.Len(t, env.sink.Calls(), 1)
}

func TestRevoke(t *testing.T) {
	env := newTestEnv(t)
	ticketID := env.mintOne(t)
	_, err := env.reg.Approve(env.ctx, inv(testAlice, 20), ticketID, testBob, nil)
	require.NoError(t, err)
	_, err = env.reg.Approve(env.ctx, inv(testAlice, 17), ticketID, testCarol, nil)
	require.NoError(t, err)
	balance := testFunding - approvalBytes(testBob) - approvalBytes(testCarol)
	env.requireBalance(t, testAlice, balance)

	err = env.reg.Revoke(env.ctx, inv(testAlice, 2), ticketID, testBob)
	assert.ErrorIs(t, err, registry.ErrInsufficientPayment)
	err = env.reg.Revoke(env.ctx, inv(testBob, 1), ticketID, testBob)
	assert.ErrorIs(t, err, registry.ErrUnauthorized)

	require.NoError(t, env.reg.Revoke(env.ctx, inv(testAlice, 1), ticketID, testBob))
	balance = balance - 1 + approvalBytes(testBob)
	env.requireBalance(t, testAlice, balance)
	ok, err := env.reg.IsApproved(ticketID, testBob, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	// Absent entry is a no-op without refund
	require.NoError(t, env.reg.Revoke(env.ctx, inv(testAlice, 1), ticketID, testBob))
	balance--
	env.requireBalance(t, testAlice, balance)

	require.NoError(t, env.reg.RevokeAll(env.ctx, inv(testAlice, 1), ticketID))
	balance = balance - 1 + approvalBytes(testCarol)
	env.requireBalance(t, testAlice, balance)
	view, err := env.reg.Ticket(ticketID)
	require.NoError(t, err)
	assert.Empty(t, view.ApprovedAccountIDs)

	require.NoError(t, env.reg.RevokeAll(env.ctx, inv(testAlice, 1), ticketID))
	env.requireBalance(t, testAlice, balance-1)
}
