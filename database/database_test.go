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

package database_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestTicketLookupsMapToSentinels(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.Ticket(42, nil)
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
	_, err = db.Raffle(7, nil)
	assert.ErrorIs(t, err, models.ErrRaffleNotFound)
	_, err = db.Account("nobody", nil)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)

	bal, err := db.AccountBalance("nobody", nil)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
	url, err := db.ReceiverURL("nobody", nil)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestTxnRollbackDiscardsBothStores(t *testing.T) {
	db := newTestDatabase(t)
	sentinel := errors.New("abort")
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.CreateRaffle(&models.Raffle{RaffleID: 1, OwnerID: "o", Metadata: []byte("{}")}, txn); err != nil {
			return err
		}
		if _, err := db.AppendJournal("raffle_create", []byte("{}"), txn); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = db.Raffle(1, nil)
	assert.ErrorIs(t, err, models.ErrRaffleNotFound)
	n, err := db.JournalLength(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTxnCommitUpdatesTimestamps(t *testing.T) {
	db := newTestDatabase(t)
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		return db.SetAccountBalance("alice", types.NewBalance(5), txn)
	})
	require.NoError(t, err)
	metaTs, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	blobTs, err := db.Blob().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Positive(t, metaTs)
	assert.Equal(t, metaTs, blobTs)

	bal, err := db.AccountBalance("alice", nil)
	require.NoError(t, err)
	assert.Equal(t, "5", bal.String())
}

func TestOwnerIndex(t *testing.T) {
	db := newTestDatabase(t)
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.CreateTickets(
			[]models.Ticket{
				{TicketID: 0, RaffleID: 1, OwnerID: "alice"},
				{TicketID: 1, RaffleID: 1, OwnerID: "alice"},
			},
			txn,
		); err != nil {
			return err
		}
		return db.AddOwnerTickets("alice", []uint64{0, 1}, txn)
	})
	require.NoError(t, err)

	count, err := db.OwnerTicketCount("alice", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
	owner, err := db.IndexedOwner(1, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	require.NoError(t, db.RemoveOwnerTicket("alice", 1, nil))
	err = db.RemoveOwnerTicket("alice", 1, nil)
	assert.ErrorIs(t, err, models.ErrOwnerIndexInconsistent)
	ids, err := db.OwnerTicketIDs("alice", 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, ids)
}

func TestApprovals(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.CreateTickets(
		[]models.Ticket{{TicketID: 3, RaffleID: 1, OwnerID: "alice"}},
		nil,
	))
	require.NoError(t, db.SetApproval(3, "bob", 0, nil))
	require.NoError(t, db.SetApproval(3, "carol", 1, nil))
	require.NoError(t, db.SetApproval(3, "bob", 2, nil))
	require.NoError(t, db.SetTicketNextApprovalID(3, 3, nil))

	ticket, err := db.Ticket(3, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), ticket.NextApprovalID)
	assert.Equal(
		t,
		map[string]uint64{"bob": 2, "carol": 1},
		ticket.ApprovalMap(),
	)

	removed, err := db.DeleteApproval(3, "bob", nil)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = db.DeleteApproval(3, "bob", nil)
	require.NoError(t, err)
	assert.False(t, removed)
	require.NoError(t, db.DeleteApprovals(3, nil))
	ticket, err = db.Ticket(3, nil)
	require.NoError(t, err)
	assert.Empty(t, ticket.Approvals)
}
