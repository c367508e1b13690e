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
	"testing"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalAppendAndRead(t *testing.T) {
	db := newTestDatabase(t)
	for _, event := range []string{"nft_mint", "nft_transfer", "nft_transfer"} {
		_, err := db.AppendJournal(event, []byte(`{"event":"`+event+`"}`), nil)
		require.NoError(t, err)
	}
	n, err := db.JournalLength(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	entries, err := db.JournalEntries(0, 0, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, uint64(i+1), entry.Seq)
	}
	assert.Equal(t, "nft_mint", entries[0].Event)
	assert.JSONEq(t, `{"event":"nft_transfer"}`, string(entries[2].Record))

	entries, err = db.JournalEntries(2, 1, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(2), entries[0].Seq)
}

func TestPendingResolves(t *testing.T) {
	db := newTestDatabase(t)
	memo := "gift"
	first := &database.PendingResolve{
		OwnerID:            "alice",
		ReceiverID:         "market",
		SenderID:           "alice",
		TicketID:           9,
		Msg:                "list",
		Memo:               &memo,
		ApprovedAccountIDs: []string{"bob"},
	}
	id, err := db.AddPendingResolve(first, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	id, err = db.AddPendingResolve(&database.PendingResolve{TicketID: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	got, err := db.PendingResolve(1, nil)
	require.NoError(t, err)
	assert.Equal(t, "market", got.ReceiverID)
	require.NotNil(t, got.Memo)
	assert.Equal(t, "gift", *got.Memo)
	assert.Nil(t, got.AuthorizedID)
	assert.Equal(t, []string{"bob"}, got.ApprovedAccountIDs)

	all, err := db.PendingResolves(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, db.DeletePendingResolve(1, nil))
	_, err = db.PendingResolve(1, nil)
	assert.ErrorIs(t, err, database.ErrPendingResolveNotFound)
	// IDs are not reused
	id, err = db.AddPendingResolve(&database.PendingResolve{TicketID: 11}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)
}
