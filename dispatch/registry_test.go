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

package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/dispatch"
	"github.com/blinklabs-io/ticketd/registry"
	"github.com/stretchr/testify/require"
)

func TestTransferCallRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close()
	reg, err := registry.New(registry.Config{
		Database:        db,
		OwnerID:         "owner",
		StorageByteCost: types.NewBalance(1),
	})
	require.NoError(t, err)
	owner := registry.Invocation{Caller: "owner"}
	require.NoError(t, reg.FundAccount(ctx, owner, "owner", types.NewBalance(1000)))
	require.NoError(t, reg.FundAccount(ctx, owner, "alice", types.NewBalance(1000)))
	deposit := registry.Invocation{Caller: "owner", Deposit: types.NewBalance(200)}
	require.NoError(t, reg.CreateRaffle(ctx, deposit, registry.CreateRaffleRequest{RaffleID: 1}))
	ids, err := reg.MintTickets(ctx, deposit, registry.MintRequest{
		RaffleID:   1,
		ReceiverID: "alice",
		Amount:     2,
	})
	require.NoError(t, err)

	// Issued before the dispatcher exists, picked up on start
	alice := registry.Invocation{Caller: "alice", Deposit: types.NewBalance(1)}
	_, err = reg.TransferCall(ctx, alice, registry.TransferRequest{ReceiverID: "bob", TicketID: ids[0]}, "")
	require.NoError(t, err)

	d, err := dispatch.New(dispatch.Config{Resolver: reg})
	require.NoError(t, err)
	d.RegisterReceiver("bob", dispatch.ReceiverFunc(
		func(_ context.Context, call registry.OutgoingCall) ([]byte, error) {
			// Return the first ticket, keep the second
			if call.Transfer.TicketID == "0" {
				return []byte("true"), nil
			}
			return []byte("false"), nil
		},
	))
	reg.SetCallSink(d)
	require.NoError(t, d.Start(ctx))
	defer func() { require.NoError(t, d.Stop()) }()

	_, err = reg.TransferCall(ctx, alice, registry.TransferRequest{ReceiverID: "bob", TicketID: ids[1]}, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		pending, err := reg.PendingCalls()
		return err == nil && len(pending) == 0
	}, 5*time.Second, 20*time.Millisecond)
	first, err := reg.Ticket(ids[0])
	require.NoError(t, err)
	require.Equal(t, "alice", first.OwnerID)
	second, err := reg.Ticket(ids[1])
	require.NoError(t, err)
	require.Equal(t, "bob", second.OwnerID)
}
