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

	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRaffle(t *testing.T) {
	env := newTestEnv(t)
	req := registry.CreateRaffleRequest{
		RaffleID: 7,
		Metadata: models.RaffleMetadata{Title: ptr("Spring draw")},
		Royalty:  map[string]uint32{"x": 250},
	}

	err := env.reg.CreateRaffle(env.ctx, inv(testAlice, 500), req)
	assert.ErrorIs(t, err, registry.ErrUnauthorized)
	require.NoError(t, env.reg.AddApprovedCreator(env.ctx, inv(testOwner, 0), testAlice))
	err = env.reg.CreateRaffle(env.ctx, inv(testAlice, 1), req)
	assert.ErrorIs(t, err, registry.ErrInsufficientPayment)
	require.NoError(t, env.reg.CreateRaffle(env.ctx, inv(testAlice, 500), req))
	err = env.reg.CreateRaffle(env.ctx, inv(testAlice, 500), req)
	assert.ErrorIs(t, err, registry.ErrAlreadyExists)

	bad := registry.CreateRaffleRequest{
		RaffleID: 8,
		Royalty:  map[string]uint32{"x": 6000, "y": 4001},
	}
	err = env.reg.CreateRaffle(env.ctx, inv(testAlice, 500), bad)
	assert.ErrorIs(t, err, registry.ErrInvalidRoyalty)

	view, err := env.reg.Raffle(7)
	require.NoError(t, err)
	assert.Equal(t, testAlice, view.OwnerID)
	assert.Equal(t, "Spring draw", *view.Metadata.Title)
	assert.Equal(t, map[string]uint32{"x": 250}, view.Royalty)

	_, err = env.reg.Raffle(8)
	assert.ErrorIs(t, err, registry.ErrNotFound)

	require.NoError(t, env.reg.RemoveApprovedCreator(env.ctx, inv(testOwner, 0), testAlice))
	err = env.reg.CreateRaffle(env.ctx, inv(testAlice, 500), registry.CreateRaffleRequest{RaffleID: 9})
	assert.ErrorIs(t, err, registry.ErrUnauthorized)
}

func TestMintAssignsSequentialIDs(t *testing.T) {
	env := newTestEnv(t)
	env.createRaffle(t, registry.CreateRaffleRequest{RaffleID: 1})
	env.createRaffle(t, registry.CreateRaffleRequest{RaffleID: 2})

	assert.Equal(t, []uint64{0, 1}, env.mint(t, 1, testAlice, 2))
	assert.Equal(t, []uint64{2}, env.mint(t, 2, testBob, 1))

	supply, err := env.reg.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), supply)
	raffleSupply, err := env.reg.SupplyForRaffle(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), raffleSupply)

	// One mint record per ticket
	n, err := env.db.JournalLength(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	tickets, err := env.reg.TicketsForOwner(testAlice, 1, 10)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "1", tickets[0].TicketID)

	tickets, err = env.reg.Tickets(0, 0)
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
	tickets, err = env.reg.TicketsForRaffle(2, 0, 0)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, testBob, tickets[0].OwnerID)

	raffles, err := env.reg.Raffles(0, 1)
	require.NoError(t, err)
	require.Len(t, raffles, 1)
	assert.Equal(t, uint64(1), raffles[0].RaffleID)

	empty, err := env.reg.TicketsForOwner(testDave, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMintRules(t *testing.T) {
	env := newTestEnv(t)
	env.createRaffle(t, registry.CreateRaffleRequest{
		RaffleID: 1,
		Metadata: models.RaffleMetadata{MaxTickets: ptr(uint64(2))},
		FunderID: ptr("funder"),
	})
	args := &registry.MintArgs{FunderID: ptr("funder")}
	mint := func(caller string, amount uint64, args *registry.MintArgs) error {
		_, err := env.reg.MintTickets(env.ctx, inv(caller, 500), registry.MintRequest{
			RaffleID:   1,
			ReceiverID: testAlice,
			Amount:     amount,
			Args:       args,
		})
		return err
	}

	assert.ErrorIs(t, mint(testBob, 1, args), registry.ErrUnauthorized)
	require.NoError(t, env.reg.AddApprovedMinter(env.ctx, inv(testOwner, 0), testBob))
	ok, err := env.reg.HasRole(models.RoleMinter, testBob)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, mint(testBob, 0, args), registry.ErrInvalidArgument)
	assert.ErrorIs(t, mint(testBob, 1, nil), registry.ErrUnauthorized)
	assert.ErrorIs(t, mint(testBob, 1, &registry.MintArgs{FunderID: ptr("other")}), registry.ErrUnauthorized)
	assert.ErrorIs(t, mint(testBob, 3, args), registry.ErrMintLimitReached)

	malicious := &registry.MintArgs{
		FunderID: ptr("funder"),
		Injected: &registry.InjectedFields{
			AccountIDField: "funder_id",
			FunderIDField:  "funder_id",
			DropIDField:    "drop_id",
		},
	}
	assert.ErrorIs(t, mint(testBob, 1, malicious), registry.ErrMaliciousMintArgs)

	honest := &registry.MintArgs{
		FunderID: ptr("funder"),
		Injected: &registry.InjectedFields{
			AccountIDField: registry.MintFieldReceiverID,
			FunderIDField:  registry.MintFieldFunderID,
			DropIDField:    registry.MintFieldDropID,
		},
	}
	require.NoError(t, mint(testBob, 2, honest))
	assert.ErrorIs(t, mint(testBob, 1, args), registry.ErrMintLimitReached)

	require.NoError(t, env.reg.RemoveApprovedMinter(env.ctx, inv(testOwner, 0), testBob))
	assert.ErrorIs(t, mint(testBob, 1, args), registry.ErrUnauthorized)
	err = env.reg.AddApprovedMinter(env.ctx, inv(testAlice, 0), testAlice)
	assert.ErrorIs(t, err, registry.ErrUnauthorized)
}

func TestContractMetadata(t *testing.T) {
	env := newTestEnv(t)
	meta := env.reg.ContractMetadata()
	assert.Equal(t, registry.ContractSpec, meta.Spec)
	assert.Equal(t, "TIX", meta.Symbol)
}
