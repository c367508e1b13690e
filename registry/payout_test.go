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

	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payoutStrings(p *registry.Payout) map[string]string {
	ret := make(map[string]string, len(p.Payout))
	for k, v := range p.Payout {
		ret[k] = v.String()
	}
	return ret
}

func TestPayoutSplitsRoyalty(t *testing.T) {
	env := newTestEnv(t)
	env.createRaffle(t, registry.CreateRaffleRequest{
		RaffleID: 1,
		Royalty:  map[string]uint32{"x": 500, "y": 300, "z": 100},
	})
	ticketID := env.mint(t, 1, "z", 1)[0]

	payout, err := env.reg.Payout(ticketID, types.NewBalance(1000), 10)
	require.NoError(t, err)
	// The owner's own entry is ignored in favor of the remainder
	assert.Equal(t, map[string]string{"x": "50", "y": "30", "z": "920"}, payoutStrings(payout))

	_, err = env.reg.Payout(ticketID, types.NewBalance(1000), 2)
	assert.ErrorIs(t, err, registry.ErrTooManyRecipients)

	payout, err = env.reg.Payout(ticketID, types.NewBalance(999), 3)
	require.NoError(t, err)
	// Shares round down
	assert.Equal(t, map[string]string{"x": "49", "y": "29", "z": "919"}, payoutStrings(payout))
}

func TestPayoutRaffleZero(t *testing.T) {
	env := newTestEnv(t)
	env.createRaffle(t, registry.CreateRaffleRequest{
		RaffleID: 0,
		Royalty:  map[string]uint32{"x": 500, "y": 300},
	})
	ticketID := env.mint(t, 0, testAlice, 1)[0]

	payout, err := env.reg.Payout(ticketID, types.NewBalance(1000), 10)
	require.NoError(t, err)
	assert.Equal(
		t,
		map[string]string{"x": "50", "y": "30", testAlice: "920"},
		payoutStrings(payout),
	)
	_, err = env.reg.Payout(ticketID, types.NewBalance(1000), 1)
	require.ErrorIs(t, err, registry.ErrTooManyRecipients)

	raffle, err := env.reg.Raffle(0)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint32{"x": 500, "y": 300}, raffle.Royalty)
}

func TestPayoutNeverExceedsBalance(t *testing.T) {
	huge, err := types.ParseBalance("340282366920938463463374607431768211455")
	require.NoError(t, err)
	schedules := map[string]map[string]uint32{
		"none":            nil,
		"empty":           {},
		"single":          {"x": 2500},
		"full":            {"x": 5000, "y": 5000},
		"uneven":          {"x": 333, "y": 333, "z": 334},
		"owner listed":    {testAlice: 4000, "x": 6000},
		"owner only":      {testAlice: 10000},
		"many small":      {"a": 1, "b": 7, "c": 13, "d": 99, "e": 1001},
		"owner and small": {testAlice: 1, "x": 9999},
	}
	balances := []types.Balance{
		types.NewBalance(0),
		types.NewBalance(1),
		types.NewBalance(7),
		types.NewBalance(999),
		types.NewBalance(10001),
		huge,
	}
	for name, schedule := range schedules {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.createRaffle(t, registry.CreateRaffleRequest{
				RaffleID: 1,
				Royalty:  schedule,
			})
			ticketID := env.mint(t, 1, testAlice, 1)[0]
			for _, balance := range balances {
				payout, err := env.reg.Payout(ticketID, balance, 10)
				require.NoError(t, err)
				var sum types.Balance
				for _, amount := range payout.Payout {
					sum, err = sum.Add(amount)
					require.NoError(t, err)
				}
				// Shares round down, losing less than one unit each
				lost, err := balance.Sub(sum)
				require.NoError(t, err, "payout %s exceeds balance %s", sum, balance)
				assert.Negative(
					t,
					lost.Cmp(types.NewBalance(uint64(len(payout.Payout)))),
					"balance %s", balance,
				)
				assert.Contains(t, payout.Payout, testAlice)
			}
		})
	}
}

func TestPayoutWithoutSchedule(t *testing.T) {
	env := newTestEnv(t)
	ticketID := env.mintOne(t)
	// No schedule means no recipient bound
	payout, err := env.reg.Payout(ticketID, types.NewBalance(1000), 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{testAlice: "1000"}, payoutStrings(payout))

	_, err = env.reg.Payout(404, types.NewBalance(1), 1)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestPayoutEmptySchedule(t *testing.T) {
	env := newTestEnv(t)
	env.createRaffle(t, registry.CreateRaffleRequest{
		RaffleID: 1,
		Royalty:  map[string]uint32{},
	})
	ticketID := env.mint(t, 1, testAlice, 1)[0]
	payout, err := env.reg.Payout(ticketID, types.NewBalance(10), 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{testAlice: "10"}, payoutStrings(payout))
}

func TestTransferPayout(t *testing.T) {
	env := newTestEnv(t)
	env.createRaffle(t, registry.CreateRaffleRequest{
		RaffleID: 1,
		Royalty:  map[string]uint32{"x": 500, "y": 300},
	})
	ticketID := env.mint(t, 1, testAlice, 1)[0]
	_, err := env.reg.Approve(env.ctx, inv(testAlice, 20), ticketID, testBob, nil)
	require.NoError(t, err)

	req := registry.TransferRequest{ReceiverID: testCarol, TicketID: ticketID}
	_, err = env.reg.TransferPayout(env.ctx, inv(testBob, 1), req, types.NewBalance(1000), 10)
	require.ErrorIs(t, err, registry.ErrInvalidArgument)

	req.ApprovalID = ptr(uint64(0))
	_, err = env.reg.TransferPayout(env.ctx, inv(testBob, 1), req, types.NewBalance(1000), 1)
	require.ErrorIs(t, err, registry.ErrTooManyRecipients)
	env.requireOwner(t, ticketID, testAlice)

	payout, err := env.reg.TransferPayout(env.ctx, inv(testBob, 1), req, types.NewBalance(1000), 10)
	require.NoError(t, err)
	assert.Equal(
		t,
		map[string]string{"x": "50", "y": "30", testAlice: "920"},
		payoutStrings(payout),
	)
	env.requireOwner(t, ticketID, testCarol)
	env.requireBalance(t, testAlice, testFunding)
}
