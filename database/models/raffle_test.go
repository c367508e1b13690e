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

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaffleDecodeMetadata(t *testing.T) {
	r := &Raffle{
		Metadata: []byte(`{"title":"Spring draw","max_tickets":100}`),
	}
	md, err := r.DecodeMetadata()
	require.NoError(t, err)
	require.NotNil(t, md.Title)
	assert.Equal(t, "Spring draw", *md.Title)
	require.NotNil(t, md.MaxTickets)
	assert.Equal(t, uint64(100), *md.MaxTickets)

	empty := &Raffle{}
	md, err = empty.DecodeMetadata()
	require.NoError(t, err)
	assert.Nil(t, md.Title)

	bad := &Raffle{Metadata: []byte(`{`)}
	_, err = bad.DecodeMetadata()
	require.Error(t, err)
}

func TestRaffleRoyaltyMap(t *testing.T) {
	r := &Raffle{
		HasRoyalty: true,
		Royalty: []RoyaltyShare{
			{AccountID: "x.near", BasisPoints: 500},
			{AccountID: "y.near", BasisPoints: 300},
		},
	}
	assert.Equal(
		t,
		map[string]uint32{"x.near": 500, "y.near": 300},
		r.RoyaltyMap(),
	)
	// An empty schedule is still a schedule
	r = &Raffle{HasRoyalty: true}
	assert.NotNil(t, r.RoyaltyMap())
	assert.Empty(t, r.RoyaltyMap())
	r = &Raffle{}
	assert.Nil(t, r.RoyaltyMap())
}

func TestTicketApprovedAccounts(t *testing.T) {
	tk := &Ticket{
		Approvals: []Approval{
			{AccountID: "carol", ApprovalID: 3},
			{AccountID: "bob", ApprovalID: 1},
		},
	}
	assert.Equal(t, []string{"bob", "carol"}, tk.ApprovedAccounts())
	assert.Equal(
		t,
		map[string]uint64{"bob": 1, "carol": 3},
		tk.ApprovalMap(),
	)
}
