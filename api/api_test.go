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

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwner = "owner"

func newTestAPI(t *testing.T) *API {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	reg, err := registry.New(registry.Config{
		Database:        db,
		OwnerID:         testOwner,
		StorageByteCost: types.NewBalance(1),
		ContractMetadata: registry.ContractMetadata{
			Name:   "Raffle Tickets",
			Symbol: "TIX",
		},
	})
	require.NoError(t, err)
	a := New(Config{ListenAddress: "127.0.0.1:0"}, reg, nil)
	for _, acct := range []string{testOwner, "alice", "bob"} {
		rec := doRequest(
			t, a, http.MethodPost, "/api/v0/accounts/"+acct+"/fund",
			testOwner, "", `{"amount":"1000"}`,
		)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	}
	return a
}

func doRequest(
	t *testing.T,
	a *API,
	method, target, caller, deposit, body string,
) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if caller != "" {
		req.Header.Set(AccountHeader, caller)
	}
	if deposit != "" {
		req.Header.Set(DepositHeader, deposit)
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

// setupTicket creates raffle 1 and mints ticket 0 to alice
func setupTicket(t *testing.T, a *API) {
	t.Helper()
	rec := doRequest(
		t, a, http.MethodPost, "/api/v0/raffles", testOwner, "500",
		`{"raffle_id":1,"metadata":{"title":"Spring draw"},"royalty":{"artist":1000}}`,
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doRequest(
		t, a, http.MethodPost, "/api/v0/raffles/1/mint", testOwner, "500",
		`{"receiver_id":"alice","amount":1}`,
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"token_ids":["0"]}`, rec.Body.String())
}

func TestStartStop(t *testing.T) {
	a := newTestAPI(t)
	require.NoError(t, a.Start(t.Context()))
	assert.NotEmpty(t, a.Addr())

	resp, err := http.Get("http://" + a.Addr() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	err = a.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	stopCtx, stopCancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer stopCancel()
	require.NoError(t, a.Stop(stopCtx))
}

func TestGRPCHealthCheck(t *testing.T) {
	a := newTestAPI(t)
	req := httptest.NewRequest(
		http.MethodPost,
		"/grpc.health.v1.Health/Check",
		strings.NewReader("{}"),
	)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"SERVING_STATUS_SERVING"}`, rec.Body.String())
}

func TestHandleMetadata(t *testing.T) {
	a := newTestAPI(t)
	rec := doRequest(t, a, http.MethodGet, "/api/v0/metadata", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var meta registry.ContractMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, "TIX", meta.Symbol)
	assert.Equal(t, registry.ContractSpec, meta.Spec)
}

func TestRaffleAndTicketQueries(t *testing.T) {
	a := newTestAPI(t)
	setupTicket(t, a)

	rec := doRequest(t, a, http.MethodGet, "/api/v0/raffles/1", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var raffle registry.RaffleView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raffle))
	assert.Equal(t, uint64(1), raffle.TicketCount)
	require.NotNil(t, raffle.Metadata.Title)
	assert.Equal(t, "Spring draw", *raffle.Metadata.Title)

	rec = doRequest(t, a, http.MethodGet, "/api/v0/tickets/0", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ticket registry.TicketView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))
	assert.Equal(t, "alice", ticket.OwnerID)
	assert.Equal(t, "0", ticket.TicketID)

	rec = doRequest(t, a, http.MethodGet, "/api/v0/accounts/alice/tickets", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tickets []registry.TicketView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	assert.Len(t, tickets, 1)

	rec = doRequest(t, a, http.MethodGet, "/api/v0/raffles/1/tickets?limit=10", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	assert.Len(t, tickets, 1)

	rec = doRequest(t, a, http.MethodGet, "/api/v0/accounts/alice", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var acct AccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acct))
	assert.Equal(t, uint64(1), acct.Supply)

	rec = doRequest(t, a, http.MethodGet, "/api/v0/tickets/42", "", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveAndTransfer(t *testing.T) {
	a := newTestAPI(t)
	setupTicket(t, a)

	rec := doRequest(
		t, a, http.MethodPost, "/api/v0/tickets/0/approve", "alice", "100",
		`{"account_id":"bob"}`,
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approve ApproveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &approve))

	rec = doRequest(t, a, http.MethodGet, "/api/v0/tickets/0/approved/bob", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"approved":true}`, rec.Body.String())

	rec = doRequest(
		t, a, http.MethodGet,
		"/api/v0/tickets/0/approved/bob?approval_id=999", "", "", "",
	)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"approved":false}`, rec.Body.String())

	body, err := json.Marshal(TransferRequest{
		ReceiverID: "bob",
		ApprovalID: &approve.ApprovalID,
	})
	require.NoError(t, err)
	rec = doRequest(
		t, a, http.MethodPost, "/api/v0/tickets/0/transfer", "bob", "1",
		string(body),
	)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doRequest(t, a, http.MethodGet, "/api/v0/tickets/0", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ticket registry.TicketView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ticket))
	assert.Equal(t, "bob", ticket.OwnerID)
	assert.Empty(t, ticket.ApprovedAccountIDs)

	rec = doRequest(t, a, http.MethodGet, "/api/v0/events?from_seq=1&limit=10", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, uint64(2), events[1].Seq)
}

func TestPayout(t *testing.T) {
	a := newTestAPI(t)
	setupTicket(t, a)

	rec := doRequest(
		t, a, http.MethodGet,
		"/api/v0/tickets/0/payout?balance=1000&max_len_payout=10", "", "", "",
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(
		t,
		`{"payout":{"artist":"100","alice":"900"}}`,
		rec.Body.String(),
	)

	rec = doRequest(
		t, a, http.MethodGet, "/api/v0/tickets/0/payout?balance=abc", "", "", "",
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorStatus(t *testing.T) {
	a := newTestAPI(t)
	setupTicket(t, a)

	testDefs := []struct {
		name     string
		method   string
		target   string
		caller   string
		deposit  string
		body     string
		expected int
	}{
		{
			name:     "missing caller",
			method:   http.MethodPost,
			target:   "/api/v0/tickets/0/revoke-all",
			deposit:  "1",
			expected: http.StatusUnauthorized,
		},
		{
			name:     "not owner",
			method:   http.MethodPost,
			target:   "/api/v0/tickets/0/revoke-all",
			caller:   "bob",
			deposit:  "1",
			expected: http.StatusForbidden,
		},
		{
			name:     "wrong deposit",
			method:   http.MethodPost,
			target:   "/api/v0/tickets/0/transfer",
			caller:   "alice",
			deposit:  "2",
			body:     `{"receiver_id":"bob"}`,
			expected: http.StatusPaymentRequired,
		},
		{
			name:     "transfer to self",
			method:   http.MethodPost,
			target:   "/api/v0/tickets/0/transfer",
			caller:   "alice",
			deposit:  "1",
			body:     `{"receiver_id":"alice"}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "unknown field",
			method:   http.MethodPost,
			target:   "/api/v0/tickets/0/transfer",
			caller:   "alice",
			deposit:  "1",
			body:     `{"receiver":"bob"}`,
			expected: http.StatusBadRequest,
		},
		{
			name:     "bad ticket id",
			method:   http.MethodGet,
			target:   "/api/v0/tickets/abc",
			expected: http.StatusBadRequest,
		},
		{
			name:     "duplicate raffle",
			method:   http.MethodPost,
			target:   "/api/v0/raffles",
			caller:   testOwner,
			deposit:  "500",
			body:     `{"raffle_id":1,"metadata":{}}`,
			expected: http.StatusConflict,
		},
		{
			name:     "minter role required",
			method:   http.MethodPost,
			target:   "/api/v0/raffles/1/mint",
			caller:   "alice",
			deposit:  "500",
			body:     `{"receiver_id":"alice","amount":1}`,
			expected: http.StatusForbidden,
		},
		{
			name:     "transfer payout without balance",
			method:   http.MethodPost,
			target:   "/api/v0/tickets/0/transfer-payout",
			caller:   "alice",
			deposit:  "1",
			body:     `{"receiver_id":"bob","approval_id":0}`,
			expected: http.StatusBadRequest,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			rec := doRequest(
				t, a,
				testDef.method,
				testDef.target,
				testDef.caller,
				testDef.deposit,
				testDef.body,
			)
			assert.Equal(t, testDef.expected, rec.Code, rec.Body.String())
			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, testDef.expected, errResp.StatusCode)
		})
	}
}

func TestAdminRoles(t *testing.T) {
	a := newTestAPI(t)
	setupTicket(t, a)

	rec := doRequest(t, a, http.MethodPost, "/api/v0/admin/minters/alice", "alice", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, a, http.MethodPost, "/api/v0/admin/minters/alice", testOwner, "", "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doRequest(
		t, a, http.MethodPost, "/api/v0/raffles/1/mint", "alice", "500",
		`{"receiver_id":"bob","amount":2}`,
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"token_ids":["1","2"]}`, rec.Body.String())

	rec = doRequest(t, a, http.MethodDelete, "/api/v0/admin/minters/alice", testOwner, "", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(
		t, a, http.MethodPost, "/api/v0/raffles/1/mint", "alice", "500",
		`{"receiver_id":"bob","amount":1}`,
	)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
