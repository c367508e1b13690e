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
	"net/http"

	"github.com/blinklabs-io/ticketd/registry"
)

func (a *API) handleAccount(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	balance, err := a.registry.AccountBalance(accountID)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	supply, err := a.registry.SupplyForOwner(accountID)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{
		AccountID: accountID,
		Balance:   balance,
		Supply:    supply,
	})
}

func (a *API) handleAccountTickets(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePagination(r)
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	tickets, err := a.registry.TicketsForOwner(r.PathValue("id"), page.FromIndex, page.Limit)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (a *API) handleFund(w http.ResponseWriter, r *http.Request) {
	inv, err := invocation(r)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	var req FundRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "%s", err)
		return
	}
	if err := a.registry.FundAccount(r.Context(), inv, r.PathValue("id"), req.Amount); err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetReceiver(w http.ResponseWriter, r *http.Request) {
	inv, err := invocation(r)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	var req ReceiverRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "%s", err)
		return
	}
	if err := a.registry.SetReceiver(r.Context(), inv, r.PathValue("id"), req.URL); err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type roleFunc func(ctx context.Context, inv registry.Invocation, accountID string) error

func (a *API) handleRole(fn roleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := invocation(r)
		if err != nil {
			a.writeRegistryError(w, r, err)
			return
		}
		if err := fn(r.Context(), inv, r.PathValue("id")); err != nil {
			a.writeRegistryError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *API) handleAddMinter(w http.ResponseWriter, r *http.Request) {
	a.handleRole(a.registry.AddApprovedMinter)(w, r)
}

func (a *API) handleRemoveMinter(w http.ResponseWriter, r *http.Request) {
	a.handleRole(a.registry.RemoveApprovedMinter)(w, r)
}

func (a *API) handleAddCreator(w http.ResponseWriter, r *http.Request) {
	a.handleRole(a.registry.AddApprovedCreator)(w, r)
}

func (a *API) handleRemoveCreator(w http.ResponseWriter, r *http.Request) {
	a.handleRole(a.registry.RemoveApprovedCreator)(w, r)
}
