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
	"net/http"

	"github.com/blinklabs-io/ticketd/event"
	"github.com/blinklabs-io/ticketd/registry"
)

func (a *API) handleCreateRaffle(w http.ResponseWriter, r *http.Request) {
	inv, err := invocation(r)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	var req CreateRaffleRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "%s", err)
		return
	}
	err = a.registry.CreateRaffle(r.Context(), inv, registry.CreateRaffleRequest{
		RaffleID: req.RaffleID,
		Metadata: req.Metadata,
		FunderID: req.FunderID,
		DropID:   req.DropID,
		Royalty:  req.Royalty,
	})
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	view, err := a.registry.Raffle(req.RaffleID)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (a *API) handleRaffles(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePagination(r)
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	raffles, err := a.registry.Raffles(page.FromIndex, page.Limit)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, raffles)
}

func (a *API) handleRaffle(w http.ResponseWriter, r *http.Request) {
	raffleID, err := pathUint(r, "id")
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	view, err := a.registry.Raffle(raffleID)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleMint(w http.ResponseWriter, r *http.Request) {
	raffleID, err := pathUint(r, "id")
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	inv, err := invocation(r)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	var req MintRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "%s", err)
		return
	}
	ids, err := a.registry.MintTickets(r.Context(), inv, registry.MintRequest{
		RaffleID:   raffleID,
		ReceiverID: req.ReceiverID,
		Amount:     req.Amount,
		Memo:       req.Memo,
		Args:       req.MintArgs,
	})
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MintResponse{TokenIDs: event.TokenIDs(ids...)})
}

func (a *API) handleRaffleTickets(w http.ResponseWriter, r *http.Request) {
	raffleID, err := pathUint(r, "id")
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	page, err := ParsePagination(r)
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	tickets, err := a.registry.TicketsForRaffle(raffleID, page.FromIndex, page.Limit)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}
