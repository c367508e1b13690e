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
	"strconv"

	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/registry"
)

func (a *API) handleTickets(w http.ResponseWriter, r *http.Request) {
	page, err := ParsePagination(r)
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	tickets, err := a.registry.Tickets(page.FromIndex, page.Limit)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (a *API) handleTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathUint(r, "id")
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	view, err := a.registry.Ticket(ticketID)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleApprove(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathUint(r, "id")
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	inv, err := invocation(r)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	var req ApproveRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "%s", err)
		return
	}
	approvalID, err := a.registry.Approve(r.Context(), inv, ticketID, req.AccountID, req.Msg)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ApproveResponse{ApprovalID: approvalID})
}

func (a *API) handleIsApproved(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathUint(r, "id")
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	var approvalID *uint64
	if val := r.URL.Query().Get("approval_id"); val != "" {
		tmp, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			badRequest(w, "invalid approval_id: %q", val)
			return
		}
		approvalID = &tmp
	}
	ok, err := a.registry.IsApproved(ticketID, r.PathValue("account"), approvalID)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ApprovedResponse{Approved: ok})
}

func (a *API) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathUint(r, "id")
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	inv, err := invocation(r)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	var req RevokeRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "%s", err)
		return
	}
	if err := a.registry.Revoke(r.Context(), inv, ticketID, req.AccountID); err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRevokeAll(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathUint(r, "id")
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	inv, err := invocation(r)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	if err := a.registry.RevokeAll(r.Context(), inv, ticketID); err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// transferInput decodes the shared parts of the transfer endpoints
func (a *API) transferInput(
	w http.ResponseWriter,
	r *http.Request,
) (registry.Invocation, registry.TransferRequest, *TransferRequest, bool) {
	var treq registry.TransferRequest
	ticketID, err := pathUint(r, "id")
	if err != nil {
		badRequest(w, "%s", err)
		return registry.Invocation{}, treq, nil, false
	}
	inv, err := invocation(r)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return inv, treq, nil, false
	}
	var req TransferRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "%s", err)
		return inv, treq, nil, false
	}
	treq = registry.TransferRequest{
		TicketID:   ticketID,
		ReceiverID: req.ReceiverID,
		ApprovalID: req.ApprovalID,
		Memo:       req.Memo,
	}
	return inv, treq, &req, true
}

func (a *API) handleTransfer(w http.ResponseWriter, r *http.Request) {
	inv, treq, _, ok := a.transferInput(w, r)
	if !ok {
		return
	}
	if err := a.registry.Transfer(r.Context(), inv, treq); err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleTransferCall(w http.ResponseWriter, r *http.Request) {
	inv, treq, req, ok := a.transferInput(w, r)
	if !ok {
		return
	}
	pendingID, err := a.registry.TransferCall(r.Context(), inv, treq, req.Msg)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, TransferCallResponse{PendingID: pendingID})
}

func (a *API) handleTransferPayout(w http.ResponseWriter, r *http.Request) {
	inv, treq, req, ok := a.transferInput(w, r)
	if !ok {
		return
	}
	if req.Balance == nil {
		badRequest(w, "balance is required")
		return
	}
	payout, err := a.registry.TransferPayout(
		r.Context(),
		inv,
		treq,
		*req.Balance,
		req.MaxLenPayout,
	)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payout)
}

func (a *API) handlePayout(w http.ResponseWriter, r *http.Request) {
	ticketID, err := pathUint(r, "id")
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	query := r.URL.Query()
	balance, err := types.ParseBalance(query.Get("balance"))
	if err != nil {
		badRequest(w, "invalid balance: %s", err)
		return
	}
	var maxLen uint64
	if val := query.Get("max_len_payout"); val != "" {
		maxLen, err = strconv.ParseUint(val, 10, 32)
		if err != nil {
			badRequest(w, "invalid max_len_payout: %q", val)
			return
		}
	}
	payout, err := a.registry.Payout(ticketID, balance, uint32(maxLen)) //nolint:gosec // parsed as 32 bits
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payout)
}
