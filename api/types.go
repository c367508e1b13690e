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
	"encoding/json"

	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/registry"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type CreateRaffleRequest struct {
	FunderID *string               `json:"funder_id,omitempty"`
	DropID   *string               `json:"drop_id,omitempty"`
	Royalty  map[string]uint32     `json:"royalty,omitempty"`
	Metadata models.RaffleMetadata `json:"metadata"`
	RaffleID uint64                `json:"raffle_id"`
}

type MintRequest struct {
	MintArgs   *registry.MintArgs `json:"mint_args,omitempty"`
	Memo       *string            `json:"memo,omitempty"`
	ReceiverID string             `json:"receiver_id"`
	Amount     uint64             `json:"amount"`
}

type MintResponse struct {
	TokenIDs []string `json:"token_ids"`
}

type ApproveRequest struct {
	Msg       *string `json:"msg,omitempty"`
	AccountID string  `json:"account_id"`
}

type ApproveResponse struct {
	ApprovalID uint64 `json:"approval_id"`
}

type ApprovedResponse struct {
	Approved bool `json:"approved"`
}

type RevokeRequest struct {
	AccountID string `json:"account_id"`
}

type TransferRequest struct {
	ApprovalID *uint64 `json:"approval_id,omitempty"`
	Memo       *string `json:"memo,omitempty"`
	ReceiverID string  `json:"receiver_id"`
	// Msg is passed to the receiver on transfer-call
	Msg string `json:"msg,omitempty"`
	// Balance and MaxLenPayout apply to transfer-payout
	Balance      *types.Balance `json:"balance,omitempty"`
	MaxLenPayout uint32         `json:"max_len_payout,omitempty"`
}

type TransferCallResponse struct {
	PendingID uint64 `json:"pending_id"`
}

type AccountResponse struct {
	AccountID string        `json:"account_id"`
	Balance   types.Balance `json:"balance"`
	Supply    uint64        `json:"supply"`
}

type FundRequest struct {
	Amount types.Balance `json:"amount"`
}

type ReceiverRequest struct {
	URL string `json:"url"`
}

// EventResponse is one journal entry
type EventResponse struct {
	Record json.RawMessage `json:"record"`
	Event  string          `json:"event"`
	Seq    uint64          `json:"seq"`
	Time   int64           `json:"time"`
}
