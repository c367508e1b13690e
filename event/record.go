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

package event

import (
	"encoding/json"
	"strconv"
)

const (
	RecordStandard = "nep171"
	RecordVersion  = "nft-1.0.0"

	// RecordPrefix is prepended to the JSON form of a record in log output
	RecordPrefix = "EVENT_JSON:"
)

const (
	EventTypeMint     EventType = "nft_mint"
	EventTypeTransfer EventType = "nft_transfer"
)

// Record is the envelope of every structured registry event
type Record struct {
	Standard string    `json:"standard"`
	Version  string    `json:"version"`
	Event    EventType `json:"event"`
	Data     any       `json:"data"`
}

// MintLog describes tickets issued to an owner
type MintLog struct {
	Memo     *string  `json:"memo,omitempty"`
	OwnerID  string   `json:"owner_id"`
	TokenIDs []string `json:"token_ids"`
}

// TransferLog describes a change of ownership, including reversals
type TransferLog struct {
	AuthorizedID *string  `json:"authorized_id,omitempty"`
	Memo         *string  `json:"memo,omitempty"`
	OldOwnerID   string   `json:"old_owner_id"`
	NewOwnerID   string   `json:"new_owner_id"`
	TokenIDs     []string `json:"token_ids"`
}

// TokenID formats a ticket ID the way records carry it
func TokenID(ticketID uint64) string {
	return strconv.FormatUint(ticketID, 10)
}

// TokenIDs formats ticket IDs the way records carry them
func TokenIDs(ticketIDs ...uint64) []string {
	ret := make([]string, 0, len(ticketIDs))
	for _, id := range ticketIDs {
		ret = append(ret, TokenID(id))
	}
	return ret
}

// NewMintRecord returns a mint record with one entry per log
func NewMintRecord(logs ...MintLog) Record {
	return Record{
		Standard: RecordStandard,
		Version:  RecordVersion,
		Event:    EventTypeMint,
		Data:     logs,
	}
}

// NewTransferRecord returns a transfer record with one entry per log
func NewTransferRecord(logs ...TransferLog) Record {
	return Record{
		Standard: RecordStandard,
		Version:  RecordVersion,
		Event:    EventTypeTransfer,
		Data:     logs,
	}
}

// MarshalRecord returns the JSON encoding stored in the journal
func (r Record) MarshalRecord() ([]byte, error) {
	return json.Marshal(r)
}

// String returns the prefixed log line form of the record
func (r Record) String() string {
	data, err := r.MarshalRecord()
	if err != nil {
		return RecordPrefix + "{}"
	}
	return RecordPrefix + string(data)
}
