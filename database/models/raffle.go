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
	"encoding/json"
	"errors"
	"fmt"
)

var ErrRaffleNotFound = errors.New("raffle not found")

// RaffleMetadata is shared by every ticket in a raffle
type RaffleMetadata struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Media       *string `json:"media,omitempty"`
	MediaHash   *string `json:"media_hash,omitempty"`
	MaxTickets  *uint64 `json:"max_tickets,omitempty"`
	IssuedAt    *uint64 `json:"issued_at,omitempty"`
	ExpiresAt   *uint64 `json:"expires_at,omitempty"`
	StartsAt    *uint64 `json:"starts_at,omitempty"`
	Extra       *string `json:"extra,omitempty"`
	Reference   *string `json:"reference,omitempty"`
}

type Raffle struct {
	FunderID    *string        `gorm:"size:64"`
	DropID      *string        `gorm:"size:64"`
	OwnerID     string         `gorm:"index;size:64;not null"`
	Metadata    []byte         `gorm:"not null"`
	Royalty     []RoyaltyShare `gorm:"foreignKey:RaffleID;references:RaffleID"`
	ID          uint           `gorm:"primarykey"`
	RaffleID    uint64         `gorm:"uniqueIndex;not null"`
	TicketCount uint64
	// HasRoyalty distinguishes an empty schedule from no schedule
	HasRoyalty bool
}

func (Raffle) TableName() string {
	return "raffle"
}

// DecodeMetadata returns the raffle metadata
func (r *Raffle) DecodeMetadata() (RaffleMetadata, error) {
	var ret RaffleMetadata
	if len(r.Metadata) == 0 {
		return ret, nil
	}
	if err := json.Unmarshal(r.Metadata, &ret); err != nil {
		return ret, fmt.Errorf("decode raffle metadata: %w", err)
	}
	return ret, nil
}

// RoyaltyMap returns the royalty schedule as account to basis points, or
// nil when the raffle has no schedule
func (r *Raffle) RoyaltyMap() map[string]uint32 {
	if !r.HasRoyalty {
		return nil
	}
	ret := make(map[string]uint32, len(r.Royalty))
	for _, share := range r.Royalty {
		ret[share.AccountID] = share.BasisPoints
	}
	return ret
}

type RoyaltyShare struct {
	AccountID   string `gorm:"uniqueIndex:idx_royalty_raffle_account;size:64;not null"`
	ID          uint   `gorm:"primarykey"`
	RaffleID    uint64 `gorm:"uniqueIndex:idx_royalty_raffle_account;not null"`
	BasisPoints uint32
}

func (RoyaltyShare) TableName() string {
	return "royalty_share"
}
