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

package registry

import (
	"fmt"

	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/database/types"
)

// Byte accounting for stored entries. Strings carry a 4 byte length prefix.
const (
	stringLenBytes = 4
	uint64Bytes    = 8

	// id, raffle id, approval counter, per-raffle set entry and record key
	ticketBaseBytes = 5 * uint64Bytes
	// raffle id, ticket count, record key and optional field tags
	raffleBaseBytes = 3*uint64Bytes + 3
	// basis points per royalty entry
	royaltyShareBytes = 4
)

// ApprovalStorageBytes returns the storage one approval entry consumes
func ApprovalStorageBytes(accountID string) uint64 {
	return uint64(len(accountID)) + stringLenBytes + uint64Bytes
}

// ticketStorageBytes covers the ticket record and its owner index entry
func ticketStorageBytes(ownerID string) uint64 {
	return ticketBaseBytes + 2*(uint64(len(ownerID))+stringLenBytes)
}

func raffleStorageBytes(raffle *models.Raffle) uint64 {
	ret := uint64(raffleBaseBytes)
	ret += uint64(len(raffle.OwnerID)) + stringLenBytes
	ret += uint64(len(raffle.Metadata)) + stringLenBytes
	if raffle.FunderID != nil {
		ret += uint64(len(*raffle.FunderID)) + stringLenBytes
	}
	if raffle.DropID != nil {
		ret += uint64(len(*raffle.DropID)) + stringLenBytes
	}
	for _, share := range raffle.Royalty {
		ret += uint64(len(share.AccountID)) + stringLenBytes + royaltyShareBytes
	}
	return ret
}

var oneUnit = types.NewBalance(1)

// assertOneUnit requires an attached deposit of exactly one unit
func (c *call) assertOneUnit() error {
	if c.inv.Deposit.Cmp(oneUnit) != 0 {
		return &InsufficientPaymentError{
			Required: oneUnit,
			Attached: c.inv.Deposit,
			Exact:    true,
		}
	}
	return nil
}

// assertAtLeastOneUnit requires an attached deposit of at least one unit
func (c *call) assertAtLeastOneUnit() error {
	if c.inv.Deposit.Cmp(oneUnit) < 0 {
		return &InsufficientPaymentError{
			Required: oneUnit,
			Attached: c.inv.Deposit,
		}
	}
	return nil
}

func (c *call) storageCost(bytes uint64) (types.Balance, error) {
	cost, err := c.r.byteCost.MulUint64(bytes)
	if err != nil {
		return types.Balance{}, fmt.Errorf("storage cost of %d bytes: %w", bytes, err)
	}
	return cost, nil
}

// settleStorage charges the attached deposit for newly used storage and
// refunds the excess to the caller
func (c *call) settleStorage(deltaBytes uint64) error {
	required, err := c.storageCost(deltaBytes)
	if err != nil {
		return err
	}
	if c.inv.Deposit.Cmp(required) < 0 {
		return &InsufficientPaymentError{
			Required: required,
			Attached: c.inv.Deposit,
		}
	}
	refund, err := c.inv.Deposit.Sub(required)
	if err != nil {
		return err
	}
	// Amounts at or below one unit are not worth a transfer
	if refund.Cmp(oneUnit) > 0 {
		return c.refund(c.inv.Caller, refund, refundKindExcess)
	}
	return nil
}

// refundReleased returns the storage cost of removed approval entries to
// the beneficiary
func (c *call) refundReleased(beneficiary string, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	var bytes uint64
	for _, accountID := range accountIDs {
		bytes += ApprovalStorageBytes(accountID)
	}
	amount, err := c.storageCost(bytes)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	return c.refund(beneficiary, amount, refundKindStorage)
}
