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
	"context"
	"fmt"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/database/types"
)

// MaxBasisPoints is 100%
const MaxBasisPoints = 10000

// Payout maps each recipient to the amount it receives from a sale
type Payout struct {
	Payout map[string]types.Balance `json:"payout"`
}

// computePayout splits balance between the royalty recipients of a raffle
// and the ticket owner. Each share is rounded down and the owner's share
// is computed from the basis points left after the other recipients.
func computePayout(
	raffle *models.Raffle,
	ownerID string,
	balance types.Balance,
	maxLenPayout uint32,
) (*Payout, error) {
	ret := &Payout{Payout: make(map[string]types.Balance)}
	if !raffle.HasRoyalty {
		ret.Payout[ownerID] = balance
		return ret, nil
	}
	if uint64(len(raffle.Royalty)) > uint64(maxLenPayout) {
		return nil, fmt.Errorf(
			"%w: %d royalty recipients, max %d",
			ErrTooManyRecipients,
			len(raffle.Royalty),
			maxLenPayout,
		)
	}
	var totalPerpetual uint64
	for _, share := range raffle.Royalty {
		if share.AccountID == ownerID {
			continue
		}
		amount, err := balance.MulDiv(uint64(share.BasisPoints), MaxBasisPoints)
		if err != nil {
			return nil, err
		}
		ret.Payout[share.AccountID] = amount
		totalPerpetual += uint64(share.BasisPoints)
	}
	if totalPerpetual > MaxBasisPoints {
		return nil, fmt.Errorf(
			"%w: royalty totals %d basis points",
			ErrInvalidRoyalty,
			totalPerpetual,
		)
	}
	ownerAmount, err := balance.MulDiv(MaxBasisPoints-totalPerpetual, MaxBasisPoints)
	if err != nil {
		return nil, err
	}
	ret.Payout[ownerID] = ownerAmount
	return ret, nil
}

// Payout computes how a sale of the ticket at balance would be split
func (r *Registry) Payout(
	ticketID uint64,
	balance types.Balance,
	maxLenPayout uint32,
) (*Payout, error) {
	var ret *Payout
	err := r.view(func(txn *database.Txn) error {
		ticket, err := loadTicket(r.db, ticketID, txn)
		if err != nil {
			return err
		}
		raffle, err := loadRaffle(r.db, ticket.RaffleID, txn)
		if err != nil {
			return err
		}
		ret, err = computePayout(raffle, ticket.OwnerID, balance, maxLenPayout)
		return err
	})
	return ret, err
}

// TransferPayout transfers a ticket and returns the payout owed for the
// sale, computed against the owner before the transfer. The approval ID is
// required.
func (r *Registry) TransferPayout(
	ctx context.Context,
	inv Invocation,
	req TransferRequest,
	balance types.Balance,
	maxLenPayout uint32,
) (*Payout, error) {
	var ret *Payout
	err := r.invoke(ctx, "transfer_payout", inv, func(c *call) error {
		if err := c.assertOneUnit(); err != nil {
			return err
		}
		if req.ApprovalID == nil {
			return fmt.Errorf("%w: approval ID is required", ErrInvalidArgument)
		}
		res, err := c.transfer(req)
		if err != nil {
			return err
		}
		if err := c.refundReleased(res.previousOwnerID, res.voided); err != nil {
			return err
		}
		raffle, err := loadRaffle(c.r.db, res.ticket.RaffleID, c.txn)
		if err != nil {
			return err
		}
		ret, err = computePayout(raffle, res.previousOwnerID, balance, maxLenPayout)
		if err != nil {
			return err
		}
		c.onCommit(func() {
			r.metrics.transfers.WithLabelValues(transferKindPayout).Inc()
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
