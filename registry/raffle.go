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
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/event"
)

// Names of the real mint argument fields. Injected identity fields must
// point at these.
const (
	MintFieldReceiverID = "receiver_id"
	MintFieldFunderID   = "funder_id"
	MintFieldDropID     = "drop_id"
)

type CreateRaffleRequest struct {
	FunderID *string
	DropID   *string
	// Royalty maps recipients to basis points. A nil map means the raffle
	// has no royalty schedule.
	Royalty  map[string]uint32
	Metadata models.RaffleMetadata
	RaffleID uint64
}

// InjectedFields names the mint argument fields that carry identities
// supplied by the minting contract
type InjectedFields struct {
	AccountIDField string `json:"account_id_field"`
	FunderIDField  string `json:"funder_id_field"`
	DropIDField    string `json:"drop_id_field"`
}

type MintArgs struct {
	Injected *InjectedFields `json:"injected_fields,omitempty"`
	FunderID *string         `json:"funder_id,omitempty"`
	DropID   *string         `json:"drop_id,omitempty"`
}

type MintRequest struct {
	Args       *MintArgs
	Memo       *string
	ReceiverID string
	RaffleID   uint64
	Amount     uint64
}

// CreateRaffle registers a new raffle. The attached deposit must cover the
// storage the raffle uses.
func (r *Registry) CreateRaffle(
	ctx context.Context,
	inv Invocation,
	req CreateRaffleRequest,
) error {
	return r.invoke(ctx, "create_raffle", inv, func(c *call) error {
		if err := c.requireRole(models.RoleCreator); err != nil {
			return err
		}
		_, err := c.r.db.Raffle(req.RaffleID, c.txn)
		if err == nil {
			return fmt.Errorf("%w: raffle %d", ErrAlreadyExists, req.RaffleID)
		}
		if !errors.Is(err, models.ErrRaffleNotFound) {
			return err
		}
		raffle := &models.Raffle{
			RaffleID: req.RaffleID,
			OwnerID:  c.inv.Caller,
			FunderID: req.FunderID,
			DropID:   req.DropID,
		}
		if req.Royalty != nil {
			shares, err := validateRoyalty(req.RaffleID, req.Royalty)
			if err != nil {
				return err
			}
			raffle.HasRoyalty = true
			raffle.Royalty = shares
		}
		raffle.Metadata, err = json.Marshal(req.Metadata)
		if err != nil {
			return fmt.Errorf("encode raffle metadata: %w", err)
		}
		if err := c.r.db.CreateRaffle(raffle, c.txn); err != nil {
			return err
		}
		return c.settleStorage(raffleStorageBytes(raffle))
	})
}

func validateRoyalty(
	raffleID uint64,
	royalty map[string]uint32,
) ([]models.RoyaltyShare, error) {
	var total uint64
	ret := make([]models.RoyaltyShare, 0, len(royalty))
	for accountID, bp := range royalty {
		if accountID == "" {
			return nil, fmt.Errorf("%w: empty recipient", ErrInvalidRoyalty)
		}
		total += uint64(bp)
		ret = append(ret, models.RoyaltyShare{
			RaffleID:    raffleID,
			AccountID:   accountID,
			BasisPoints: bp,
		})
	}
	if total > MaxBasisPoints {
		return nil, fmt.Errorf(
			"%w: royalty totals %d basis points, max %d",
			ErrInvalidRoyalty,
			total,
			MaxBasisPoints,
		)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].AccountID < ret[j].AccountID
	})
	return ret, nil
}

func checkInjectedFields(args *MintArgs) error {
	if args == nil || args.Injected == nil {
		return nil
	}
	in := args.Injected
	if in.AccountIDField != MintFieldReceiverID ||
		in.FunderIDField != MintFieldFunderID ||
		in.DropIDField != MintFieldDropID {
		return ErrMaliciousMintArgs
	}
	return nil
}

func checkPinned(what string, pinned, supplied *string) error {
	if pinned == nil {
		return nil
	}
	if supplied == nil || *supplied != *pinned {
		return fmt.Errorf("%w: %s does not match raffle", ErrUnauthorized, what)
	}
	return nil
}

// MintTickets issues new tickets in a raffle to receiver and returns their
// IDs
func (r *Registry) MintTickets(
	ctx context.Context,
	inv Invocation,
	req MintRequest,
) ([]uint64, error) {
	var ret []uint64
	err := r.invoke(ctx, "mint", inv, func(c *call) error {
		if err := c.requireRole(models.RoleMinter); err != nil {
			return err
		}
		if req.Amount == 0 {
			return fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
		}
		if req.ReceiverID == "" {
			return fmt.Errorf("%w: receiver is required", ErrInvalidArgument)
		}
		if err := checkInjectedFields(req.Args); err != nil {
			return err
		}
		raffle, err := loadRaffle(c.r.db, req.RaffleID, c.txn)
		if err != nil {
			return err
		}
		var funderID, dropID *string
		if req.Args != nil {
			funderID = req.Args.FunderID
			dropID = req.Args.DropID
		}
		if err := checkPinned(MintFieldFunderID, raffle.FunderID, funderID); err != nil {
			return err
		}
		if err := checkPinned(MintFieldDropID, raffle.DropID, dropID); err != nil {
			return err
		}
		meta, err := raffle.DecodeMetadata()
		if err != nil {
			return err
		}
		if raffle.TicketCount > math.MaxUint64-req.Amount {
			return fmt.Errorf("%w: ticket count overflow", ErrMintLimitReached)
		}
		newCount := raffle.TicketCount + req.Amount
		if meta.MaxTickets != nil && newCount > *meta.MaxTickets {
			return fmt.Errorf(
				"%w: raffle %d allows %d tickets, has %d",
				ErrMintLimitReached,
				req.RaffleID,
				*meta.MaxTickets,
				raffle.TicketCount,
			)
		}
		nextID, err := c.r.db.NextTicketID(c.txn)
		if err != nil {
			return err
		}
		if nextID > math.MaxUint64-req.Amount {
			return fmt.Errorf("%w: ticket ID space exhausted", ErrMintLimitReached)
		}
		tickets := make([]models.Ticket, 0, req.Amount)
		ret = make([]uint64, 0, req.Amount)
		for i := range req.Amount {
			id := nextID + i
			tickets = append(tickets, models.Ticket{
				TicketID: id,
				RaffleID: req.RaffleID,
				OwnerID:  req.ReceiverID,
			})
			ret = append(ret, id)
		}
		if err := c.r.db.CreateTickets(tickets, c.txn); err != nil {
			return err
		}
		if err := c.r.db.AddOwnerTickets(req.ReceiverID, ret, c.txn); err != nil {
			return err
		}
		if err := c.r.db.SetRaffleTicketCount(req.RaffleID, newCount, c.txn); err != nil {
			return err
		}
		if err := c.r.db.SetNextTicketID(nextID+req.Amount, c.txn); err != nil {
			return err
		}
		for _, id := range ret {
			err := c.emit(event.NewMintRecord(event.MintLog{
				OwnerID:  req.ReceiverID,
				TokenIDs: event.TokenIDs(id),
				Memo:     req.Memo,
			}))
			if err != nil {
				return err
			}
		}
		cost := req.Amount * ticketStorageBytes(req.ReceiverID)
		if cost/req.Amount != ticketStorageBytes(req.ReceiverID) {
			return fmt.Errorf("%w: mint too large", ErrInvalidArgument)
		}
		c.onCommit(func() {
			r.metrics.mints.Add(float64(len(ret)))
		})
		return c.settleStorage(cost)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
