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
	"math"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/event"
)

// DefaultPageLimit applies when a listing is requested without a limit
const DefaultPageLimit = 50

// TicketView is the public representation of a ticket
type TicketView struct {
	Metadata           models.RaffleMetadata `json:"metadata"`
	ApprovedAccountIDs map[string]uint64     `json:"approved_account_ids"`
	Royalty            map[string]uint32     `json:"royalty,omitempty"`
	TicketID           string                `json:"token_id"`
	OwnerID            string                `json:"owner_id"`
	RaffleID           uint64                `json:"raffle_id"`
}

type RaffleView struct {
	FunderID    *string               `json:"funder_id,omitempty"`
	DropID      *string               `json:"drop_id,omitempty"`
	Royalty     map[string]uint32     `json:"royalty,omitempty"`
	Metadata    models.RaffleMetadata `json:"metadata"`
	OwnerID     string                `json:"owner_id"`
	RaffleID    uint64                `json:"raffle_id"`
	TicketCount uint64                `json:"ticket_count"`
}

func pageBounds(fromIndex, limit uint64) (int, int) {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if fromIndex > math.MaxInt32 {
		fromIndex = math.MaxInt32
	}
	if limit > math.MaxInt32 {
		limit = math.MaxInt32
	}
	return int(fromIndex), int(limit) //nolint:gosec // bounded above
}

func newRaffleView(raffle *models.Raffle) (*RaffleView, error) {
	meta, err := raffle.DecodeMetadata()
	if err != nil {
		return nil, err
	}
	return &RaffleView{
		RaffleID:    raffle.RaffleID,
		OwnerID:     raffle.OwnerID,
		Metadata:    meta,
		FunderID:    raffle.FunderID,
		DropID:      raffle.DropID,
		Royalty:     raffle.RoyaltyMap(),
		TicketCount: raffle.TicketCount,
	}, nil
}

// ticketViews joins tickets with their raffles, loading each raffle once
func (r *Registry) ticketViews(
	tickets []models.Ticket,
	txn *database.Txn,
) ([]TicketView, error) {
	raffles := make(map[uint64]*RaffleView)
	ret := make([]TicketView, 0, len(tickets))
	for i := range tickets {
		ticket := &tickets[i]
		rv, ok := raffles[ticket.RaffleID]
		if !ok {
			raffle, err := loadRaffle(r.db, ticket.RaffleID, txn)
			if err != nil {
				return nil, err
			}
			rv, err = newRaffleView(raffle)
			if err != nil {
				return nil, err
			}
			raffles[ticket.RaffleID] = rv
		}
		ret = append(ret, TicketView{
			RaffleID:           ticket.RaffleID,
			TicketID:           event.TokenID(ticket.TicketID),
			OwnerID:            ticket.OwnerID,
			Metadata:           rv.Metadata,
			ApprovedAccountIDs: ticket.ApprovalMap(),
			Royalty:            rv.Royalty,
		})
	}
	return ret, nil
}

func (r *Registry) Ticket(ticketID uint64) (*TicketView, error) {
	var ret *TicketView
	err := r.view(func(txn *database.Txn) error {
		ticket, err := loadTicket(r.db, ticketID, txn)
		if err != nil {
			return err
		}
		views, err := r.ticketViews([]models.Ticket{*ticket}, txn)
		if err != nil {
			return err
		}
		ret = &views[0]
		return nil
	})
	return ret, err
}

func (r *Registry) TotalSupply() (uint64, error) {
	var ret uint64
	err := r.view(func(txn *database.Txn) error {
		var err error
		ret, err = r.db.TicketCount(txn)
		return err
	})
	return ret, err
}

func (r *Registry) Tickets(fromIndex, limit uint64) ([]TicketView, error) {
	var ret []TicketView
	err := r.view(func(txn *database.Txn) error {
		offset, lim := pageBounds(fromIndex, limit)
		tickets, err := r.db.Tickets(offset, lim, txn)
		if err != nil {
			return err
		}
		ret, err = r.ticketViews(tickets, txn)
		return err
	})
	return ret, err
}

func (r *Registry) SupplyForOwner(accountID string) (uint64, error) {
	var ret uint64
	err := r.view(func(txn *database.Txn) error {
		var err error
		ret, err = r.db.OwnerTicketCount(accountID, txn)
		return err
	})
	return ret, err
}

// TicketsForOwner lists an account's tickets in ticket ID order using the
// owner index
func (r *Registry) TicketsForOwner(
	accountID string,
	fromIndex, limit uint64,
) ([]TicketView, error) {
	var ret []TicketView
	err := r.view(func(txn *database.Txn) error {
		offset, lim := pageBounds(fromIndex, limit)
		ids, err := r.db.OwnerTicketIDs(accountID, offset, lim, txn)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			ret = []TicketView{}
			return nil
		}
		tickets, err := r.db.TicketsByID(ids, txn)
		if err != nil {
			return err
		}
		ret, err = r.ticketViews(tickets, txn)
		return err
	})
	return ret, err
}

func (r *Registry) Raffle(raffleID uint64) (*RaffleView, error) {
	var ret *RaffleView
	err := r.view(func(txn *database.Txn) error {
		raffle, err := loadRaffle(r.db, raffleID, txn)
		if err != nil {
			return err
		}
		ret, err = newRaffleView(raffle)
		return err
	})
	return ret, err
}

func (r *Registry) Raffles(fromIndex, limit uint64) ([]RaffleView, error) {
	var ret []RaffleView
	err := r.view(func(txn *database.Txn) error {
		offset, lim := pageBounds(fromIndex, limit)
		raffles, err := r.db.Raffles(offset, lim, txn)
		if err != nil {
			return err
		}
		ret = make([]RaffleView, 0, len(raffles))
		for i := range raffles {
			rv, err := newRaffleView(&raffles[i])
			if err != nil {
				return err
			}
			ret = append(ret, *rv)
		}
		return nil
	})
	return ret, err
}

func (r *Registry) SupplyForRaffle(raffleID uint64) (uint64, error) {
	var ret uint64
	err := r.view(func(txn *database.Txn) error {
		raffle, err := loadRaffle(r.db, raffleID, txn)
		if err != nil {
			return err
		}
		ret = raffle.TicketCount
		return nil
	})
	return ret, err
}

func (r *Registry) TicketsForRaffle(
	raffleID uint64,
	fromIndex, limit uint64,
) ([]TicketView, error) {
	var ret []TicketView
	err := r.view(func(txn *database.Txn) error {
		if _, err := loadRaffle(r.db, raffleID, txn); err != nil {
			return err
		}
		offset, lim := pageBounds(fromIndex, limit)
		tickets, err := r.db.TicketsForRaffle(raffleID, offset, lim, txn)
		if err != nil {
			return err
		}
		ret, err = r.ticketViews(tickets, txn)
		return err
	})
	return ret, err
}

// Journal returns committed event records starting at sequence fromSeq
func (r *Registry) Journal(fromSeq, limit uint64) ([]database.JournalEntry, error) {
	var ret []database.JournalEntry
	err := r.view(func(txn *database.Txn) error {
		_, lim := pageBounds(0, limit)
		var err error
		ret, err = r.db.JournalEntries(fromSeq, lim, txn)
		return err
	})
	return ret, err
}
