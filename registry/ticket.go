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
	"errors"
	"fmt"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/models"
)

func loadTicket(
	db *database.Database,
	ticketID uint64,
	txn *database.Txn,
) (*models.Ticket, error) {
	ticket, err := db.Ticket(ticketID, txn)
	if err != nil {
		if errors.Is(err, models.ErrTicketNotFound) {
			return nil, notFound("ticket", ticketID)
		}
		return nil, err
	}
	return ticket, nil
}

func loadRaffle(
	db *database.Database,
	raffleID uint64,
	txn *database.Txn,
) (*models.Raffle, error) {
	raffle, err := db.Raffle(raffleID, txn)
	if err != nil {
		if errors.Is(err, models.ErrRaffleNotFound) {
			return nil, notFound("raffle", raffleID)
		}
		return nil, err
	}
	return raffle, nil
}

func (c *call) loadTicket(ticketID uint64) (*models.Ticket, error) {
	return loadTicket(c.r.db, ticketID, c.txn)
}

// moveTicket is the only place ticket ownership changes. The owner index
// entry moves in the same step as the owner field.
func (c *call) moveTicket(ticketID uint64, from, to string) error {
	if err := c.r.db.RemoveOwnerTicket(from, ticketID, c.txn); err != nil {
		return fmt.Errorf("remove ticket %d from %s: %w", ticketID, from, err)
	}
	if err := c.r.db.AddOwnerTickets(to, []uint64{ticketID}, c.txn); err != nil {
		return fmt.Errorf("add ticket %d to %s: %w", ticketID, to, err)
	}
	return c.r.db.SetTicketOwner(ticketID, to, c.txn)
}

// clearApprovals removes every approval on a ticket and returns the
// accounts that held one
func (c *call) clearApprovals(ticket *models.Ticket) ([]string, error) {
	accounts := ticket.ApprovedAccounts()
	if len(accounts) == 0 {
		return nil, nil
	}
	if err := c.r.db.DeleteApprovals(ticket.TicketID, c.txn); err != nil {
		return nil, err
	}
	return accounts, nil
}
