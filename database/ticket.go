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

package database

import (
	"github.com/blinklabs-io/ticketd/database/models"
)

// Ticket returns a ticket with its approvals, or models.ErrTicketNotFound
func (d *Database) Ticket(ticketID uint64, txn *Txn) (*models.Ticket, error) {
	var ret *models.Ticket
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetTicket(ticketID, txn.Metadata())
		return err
	})
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrTicketNotFound
	}
	return ret, nil
}

func (d *Database) CreateTickets(tickets []models.Ticket, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.CreateTickets(tickets, txn.Metadata())
	})
}

func (d *Database) SetTicketOwner(
	ticketID uint64,
	ownerID string,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetTicketOwner(ticketID, ownerID, txn.Metadata())
	})
}

func (d *Database) SetTicketNextApprovalID(
	ticketID uint64,
	next uint64,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetTicketNextApprovalID(ticketID, next, txn.Metadata())
	})
}

// Tickets returns tickets ordered by ticket ID
func (d *Database) Tickets(
	offset, limit int,
	txn *Txn,
) ([]models.Ticket, error) {
	var ret []models.Ticket
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetTickets(offset, limit, txn.Metadata())
		return err
	})
	return ret, err
}

// TicketsByID returns the named tickets ordered by ticket ID. Unknown IDs
// are skipped.
func (d *Database) TicketsByID(
	ticketIDs []uint64,
	txn *Txn,
) ([]models.Ticket, error) {
	var ret []models.Ticket
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetTicketsByID(ticketIDs, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) TicketsForRaffle(
	raffleID uint64,
	offset, limit int,
	txn *Txn,
) ([]models.Ticket, error) {
	var ret []models.Ticket
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetTicketsForRaffle(
			raffleID,
			offset,
			limit,
			txn.Metadata(),
		)
		return err
	})
	return ret, err
}

func (d *Database) TicketCount(txn *Txn) (uint64, error) {
	var ret uint64
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.CountTickets(txn.Metadata())
		return err
	})
	return ret, err
}

// SetApproval records an approval, replacing any existing approval ID for
// the same account
func (d *Database) SetApproval(
	ticketID uint64,
	accountID string,
	approvalID uint64,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetApproval(
			ticketID,
			accountID,
			approvalID,
			txn.Metadata(),
		)
	})
}

// DeleteApproval removes one approval and reports whether it existed
func (d *Database) DeleteApproval(
	ticketID uint64,
	accountID string,
	txn *Txn,
) (bool, error) {
	var ret bool
	err := d.withTxn(txn, true, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.DeleteApproval(ticketID, accountID, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) DeleteApprovals(ticketID uint64, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.DeleteApprovals(ticketID, txn.Metadata())
	})
}

func (d *Database) AddOwnerTickets(
	accountID string,
	ticketIDs []uint64,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.AddOwnerTickets(accountID, ticketIDs, txn.Metadata())
	})
}

// RemoveOwnerTicket removes a ticket from an owner's index entry. It fails
// with models.ErrOwnerIndexInconsistent if the entry does not exist.
func (d *Database) RemoveOwnerTicket(
	accountID string,
	ticketID uint64,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.RemoveOwnerTicket(accountID, ticketID, txn.Metadata())
	})
}

// IndexedOwner returns the owner the index records for a ticket, or an
// empty string
func (d *Database) IndexedOwner(ticketID uint64, txn *Txn) (string, error) {
	var ret string
	err := d.withTxn(txn, false, func(txn *Txn) error {
		entry, err := d.metadata.GetOwnerTicket(ticketID, txn.Metadata())
		if err != nil {
			return err
		}
		if entry != nil {
			ret = entry.AccountID
		}
		return nil
	})
	return ret, err
}

func (d *Database) OwnerTicketIDs(
	accountID string,
	offset, limit int,
	txn *Txn,
) ([]uint64, error) {
	var ret []uint64
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetOwnerTicketIDs(
			accountID,
			offset,
			limit,
			txn.Metadata(),
		)
		return err
	})
	return ret, err
}

func (d *Database) OwnerTicketCount(accountID string, txn *Txn) (uint64, error) {
	var ret uint64
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.CountOwnerTickets(accountID, txn.Metadata())
		return err
	})
	return ret, err
}
