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

// Raffle returns a raffle with its royalty schedule, or
// models.ErrRaffleNotFound
func (d *Database) Raffle(raffleID uint64, txn *Txn) (*models.Raffle, error) {
	var ret *models.Raffle
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetRaffle(raffleID, txn.Metadata())
		return err
	})
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrRaffleNotFound
	}
	return ret, nil
}

func (d *Database) CreateRaffle(raffle *models.Raffle, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.CreateRaffle(raffle, txn.Metadata())
	})
}

func (d *Database) SetRaffleTicketCount(
	raffleID uint64,
	count uint64,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetRaffleTicketCount(raffleID, count, txn.Metadata())
	})
}

// Raffles returns raffles ordered by raffle ID
func (d *Database) Raffles(
	offset, limit int,
	txn *Txn,
) ([]models.Raffle, error) {
	var ret []models.Raffle
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetRaffles(offset, limit, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) RaffleCount(txn *Txn) (uint64, error) {
	var ret uint64
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.CountRaffles(txn.Metadata())
		return err
	})
	return ret, err
}

// NextTicketID returns the ID the next minted ticket will receive
func (d *Database) NextTicketID(txn *Txn) (uint64, error) {
	var ret uint64
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetNextTicketID(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetNextTicketID(next uint64, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetNextTicketID(next, txn.Metadata())
	})
}
