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
	"github.com/blinklabs-io/ticketd/database/types"
)

// Account returns the named account or models.ErrAccountNotFound
func (d *Database) Account(
	accountID string,
	txn *Txn,
) (*models.Account, error) {
	var ret *models.Account
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetAccount(accountID, txn.Metadata())
		return err
	})
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrAccountNotFound
	}
	return ret, nil
}

// AccountBalance returns the balance of an account. Unknown accounts have a
// zero balance.
func (d *Database) AccountBalance(
	accountID string,
	txn *Txn,
) (types.Balance, error) {
	var ret types.Balance
	err := d.withTxn(txn, false, func(txn *Txn) error {
		acct, err := d.metadata.GetAccount(accountID, txn.Metadata())
		if err != nil {
			return err
		}
		if acct != nil {
			ret = acct.Balance
		}
		return nil
	})
	return ret, err
}

func (d *Database) SetAccountBalance(
	accountID string,
	balance types.Balance,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetAccountBalance(accountID, balance, txn.Metadata())
	})
}

func (d *Database) AddRole(role, accountID string, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.AddRole(role, accountID, txn.Metadata())
	})
}

func (d *Database) RemoveRole(role, accountID string, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.RemoveRole(role, accountID, txn.Metadata())
	})
}

func (d *Database) HasRole(role, accountID string, txn *Txn) (bool, error) {
	var ret bool
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.HasRole(role, accountID, txn.Metadata())
		return err
	})
	return ret, err
}

// RoleAccounts returns the accounts holding a role, sorted by account ID
func (d *Database) RoleAccounts(role string, txn *Txn) ([]string, error) {
	var ret []string
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.metadata.GetRoleAccounts(role, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetReceiver(accountID, url string, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.SetReceiver(accountID, url, txn.Metadata())
	})
}

func (d *Database) DeleteReceiver(accountID string, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.metadata.DeleteReceiver(accountID, txn.Metadata())
	})
}

// ReceiverURL returns the webhook registered for an account, or an empty
// string when there is none
func (d *Database) ReceiverURL(accountID string, txn *Txn) (string, error) {
	var ret string
	err := d.withTxn(txn, false, func(txn *Txn) error {
		recv, err := d.metadata.GetReceiver(accountID, txn.Metadata())
		if err != nil {
			return err
		}
		if recv != nil {
			ret = recv.URL
		}
		return nil
	})
	return ret, err
}
