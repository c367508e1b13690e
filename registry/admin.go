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

func (c *call) requireOwner() error {
	if !c.isOwner() {
		return fmt.Errorf(
			"%w: %s is not the registry owner",
			ErrUnauthorized,
			c.inv.Caller,
		)
	}
	return nil
}

// requireRole allows the owner and accounts holding role
func (c *call) requireRole(role string) error {
	if c.isOwner() {
		return nil
	}
	ok, err := c.r.db.HasRole(role, c.inv.Caller, c.txn)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf(
			"%w: %s is not an approved %s",
			ErrUnauthorized,
			c.inv.Caller,
			role,
		)
	}
	return nil
}

func (r *Registry) setRole(
	ctx context.Context,
	name string,
	inv Invocation,
	role string,
	accountID string,
	add bool,
) error {
	return r.invoke(ctx, name, inv, func(c *call) error {
		if err := c.requireOwner(); err != nil {
			return err
		}
		if accountID == "" {
			return fmt.Errorf("%w: account ID is required", ErrInvalidArgument)
		}
		if add {
			return c.r.db.AddRole(role, accountID, c.txn)
		}
		return c.r.db.RemoveRole(role, accountID, c.txn)
	})
}

func (r *Registry) AddApprovedMinter(ctx context.Context, inv Invocation, accountID string) error {
	return r.setRole(ctx, "add_minter", inv, models.RoleMinter, accountID, true)
}

func (r *Registry) RemoveApprovedMinter(ctx context.Context, inv Invocation, accountID string) error {
	return r.setRole(ctx, "remove_minter", inv, models.RoleMinter, accountID, false)
}

func (r *Registry) AddApprovedCreator(ctx context.Context, inv Invocation, accountID string) error {
	return r.setRole(ctx, "add_creator", inv, models.RoleCreator, accountID, true)
}

func (r *Registry) RemoveApprovedCreator(ctx context.Context, inv Invocation, accountID string) error {
	return r.setRole(ctx, "remove_creator", inv, models.RoleCreator, accountID, false)
}

// HasRole reports whether an account may act as role. The owner holds
// every role.
func (r *Registry) HasRole(role, accountID string) (bool, error) {
	if accountID == r.config.OwnerID {
		return true, nil
	}
	var ret bool
	err := r.view(func(txn *database.Txn) error {
		var err error
		ret, err = r.db.HasRole(role, accountID, txn)
		return err
	})
	return ret, err
}

// RoleAccounts lists the accounts explicitly granted role
func (r *Registry) RoleAccounts(role string) ([]string, error) {
	var ret []string
	err := r.view(func(txn *database.Txn) error {
		var err error
		ret, err = r.db.RoleAccounts(role, txn)
		return err
	})
	return ret, err
}

// FundAccount credits an account with new funds
func (r *Registry) FundAccount(
	ctx context.Context,
	inv Invocation,
	accountID string,
	amount types.Balance,
) error {
	return r.invoke(ctx, "fund_account", inv, func(c *call) error {
		if err := c.requireOwner(); err != nil {
			return err
		}
		if accountID == "" {
			return fmt.Errorf("%w: account ID is required", ErrInvalidArgument)
		}
		return c.credit(accountID, amount)
	})
}

// SetReceiver registers the webhook URL that receives calls for an
// account. Only the account itself or the owner may set it. An empty URL
// removes the receiver.
func (r *Registry) SetReceiver(
	ctx context.Context,
	inv Invocation,
	accountID string,
	url string,
) error {
	return r.invoke(ctx, "set_receiver", inv, func(c *call) error {
		if c.inv.Caller != accountID && !c.isOwner() {
			return fmt.Errorf(
				"%w: %s may not set the receiver of %s",
				ErrUnauthorized,
				c.inv.Caller,
				accountID,
			)
		}
		if url == "" {
			return c.r.db.DeleteReceiver(accountID, c.txn)
		}
		return c.r.db.SetReceiver(accountID, url, c.txn)
	})
}

// ReceiverURL returns the webhook URL registered for an account, or ""
func (r *Registry) ReceiverURL(accountID string) (string, error) {
	var ret string
	err := r.view(func(txn *database.Txn) error {
		var err error
		ret, err = r.db.ReceiverURL(accountID, txn)
		return err
	})
	return ret, err
}

// AccountBalance returns an account's balance. Unknown accounts hold zero.
func (r *Registry) AccountBalance(accountID string) (types.Balance, error) {
	var ret types.Balance
	err := r.view(func(txn *database.Txn) error {
		var err error
		ret, err = r.db.AccountBalance(accountID, txn)
		return err
	})
	return ret, err
}
