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
	"errors"

	"github.com/blinklabs-io/ticketd/database/types"
)

var ErrAccountNotFound = errors.New("account not found")

// Account tracks the native balance held on behalf of an account. Attached
// deposits are debited from it and refunds are credited to it.
type Account struct {
	AccountID string        `gorm:"uniqueIndex;size:64;not null"`
	Balance   types.Balance `gorm:"not null"`
	ID        uint          `gorm:"primarykey"`
}

func (a *Account) TableName() string {
	return "account"
}

// Receiver is the HTTP endpoint that accepts transfer acknowledgment
// requests and approval notifications for an account
type Receiver struct {
	AccountID string `gorm:"uniqueIndex;size:64;not null"`
	URL       string `gorm:"size:2048;not null"`
	ID        uint   `gorm:"primarykey"`
}

func (Receiver) TableName() string {
	return "receiver"
}

const (
	RoleMinter  = "minter"
	RoleCreator = "creator"
)

// Role grants an account an administrative permission
type Role struct {
	Role      string `gorm:"uniqueIndex:idx_role_account;size:16;not null"`
	AccountID string `gorm:"uniqueIndex:idx_role_account;size:64;not null"`
	ID        uint   `gorm:"primarykey"`
}

func (Role) TableName() string {
	return "role"
}
