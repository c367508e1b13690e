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
	"sort"
)

var (
	ErrTicketNotFound         = errors.New("ticket not found")
	ErrOwnerIndexInconsistent = errors.New("owner index inconsistent")
)

type Ticket struct {
	OwnerID        string     `gorm:"size:64;not null"`
	Approvals      []Approval `gorm:"foreignKey:TicketID;references:TicketID"`
	ID             uint       `gorm:"primarykey"`
	TicketID       uint64     `gorm:"uniqueIndex;not null"`
	RaffleID       uint64     `gorm:"index;not null"`
	NextApprovalID uint64
}

func (Ticket) TableName() string {
	return "ticket"
}

// ApprovalMap returns the approved accounts as account to approval ID
func (t *Ticket) ApprovalMap() map[string]uint64 {
	ret := make(map[string]uint64, len(t.Approvals))
	for _, a := range t.Approvals {
		ret[a.AccountID] = a.ApprovalID
	}
	return ret
}

// ApprovedAccounts returns the approved account IDs in sorted order
func (t *Ticket) ApprovedAccounts() []string {
	ret := make([]string, 0, len(t.Approvals))
	for _, a := range t.Approvals {
		ret = append(ret, a.AccountID)
	}
	sort.Strings(ret)
	return ret
}

// Approval grants a delegate the right to transfer a ticket
type Approval struct {
	AccountID  string `gorm:"uniqueIndex:idx_approval_ticket_account;size:64;not null"`
	ID         uint   `gorm:"primarykey"`
	TicketID   uint64 `gorm:"uniqueIndex:idx_approval_ticket_account;not null"`
	ApprovalID uint64
}

func (Approval) TableName() string {
	return "approval"
}

// OwnerTicket is one entry of the reverse owner index
type OwnerTicket struct {
	AccountID string `gorm:"index;size:64;not null"`
	ID        uint   `gorm:"primarykey"`
	TicketID  uint64 `gorm:"uniqueIndex;not null"`
}

func (OwnerTicket) TableName() string {
	return "owner_ticket"
}
