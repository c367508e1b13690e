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

package gormstore

import (
	"errors"

	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loadApprovals fills in the approvals of each ticket. gorm's Preload skips
// parents whose reference key is zero, and ticket IDs start at 0, so the
// association is loaded with an explicit query.
func loadApprovals(db *gorm.DB, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(tickets))
	byID := make(map[uint64]int, len(tickets))
	for i := range tickets {
		tickets[i].Approvals = nil
		ids = append(ids, tickets[i].TicketID)
		byID[tickets[i].TicketID] = i
	}
	var approvals []models.Approval
	result := db.Where("ticket_id IN ?", ids).
		Order("ticket_id").
		Order("approval_id").
		Find(&approvals)
	if result.Error != nil {
		return result.Error
	}
	for _, approval := range approvals {
		idx, ok := byID[approval.TicketID]
		if !ok {
			continue
		}
		tickets[idx].Approvals = append(tickets[idx].Approvals, approval)
	}
	return nil
}

// GetTicket returns a ticket with its approvals, or nil if it does not exist
func (s *Store) GetTicket(
	ticketID uint64,
	txn types.Txn,
) (*models.Ticket, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Ticket
	result := db.Where("ticket_id = ?", ticketID).Limit(1).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(ret) == 0 {
		return nil, nil
	}
	if err := loadApprovals(db, ret); err != nil {
		return nil, err
	}
	return &ret[0], nil
}

// CreateTickets inserts newly minted tickets
func (s *Store) CreateTickets(tickets []models.Ticket, txn types.Txn) error {
	if len(tickets) == 0 {
		return nil
	}
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Omit("Approvals").Create(&tickets).Error
}

// SetTicketOwner changes the owner of a ticket. It does not touch the owner
// index.
func (s *Store) SetTicketOwner(
	ticketID uint64,
	ownerID string,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Ticket{}).
		Where("ticket_id = ?", ticketID).
		Update("owner_id", ownerID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrTicketNotFound
	}
	return nil
}

func (s *Store) SetTicketNextApprovalID(
	ticketID uint64,
	next uint64,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Ticket{}).
		Where("ticket_id = ?", ticketID).
		Update("next_approval_id", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrTicketNotFound
	}
	return nil
}

// GetTickets returns tickets ordered by ticket ID
func (s *Store) GetTickets(
	offset, limit int,
	txn types.Txn,
) ([]models.Ticket, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Ticket
	result := paginate(db.Order("ticket_id"), offset, limit).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	if err := loadApprovals(db, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// GetTicketsByID returns the named tickets ordered by ticket ID
func (s *Store) GetTicketsByID(
	ticketIDs []uint64,
	txn types.Txn,
) ([]models.Ticket, error) {
	if len(ticketIDs) == 0 {
		return []models.Ticket{}, nil
	}
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Ticket
	result := db.Where("ticket_id IN ?", ticketIDs).
		Order("ticket_id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	if err := loadApprovals(db, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Store) GetTicketsForRaffle(
	raffleID uint64,
	offset, limit int,
	txn types.Txn,
) ([]models.Ticket, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Ticket
	result := paginate(
		db.Where("raffle_id = ?", raffleID).Order("ticket_id"),
		offset,
		limit,
	).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	if err := loadApprovals(db, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Store) CountTickets(txn types.Txn) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if result := db.Model(&models.Ticket{}).Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec // count is never negative
}

// SetApproval creates or replaces the approval entry for a delegate
func (s *Store) SetApproval(
	ticketID uint64,
	accountID string,
	approvalID uint64,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpApproval := models.Approval{
		TicketID:   ticketID,
		AccountID:  accountID,
		ApprovalID: approvalID,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "ticket_id"},
			{Name: "account_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"approval_id"}),
	}).Create(&tmpApproval).Error
}

// DeleteApproval removes one approval entry and reports whether it existed
func (s *Store) DeleteApproval(
	ticketID uint64,
	accountID string,
	txn types.Txn,
) (bool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return false, err
	}
	result := db.Where(
		"ticket_id = ? AND account_id = ?",
		ticketID,
		accountID,
	).Delete(&models.Approval{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteApprovals removes every approval entry for a ticket
func (s *Store) DeleteApprovals(ticketID uint64, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Where("ticket_id = ?", ticketID).Delete(&models.Approval{}).Error
}

// AddOwnerTickets adds entries to the owner index
func (s *Store) AddOwnerTickets(
	accountID string,
	ticketIDs []uint64,
	txn types.Txn,
) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	entries := make([]models.OwnerTicket, 0, len(ticketIDs))
	for _, ticketID := range ticketIDs {
		entries = append(entries, models.OwnerTicket{
			AccountID: accountID,
			TicketID:  ticketID,
		})
	}
	return db.Create(&entries).Error
}

// RemoveOwnerTicket removes an entry from the owner index. The entry must
// exist.
func (s *Store) RemoveOwnerTicket(
	accountID string,
	ticketID uint64,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Where(
		"account_id = ? AND ticket_id = ?",
		accountID,
		ticketID,
	).Delete(&models.OwnerTicket{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrOwnerIndexInconsistent
	}
	return nil
}

// GetOwnerTicket returns the owner index entry for a ticket, or nil
func (s *Store) GetOwnerTicket(
	ticketID uint64,
	txn types.Txn,
) (*models.OwnerTicket, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.OwnerTicket{}
	result := db.Where("ticket_id = ?", ticketID).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetOwnerTicketIDs returns the IDs of tickets held by an account
func (s *Store) GetOwnerTicketIDs(
	accountID string,
	offset, limit int,
	txn types.Txn,
) ([]uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []uint64{}
	result := paginate(
		db.Model(&models.OwnerTicket{}).
			Where("account_id = ?", accountID).
			Order("ticket_id"),
		offset,
		limit,
	).Pluck("ticket_id", &ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

func (s *Store) CountOwnerTickets(
	accountID string,
	txn types.Txn,
) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	result := db.Model(&models.OwnerTicket{}).
		Where("account_id = ?", accountID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec // count is never negative
}
