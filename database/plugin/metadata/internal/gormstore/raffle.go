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

// loadRoyalty fills in the royalty schedule of each raffle. Raffle IDs may
// be 0, which gorm's Preload treats as an unset key.
func loadRoyalty(db *gorm.DB, raffles []models.Raffle) error {
	if len(raffles) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(raffles))
	byID := make(map[uint64]int, len(raffles))
	for i := range raffles {
		raffles[i].Royalty = nil
		ids = append(ids, raffles[i].RaffleID)
		byID[raffles[i].RaffleID] = i
	}
	var shares []models.RoyaltyShare
	result := db.Where("raffle_id IN ?", ids).
		Order("raffle_id").
		Order("account_id").
		Find(&shares)
	if result.Error != nil {
		return result.Error
	}
	for _, share := range shares {
		idx, ok := byID[share.RaffleID]
		if !ok {
			continue
		}
		raffles[idx].Royalty = append(raffles[idx].Royalty, share)
	}
	return nil
}

// GetRaffle returns a raffle with its royalty schedule, or nil if it does
// not exist
func (s *Store) GetRaffle(
	raffleID uint64,
	txn types.Txn,
) (*models.Raffle, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Raffle
	result := db.Where("raffle_id = ?", raffleID).Limit(1).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(ret) == 0 {
		return nil, nil
	}
	if err := loadRoyalty(db, ret); err != nil {
		return nil, err
	}
	return &ret[0], nil
}

// CreateRaffle inserts a raffle along with its royalty shares
func (s *Store) CreateRaffle(raffle *models.Raffle, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	if err := db.Omit("Royalty").Create(raffle).Error; err != nil {
		return err
	}
	if len(raffle.Royalty) == 0 {
		return nil
	}
	for i := range raffle.Royalty {
		raffle.Royalty[i].RaffleID = raffle.RaffleID
	}
	return db.Create(&raffle.Royalty).Error
}

// SetRaffleTicketCount updates the number of tickets minted for a raffle
func (s *Store) SetRaffleTicketCount(
	raffleID uint64,
	count uint64,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Raffle{}).
		Where("raffle_id = ?", raffleID).
		Update("ticket_count", count)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrRaffleNotFound
	}
	return nil
}

// GetRaffles returns raffles ordered by raffle ID
func (s *Store) GetRaffles(
	offset, limit int,
	txn types.Txn,
) ([]models.Raffle, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Raffle
	result := paginate(db.Order("raffle_id"), offset, limit).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	if err := loadRoyalty(db, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Store) CountRaffles(txn types.Txn) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if result := db.Model(&models.Raffle{}).Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec // count is never negative
}

// GetNextTicketID returns the ID the next minted ticket will receive
func (s *Store) GetNextTicketID(txn types.Txn) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var state models.RegistryState
	result := db.First(&state)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, result.Error
	}
	return state.NextTicketID, nil
}

func (s *Store) SetNextTicketID(next uint64, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	state := models.RegistryState{
		ID:           1,
		NextTicketID: next,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"next_ticket_id"}),
	}).Create(&state).Error
}
