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

// GetAccount returns an account, or nil if it has never held a balance
func (s *Store) GetAccount(
	accountID string,
	txn types.Txn,
) (*models.Account, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Account{}
	result := db.Where("account_id = ?", accountID).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetAccountBalance creates or updates an account balance
func (s *Store) SetAccountBalance(
	accountID string,
	balance types.Balance,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpAccount := models.Account{
		AccountID: accountID,
		Balance:   balance,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance"}),
	}).Create(&tmpAccount).Error
}

func (s *Store) AddRole(role, accountID string, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpRole := models.Role{
		Role:      role,
		AccountID: accountID,
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tmpRole).Error
}

func (s *Store) RemoveRole(role, accountID string, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Where("role = ? AND account_id = ?", role, accountID).
		Delete(&models.Role{}).Error
}

func (s *Store) HasRole(
	role, accountID string,
	txn types.Txn,
) (bool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return false, err
	}
	var count int64
	result := db.Model(&models.Role{}).
		Where("role = ? AND account_id = ?", role, accountID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// GetRoleAccounts returns the accounts holding a role in sorted order
func (s *Store) GetRoleAccounts(role string, txn types.Txn) ([]string, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []string{}
	result := db.Model(&models.Role{}).
		Where("role = ?", role).
		Order("account_id").
		Pluck("account_id", &ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetReceiver registers the receiver endpoint for an account
func (s *Store) SetReceiver(accountID, url string, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpReceiver := models.Receiver{
		AccountID: accountID,
		URL:       url,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url"}),
	}).Create(&tmpReceiver).Error
}

func (s *Store) DeleteReceiver(accountID string, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Where("account_id = ?", accountID).
		Delete(&models.Receiver{}).Error
}

// GetReceiver returns the receiver registered for an account, or nil
func (s *Store) GetReceiver(
	accountID string,
	txn types.Txn,
) (*models.Receiver, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Receiver{}
	result := db.Where("account_id = ?", accountID).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}
