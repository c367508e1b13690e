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
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/ticketd/database/types"
)

var ErrPendingResolveNotFound = errors.New("pending resolve not found")

// PendingResolve is the saved context of a transfer-and-call whose
// acknowledgment has not been resolved yet
type PendingResolve struct {
	AuthorizedID       *string  `cbor:"1,keyasint,omitempty"`
	Memo               *string  `cbor:"2,keyasint,omitempty"`
	OwnerID            string   `cbor:"3,keyasint"`
	ReceiverID         string   `cbor:"4,keyasint"`
	SenderID           string   `cbor:"5,keyasint"`
	Msg                string   `cbor:"6,keyasint"`
	ApprovedAccountIDs []string `cbor:"7,keyasint,omitempty"`
	ID                 uint64   `cbor:"8,keyasint"`
	TicketID           uint64   `cbor:"9,keyasint"`
	Created            int64    `cbor:"10,keyasint"`
	// ApprovalIDs maps each voided account to the approval ID it held
	ApprovalIDs map[string]uint64 `cbor:"11,keyasint,omitempty"`
}

// AddPendingResolve stores a pending resolve context under a newly
// assigned non-zero ID and returns the ID
func (d *Database) AddPendingResolve(
	pending *PendingResolve,
	txn *Txn,
) (uint64, error) {
	err := d.withTxn(txn, true, func(txn *Txn) error {
		id, err := d.nextSeq(types.PendingSeqBlobKey, txn)
		if err != nil {
			return err
		}
		pending.ID = id
		pending.Created = time.Now().UnixMilli()
		val, err := encodeBlobValue(pending)
		if err != nil {
			return err
		}
		return d.blob.Set(txn.Blob(), types.PendingBlobKey(id), val)
	})
	if err != nil {
		return 0, err
	}
	return pending.ID, nil
}

// PendingResolve returns a stored context or ErrPendingResolveNotFound
func (d *Database) PendingResolve(id uint64, txn *Txn) (*PendingResolve, error) {
	var ret PendingResolve
	err := d.withTxn(txn, false, func(txn *Txn) error {
		val, err := d.blob.Get(txn.Blob(), types.PendingBlobKey(id))
		if err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return ErrPendingResolveNotFound
			}
			return err
		}
		if err := decodeBlobValue(val, &ret); err != nil {
			return fmt.Errorf("decode pending resolve: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (d *Database) DeletePendingResolve(id uint64, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.blob.Delete(txn.Blob(), types.PendingBlobKey(id))
	})
}

// PendingResolves returns all stored contexts in ID order
func (d *Database) PendingResolves(txn *Txn) ([]PendingResolve, error) {
	var ret []PendingResolve
	err := d.withTxn(txn, false, func(txn *Txn) error {
		prefix := []byte(types.PendingBlobKeyPrefix)
		it := d.blob.NewIterator(
			txn.Blob(),
			types.BlobIteratorOptions{Prefix: prefix},
		)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var tmp PendingResolve
			if err := decodeBlobValue(val, &tmp); err != nil {
				return fmt.Errorf("decode pending resolve: %w", err)
			}
			ret = append(ret, tmp)
		}
		return it.Err()
	})
	return ret, err
}
