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

// JournalEntry is one event record in the append-only journal
type JournalEntry struct {
	_      struct{} `cbor:",toarray"`
	Event  string
	Record []byte
	Seq    uint64
	Time   int64
}

// Timestamp returns the commit-time wall clock of the entry
func (e JournalEntry) Timestamp() time.Time {
	return time.UnixMilli(e.Time)
}

func (d *Database) nextSeq(key string, txn *Txn) (uint64, error) {
	var seq uint64
	val, err := d.blob.Get(txn.Blob(), []byte(key))
	if err != nil {
		if !errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, err
		}
	} else {
		seq, err = types.BytesToUint64(val)
		if err != nil {
			return 0, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	seq++
	if err := d.blob.Set(txn.Blob(), []byte(key), types.Uint64ToBytes(seq)); err != nil {
		return 0, err
	}
	return seq, nil
}

// AppendJournal adds an event record to the journal and returns the stored
// entry. Sequence numbers start at 1.
func (d *Database) AppendJournal(
	event string,
	record []byte,
	txn *Txn,
) (JournalEntry, error) {
	var ret JournalEntry
	err := d.withTxn(txn, true, func(txn *Txn) error {
		seq, err := d.nextSeq(types.JournalSeqBlobKey, txn)
		if err != nil {
			return err
		}
		ret = JournalEntry{
			Seq:    seq,
			Time:   time.Now().UnixMilli(),
			Event:  event,
			Record: record,
		}
		val, err := encodeBlobValue(&ret)
		if err != nil {
			return err
		}
		return d.blob.Set(txn.Blob(), types.JournalBlobKey(seq), val)
	})
	return ret, err
}

// JournalEntries returns up to limit entries starting at fromSeq. A
// non-positive limit returns all remaining entries.
func (d *Database) JournalEntries(
	fromSeq uint64,
	limit int,
	txn *Txn,
) ([]JournalEntry, error) {
	var ret []JournalEntry
	err := d.IterateJournal(fromSeq, txn, func(entry JournalEntry) error {
		ret = append(ret, entry)
		if limit > 0 && len(ret) >= limit {
			return errStopIteration
		}
		return nil
	})
	return ret, err
}

var errStopIteration = errors.New("stop iteration")

// IterateJournal calls fn for each entry from fromSeq onward in sequence
// order. Returning an error from fn stops the iteration.
func (d *Database) IterateJournal(
	fromSeq uint64,
	txn *Txn,
	fn func(JournalEntry) error,
) error {
	err := d.withTxn(txn, false, func(txn *Txn) error {
		prefix := []byte(types.JournalBlobKeyPrefix)
		it := d.blob.NewIterator(
			txn.Blob(),
			types.BlobIteratorOptions{Prefix: prefix},
		)
		defer it.Close()
		for it.Seek(types.JournalBlobKey(fromSeq)); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var entry JournalEntry
			if err := decodeBlobValue(val, &entry); err != nil {
				return fmt.Errorf("decode journal entry: %w", err)
			}
			if err := fn(entry); err != nil {
				return err
			}
		}
		return it.Err()
	})
	if errors.Is(err, errStopIteration) {
		return nil
	}
	return err
}

// JournalLength returns the sequence number of the last journal entry
func (d *Database) JournalLength(txn *Txn) (uint64, error) {
	var ret uint64
	err := d.withTxn(txn, false, func(txn *Txn) error {
		val, err := d.blob.Get(txn.Blob(), []byte(types.JournalSeqBlobKey))
		if err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return nil
			}
			return err
		}
		ret, err = types.BytesToUint64(val)
		return err
	})
	return ret, err
}
