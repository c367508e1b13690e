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

package types

import (
	"encoding/binary"
	"errors"
)

const (
	JournalBlobKeyPrefix = "j"
	PendingBlobKeyPrefix = "p"
	JournalSeqBlobKey    = "m_journal_seq"
	PendingSeqBlobKey    = "m_pending_seq"
)

func Uint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

func BytesToUint64(input []byte) (uint64, error) {
	if len(input) != 8 {
		return 0, errors.New("invalid uint64 key length")
	}
	return binary.BigEndian.Uint64(input), nil
}

// JournalBlobKey returns the key of a journal record. Keys sort in
// sequence order.
func JournalBlobKey(seq uint64) []byte {
	key := []byte(JournalBlobKeyPrefix)
	return append(key, Uint64ToBytes(seq)...)
}

func PendingBlobKey(id uint64) []byte {
	key := []byte(PendingBlobKeyPrefix)
	return append(key, Uint64ToBytes(id)...)
}
