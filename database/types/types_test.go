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

package types_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceScanValue(t *testing.T) {
	orig, err := types.ParseBalance("340282366920938463463374607431768211455")
	require.NoError(t, err)
	val, err := orig.Value()
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211455", val)

	var fromString types.Balance
	require.NoError(t, fromString.Scan(val))
	assert.Equal(t, 0, orig.Cmp(fromString))

	// MySQL hands text columns back as bytes
	var fromBytes types.Balance
	require.NoError(t, fromBytes.Scan([]byte("42")))
	assert.Equal(t, "42", fromBytes.String())

	var bad types.Balance
	require.Error(t, bad.Scan(42))
	require.Error(t, bad.Scan("not-a-number"))
}

func TestBalanceArithmetic(t *testing.T) {
	a := types.NewBalance(1000)
	b := types.NewBalance(250)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "1250", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "750", diff.String())

	_, err = b.Sub(a)
	require.ErrorIs(t, err, types.ErrBalanceUnderflow)

	prod, err := b.MulUint64(4)
	require.NoError(t, err)
	assert.Equal(t, 0, prod.Cmp(a))

	share, err := a.MulDiv(500, 10000)
	require.NoError(t, err)
	assert.Equal(t, "50", share.String())

	// floor rounding
	share, err = types.NewBalance(999).MulDiv(1, 10000)
	require.NoError(t, err)
	assert.True(t, share.IsZero())

	_, err = a.MulDiv(1, 0)
	require.Error(t, err)
}

func TestBalanceMulDivWideIntermediate(t *testing.T) {
	// balance * bp overflows 256 bits only past ~2^242, so a u128-sized
	// balance must divide cleanly
	big, err := types.ParseBalance("340282366920938463463374607431768211455")
	require.NoError(t, err)
	half, err := big.MulDiv(5000, 10000)
	require.NoError(t, err)
	assert.Equal(t, "170141183460469231731687303715884105727", half.String())
}

func TestBalanceJSON(t *testing.T) {
	b := types.NewBalance(123456789)
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `"123456789"`, string(data))

	var out types.Balance
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 0, b.Cmp(out))

	require.Error(t, json.Unmarshal([]byte(`123`), &out))
}

func TestJournalKeysSortInSequenceOrder(t *testing.T) {
	k1 := types.JournalBlobKey(1)
	k2 := types.JournalBlobKey(256)
	assert.Equal(t, -1, bytes.Compare(k1, k2))

	seq, err := types.BytesToUint64(k2[len(types.JournalBlobKeyPrefix):])
	require.NoError(t, err)
	assert.Equal(t, uint64(256), seq)

	_, err = types.BytesToUint64([]byte{1, 2})
	require.Error(t, err)
}
