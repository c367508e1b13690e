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
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	ErrBalanceOverflow  = errors.New("balance overflow")
	ErrBalanceUnderflow = errors.New("balance underflow")
)

// Balance is an unsigned amount of the smallest native unit. It is stored
// as a decimal string so that values beyond 64 bits survive every metadata
// backend.
//
//nolint:recvcheck
type Balance struct {
	val uint256.Int
}

func NewBalance(v uint64) Balance {
	var b Balance
	b.val.SetUint64(v)
	return b
}

// ParseBalance parses a base-10 amount
func ParseBalance(s string) (Balance, error) {
	var b Balance
	if s == "" {
		return b, nil
	}
	tmp, err := uint256.FromDecimal(s)
	if err != nil {
		return b, fmt.Errorf("invalid balance %q: %w", s, err)
	}
	b.val = *tmp
	return b, nil
}

func (b Balance) String() string {
	return b.val.Dec()
}

func (b Balance) IsZero() bool {
	return b.val.IsZero()
}

func (b Balance) Cmp(other Balance) int {
	return b.val.Cmp(&other.val)
}

func (b Balance) Add(other Balance) (Balance, error) {
	var ret Balance
	if _, overflow := ret.val.AddOverflow(&b.val, &other.val); overflow {
		return Balance{}, ErrBalanceOverflow
	}
	return ret, nil
}

func (b Balance) Sub(other Balance) (Balance, error) {
	var ret Balance
	if _, underflow := ret.val.SubOverflow(&b.val, &other.val); underflow {
		return Balance{}, ErrBalanceUnderflow
	}
	return ret, nil
}

func (b Balance) MulUint64(n uint64) (Balance, error) {
	var ret Balance
	if _, overflow := ret.val.MulOverflow(&b.val, uint256.NewInt(n)); overflow {
		return Balance{}, ErrBalanceOverflow
	}
	return ret, nil
}

// MulDiv returns floor(b * num / den) using a 512-bit intermediate product
func (b Balance) MulDiv(num, den uint64) (Balance, error) {
	if den == 0 {
		return Balance{}, errors.New("division by zero")
	}
	var ret Balance
	if _, overflow := ret.val.MulDivOverflow(
		&b.val,
		uint256.NewInt(num),
		uint256.NewInt(den),
	); overflow {
		return Balance{}, ErrBalanceOverflow
	}
	return ret, nil
}

func (b Balance) GormDataType() string {
	return "string"
}

func (b Balance) Value() (driver.Value, error) {
	return b.String(), nil
}

func (b *Balance) Scan(val any) error {
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*b = Balance{}
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	tmp, err := ParseBalance(s)
	if err != nil {
		return err
	}
	*b = tmp
	return nil
}

// MarshalJSON encodes the balance as a quoted decimal string
func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("balance must be a decimal string: %w", err)
	}
	tmp, err := ParseBalance(s)
	if err != nil {
		return err
	}
	*b = tmp
	return nil
}
