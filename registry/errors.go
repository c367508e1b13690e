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

package registry

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/ticketd/database/types"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrInvalidTarget       = errors.New("invalid target")
	ErrStaleApproval       = errors.New("stale approval")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrTooManyRecipients   = errors.New("too many recipients")
	ErrAlreadyExists       = errors.New("already exists")

	ErrInvalidRoyalty    = errors.New("invalid royalty schedule")
	ErrMaliciousMintArgs = errors.New("malicious call: injected mint args don't match")
	ErrMintLimitReached  = errors.New("mint limit reached")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// InsufficientPaymentError reports an attached deposit that does not cover
// what an operation requires
type InsufficientPaymentError struct {
	Required types.Balance
	Attached types.Balance
	// Exact is set when the operation requires exactly the required amount
	Exact bool
}

func (e *InsufficientPaymentError) Error() string {
	if e.Exact {
		return fmt.Sprintf(
			"%s: requires attached deposit of exactly %s, got %s",
			ErrInsufficientPayment,
			e.Required,
			e.Attached,
		)
	}
	return fmt.Sprintf(
		"%s: must attach %s to cover storage, got %s",
		ErrInsufficientPayment,
		e.Required,
		e.Attached,
	)
}

func (e *InsufficientPaymentError) Is(target error) bool {
	return target == ErrInsufficientPayment
}

// ErrorKind returns a short stable name for the class of a registry error
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, ErrStaleApproval):
		return "stale_approval"
	case errors.Is(err, ErrInsufficientPayment):
		return "insufficient_payment"
	case errors.Is(err, ErrTooManyRecipients):
		return "too_many_recipients"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidRoyalty):
		return "invalid_royalty"
	case errors.Is(err, ErrMaliciousMintArgs):
		return "malicious_mint_args"
	case errors.Is(err, ErrMintLimitReached):
		return "mint_limit_reached"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "internal"
	}
}
