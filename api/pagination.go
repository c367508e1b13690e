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

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/ticketd/registry"
)

const MaxPaginationLimit = 1000

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

type PaginationParams struct {
	FromIndex uint64
	Limit     uint64
}

// ParsePagination reads from_index and limit from the query string
func ParsePagination(r *http.Request) (PaginationParams, error) {
	params := PaginationParams{
		Limit: registry.DefaultPageLimit,
	}
	query := r.URL.Query()
	if val := query.Get("from_index"); val != "" {
		fromIndex, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
		params.FromIndex = fromIndex
	}
	if val := query.Get("limit"); val != "" {
		limit, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
		params.Limit = limit
	}
	// Bounds clamping
	if params.Limit < 1 {
		params.Limit = 1
	}
	if params.Limit > MaxPaginationLimit {
		params.Limit = MaxPaginationLimit
	}
	return params, nil
}
