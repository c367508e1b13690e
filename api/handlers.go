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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/registry"
)

const (
	// AccountHeader names the calling account. Signatures are not
	// verified.
	AccountHeader = "X-Account-Id"
	// DepositHeader carries the attached deposit as a decimal string
	DepositHeader = "X-Attached-Deposit"

	maxRequestBytes = 1 << 20
)

var errMissingCaller = errors.New("missing " + AccountHeader + " header")

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// statusForError maps registry errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, errMissingCaller):
		return http.StatusUnauthorized
	case errors.Is(err, registry.ErrUnauthorized),
		errors.Is(err, registry.ErrMaliciousMintArgs):
		return http.StatusForbidden
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrInsufficientPayment),
		errors.Is(err, registry.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, registry.ErrAlreadyExists),
		errors.Is(err, registry.ErrMintLimitReached):
		return http.StatusConflict
	case errors.Is(err, registry.ErrInvalidTarget),
		errors.Is(err, registry.ErrStaleApproval),
		errors.Is(err, registry.ErrTooManyRecipients),
		errors.Is(err, registry.ErrInvalidRoyalty),
		errors.Is(err, registry.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeRegistryError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		a.logger.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeError(w, http.StatusBadRequest, fmt.Sprintf(format, args...))
}

// invocation builds the caller context from request headers
func invocation(r *http.Request) (registry.Invocation, error) {
	ret := registry.Invocation{
		Caller: r.Header.Get(AccountHeader),
	}
	if ret.Caller == "" {
		return ret, errMissingCaller
	}
	if dep := r.Header.Get(DepositHeader); dep != "" {
		deposit, err := types.ParseBalance(dep)
		if err != nil {
			return ret, fmt.Errorf(
				"%w: %s: %w",
				registry.ErrInvalidArgument,
				DepositHeader,
				err,
			)
		}
		ret.Deposit = deposit
	}
	return ret, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func pathUint(r *http.Request, name string) (uint64, error) {
	val := r.PathValue(name)
	ret, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, val)
	}
	return ret, nil
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

func (a *API) handleMetadata(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.registry.ContractMetadata())
}

// handleEvents lists journal records from from_seq onward
func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	fromSeq := uint64(1)
	if val := r.URL.Query().Get("from_seq"); val != "" {
		tmp, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			badRequest(w, "invalid from_seq: %q", val)
			return
		}
		fromSeq = tmp
	}
	page, err := ParsePagination(r)
	if err != nil {
		badRequest(w, "%s", err)
		return
	}
	entries, err := a.registry.Journal(fromSeq, page.Limit)
	if err != nil {
		a.writeRegistryError(w, r, err)
		return
	}
	ret := make([]EventResponse, 0, len(entries))
	for _, entry := range entries {
		ret = append(ret, EventResponse{
			Seq:    entry.Seq,
			Time:   entry.Time,
			Event:  entry.Event,
			Record: entry.Record,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}
