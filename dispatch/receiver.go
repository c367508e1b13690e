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

package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/blinklabs-io/ticketd/registry"
)

// maxResponseBytes bounds what is read from a receiver's answer
const maxResponseBytes = 1 << 20

// CallKindHeader carries the kind of call on webhook requests
const CallKindHeader = "X-Ticketd-Call"

var ErrNoReceiver = errors.New("no receiver registered")

// Receiver handles calls addressed to one account. The returned bytes are
// the call's result. An error means the call failed.
type Receiver interface {
	Receive(ctx context.Context, call registry.OutgoingCall) ([]byte, error)
}

// ReceiverFunc adapts a function to the Receiver interface
type ReceiverFunc func(ctx context.Context, call registry.OutgoingCall) ([]byte, error)

func (f ReceiverFunc) Receive(
	ctx context.Context,
	call registry.OutgoingCall,
) ([]byte, error) {
	return f(ctx, call)
}

// HTTPReceiver delivers calls as JSON POST requests to a webhook URL
type HTTPReceiver struct {
	client *http.Client
	url    string
}

func NewHTTPReceiver(url string, client *http.Client) *HTTPReceiver {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPReceiver{
		url:    url,
		client: client,
	}
}

func (h *HTTPReceiver) Receive(
	ctx context.Context,
	call registry.OutgoingCall,
) ([]byte, error) {
	payload, err := call.Payload()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		h.url,
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(CallKindHeader, string(call.Kind))
	resp, err := h.client.Do( //nolint:gosec // URL is registered by the receiving account
		req,
	)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	if resp == nil || resp.Body == nil {
		return nil, errors.New("nil response from receiver")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > 1024 {
			body = body[:1024]
		}
		return nil, fmt.Errorf(
			"unexpected status %d: %s",
			resp.StatusCode,
			string(body),
		)
	}
	return body, nil
}
