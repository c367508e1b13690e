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
	"context"
	"encoding/json"
	"fmt"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Invocation identifies who is calling and what they attached
type Invocation struct {
	Caller  string
	Deposit types.Balance
}

type CallKind string

const (
	CallKindApprovalNotify CallKind = "nft_on_approve"
	CallKindTransferAck    CallKind = "nft_on_transfer"
)

// ApprovalNotification is sent to a new delegate when the owner attaches a
// message to an approval
type ApprovalNotification struct {
	TicketID   string `json:"token_id"`
	OwnerID    string `json:"owner_id"`
	Message    string `json:"msg"`
	ApprovalID uint64 `json:"approval_id"`
}

// TransferAckRequest asks the receiver of a transfer-and-call whether it
// wants to keep the ticket. The receiver answers with a JSON boolean where
// true means "return it".
type TransferAckRequest struct {
	SenderID        string `json:"sender_id"`
	PreviousOwnerID string `json:"previous_owner_id"`
	TicketID        string `json:"token_id"`
	Message         string `json:"msg"`
}

// OutgoingCall is a cross-account call released after commit
type OutgoingCall struct {
	Approval  *ApprovalNotification
	Transfer  *TransferAckRequest
	Kind      CallKind
	AccountID string
	// PendingID identifies the resolve context awaiting this call's
	// outcome. Zero for fire-and-forget calls.
	PendingID uint64
}

// Payload returns the JSON body for the call
func (o OutgoingCall) Payload() ([]byte, error) {
	switch o.Kind {
	case CallKindApprovalNotify:
		return json.Marshal(o.Approval)
	case CallKindTransferAck:
		return json.Marshal(o.Transfer)
	default:
		return nil, fmt.Errorf("unknown call kind: %s", o.Kind)
	}
}

type CallSink interface {
	Submit(calls ...OutgoingCall)
}

type OutcomeStatus int

const (
	OutcomeFailed OutcomeStatus = iota
	OutcomeSuccess
)

// Outcome is the result of an acknowledgment call
type Outcome struct {
	Payload []byte
	Status  OutcomeStatus
}

// ReturnRequested reports whether the receiver asked for the ticket back.
// Failed calls and payloads other than a JSON boolean mean "keep".
func (o Outcome) ReturnRequested() bool {
	if o.Status != OutcomeSuccess {
		return false
	}
	var ret bool
	if err := json.Unmarshal(o.Payload, &ret); err != nil {
		return false
	}
	return ret
}

const (
	refundKindExcess  = "excess_deposit"
	refundKindStorage = "storage_release"
)

type committedRecord struct {
	record event.Record
	entry  database.JournalEntry
}

// call is the state of one invocation. Everything it collects is released
// only after the transaction commits.
type call struct {
	ctx         context.Context
	r           *Registry
	txn         *database.Txn
	inv         Invocation
	records     []committedRecord
	outgoing    []OutgoingCall
	afterCommit []func()
}

func (r *Registry) invoke(
	ctx context.Context,
	name string,
	inv Invocation,
	fn func(*call) error,
) error {
	ctx, span := r.tracer.Start(
		ctx,
		"registry."+name,
		trace.WithAttributes(
			attribute.String("registry.caller", inv.Caller),
			attribute.String("registry.deposit", inv.Deposit.String()),
		),
	)
	defer span.End()
	err := r.runInvocation(ctx, name, inv, fn)
	if err != nil {
		kind := ErrorKind(err)
		r.metrics.failures.WithLabelValues(name, kind).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		r.logger.Debug(
			"invocation aborted",
			"operation", name,
			"caller", inv.Caller,
			"error", err,
		)
	}
	return err
}

func (r *Registry) runInvocation(
	ctx context.Context,
	name string,
	inv Invocation,
	fn func(*call) error,
) error {
	if inv.Caller == "" {
		return fmt.Errorf("%w: caller is required", ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &call{
		ctx: ctx,
		r:   r,
		inv: inv,
	}
	txn := r.db.Transaction(true)
	defer txn.Release()
	c.txn = txn
	err := txn.Do(func(txn *database.Txn) error {
		if err := c.chargeDeposit(); err != nil {
			return err
		}
		return fn(c)
	})
	if err != nil {
		return err
	}
	c.release(name)
	return nil
}

// view runs a read-only function against a consistent snapshot
func (r *Registry) view(fn func(*database.Txn) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txn := r.db.Transaction(false)
	defer txn.Release()
	return fn(txn)
}

func (c *call) release(name string) {
	for _, rec := range c.records {
		c.r.logger.Info(
			rec.record.String(),
			"operation", name,
			"seq", rec.entry.Seq,
		)
		if c.r.config.EventBus != nil {
			evt := event.NewEvent(rec.record.Event, rec.record)
			evt.Seq = rec.entry.Seq
			evt.Timestamp = rec.entry.Timestamp()
			c.r.config.EventBus.Publish(rec.record.Event, evt)
		}
	}
	for _, fn := range c.afterCommit {
		fn()
	}
	if len(c.outgoing) == 0 {
		return
	}
	for _, out := range c.outgoing {
		c.r.metrics.outgoing.WithLabelValues(string(out.Kind)).Inc()
	}
	if c.r.config.CallSink == nil {
		c.r.logger.Warn(
			"dropping outgoing calls with no call sink configured",
			"operation", name,
			"count", len(c.outgoing),
		)
		return
	}
	c.r.config.CallSink.Submit(c.outgoing...)
}

func (c *call) onCommit(fn func()) {
	c.afterCommit = append(c.afterCommit, fn)
}

// emit appends a record to the journal
func (c *call) emit(rec event.Record) error {
	data, err := rec.MarshalRecord()
	if err != nil {
		return fmt.Errorf("encode %s record: %w", rec.Event, err)
	}
	entry, err := c.r.db.AppendJournal(string(rec.Event), data, c.txn)
	if err != nil {
		return fmt.Errorf("append %s record: %w", rec.Event, err)
	}
	c.records = append(c.records, committedRecord{record: rec, entry: entry})
	return nil
}

func (c *call) send(out OutgoingCall) {
	c.outgoing = append(c.outgoing, out)
}

func (c *call) isOwner() bool {
	return c.inv.Caller == c.r.config.OwnerID
}

// chargeDeposit moves the attached deposit from the caller to the registry
func (c *call) chargeDeposit() error {
	if c.inv.Deposit.IsZero() {
		return nil
	}
	if err := c.debit(c.inv.Caller, c.inv.Deposit); err != nil {
		return err
	}
	return c.credit(c.r.config.AccountID, c.inv.Deposit)
}

// refund pays an amount from the registry account to a beneficiary
func (c *call) refund(beneficiary string, amount types.Balance, kind string) error {
	if err := c.debit(c.r.config.AccountID, amount); err != nil {
		return fmt.Errorf("refund %s to %s: %w", amount, beneficiary, err)
	}
	if err := c.credit(beneficiary, amount); err != nil {
		return err
	}
	c.onCommit(func() {
		c.r.metrics.refunds.WithLabelValues(kind).Inc()
		c.r.logger.Debug(
			"refund paid",
			"beneficiary", beneficiary,
			"amount", amount.String(),
			"kind", kind,
		)
	})
	return nil
}

func (c *call) credit(accountID string, amount types.Balance) error {
	balance, err := c.r.db.AccountBalance(accountID, c.txn)
	if err != nil {
		return err
	}
	balance, err = balance.Add(amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", accountID, err)
	}
	return c.r.db.SetAccountBalance(accountID, balance, c.txn)
}

func (c *call) debit(accountID string, amount types.Balance) error {
	balance, err := c.r.db.AccountBalance(accountID, c.txn)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf(
			"%w: account %s has %s, needs %s",
			ErrInsufficientFunds,
			accountID,
			balance,
			amount,
		)
	}
	balance, err = balance.Sub(amount)
	if err != nil {
		return err
	}
	return c.r.db.SetAccountBalance(accountID, balance, c.txn)
}

// notFound reports a missing entity
func notFound(what string, id any) error {
	return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
}
