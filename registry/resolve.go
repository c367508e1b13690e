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
	"errors"
	"fmt"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/event"
)

// ResolveInput is the context a transfer-and-call leaves for its resolve
// step
type ResolveInput struct {
	AuthorizedID *string
	Memo         *string
	// OwnerID is the owner before the transfer
	OwnerID    string
	ReceiverID string
	// ApprovedAccountIDs are the approvals the transfer voided
	ApprovedAccountIDs []string
	TicketID           uint64
	// PendingID names a persisted resolve context, which is consumed
	PendingID uint64
}

func resolveInputFromPending(p *database.PendingResolve) ResolveInput {
	return ResolveInput{
		AuthorizedID:       p.AuthorizedID,
		Memo:               p.Memo,
		OwnerID:            p.OwnerID,
		ReceiverID:         p.ReceiverID,
		ApprovedAccountIDs: p.ApprovedAccountIDs,
		TicketID:           p.TicketID,
		PendingID:          p.ID,
	}
}

// ResolveTransfer applies the outcome of an acknowledgment call and reports
// whether the ticket ended up back with the previous owner
func (r *Registry) ResolveTransfer(
	ctx context.Context,
	in ResolveInput,
	outcome Outcome,
) (bool, error) {
	var ret bool
	inv := Invocation{Caller: r.config.AccountID}
	err := r.invoke(ctx, "resolve_transfer", inv, func(c *call) error {
		if in.PendingID != 0 {
			if err := c.consumePending(in.PendingID); err != nil {
				return err
			}
		}
		var err error
		ret, err = c.resolve(in, outcome)
		return err
	})
	return ret, err
}

// ResolvePending applies an outcome to a persisted resolve context
func (r *Registry) ResolvePending(
	ctx context.Context,
	pendingID uint64,
	outcome Outcome,
) (bool, error) {
	var ret bool
	inv := Invocation{Caller: r.config.AccountID}
	err := r.invoke(ctx, "resolve_transfer", inv, func(c *call) error {
		pending, err := c.r.db.PendingResolve(pendingID, c.txn)
		if err != nil {
			if errors.Is(err, database.ErrPendingResolveNotFound) {
				return notFound("pending resolve", pendingID)
			}
			return err
		}
		if err := c.r.db.DeletePendingResolve(pendingID, c.txn); err != nil {
			return err
		}
		in := resolveInputFromPending(pending)
		in.ApprovedAccountIDs, err = c.releasedApprovals(pending)
		if err != nil {
			return err
		}
		ret, err = c.resolve(in, outcome)
		return err
	})
	return ret, err
}

// releasedApprovals drops the voided approvals that the ticket still holds
// under the same approval ID. Approval IDs are never reused on a ticket, so a
// match means the transfer that saved the context never reached the metadata
// store and there is no storage to refund.
func (c *call) releasedApprovals(p *database.PendingResolve) ([]string, error) {
	if len(p.ApprovalIDs) == 0 {
		return p.ApprovedAccountIDs, nil
	}
	ticket, err := c.r.db.Ticket(p.TicketID, c.txn)
	if err != nil {
		if errors.Is(err, models.ErrTicketNotFound) {
			return p.ApprovedAccountIDs, nil
		}
		return nil, err
	}
	held := ticket.ApprovalMap()
	ret := make([]string, 0, len(p.ApprovedAccountIDs))
	for _, accountID := range p.ApprovedAccountIDs {
		savedID, saved := p.ApprovalIDs[accountID]
		heldID, stillHeld := held[accountID]
		if saved && stillHeld && savedID == heldID {
			continue
		}
		ret = append(ret, accountID)
	}
	if len(ret) < len(p.ApprovedAccountIDs) {
		c.r.logger.Warn(
			"resolve context outlived an uncommitted transfer",
			"pending_id", p.ID,
			"ticket_id", p.TicketID,
			"owner_id", ticket.OwnerID,
		)
	}
	return ret, nil
}

// PendingCalls rebuilds the acknowledgment calls for every resolve context
// that has not been resolved yet
func (r *Registry) PendingCalls() ([]OutgoingCall, error) {
	var ret []OutgoingCall
	err := r.view(func(txn *database.Txn) error {
		pending, err := r.db.PendingResolves(txn)
		if err != nil {
			return err
		}
		for _, p := range pending {
			ret = append(ret, OutgoingCall{
				Kind:      CallKindTransferAck,
				AccountID: p.ReceiverID,
				PendingID: p.ID,
				Transfer: &TransferAckRequest{
					SenderID:        p.SenderID,
					PreviousOwnerID: p.OwnerID,
					TicketID:        event.TokenID(p.TicketID),
					Message:         p.Msg,
				},
			})
		}
		return nil
	})
	return ret, err
}

func (c *call) consumePending(pendingID uint64) error {
	if _, err := c.r.db.PendingResolve(pendingID, c.txn); err != nil {
		if errors.Is(err, database.ErrPendingResolveNotFound) {
			return notFound("pending resolve", pendingID)
		}
		return err
	}
	return c.r.db.DeletePendingResolve(pendingID, c.txn)
}

func (c *call) resolve(in ResolveInput, outcome Outcome) (bool, error) {
	if !outcome.ReturnRequested() {
		return false, c.refundReleased(in.OwnerID, in.ApprovedAccountIDs)
	}
	ticket, err := c.r.db.Ticket(in.TicketID, c.txn)
	if err != nil && !errors.Is(err, models.ErrTicketNotFound) {
		return false, err
	}
	if ticket == nil || ticket.OwnerID != in.ReceiverID {
		// The ticket moved on before the acknowledgment came back
		c.r.logger.Debug(
			"ticket no longer held by receiver, not returning",
			"ticket_id", in.TicketID,
			"receiver_id", in.ReceiverID,
		)
		return false, c.refundReleased(in.OwnerID, in.ApprovedAccountIDs)
	}
	if err := c.moveTicket(in.TicketID, in.ReceiverID, in.OwnerID); err != nil {
		return false, err
	}
	receiverApprovals, err := c.clearApprovals(ticket)
	if err != nil {
		return false, err
	}
	if err := c.refundReleased(in.ReceiverID, receiverApprovals); err != nil {
		return false, err
	}
	if err := c.refundReleased(in.OwnerID, in.ApprovedAccountIDs); err != nil {
		return false, err
	}
	err = c.emit(event.NewTransferRecord(event.TransferLog{
		AuthorizedID: in.AuthorizedID,
		OldOwnerID:   in.ReceiverID,
		NewOwnerID:   in.OwnerID,
		TokenIDs:     event.TokenIDs(in.TicketID),
		Memo:         in.Memo,
	}))
	if err != nil {
		return false, fmt.Errorf("reversal record: %w", err)
	}
	c.onCommit(c.r.metrics.reversals.Inc)
	return true, nil
}
