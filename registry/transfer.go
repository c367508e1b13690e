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
	"fmt"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/event"
)

const (
	transferKindDirect = "direct"
	transferKindCall   = "call"
	transferKindPayout = "payout"
)

type TransferRequest struct {
	// ApprovalID, when set, must match the caller's stored approval
	ApprovalID *uint64
	Memo       *string
	ReceiverID string
	TicketID   uint64
}

type transferResult struct {
	ticket *models.Ticket
	// authorizedID is the caller when it is not the owner
	authorizedID    *string
	previousOwnerID string
	voided          []string
}

// transfer authorizes and commits an ownership change and emits its record.
// Storage of the voided approvals is left for the caller to refund.
func (c *call) transfer(req TransferRequest) (*transferResult, error) {
	ticket, err := c.loadTicket(req.TicketID)
	if err != nil {
		return nil, err
	}
	ret := &transferResult{
		ticket:          ticket,
		previousOwnerID: ticket.OwnerID,
	}
	if c.inv.Caller != ticket.OwnerID {
		approvalID, ok := ticket.ApprovalMap()[c.inv.Caller]
		if !ok {
			return nil, fmt.Errorf(
				"%w: %s is neither owner nor approved for ticket %d",
				ErrUnauthorized,
				c.inv.Caller,
				req.TicketID,
			)
		}
		if req.ApprovalID != nil && *req.ApprovalID != approvalID {
			return nil, fmt.Errorf(
				"%w: approval %d supplied, %d stored",
				ErrStaleApproval,
				*req.ApprovalID,
				approvalID,
			)
		}
		caller := c.inv.Caller
		ret.authorizedID = &caller
	}
	if req.ReceiverID == "" {
		return nil, fmt.Errorf("%w: receiver is required", ErrInvalidArgument)
	}
	if req.ReceiverID == ticket.OwnerID {
		return nil, fmt.Errorf(
			"%w: ticket %d is already owned by %s",
			ErrInvalidTarget,
			req.TicketID,
			req.ReceiverID,
		)
	}
	if err := c.moveTicket(req.TicketID, ticket.OwnerID, req.ReceiverID); err != nil {
		return nil, err
	}
	ret.voided, err = c.clearApprovals(ticket)
	if err != nil {
		return nil, err
	}
	err = c.emit(event.NewTransferRecord(event.TransferLog{
		AuthorizedID: ret.authorizedID,
		OldOwnerID:   ticket.OwnerID,
		NewOwnerID:   req.ReceiverID,
		TokenIDs:     event.TokenIDs(req.TicketID),
		Memo:         req.Memo,
	}))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Transfer moves a ticket to a new owner
func (r *Registry) Transfer(
	ctx context.Context,
	inv Invocation,
	req TransferRequest,
) error {
	return r.invoke(ctx, "transfer", inv, func(c *call) error {
		if err := c.assertOneUnit(); err != nil {
			return err
		}
		res, err := c.transfer(req)
		if err != nil {
			return err
		}
		c.onCommit(func() {
			r.metrics.transfers.WithLabelValues(transferKindDirect).Inc()
		})
		return c.refundReleased(res.previousOwnerID, res.voided)
	})
}

// TransferCall moves a ticket and asks the receiver to acknowledge it. The
// returned ID names the pending resolve context. The outcome of the
// acknowledgment is applied later by ResolvePending, which also refunds the
// voided approvals.
func (r *Registry) TransferCall(
	ctx context.Context,
	inv Invocation,
	req TransferRequest,
	msg string,
) (uint64, error) {
	var pendingID uint64
	err := r.invoke(ctx, "transfer_call", inv, func(c *call) error {
		if err := c.assertOneUnit(); err != nil {
			return err
		}
		res, err := c.transfer(req)
		if err != nil {
			return err
		}
		pendingID, err = c.r.db.AddPendingResolve(
			&database.PendingResolve{
				AuthorizedID:       res.authorizedID,
				Memo:               req.Memo,
				OwnerID:            res.previousOwnerID,
				ReceiverID:         req.ReceiverID,
				SenderID:           c.inv.Caller,
				Msg:                msg,
				ApprovedAccountIDs: res.voided,
				ApprovalIDs:        res.ticket.ApprovalMap(),
				TicketID:           req.TicketID,
			},
			c.txn,
		)
		if err != nil {
			return fmt.Errorf("persist resolve context: %w", err)
		}
		c.send(OutgoingCall{
			Kind:      CallKindTransferAck,
			AccountID: req.ReceiverID,
			PendingID: pendingID,
			Transfer: &TransferAckRequest{
				SenderID:        c.inv.Caller,
				PreviousOwnerID: res.previousOwnerID,
				TicketID:        event.TokenID(req.TicketID),
				Message:         msg,
			},
		})
		c.onCommit(func() {
			r.metrics.transfers.WithLabelValues(transferKindCall).Inc()
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pendingID, nil
}
