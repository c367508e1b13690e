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
	"github.com/blinklabs-io/ticketd/event"
)

// Approve grants accountID the right to transfer a ticket and returns the
// approval ID issued. Every call consumes a fresh ID, including re-approval
// of an existing delegate.
func (r *Registry) Approve(
	ctx context.Context,
	inv Invocation,
	ticketID uint64,
	accountID string,
	msg *string,
) (uint64, error) {
	var approvalID uint64
	err := r.invoke(ctx, "approve", inv, func(c *call) error {
		if err := c.assertAtLeastOneUnit(); err != nil {
			return err
		}
		if accountID == "" {
			return fmt.Errorf("%w: account ID is required", ErrInvalidArgument)
		}
		ticket, err := c.loadTicket(ticketID)
		if err != nil {
			return err
		}
		if c.inv.Caller != ticket.OwnerID {
			return fmt.Errorf(
				"%w: %s does not own ticket %d",
				ErrUnauthorized,
				c.inv.Caller,
				ticketID,
			)
		}
		_, exists := ticket.ApprovalMap()[accountID]
		approvalID = ticket.NextApprovalID
		if err := c.r.db.SetApproval(ticketID, accountID, approvalID, c.txn); err != nil {
			return err
		}
		if err := c.r.db.SetTicketNextApprovalID(ticketID, approvalID+1, c.txn); err != nil {
			return err
		}
		var newBytes uint64
		if !exists {
			newBytes = ApprovalStorageBytes(accountID)
		}
		if err := c.settleStorage(newBytes); err != nil {
			return err
		}
		if msg != nil {
			c.send(OutgoingCall{
				Kind:      CallKindApprovalNotify,
				AccountID: accountID,
				Approval: &ApprovalNotification{
					TicketID:   event.TokenID(ticketID),
					OwnerID:    ticket.OwnerID,
					ApprovalID: approvalID,
					Message:    *msg,
				},
			})
		}
		c.onCommit(r.metrics.approvals.Inc)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return approvalID, nil
}

// IsApproved reports whether accountID may transfer the ticket. When
// approvalID is given it must also match the stored approval.
func (r *Registry) IsApproved(
	ticketID uint64,
	accountID string,
	approvalID *uint64,
) (bool, error) {
	var ret bool
	err := r.view(func(txn *database.Txn) error {
		ticket, err := loadTicket(r.db, ticketID, txn)
		if err != nil {
			return err
		}
		stored, ok := ticket.ApprovalMap()[accountID]
		if !ok {
			return nil
		}
		ret = approvalID == nil || *approvalID == stored
		return nil
	})
	return ret, err
}

// Revoke removes one delegate. Revoking an account without an approval is
// a no-op.
func (r *Registry) Revoke(
	ctx context.Context,
	inv Invocation,
	ticketID uint64,
	accountID string,
) error {
	return r.invoke(ctx, "revoke", inv, func(c *call) error {
		if err := c.assertOneUnit(); err != nil {
			return err
		}
		ticket, err := c.loadTicket(ticketID)
		if err != nil {
			return err
		}
		if c.inv.Caller != ticket.OwnerID {
			return fmt.Errorf(
				"%w: %s does not own ticket %d",
				ErrUnauthorized,
				c.inv.Caller,
				ticketID,
			)
		}
		deleted, err := c.r.db.DeleteApproval(ticketID, accountID, c.txn)
		if err != nil {
			return err
		}
		if !deleted {
			return nil
		}
		c.onCommit(r.metrics.revocations.Inc)
		return c.refundReleased(c.inv.Caller, []string{accountID})
	})
}

// RevokeAll removes every delegate of a ticket
func (r *Registry) RevokeAll(
	ctx context.Context,
	inv Invocation,
	ticketID uint64,
) error {
	return r.invoke(ctx, "revoke_all", inv, func(c *call) error {
		if err := c.assertOneUnit(); err != nil {
			return err
		}
		ticket, err := c.loadTicket(ticketID)
		if err != nil {
			return err
		}
		if c.inv.Caller != ticket.OwnerID {
			return fmt.Errorf(
				"%w: %s does not own ticket %d",
				ErrUnauthorized,
				c.inv.Caller,
				ticketID,
			)
		}
		revoked, err := c.clearApprovals(ticket)
		if err != nil {
			return err
		}
		if len(revoked) == 0 {
			return nil
		}
		c.onCommit(func() {
			r.metrics.revocations.Add(float64(len(revoked)))
		})
		return c.refundReleased(c.inv.Caller, revoked)
	})
}
