package store

import (
	"context"
	"errors"

	"github.com/Arjun-745/TrendKart/models"
	"github.com/Arjun-745/TrendKart/statemachine"
	"github.com/Arjun-745/TrendKart/utils"
)

// maxApplyAttempts bounds the re-read loop when concurrent writers keep
// bumping the version. Three attempts is plenty for a single hot order.
const maxApplyAttempts = 3

// Apply is the single mediation point for every order mutation: it reads the
// order, runs the pure transition, and writes the result under the version
// check. On a lost race it re-reads and re-evaluates, so a webhook that loses
// to an admin override is re-judged against the admin's state and rejected
// as backward instead of silently overwriting it.
func Apply(ctx context.Context, s Store, orderID string, req statemachine.Request) (*models.Order, statemachine.Change, error) {
	var lastErr error
	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		order, err := s.Get(ctx, orderID)
		if err != nil {
			return nil, statemachine.Change{}, err
		}

		change, err := statemachine.Transition(statemachine.InputFromOrder(order), req)
		if err != nil {
			return order, change, err
		}
		if !change.Applied {
			// No-op success: nothing to write, no side effects to enqueue.
			return order, change, nil
		}

		expected := order.Version
		applyChange(order, change, req)
		if err := s.Update(ctx, order, expected); err != nil {
			if errors.Is(err, ErrConflict) {
				utils.LogDebug("Order %s version %d lost the write race, re-evaluating", orderID, expected)
				lastErr = err
				continue
			}
			return order, change, err
		}
		return order, change, nil
	}
	return nil, statemachine.Change{}, lastErr
}

// applyChange folds a transition result into the order record.
func applyChange(order *models.Order, change statemachine.Change, req statemachine.Request) {
	now := req.Now
	order.Status = change.Status
	order.ReturnStatus = change.ReturnStatus

	if change.SetShippedAt && order.ShippedAt == nil {
		t := now
		order.ShippedAt = &t
	}
	if change.SetDeliveredAt && order.DeliveredAt == nil {
		t := now
		order.DeliveredAt = &t
	}
	if change.MarkPaid {
		order.IsPaid = true
		t := now
		order.PaidAt = &t
		if req.ExternalRef != "" {
			order.RazorpayPaymentID = req.ExternalRef
		}
	}
	if change.SetReturnRequestedAt {
		t := now
		order.ReturnRequestedAt = &t
		order.ReturnReason = req.Reason
		order.ReturnImages = req.Images
	}
	if change.SetReturned {
		order.IsReturned = true
	}
	if change.ReturnStatus == models.ReturnStatusRejected && req.Reason != "" {
		order.ReturnRejectReason = req.Reason
	}

	// A webhook can carry linkage the create-shipment push never recorded;
	// keep the first value we see, never overwrite.
	if req.AWB != "" && order.AWBCode == "" {
		order.AWBCode = req.AWB
	}
	if req.CourierName != "" && order.CourierName == "" {
		order.CourierName = req.CourierName
	}
}
