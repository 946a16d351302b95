// Package reconciler ingests asynchronous carrier webhook events and brings
// order state in line with what the carrier reports. Delivery is
// at-least-once and unordered, so everything here is built to ack fast,
// apply idempotently, and drop what it cannot change.
package reconciler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Arjun-745/TrendKart/models"
	"github.com/Arjun-745/TrendKart/statemachine"
	"github.com/Arjun-745/TrendKart/store"
	"github.com/Arjun-745/TrendKart/utils"
)

// Event is one carrier webhook delivery.
type Event struct {
	CurrentStatus string `json:"current_status"`
	OrderID       string `json:"order_id"` // carrier-side order id
	AWB           string `json:"awb"`
	CourierName   string `json:"courier_name"`
}

// Ref returns the identifier used to resolve the internal order.
func (e Event) Ref() string {
	if e.AWB != "" {
		return e.AWB
	}
	return e.OrderID
}

// Outcome classifies what one webhook delivery did. Every outcome is
// acknowledged to the carrier; the distinction exists for logs and metrics.
type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeNoOp           Outcome = "noop"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeUnknownOrder   Outcome = "unknown_order"
	OutcomeUnmappedStatus Outcome = "unmapped_status"
	OutcomeRejected       Outcome = "rejected"
	OutcomeConflict       Outcome = "conflict"
	OutcomeFailed         Outcome = "failed"
)

// statusEvents maps the carrier's raw status vocabulary (upper-cased) to
// internal transition events. Unknown statuses are ignored, acked and logged.
var statusEvents = map[string]statemachine.Event{
	"PICKUP SCHEDULED": statemachine.EventPack,
	"MANIFESTED":       statemachine.EventPack,
	"PICKUP QUEUED":    statemachine.EventPack,
	"SHIPPED":          statemachine.EventShip,
	"IN TRANSIT":       statemachine.EventShip,
	"OUT FOR DELIVERY": statemachine.EventShip,
	"DELIVERED":        statemachine.EventDeliver,
	"CANCELED":         statemachine.EventCancel,
	"RTO INITIATED":    statemachine.EventRTO,
	"RTO DELIVERED":    statemachine.EventRTO,
}

// MapStatus resolves a raw carrier status to an internal event,
// case-insensitively.
func MapStatus(raw string) (statemachine.Event, bool) {
	event, ok := statusEvents[strings.ToUpper(strings.TrimSpace(raw))]
	return event, ok
}

// Notifier is the slice of the notification dispatcher the reconciler needs.
type Notifier interface {
	OrderEvent(order models.Order, event string)
}

// Reconciler applies carrier events to the order store and triggers side
// effects for state that actually changed.
type Reconciler struct {
	store      store.Store
	dispatcher Notifier
	dedup      *Dedup // optional
	onOutcome  func(Outcome)
}

// New builds a reconciler. dedup may be nil (idempotency then rests entirely
// on state-machine no-ops, which is already correct, just noisier).
func New(s store.Store, dispatcher Notifier, dedup *Dedup, onOutcome func(Outcome)) *Reconciler {
	if onOutcome == nil {
		onOutcome = func(Outcome) {}
	}
	return &Reconciler{store: s, dispatcher: dispatcher, dedup: dedup, onOutcome: onOutcome}
}

// Handle processes one webhook delivery. It never returns an error: every
// classification is an acknowledged outcome, because a non-2xx answer would
// only make the carrier retry-storm a state it cannot change.
func (r *Reconciler) Handle(ctx context.Context, evt Event) Outcome {
	outcome := r.handle(ctx, evt)
	if outcome == OutcomeFailed && r.dedup != nil {
		// A transient failure must not burn the dedup slot: the carrier's
		// retry of the same event is the recovery path.
		r.dedup.Forget(ctx, evt.Ref(), evt.CurrentStatus)
	}
	r.onOutcome(outcome)
	return outcome
}

func (r *Reconciler) handle(ctx context.Context, evt Event) Outcome {
	ref := evt.Ref()
	if ref == "" {
		// Not resolvable at all: classify explicitly instead of silently
		// proceeding, this is noise, not a reconciliation gap.
		utils.LogInfo("Webhook without order_id or awb dropped (status %q)", evt.CurrentStatus)
		return OutcomeUnknownOrder
	}

	if r.dedup != nil && r.dedup.Seen(ctx, ref, evt.CurrentStatus) {
		utils.LogDebug("Webhook duplicate within dedup window: %s %q", ref, evt.CurrentStatus)
		return OutcomeDuplicate
	}

	event, ok := MapStatus(evt.CurrentStatus)
	if !ok {
		utils.LogInfo("Webhook status %q for %s has no internal mapping, ignored", evt.CurrentStatus, ref)
		return OutcomeUnmappedStatus
	}

	order, err := r.store.FindByCarrierRef(ctx, ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Possibly a stale or foreign event; not an error for the source.
			utils.LogInfo("Webhook for unknown carrier ref %s (status %q) acked and dropped", ref, evt.CurrentStatus)
			return OutcomeUnknownOrder
		}
		utils.LogError("Webhook lookup failed for %s: %v", ref, err)
		return OutcomeFailed
	}

	req := statemachine.Request{
		Event:       event,
		Actor:       statemachine.ActorCarrier,
		Now:         time.Now(),
		AWB:         evt.AWB,
		CourierName: evt.CourierName,
	}
	updated, change, err := store.Apply(ctx, r.store, order.ID, req)
	if err != nil {
		if errors.Is(err, statemachine.ErrInvalidTransition) {
			// Late or out-of-order report; the order has moved on. Dropped,
			// never retried.
			utils.LogInfo("Webhook %q for order %s rejected: %v", evt.CurrentStatus, order.ID, err)
			return OutcomeRejected
		}
		if errors.Is(err, store.ErrConflict) {
			utils.LogInfo("Webhook %q for order %s lost its write race, dropped", evt.CurrentStatus, order.ID)
			return OutcomeConflict
		}
		utils.LogError("Webhook %q for order %s failed, order state unchanged: %v", evt.CurrentStatus, order.ID, err)
		return OutcomeFailed
	}

	if !change.Applied {
		// Duplicate terminal report; success by design, no side effects.
		utils.LogDebug("Webhook %q for order %s was a no-op (already %s)", evt.CurrentStatus, order.ID, updated.Status)
		return OutcomeNoOp
	}

	utils.LogInfo("Webhook moved order %s to %s (carrier status %q)", updated.ID, updated.Status, evt.CurrentStatus)
	if r.dispatcher != nil {
		r.dispatcher.OrderEvent(*updated, notificationEvent(event))
	}
	return OutcomeApplied
}

func notificationEvent(event statemachine.Event) string {
	switch event {
	case statemachine.EventPack:
		return "OrderPacked"
	case statemachine.EventShip:
		return "OrderShipped"
	case statemachine.EventDeliver:
		return "OrderDelivered"
	case statemachine.EventCancel:
		return "OrderCancelled"
	case statemachine.EventRTO:
		return "OrderRTO"
	}
	return string(event)
}
