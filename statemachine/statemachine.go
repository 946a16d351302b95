// Package statemachine holds the pure order-lifecycle transition logic. It
// performs no I/O: callers load the order, ask for a transition, and persist
// the returned change under optimistic concurrency.
package statemachine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Arjun-745/TrendKart/models"
)

// Actor identifies who is asking for a transition. The same event can be
// legal for one actor and illegal for another.
type Actor string

const (
	ActorAdmin    Actor = "admin"
	ActorCustomer Actor = "customer"
	ActorCarrier  Actor = "carrier"
)

// Event is a requested lifecycle transition.
type Event string

const (
	EventPack          Event = "Pack"
	EventShip          Event = "Ship"
	EventDeliver       Event = "Deliver"
	EventCancel        Event = "Cancel"
	EventRTO           Event = "RTO"
	EventMarkPaid      Event = "MarkPaid"
	EventRequestReturn Event = "RequestReturn"
	EventApproveReturn Event = "ApproveReturn"
	EventRejectReturn  Event = "RejectReturn"
)

// ErrInvalidTransition rejects a (state, event, actor) combination that is
// not in the lifecycle table. Webhook callers log and drop it; interactive
// callers surface it as a 422.
var ErrInvalidTransition = errors.New("invalid transition")

// Input is the slice of order state the transition function reads.
type Input struct {
	Status        string
	ReturnStatus  string
	PaymentMethod string
	IsPaid        bool
}

// Request describes the transition being asked for.
type Request struct {
	Event Event
	Actor Actor
	Now   time.Time

	// Optional payload carried by certain events.
	AWB          string // Ship: admin-provided or carrier-reported AWB
	CourierName  string
	Reason       string   // RequestReturn / RejectReturn
	Images       []string // RequestReturn
	ExternalRef  string   // MarkPaid: gateway payment id
	CancelReason string
}

// Change is the full effect of an accepted transition. Applied=false means
// the event matched the current state: a no-op success, not an error, so
// duplicate webhook deliveries stay idempotent and enqueue no side effects.
type Change struct {
	Applied bool

	Status         string
	SetShippedAt   bool
	SetDeliveredAt bool

	// MarkPaid is set both by the explicit MarkPaid event and by COD
	// settlement on delivery; it must land in the same store update as the
	// status change.
	MarkPaid bool

	ReturnStatus         string
	SetReturnRequestedAt bool
	SetReturned          bool
}

// statusRank orders the forward chain. Cancelled and RTO sit outside it.
var statusRank = map[string]int{
	models.OrderStatusProcessing: 0,
	models.OrderStatusPacked:     1,
	models.OrderStatusShipped:    2,
	models.OrderStatusDelivered:  3,
}

// InputFromOrder builds the transition input from a loaded order.
func InputFromOrder(o *models.Order) Input {
	return Input{
		Status:        o.Status,
		ReturnStatus:  o.ReturnStatus,
		PaymentMethod: o.PaymentMethod,
		IsPaid:        o.IsPaid,
	}
}

// Transition evaluates one lifecycle event against the current state and
// returns the change to persist, or ErrInvalidTransition. It is total: every
// (state, event, actor) combination resolves to exactly one of applied,
// no-op, or rejected.
func Transition(cur Input, req Request) (Change, error) {
	if cur.ReturnStatus == "" {
		cur.ReturnStatus = models.ReturnStatusNone
	}
	noop := Change{Applied: false, Status: cur.Status, ReturnStatus: cur.ReturnStatus}

	switch req.Event {
	case EventPack, EventShip, EventDeliver:
		return forwardTransition(cur, req, noop)

	case EventCancel:
		if req.Actor == ActorCustomer {
			return noop, reject(cur, req, "customers cannot cancel through this flow")
		}
		if cur.Status == models.OrderStatusCancelled {
			return noop, nil
		}
		switch cur.Status {
		case models.OrderStatusProcessing, models.OrderStatusPacked, models.OrderStatusShipped:
			change := noop
			change.Applied = true
			change.Status = models.OrderStatusCancelled
			return change, nil
		}
		return noop, reject(cur, req, "only unfinished orders can be cancelled")

	case EventRTO:
		if req.Actor != ActorCarrier {
			return noop, reject(cur, req, "RTO is carrier-reported only")
		}
		if cur.Status == models.OrderStatusRTO {
			return noop, nil
		}
		if cur.Status != models.OrderStatusShipped {
			return noop, reject(cur, req, "RTO requires a shipped order")
		}
		change := noop
		change.Applied = true
		change.Status = models.OrderStatusRTO
		return change, nil

	case EventMarkPaid:
		if cur.IsPaid {
			return noop, nil
		}
		if cur.Status == models.OrderStatusCancelled || cur.Status == models.OrderStatusRTO {
			return noop, reject(cur, req, "cannot settle payment on a dead order")
		}
		change := noop
		change.Applied = true
		change.MarkPaid = true
		return change, nil

	case EventRequestReturn:
		if req.Actor != ActorCustomer {
			return noop, reject(cur, req, "returns are requested by the customer")
		}
		if cur.Status != models.OrderStatusDelivered {
			return noop, reject(cur, req, "only delivered orders can be returned")
		}
		if cur.ReturnStatus != models.ReturnStatusNone {
			return noop, reject(cur, req, "a return has already been requested")
		}
		change := noop
		change.Applied = true
		change.ReturnStatus = models.ReturnStatusRequested
		change.SetReturnRequestedAt = true
		return change, nil

	case EventApproveReturn, EventRejectReturn:
		if req.Actor != ActorAdmin {
			return noop, reject(cur, req, "return review is admin only")
		}
		if cur.ReturnStatus != models.ReturnStatusRequested {
			return noop, reject(cur, req, "no pending return request")
		}
		change := noop
		change.Applied = true
		if req.Event == EventApproveReturn {
			change.ReturnStatus = models.ReturnStatusApproved
			change.SetReturned = true
		} else {
			change.ReturnStatus = models.ReturnStatusRejected
		}
		return change, nil
	}

	return noop, reject(cur, req, "unknown event")
}

// forwardTransition handles Pack/Ship/Deliver along the forward chain.
// Admins may skip intermediate states (manual override dropdown); carrier
// events apply only from their direct predecessor. Nobody moves backward.
func forwardTransition(cur Input, req Request, noop Change) (Change, error) {
	target := map[Event]string{
		EventPack:    models.OrderStatusPacked,
		EventShip:    models.OrderStatusShipped,
		EventDeliver: models.OrderStatusDelivered,
	}[req.Event]

	curRank, onChain := statusRank[cur.Status]
	if !onChain {
		return noop, reject(cur, req, "order left the fulfillment chain")
	}
	targetRank := statusRank[target]

	if targetRank == curRank {
		// Duplicate delivery of an already-applied status.
		return noop, nil
	}
	if targetRank < curRank {
		return noop, reject(cur, req, "backward transition")
	}
	if req.Actor != ActorAdmin && targetRank != curRank+1 {
		// Carrier streams must walk the chain one step at a time; a skip
		// means we missed an event and an admin has to reconcile by hand.
		return noop, reject(cur, req, "carrier events cannot skip states")
	}

	change := noop
	change.Applied = true
	change.Status = target
	switch req.Event {
	case EventShip:
		change.SetShippedAt = true
	case EventDeliver:
		change.SetDeliveredAt = true
		// COD settles on delivery, atomically with the status flip.
		if cur.PaymentMethod == models.PaymentMethodCOD && !cur.IsPaid {
			change.MarkPaid = true
		}
	}
	return change, nil
}

func reject(cur Input, req Request, why string) error {
	return fmt.Errorf("%w: %s -> %s by %s: %s", ErrInvalidTransition, cur.Status, req.Event, req.Actor, why)
}
