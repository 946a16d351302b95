package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjun-745/TrendKart/models"
	"github.com/Arjun-745/TrendKart/statemachine"
	"github.com/Arjun-745/TrendKart/store"
)

type notifierSpy struct {
	mu     sync.Mutex
	events []string
}

func (n *notifierSpy) OrderEvent(order models.Order, event string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *notifierSpy) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func newTestReconciler(t *testing.T) (*Reconciler, *store.Memory, *notifierSpy) {
	t.Helper()
	m := store.NewMemory()
	spy := &notifierSpy{}
	return New(m, spy, nil, nil), m, spy
}

func seedLinkedOrder(t *testing.T, m *store.Memory, status string) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:         "user-1",
		Status:         status,
		PaymentMethod:  models.PaymentMethodCOD,
		ReturnStatus:   models.ReturnStatusNone,
		CarrierOrderID: "4821001",
		AWBCode:        "AWB777",
	}
	require.NoError(t, m.Create(context.Background(), order))
	return order
}

func TestHandle_AppliesMappedStatus(t *testing.T) {
	r, m, spy := newTestReconciler(t)
	order := seedLinkedOrder(t, m, models.OrderStatusPacked)

	outcome := r.Handle(context.Background(), Event{CurrentStatus: "IN TRANSIT", AWB: "AWB777"})
	assert.Equal(t, OutcomeApplied, outcome)

	updated, err := m.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	assert.Equal(t, []string{"OrderShipped"}, spy.Events())
}

func TestHandle_ResolvesByCarrierOrderID(t *testing.T) {
	r, m, _ := newTestReconciler(t)
	order := seedLinkedOrder(t, m, models.OrderStatusProcessing)

	outcome := r.Handle(context.Background(), Event{CurrentStatus: "Manifested", OrderID: "4821001"})
	assert.Equal(t, OutcomeApplied, outcome)

	updated, err := m.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPacked, updated.Status)
}

func TestHandle_DuplicateDeliveryIsIdempotent(t *testing.T) {
	r, m, spy := newTestReconciler(t)
	order := seedLinkedOrder(t, m, models.OrderStatusShipped)
	evt := Event{CurrentStatus: "DELIVERED", AWB: "AWB777"}

	assert.Equal(t, OutcomeApplied, r.Handle(context.Background(), evt))
	assert.Equal(t, OutcomeNoOp, r.Handle(context.Background(), evt))

	updated, err := m.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)
	assert.True(t, updated.IsPaid, "COD settles on the first delivery event")
	assert.Equal(t, []string{"OrderDelivered"}, spy.Events(),
		"only the first application enqueues a notification")
}

func TestHandle_BackwardReportDropped(t *testing.T) {
	r, m, spy := newTestReconciler(t)
	order := seedLinkedOrder(t, m, models.OrderStatusDelivered)

	outcome := r.Handle(context.Background(), Event{CurrentStatus: "SHIPPED", AWB: "AWB777"})
	assert.Equal(t, OutcomeRejected, outcome, "a late Shipped after Delivered is dropped, not retried")

	updated, err := m.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)
	assert.Empty(t, spy.Events())
}

func TestHandle_UnmappedStatusAckedWithoutChange(t *testing.T) {
	r, m, spy := newTestReconciler(t)
	order := seedLinkedOrder(t, m, models.OrderStatusPacked)

	outcome := r.Handle(context.Background(), Event{CurrentStatus: "WAREHOUSED", AWB: "AWB777"})
	assert.Equal(t, OutcomeUnmappedStatus, outcome)

	updated, err := m.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPacked, updated.Status)
	assert.Empty(t, spy.Events())
}

func TestHandle_UnknownOrderAcked(t *testing.T) {
	r, _, spy := newTestReconciler(t)

	outcome := r.Handle(context.Background(), Event{CurrentStatus: "DELIVERED", AWB: "AWB-FOREIGN"})
	assert.Equal(t, OutcomeUnknownOrder, outcome, "foreign events are classified, not errored")
	assert.Empty(t, spy.Events())
}

func TestHandle_MissingIdentifiers(t *testing.T) {
	r, _, _ := newTestReconciler(t)

	outcome := r.Handle(context.Background(), Event{CurrentStatus: "DELIVERED"})
	assert.Equal(t, OutcomeUnknownOrder, outcome)
}

func TestHandle_RecordsLateAWB(t *testing.T) {
	r, m, _ := newTestReconciler(t)
	order := &models.Order{
		UserID:         "user-1",
		Status:         models.OrderStatusProcessing,
		PaymentMethod:  models.PaymentMethodOnline,
		ReturnStatus:   models.ReturnStatusNone,
		CarrierOrderID: "4821001",
		// Carrier push succeeded but AWB assignment came later by webhook.
	}
	require.NoError(t, m.Create(context.Background(), order))

	outcome := r.Handle(context.Background(), Event{
		CurrentStatus: "PICKUP SCHEDULED",
		OrderID:       "4821001",
		AWB:           "AWB999",
		CourierName:   "Delhivery",
	})
	assert.Equal(t, OutcomeApplied, outcome)

	updated, err := m.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "AWB999", updated.AWBCode)
	assert.Equal(t, "Delhivery", updated.CourierName)
}

func TestHandle_OutcomeHook(t *testing.T) {
	m := store.NewMemory()
	var seen []Outcome
	r := New(m, &notifierSpy{}, nil, func(o Outcome) { seen = append(seen, o) })

	r.Handle(context.Background(), Event{CurrentStatus: "DELIVERED", AWB: "nope"})
	assert.Equal(t, []Outcome{OutcomeUnknownOrder}, seen)
}

// flakyStore fails a number of lookups before behaving like its Memory store.
type flakyStore struct {
	*store.Memory
	failLookups int
}

func (f *flakyStore) FindByCarrierRef(ctx context.Context, ref string) (*models.Order, error) {
	if f.failLookups > 0 {
		f.failLookups--
		return nil, errors.New("connection reset by peer")
	}
	return f.Memory.FindByCarrierRef(ctx, ref)
}

func TestHandle_DedupWindowDropsRepeats(t *testing.T) {
	srv := miniredis.RunT(t)
	m := store.NewMemory()
	r := New(m, &notifierSpy{}, NewDedup(srv.Addr()), nil)
	seedLinkedOrder(t, m, models.OrderStatusShipped)
	evt := Event{CurrentStatus: "DELIVERED", AWB: "AWB777"}

	assert.Equal(t, OutcomeApplied, r.Handle(context.Background(), evt))
	assert.Equal(t, OutcomeDuplicate, r.Handle(context.Background(), evt))
}

func TestHandle_FailureReleasesDedupSlot(t *testing.T) {
	srv := miniredis.RunT(t)
	flaky := &flakyStore{Memory: store.NewMemory(), failLookups: 1}
	r := New(flaky, &notifierSpy{}, NewDedup(srv.Addr()), nil)
	order := seedLinkedOrder(t, flaky.Memory, models.OrderStatusShipped)
	evt := Event{CurrentStatus: "DELIVERED", AWB: "AWB777"}

	assert.Equal(t, OutcomeFailed, r.Handle(context.Background(), evt))
	assert.Equal(t, OutcomeApplied, r.Handle(context.Background(), evt),
		"the retry of a failed delivery must be processed, not dropped as a duplicate")

	updated, err := flaky.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, updated.Status)
}

func TestDedup_SeenAndForget(t *testing.T) {
	srv := miniredis.RunT(t)
	d := NewDedup(srv.Addr())

	assert.False(t, d.Seen(context.Background(), "AWB777", "Delivered"))
	assert.True(t, d.Seen(context.Background(), "AWB777", " delivered "), "matching is case-insensitive")

	d.Forget(context.Background(), "AWB777", "DELIVERED")
	assert.False(t, d.Seen(context.Background(), "AWB777", "DELIVERED"))
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		raw   string
		event statemachine.Event
		ok    bool
	}{
		{"PICKUP SCHEDULED", statemachine.EventPack, true},
		{"manifested", statemachine.EventPack, true},
		{"Pickup Queued", statemachine.EventPack, true},
		{"SHIPPED", statemachine.EventShip, true},
		{"in transit", statemachine.EventShip, true},
		{"OUT FOR DELIVERY", statemachine.EventShip, true},
		{"Delivered", statemachine.EventDeliver, true},
		{"CANCELED", statemachine.EventCancel, true},
		{"RTO INITIATED", statemachine.EventRTO, true},
		{"rto delivered", statemachine.EventRTO, true},
		{"  delivered  ", statemachine.EventDeliver, true},
		{"WAREHOUSED", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		event, ok := MapStatus(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw %q", tt.raw)
		if tt.ok {
			assert.Equal(t, tt.event, event, "raw %q", tt.raw)
		}
	}
}
