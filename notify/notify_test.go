package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjun-745/TrendKart/models"
)

func testOrder() models.Order {
	return models.Order{
		ID:            "ord-42",
		Status:        models.OrderStatusShipped,
		PaymentMethod: models.PaymentMethodCOD,
		TotalPrice:    1250,
	}
}

func TestSend_ChatWebhook(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer srv.Close()

	d := NewDispatcher(nil, "", srv.URL, nil)
	d.Send(testOrder(), "OrderShipped")

	require.NotNil(t, received)
	assert.Contains(t, received["text"], "ord-42")
	assert.Contains(t, received["text"], "OrderShipped")
}

func TestSend_SwallowsProviderFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	// A failing chat provider must never panic or surface an error to the
	// transition that triggered the notification.
	d := NewDispatcher(nil, "", srv.URL, nil)
	assert.NotPanics(t, func() { d.Send(testOrder(), "OrderShipped") })
}

func TestSend_UnreachableProvider(t *testing.T) {
	d := NewDispatcher(nil, "", "http://127.0.0.1:1/hook", nil)
	assert.NotPanics(t, func() { d.Send(testOrder(), "OrderShipped") })
}

func TestSend_NoChannelsConfigured(t *testing.T) {
	d := NewDispatcher(nil, "", "", nil)
	assert.NotPanics(t, func() { d.Send(testOrder(), "OrderPlaced") })
}

func TestSend_SkipsEmailWithoutRecipient(t *testing.T) {
	// An order without a customer email simply skips the email channel.
	d := NewDispatcher(nil, "orders@trendkart.in", "", nil)
	order := testOrder()
	order.CustomerEmail = ""
	assert.NotPanics(t, func() { d.Send(order, "OrderShipped") })
}
