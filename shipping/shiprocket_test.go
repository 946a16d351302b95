package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjun-745/TrendKart/models"
)

type carrierFake struct {
	mu          sync.Mutex
	logins      int
	validTokens map[string]bool
	expireFirst bool // first issued token answers 401 once

	serviceability func(w http.ResponseWriter, r *http.Request)
}

func (f *carrierFake) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.logins++
		token := "token-" + time.Now().Format("150405.000000000")
		if f.validTokens == nil {
			f.validTokens = map[string]bool{}
		}
		f.validTokens[token] = !f.expireFirst || f.logins > 1
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
	mux.HandleFunc("/orders/create", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"order_id":    4821001,
			"shipment_id": 4820050,
		})
	})
	mux.HandleFunc("/courier/serviceability", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.serviceability != nil {
			f.serviceability(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"available_courier_companies": []map[string]interface{}{
					{"courier_name": "BlueDart", "rate": 112.5},
					{"courier_name": "Delhivery", "rate": 74.0},
					{"courier_name": "Ekart", "rate": 96.0},
				},
			},
		})
	})
	return mux
}

func (f *carrierFake) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func (f *carrierFake) authorized(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := r.Header.Get("Authorization")
	if len(token) > 7 {
		token = token[7:] // strip "Bearer "
	}
	ok := f.validTokens[token]
	if !ok && f.expireFirst {
		// The expired token stays dead; only fresh logins work.
		return false
	}
	return ok
}

func testOrder() *models.Order {
	return &models.Order{
		ID:            "ord-1",
		PaymentMethod: models.PaymentMethodCOD,
		TotalPrice:    1250,
		CreatedAt:     time.Now(),
		ShippingAddress: models.ShippingAddress{
			Line1:      "12 MG Road",
			District:   "Ernakulam",
			State:      "Kerala",
			PostalCode: "682016",
			Country:    "India",
			Mobile:     "9876543210",
		},
		Items: []models.OrderItem{
			{ProductID: "sku-1", Name: "Kurta", Quantity: 2, Price: 500},
		},
	}
}

func TestCreateShipment(t *testing.T) {
	fake := &carrierFake{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(srv.URL, "ops@example.com", "secret", "682001")
	ref, err := client.CreateShipment(context.Background(), testOrder())
	require.NoError(t, err)
	assert.Equal(t, "4821001", ref.CarrierOrderID)
	assert.Equal(t, "4820050", ref.ShipmentID)
	assert.Equal(t, 1, fake.loginCount(), "token must be fetched once and cached")
}

func TestCreateShipment_ReauthenticatesOnceOn401(t *testing.T) {
	fake := &carrierFake{expireFirst: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(srv.URL, "ops@example.com", "secret", "682001")
	ref, err := client.CreateShipment(context.Background(), testOrder())
	require.NoError(t, err)
	assert.Equal(t, "4821001", ref.CarrierOrderID)
	assert.Equal(t, 2, fake.loginCount(), "a 401 must trigger exactly one re-authentication")
}

func TestCreateShipment_CarrierDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "ops@example.com", "secret", "682001")
	_, err := client.CreateShipment(context.Background(), testOrder())
	assert.Error(t, err, "the caller decides that a failed push is non-fatal, the adapter reports it")
}

func TestQuoteRate_PicksCheapestCourier(t *testing.T) {
	fake := &carrierFake{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(srv.URL, "ops@example.com", "secret", "682001")
	rate := client.QuoteRate(context.Background(), "110001", 1.0, true)
	assert.Equal(t, 74.0, rate)
}

func TestQuoteRate_FallbackWhenNoOffer(t *testing.T) {
	fake := &carrierFake{
		serviceability: func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"available_courier_companies": []interface{}{}},
			})
		},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(srv.URL, "ops@example.com", "secret", "682001")
	rate := client.QuoteRate(context.Background(), "110001", 1.0, false)
	assert.Equal(t, FallbackRate, rate)
}

func TestQuoteRate_FallbackWhenCarrierUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "ops@example.com", "secret", "682001")
	rate := client.QuoteRate(context.Background(), "110001", 1.0, false)
	assert.Equal(t, FallbackRate, rate, "checkout must always resolve shipping to some number")
}

func TestAuthenticate_SingleFlight(t *testing.T) {
	fake := &carrierFake{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(srv.URL, "ops@example.com", "secret", "682001")

	var wg sync.WaitGroup
	var failures int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.CreateShipment(context.Background(), testOrder()); err != nil {
				atomic.AddInt32(&failures, 1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, failures)
	assert.Less(t, fake.loginCount(), 8, "concurrent cold-start callers must share logins")
}
