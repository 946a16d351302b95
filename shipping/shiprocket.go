// Package shipping talks to the Shiprocket-style carrier API: login tokens,
// shipment creation, and serviceability rate quotes. The carrier reports
// progress back asynchronously through webhooks handled by the reconciler.
package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Arjun-745/TrendKart/models"
	"github.com/Arjun-745/TrendKart/utils"
)

// FallbackRate is charged when the carrier has no offer or is unreachable.
// Checkout must always resolve shipping to some number.
const FallbackRate = 80.0

// ShipmentRef is the carrier-side identity of a pushed order.
type ShipmentRef struct {
	CarrierOrderID string
	ShipmentID     string
}

type Client struct {
	baseURL  string
	email    string
	password string
	pickup   string // origin postal code
	httpc    *http.Client

	mu    sync.Mutex
	token string
	sf    singleflight.Group
}

// NewClient builds a carrier client. The token is fetched lazily on first
// use and refreshed when the carrier starts answering 401.
func NewClient(baseURL, email, password, pickupPostal string) *Client {
	return &Client{
		baseURL:  baseURL,
		email:    email,
		password: password,
		pickup:   pickupPostal,
		httpc:    &http.Client{Timeout: 15 * time.Second},
	}
}

// authenticate returns the cached bearer token, logging in if none is held.
// Concurrent callers share one login via singleflight rather than each
// re-authenticating.
func (c *Client) authenticate(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	cached := c.token
	c.mu.Unlock()
	if cached != "" && !force {
		return cached, nil
	}

	result, err, _ := c.sf.Do("login", func() (interface{}, error) {
		body, _ := json.Marshal(map[string]string{
			"email":    c.email,
			"password": c.password,
		})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("carrier login: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("carrier login: status %d", resp.StatusCode)
		}

		var out struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("carrier login: decode: %w", err)
		}
		if out.Token == "" {
			return nil, fmt.Errorf("carrier login: empty token")
		}

		c.mu.Lock()
		c.token = out.Token
		c.mu.Unlock()
		return out.Token, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// do performs an authenticated call. The carrier does not expose token
// lifetimes, so a 401 is read as "token expired": re-authenticate once and
// retry the original call exactly once before surfacing failure.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	token, err := c.authenticate(ctx, false)
	if err != nil {
		return nil, err
	}

	body, status, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		utils.LogInfo("Carrier token rejected, re-authenticating once for %s", path)
		token, err = c.authenticate(ctx, true)
		if err != nil {
			return nil, err
		}
		body, status, err = c.send(ctx, method, path, payload, token)
		if err != nil {
			return nil, err
		}
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("carrier %s: status %d: %s", path, status, truncate(body, 200))
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload interface{}, token string) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("carrier %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// CreateShipment pushes an order to the carrier. Failure is non-fatal to
// order placement: the caller logs it, leaves the linkage fields empty, and
// confirms the order to the customer anyway.
func (c *Client) CreateShipment(ctx context.Context, order *models.Order) (*ShipmentRef, error) {
	items := make([]map[string]interface{}, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]interface{}{
			"name":          item.Name,
			"sku":           item.ProductID,
			"units":         item.Quantity,
			"selling_price": item.Price,
		})
	}

	payload := map[string]interface{}{
		"order_id":            order.ID,
		"order_date":          order.CreatedAt.Format("2006-01-02 15:04"),
		"billing_customer":    order.ShippingAddress.Mobile,
		"billing_address":     order.ShippingAddress.Line1,
		"billing_city":        order.ShippingAddress.District,
		"billing_state":       order.ShippingAddress.State,
		"billing_pincode":     order.ShippingAddress.PostalCode,
		"billing_country":     order.ShippingAddress.Country,
		"billing_phone":       order.ShippingAddress.Mobile,
		"order_items":         items,
		"payment_method":      carrierPaymentMethod(order.PaymentMethod),
		"sub_total":           order.TotalPrice,
		"weight":              order.WeightKg(),
		"pickup_location":     "Primary",
		"shipping_is_billing": true,
	}

	body, err := c.do(ctx, http.MethodPost, "/orders/create", payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		OrderID    json.Number `json:"order_id"`
		ShipmentID json.Number `json:"shipment_id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("carrier create order: decode: %w", err)
	}
	if out.OrderID.String() == "" {
		return nil, fmt.Errorf("carrier create order: missing order_id")
	}
	return &ShipmentRef{
		CarrierOrderID: out.OrderID.String(),
		ShipmentID:     out.ShipmentID.String(),
	}, nil
}

// QuoteRate returns the cheapest serviceable courier rate for the lane, or
// FallbackRate when the carrier has no offer or the call fails. It never
// returns an error: checkout must not block on the carrier.
func (c *Client) QuoteRate(ctx context.Context, destPostal string, weightKg float64, cod bool) float64 {
	codFlag := "0"
	if cod {
		codFlag = "1"
	}
	query := url.Values{
		"pickup_postcode":   {c.pickup},
		"delivery_postcode": {destPostal},
		"weight":            {fmt.Sprintf("%.2f", weightKg)},
		"cod":               {codFlag},
	}

	body, err := c.do(ctx, http.MethodGet, "/courier/serviceability?"+query.Encode(), nil)
	if err != nil {
		utils.LogError("Carrier rate quote failed for %s, using fallback %.2f: %v", destPostal, FallbackRate, err)
		return FallbackRate
	}

	var out struct {
		Data struct {
			AvailableCourierCompanies []struct {
				CourierName string  `json:"courier_name"`
				Rate        float64 `json:"rate"`
			} `json:"available_courier_companies"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil || len(out.Data.AvailableCourierCompanies) == 0 {
		utils.LogInfo("Carrier has no offer for %s, using fallback %.2f", destPostal, FallbackRate)
		return FallbackRate
	}

	couriers := out.Data.AvailableCourierCompanies
	sort.Slice(couriers, func(i, j int) bool { return couriers[i].Rate < couriers[j].Rate })
	return couriers[0].Rate
}

func carrierPaymentMethod(method string) string {
	if method == models.PaymentMethodCOD {
		return "COD"
	}
	return "Prepaid"
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
