// Package payment wraps the Razorpay gateway. It creates payment intents and
// verifies client-submitted completion signatures; it never mutates order
// state itself.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/Arjun-745/TrendKart/utils"
)

// Intent is a gateway-side payment order awaiting completion on the client.
type Intent struct {
	GatewayOrderID string
	AmountPaise    int64
	Currency       string
}

type Client struct {
	rz        *razorpay.Client
	keySecret string
}

// NewClient builds a gateway client from the Razorpay key pair.
func NewClient(keyID, keySecret string) *Client {
	return &Client{
		rz:        razorpay.NewClient(keyID, keySecret),
		keySecret: keySecret,
	}
}

// CreateIntent registers a payment order with the gateway. The amount always
// comes from the frozen server-side order total, never from the client.
func (c *Client) CreateIntent(amountPaise int64, receipt string) (*Intent, error) {
	data := map[string]interface{}{
		"amount":          amountPaise,
		"currency":        "INR",
		"receipt":         receipt,
		"payment_capture": 1,
	}
	rzOrder, err := c.rz.Order.Create(data, nil)
	if err != nil {
		utils.LogError("Razorpay order creation failed for receipt %s: %v", receipt, err)
		return nil, fmt.Errorf("create razorpay order: %w", err)
	}
	id, _ := rzOrder["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay order response missing id")
	}
	return &Intent{GatewayOrderID: id, AmountPaise: amountPaise, Currency: "INR"}, nil
}

// VerifySignature recomputes the completion HMAC over
// "gatewayOrderID|paymentID" and compares it to the client-submitted
// signature in constant time. A mismatch returns false, never an error; the
// caller maps false to a rejected payment, not a fault.
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
