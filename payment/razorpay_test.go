package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Genuine(t *testing.T) {
	client := NewClient("rzp_test_key", "test_secret")
	signature := sign("test_secret", "order_ABC123", "pay_XYZ789")

	assert.True(t, client.VerifySignature("order_ABC123", "pay_XYZ789", signature))
}

func TestVerifySignature_Tampered(t *testing.T) {
	client := NewClient("rzp_test_key", "test_secret")
	genuine := sign("test_secret", "order_ABC123", "pay_XYZ789")

	tests := []struct {
		name           string
		gatewayOrderID string
		paymentID      string
		signature      string
	}{
		{"wrong signature", "order_ABC123", "pay_XYZ789", "deadbeef"},
		{"signature for another order", "order_DEF456", "pay_XYZ789", genuine},
		{"signature for another payment", "order_ABC123", "pay_OTHER", genuine},
		{"empty signature", "order_ABC123", "pay_XYZ789", ""},
		{"signature from another secret", "order_ABC123", "pay_XYZ789", sign("other_secret", "order_ABC123", "pay_XYZ789")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, client.VerifySignature(tt.gatewayOrderID, tt.paymentID, tt.signature))
		})
	}
}
