package controllers

import (
	"math"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arjun-745/TrendKart/config"
	"github.com/Arjun-745/TrendKart/middleware"
	"github.com/Arjun-745/TrendKart/models"
	"github.com/Arjun-745/TrendKart/statemachine"
	"github.com/Arjun-745/TrendKart/store"
	"github.com/Arjun-745/TrendKart/utils"
)

// InitiatePayment creates a gateway payment intent for an online order. The
// amount always comes from the frozen order total; the client never supplies
// it.
// POST /checkout/payment/initiate
func InitiatePayment(c *gin.Context) {
	utils.LogInfo("InitiatePayment called")
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		OrderID string `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid payment initiation for user %s: %v", userID, err)
		utils.BadRequest(c, "Invalid request. order_id is required", err.Error())
		return
	}

	order, err := orderStore.GetForUser(c.Request.Context(), req.OrderID, userID)
	if err != nil {
		utils.LogError("Order %s not found for user %s", req.OrderID, userID)
		utils.NotFound(c, "Order not found")
		return
	}

	if order.PaymentMethod != models.PaymentMethodOnline {
		utils.BadRequest(c, "This order is not an online payment order", nil)
		return
	}
	if order.IsPaid {
		utils.LogError("Order %s is already paid", order.ID)
		utils.BadRequest(c, "Payment for this order has already been completed", nil)
		return
	}
	if order.Status == models.OrderStatusCancelled {
		utils.BadRequest(c, "Cannot pay for a cancelled order", nil)
		return
	}

	amountPaise := int64(math.Round(order.TotalPrice * 100))
	intent, err := gateway.CreateIntent(amountPaise, "order_rcptid_"+order.ID)
	if err != nil {
		// No safe fallback exists for payment intent creation.
		utils.LogError("Failed to create payment intent for order %s: %v", order.ID, err)
		utils.ServiceUnavailable(c, "Payment gateway is unavailable, please retry", nil)
		return
	}
	utils.LogInfo("Created payment intent %s for order %s (%d paise)", intent.GatewayOrderID, order.ID, amountPaise)

	expected := order.Version
	order.RazorpayOrderID = intent.GatewayOrderID
	if err := orderStore.Update(c.Request.Context(), order, expected); err != nil {
		// A lost version race here surfaces as a 409 so the client retries
		// initiation instead of treating it as a server fault.
		utils.LogError("Failed to record gateway order id for order %s: %v", order.ID, err)
		respondTransitionError(c, err)
		return
	}

	utils.Success(c, "Payment initiated successfully", gin.H{
		"order_id":          order.ID,
		"razorpay_order_id": intent.GatewayOrderID,
		"amount":            intent.AmountPaise,
		"currency":          intent.Currency,
		"key":               config.AppConfig.RazorpayKey,
	})
}

// VerifyPayment checks the client-submitted completion signature and, when
// genuine, settles the order through the MarkPaid transition.
// POST /checkout/payment/verify
func VerifyPayment(c *gin.Context) {
	utils.LogInfo("VerifyPayment called")
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		OrderID           string `json:"order_id" binding:"required"`
		RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
		RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
		RazorpaySignature string `json:"razorpay_signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid verification request for user %s: %v", userID, err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	order, err := orderStore.GetForUser(c.Request.Context(), req.OrderID, userID)
	if err != nil {
		utils.LogError("Order %s not found for user %s: %v", req.OrderID, userID, err)
		utils.NotFound(c, "Order not found")
		return
	}

	if order.RazorpayOrderID == "" || order.RazorpayOrderID != req.RazorpayOrderID {
		utils.LogError("Gateway order id mismatch for order %s. Expected %s, received %s",
			order.ID, order.RazorpayOrderID, req.RazorpayOrderID)
		utils.BadRequest(c, "Invalid Razorpay order ID", nil)
		return
	}

	// A failed verification is a rejected payment, not a server fault.
	if !gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		utils.LogError("Payment verification failed for order %s, user %s", order.ID, userID)
		utils.BadRequest(c, "Payment verification failed", gin.H{"retry": true})
		return
	}
	utils.LogInfo("Payment signature verified for order %s", order.ID)

	updated, change, err := store.Apply(c.Request.Context(), orderStore, order.ID, statemachine.Request{
		Event:       statemachine.EventMarkPaid,
		Actor:       statemachine.ActorCustomer,
		Now:         time.Now(),
		ExternalRef: req.RazorpayPaymentID,
	})
	middleware.RecordTransition(string(statemachine.EventMarkPaid), err == nil)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	if change.Applied {
		utils.LogInfo("Order %s marked paid (payment %s)", updated.ID, req.RazorpayPaymentID)
		dispatcher.OrderEvent(*updated, "PaymentReceived")
	} else {
		// Gateway callbacks can repeat; a second verify of a paid order is
		// simply acknowledged.
		utils.LogInfo("Order %s was already paid, verification acked", updated.ID)
	}

	utils.Success(c, "Thank you for your payment! Your order has been placed.", gin.H{
		"order_id":       updated.ID,
		"is_paid":        updated.IsPaid,
		"payment_method": updated.PaymentMethod,
		"total_price":    updated.TotalPrice,
	})
}
