package controllers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arjun-745/TrendKart/middleware"
	"github.com/Arjun-745/TrendKart/statemachine"
	"github.com/Arjun-745/TrendKart/store"
	"github.com/Arjun-745/TrendKart/utils"
)

// RequestReturn lets a customer ask to return a delivered order, once.
// POST /orders/:id/return
func RequestReturn(c *gin.Context) {
	utils.LogInfo("RequestReturn called")
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID := c.Param("id")

	var req struct {
		Reason string   `json:"reason" binding:"required"`
		Images []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Missing return reason for order %s: %v", orderID, err)
		utils.BadRequest(c, "Return reason is required", nil)
		return
	}

	// Ownership check before the transition; the state machine does not know
	// which user an order belongs to.
	if _, err := orderStore.GetForUser(c.Request.Context(), orderID, userID); err != nil {
		utils.LogError("Order %s not found for user %s: %v", orderID, userID, err)
		utils.NotFound(c, "Order not found")
		return
	}

	order, change, err := store.Apply(c.Request.Context(), orderStore, orderID, statemachine.Request{
		Event:  statemachine.EventRequestReturn,
		Actor:  statemachine.ActorCustomer,
		Now:    time.Now(),
		Reason: req.Reason,
		Images: req.Images,
	})
	middleware.RecordTransition(string(statemachine.EventRequestReturn), err == nil)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	if change.Applied {
		utils.LogInfo("Return requested for order %s by user %s", order.ID, userID)
		dispatcher.OrderEvent(*order, "ReturnRequested")
	}

	utils.Success(c, "Return request submitted", gin.H{
		"order_id":      order.ID,
		"return_status": order.ReturnStatus,
	})
}

// AdminReviewReturn approves or rejects a pending return request.
// PUT /admin/orders/:id/return
func AdminReviewReturn(c *gin.Context) {
	utils.LogInfo("AdminReviewReturn called")
	orderID := c.Param("id")

	var req struct {
		Decision string `json:"decision" binding:"required"` // approve or reject
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid return review for order %s: %v", orderID, err)
		utils.BadRequest(c, "Decision is required", nil)
		return
	}

	var event statemachine.Event
	var notification string
	switch strings.ToLower(req.Decision) {
	case "approve":
		event = statemachine.EventApproveReturn
		notification = "ReturnApproved"
	case "reject":
		event = statemachine.EventRejectReturn
		notification = "ReturnRejected"
	default:
		utils.BadRequest(c, "Decision must be approve or reject", nil)
		return
	}

	order, change, err := store.Apply(c.Request.Context(), orderStore, orderID, statemachine.Request{
		Event:  event,
		Actor:  statemachine.ActorAdmin,
		Now:    time.Now(),
		Reason: req.Reason,
	})
	middleware.RecordTransition(string(event), err == nil)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	if change.Applied {
		utils.LogInfo("Return for order %s resolved as %s", order.ID, order.ReturnStatus)
		dispatcher.OrderEvent(*order, notification)
	}

	utils.Success(c, "Return request resolved", gin.H{
		"order_id":      order.ID,
		"return_status": order.ReturnStatus,
		"is_returned":   order.IsReturned,
	})
}
