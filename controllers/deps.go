package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Arjun-745/TrendKart/notify"
	"github.com/Arjun-745/TrendKart/payment"
	"github.com/Arjun-745/TrendKart/reconciler"
	"github.com/Arjun-745/TrendKart/shipping"
	"github.com/Arjun-745/TrendKart/statemachine"
	"github.com/Arjun-745/TrendKart/store"
	"github.com/Arjun-745/TrendKart/utils"
)

// Package-level collaborators, wired once at startup by Init.
var (
	orderStore store.Store
	gateway    *payment.Client
	carrier    *shipping.Client
	dispatcher *notify.Dispatcher
	webhooks   *reconciler.Reconciler
)

// Init wires the controller package to its collaborators.
func Init(s store.Store, g *payment.Client, c *shipping.Client, d *notify.Dispatcher, r *reconciler.Reconciler) {
	orderStore = s
	gateway = g
	carrier = c
	dispatcher = d
	webhooks = r
}

// currentUserID returns the authenticated subject set by the auth middleware.
func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.LogError("User not found in context")
		utils.Unauthorized(c, "User not found")
		return "", false
	}
	return userID, true
}

// respondTransitionError maps store/state-machine failures onto the error
// taxonomy for interactive callers. Webhook callers never use this; they ack
// everything.
func respondTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.NotFound(c, "Order not found")
	case errors.Is(err, statemachine.ErrInvalidTransition):
		utils.UnprocessableEntity(c, "This order cannot make that transition", err.Error())
	case errors.Is(err, store.ErrConflict):
		utils.Conflict(c, "The order was updated concurrently, please retry", nil)
	default:
		utils.LogError("Order transition failed: %v", err)
		utils.InternalServerError(c, "Failed to update order", nil)
	}
}
