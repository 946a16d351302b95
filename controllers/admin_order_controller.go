package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arjun-745/TrendKart/middleware"
	"github.com/Arjun-745/TrendKart/models"
	"github.com/Arjun-745/TrendKart/statemachine"
	"github.com/Arjun-745/TrendKart/store"
	"github.com/Arjun-745/TrendKart/utils"
)

// AdminListOrders returns all orders page by page.
// GET /admin/orders
func AdminListOrders(c *gin.Context) {
	utils.LogInfo("AdminListOrders called")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	orders, total, err := orderStore.List(c.Request.Context(), (page-1)*perPage, perPage)
	if err != nil {
		utils.LogError("Failed to list orders: %v", err)
		utils.InternalServerError(c, "Failed to list orders", nil)
		return
	}

	out := make([]gin.H, 0, len(orders))
	for i := range orders {
		resp := orderResponse(&orders[i])
		resp["user_id"] = orders[i].UserID
		out = append(out, resp)
	}
	utils.SuccessWithPagination(c, "Orders retrieved successfully", out, total, page, perPage)
}

// AdminUpdateOrderStatus applies the manual status override. The dropdown
// may move an order forward along the chain, skipping carrier confirmations,
// but never backward.
// PUT /admin/orders/:id/status
func AdminUpdateOrderStatus(c *gin.Context) {
	utils.LogInfo("AdminUpdateOrderStatus called")
	orderID := c.Param("id")

	var req struct {
		Status string `json:"status" binding:"required"`
		AWB    string `json:"awb_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid status request for order %s: %v", orderID, err)
		utils.BadRequest(c, "Status is required", nil)
		return
	}

	status, ok := statusFromRequest(req.Status)
	if !ok {
		utils.LogError("Invalid status requested for order %s: %s", orderID, req.Status)
		utils.BadRequest(c, "Invalid status", gin.H{
			"valid_statuses": []string{
				models.OrderStatusProcessing,
				models.OrderStatusPacked,
				models.OrderStatusShipped,
				models.OrderStatusDelivered,
				models.OrderStatusCancelled,
			},
		})
		return
	}

	event, ok := eventForStatus(status)
	if !ok {
		// Processing is the creation state; there is nothing to move back to.
		utils.BadRequest(c, "Orders cannot be moved back to Processing", nil)
		return
	}
	if event == statemachine.EventShip && req.AWB == "" {
		utils.BadRequest(c, "An AWB code is required to mark an order shipped", nil)
		return
	}

	order, change, err := store.Apply(c.Request.Context(), orderStore, orderID, statemachine.Request{
		Event: event,
		Actor: statemachine.ActorAdmin,
		Now:   time.Now(),
		AWB:   req.AWB,
	})
	middleware.RecordTransition(string(event), err == nil)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	if change.Applied {
		utils.LogInfo("Admin moved order %s to %s", order.ID, order.Status)
		dispatcher.OrderEvent(*order, "Order"+order.Status)
	} else {
		utils.LogInfo("Admin status update for order %s was a no-op (already %s)", order.ID, order.Status)
	}

	resp := orderResponse(order)
	resp["user_id"] = order.UserID
	utils.Success(c, "Order status updated successfully", gin.H{"order": resp})
}

// eventForStatus maps a dropdown status to its lifecycle event.
func eventForStatus(status string) (statemachine.Event, bool) {
	switch status {
	case models.OrderStatusPacked:
		return statemachine.EventPack, true
	case models.OrderStatusShipped:
		return statemachine.EventShip, true
	case models.OrderStatusDelivered:
		return statemachine.EventDeliver, true
	case models.OrderStatusCancelled:
		return statemachine.EventCancel, true
	}
	return "", false
}
