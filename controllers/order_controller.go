package controllers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Arjun-745/TrendKart/config"
	"github.com/Arjun-745/TrendKart/models"
	"github.com/Arjun-745/TrendKart/utils"
)

// CreateOrder places a new order: snapshots items and address, freezes the
// pricing, pushes the shipment to the carrier best-effort, and confirms to
// the customer.
// POST /orders
func CreateOrder(c *gin.Context) {
	utils.LogInfo("CreateOrder called")
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Items []struct {
			ProductID string  `json:"product_id" binding:"required"`
			Name      string  `json:"name" binding:"required"`
			Image     string  `json:"image"`
			Size      string  `json:"size"`
			Quantity  int     `json:"quantity" binding:"required,gt=0"`
			Price     float64 `json:"price" binding:"required,gte=0"`
		} `json:"items" binding:"required,min=1,dive"`
		Address struct {
			Line1      string `json:"line1" binding:"required"`
			District   string `json:"district" binding:"required"`
			State      string `json:"state" binding:"required"`
			PostalCode string `json:"postal_code" binding:"required"`
			Country    string `json:"country" binding:"required"`
			Mobile     string `json:"mobile" binding:"required"`
			GPSLink    string `json:"gps_link"`
		} `json:"address" binding:"required"`
		PaymentMethod string `json:"payment_method" binding:"required"`
		CouponCode    string `json:"coupon_code"`
		CustomerEmail string `json:"customer_email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid order request for user %s: %v", userID, err)
		utils.BadRequest(c, "Invalid order request", err.Error())
		return
	}

	if req.PaymentMethod != models.PaymentMethodCOD && req.PaymentMethod != models.PaymentMethodOnline {
		utils.BadRequest(c, "Invalid payment method", gin.H{
			"valid_methods": []string{models.PaymentMethodCOD, models.PaymentMethodOnline},
		})
		return
	}

	order := &models.Order{
		UserID:        userID,
		CustomerEmail: req.CustomerEmail,
		PaymentMethod: req.PaymentMethod,
		Status:        models.OrderStatusProcessing,
		ReturnStatus:  models.ReturnStatusNone,
		ShippingAddress: models.ShippingAddress{
			Line1:      req.Address.Line1,
			District:   req.Address.District,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
			Mobile:     req.Address.Mobile,
			GPSLink:    req.Address.GPSLink,
		},
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
		order.ItemsPrice += item.Price * float64(item.Quantity)
	}
	utils.LogDebug("Order for user %s: %d items, subtotal %.2f", userID, len(order.Items), order.ItemsPrice)

	if req.CouponCode != "" {
		var coupon models.Coupon
		if err := config.DB.Where("LOWER(code) = LOWER(?)", req.CouponCode).First(&coupon).Error; err != nil {
			utils.LogError("Coupon %s not found for user %s", req.CouponCode, userID)
			utils.BadRequest(c, "Invalid coupon code", nil)
			return
		}
		if err := coupon.ValidFor(time.Now()); err != nil {
			utils.LogError("Coupon %s rejected for user %s: %v", req.CouponCode, userID, err)
			utils.BadRequest(c, "Coupon cannot be applied", err.Error())
			return
		}
		order.CouponCode = coupon.Code
		order.Discount = coupon.DiscountOn(order.ItemsPrice)
	}

	// Shipping always resolves to some number; the carrier quote falls back
	// internally when the carrier has no offer.
	cod := order.PaymentMethod == models.PaymentMethodCOD
	order.ShippingPrice = carrier.QuoteRate(c.Request.Context(), order.ShippingAddress.PostalCode, order.WeightKg(), cod)
	order.TaxPrice = order.ItemsPrice * config.AppConfig.TaxRate
	order.TotalPrice = order.ItemsPrice + order.ShippingPrice + order.TaxPrice - order.Discount
	utils.LogDebug("Order pricing frozen: items %.2f shipping %.2f tax %.2f discount %.2f total %.2f",
		order.ItemsPrice, order.ShippingPrice, order.TaxPrice, order.Discount, order.TotalPrice)

	if cod && order.TotalPrice > config.AppConfig.CODLimit {
		utils.LogError("COD not available for user %s: total %.2f over limit", userID, order.TotalPrice)
		utils.BadRequest(c, "Cash on delivery is not available for this order amount", gin.H{
			"cod_limit": config.AppConfig.CODLimit,
		})
		return
	}

	if err := orderStore.Create(c.Request.Context(), order); err != nil {
		utils.LogError("Failed to create order for user %s: %v", userID, err)
		utils.InternalServerError(c, "Failed to create order", nil)
		return
	}
	utils.LogInfo("Created order %s for user %s, total %.2f", order.ID, userID, order.TotalPrice)

	// Carrier push is best-effort: a failure leaves the order unlinked and
	// retried out-of-band, never blocks placement.
	if ref, err := carrier.CreateShipment(c.Request.Context(), order); err != nil {
		utils.LogError("Carrier push failed for order %s, order stays unlinked: %v", order.ID, err)
	} else {
		expected := order.Version
		order.CarrierOrderID = ref.CarrierOrderID
		order.ShipmentID = ref.ShipmentID
		if err := orderStore.Update(c.Request.Context(), order, expected); err != nil {
			utils.LogError("Failed to record carrier linkage for order %s: %v", order.ID, err)
		} else {
			utils.LogInfo("Order %s linked to carrier order %s", order.ID, ref.CarrierOrderID)
		}
	}

	dispatcher.OrderEvent(*order, "OrderPlaced")

	utils.Created(c, "Order placed successfully", gin.H{
		"order": orderResponse(order),
	})
}

// GetOrder returns one of the caller's orders.
// GET /orders/:id
func GetOrder(c *gin.Context) {
	utils.LogInfo("GetOrder called")
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	order, err := orderStore.GetForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		utils.LogError("Order %s not found for user %s: %v", c.Param("id"), userID, err)
		utils.NotFound(c, "Order not found")
		return
	}

	utils.Success(c, "Order retrieved successfully", gin.H{"order": orderResponse(order)})
}

// ListMyOrders returns the caller's orders, newest first.
// GET /orders
func ListMyOrders(c *gin.Context) {
	utils.LogInfo("ListMyOrders called")
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orders, err := orderStore.ListByUser(c.Request.Context(), userID)
	if err != nil {
		utils.LogError("Failed to list orders for user %s: %v", userID, err)
		utils.InternalServerError(c, "Failed to list orders", nil)
		return
	}

	out := make([]gin.H, 0, len(orders))
	for i := range orders {
		out = append(out, orderResponse(&orders[i]))
	}
	utils.Success(c, "Orders retrieved successfully", gin.H{"orders": out})
}

// orderResponse shapes an order for API responses.
func orderResponse(order *models.Order) gin.H {
	items := make([]gin.H, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, gin.H{
			"product_id": item.ProductID,
			"name":       item.Name,
			"image":      item.Image,
			"size":       item.Size,
			"quantity":   item.Quantity,
			"price":      item.Price,
		})
	}

	resp := gin.H{
		"id":             order.ID,
		"status":         order.Status,
		"payment_method": order.PaymentMethod,
		"is_paid":        order.IsPaid,
		"items":          items,
		"address":        order.ShippingAddress,
		"pricing": gin.H{
			"items_price":    order.ItemsPrice,
			"shipping_price": order.ShippingPrice,
			"tax_price":      order.TaxPrice,
			"discount":       order.Discount,
			"total_price":    order.TotalPrice,
		},
		"return_status": order.ReturnStatus,
		"created_at":    order.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if order.CouponCode != "" {
		resp["coupon_code"] = order.CouponCode
	}
	if order.AWBCode != "" {
		resp["tracking"] = gin.H{
			"awb_code":     order.AWBCode,
			"courier_name": order.CourierName,
		}
	}
	if order.PaidAt != nil {
		resp["paid_at"] = order.PaidAt.Format("2006-01-02 15:04:05")
	}
	if order.DeliveredAt != nil {
		resp["delivered_at"] = order.DeliveredAt.Format("2006-01-02 15:04:05")
	}
	return resp
}

// statusFromRequest normalizes an admin dropdown value to a canonical status.
func statusFromRequest(raw string) (string, bool) {
	for _, status := range []string{
		models.OrderStatusProcessing,
		models.OrderStatusPacked,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	} {
		if strings.EqualFold(raw, status) {
			return status, true
		}
	}
	return "", false
}
