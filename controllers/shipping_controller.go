package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/Arjun-745/TrendKart/utils"
)

// GetShippingQuote prices shipping for a checkout in progress. The quote
// always resolves: when the carrier is down or has no offer the adapter
// returns its fixed fallback rate.
// POST /checkout/shipping-quote
func GetShippingQuote(c *gin.Context) {
	utils.LogInfo("GetShippingQuote called")
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req struct {
		PostalCode string  `json:"postal_code" binding:"required"`
		WeightKg   float64 `json:"weight_kg"`
		COD        bool    `json:"cod"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid shipping quote request: %v", err)
		utils.BadRequest(c, "postal_code is required", err.Error())
		return
	}
	if req.WeightKg <= 0 {
		req.WeightKg = 0.5
	}

	rate := carrier.QuoteRate(c.Request.Context(), req.PostalCode, req.WeightKg, req.COD)
	utils.LogInfo("Shipping quote for %s: %.2f (cod=%v)", req.PostalCode, rate, req.COD)

	utils.Success(c, "Shipping quote calculated", gin.H{
		"postal_code":    req.PostalCode,
		"weight_kg":      req.WeightKg,
		"cod":            req.COD,
		"shipping_price": rate,
	})
}
