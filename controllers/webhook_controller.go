package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/Arjun-745/TrendKart/middleware"
	"github.com/Arjun-745/TrendKart/reconciler"
	"github.com/Arjun-745/TrendKart/utils"
)

// CarrierWebhook ingests carrier status pushes. It acknowledges every
// delivery with a 200 no matter what the reconciler decided: a non-2xx
// answer only makes the carrier re-deliver an event we already classified.
// POST /webhooks/shiprocket
func CarrierWebhook(c *gin.Context) {
	var evt reconciler.Event
	if err := c.ShouldBindJSON(&evt); err != nil {
		// Malformed payloads are noise, not something the carrier can fix by
		// retrying.
		utils.LogError("Unparseable carrier webhook acked and dropped: %v", err)
		middleware.RecordWebhookOutcome("unparseable")
		utils.Success(c, "Webhook received", nil)
		return
	}

	outcome := webhooks.Handle(c.Request.Context(), evt)
	utils.LogDebug("Carrier webhook (%s, %q) -> %s", evt.Ref(), evt.CurrentStatus, outcome)

	utils.Success(c, "Webhook received", gin.H{"outcome": string(outcome)})
}
