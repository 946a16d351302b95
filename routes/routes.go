package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Arjun-745/TrendKart/controllers"
	"github.com/Arjun-745/TrendKart/middleware"
	"github.com/Arjun-745/TrendKart/utils"
)

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter() *gin.Engine {
	router := gin.New()

	// Middleware must be registered before the routes it applies to.
	router.Use(utils.LoggerMiddleware())
	router.Use(utils.CORSMiddleware())
	router.Use(utils.RecoveryMiddleware())
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.SecurityHeadersMiddleware())
	router.Use(middleware.PrometheusMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Carrier pushes are authenticated by obscurity of the endpoint plus
	// carrier-side configuration, and must never be blocked by our auth.
	router.POST("/webhooks/shiprocket", controllers.CarrierWebhook)

	api := router.Group("/v1")
	{
		user := api.Group("/")
		user.Use(middleware.AuthMiddleware())
		{
			user.POST("/orders", controllers.CreateOrder)
			user.GET("/orders", controllers.ListMyOrders)
			user.GET("/orders/:id", controllers.GetOrder)
			user.POST("/orders/:id/return", controllers.RequestReturn)

			user.POST("/checkout/shipping-quote", controllers.GetShippingQuote)
			user.POST("/checkout/payment/initiate", controllers.InitiatePayment)
			user.POST("/checkout/payment/verify", controllers.VerifyPayment)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/orders", controllers.AdminListOrders)
			admin.PUT("/orders/:id/status", controllers.AdminUpdateOrderStatus)
			admin.PUT("/orders/:id/return", controllers.AdminReviewReturn)
		}
	}

	return router
}
