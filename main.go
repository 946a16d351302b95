package main

import (
	"log"

	"gopkg.in/gomail.v2"

	"github.com/Arjun-745/TrendKart/config"
	"github.com/Arjun-745/TrendKart/controllers"
	"github.com/Arjun-745/TrendKart/middleware"
	"github.com/Arjun-745/TrendKart/notify"
	"github.com/Arjun-745/TrendKart/payment"
	"github.com/Arjun-745/TrendKart/reconciler"
	"github.com/Arjun-745/TrendKart/routes"
	"github.com/Arjun-745/TrendKart/shipping"
	"github.com/Arjun-745/TrendKart/store"
	"github.com/Arjun-745/TrendKart/utils"
)

func main() {
	// Initialize logger
	if err := utils.InitLogger(); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	// Load environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.LogError("Error loading config: %v", err)
		log.Fatal("Error loading config:", err)
	}

	// Initialize database
	config.InitDB()

	// External adapters
	gateway := payment.NewClient(cfg.RazorpayKey, cfg.RazorpaySecret)
	carrier := shipping.NewClient(cfg.ShiprocketBaseURL, cfg.ShiprocketEmail, cfg.ShiprocketPassword, cfg.PickupPostalCode)

	// Notification channels, all optional and best-effort
	var mailDialer *gomail.Dialer
	if cfg.SMTPHost != "" {
		mailDialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	var events *notify.EventPublisher
	if cfg.AMQPURL != "" {
		events, err = notify.NewEventPublisher(cfg.AMQPURL)
		if err != nil {
			utils.LogError("Order-events publisher disabled: %v", err)
			events = nil
		} else {
			defer events.Close()
		}
	}
	dispatcher := notify.NewDispatcher(mailDialer, cfg.SMTPFrom, cfg.ChatWebhookURL, events)

	// Webhook reconciliation
	orderStore := store.NewGorm(config.DB)
	var dedup *reconciler.Dedup
	if cfg.RedisAddr != "" {
		dedup = reconciler.NewDedup(cfg.RedisAddr)
	}
	webhooks := reconciler.New(orderStore, dispatcher, dedup, func(outcome reconciler.Outcome) {
		middleware.RecordWebhookOutcome(string(outcome))
	})

	controllers.Init(orderStore, gateway, carrier, dispatcher, webhooks)

	// Set up router
	router := routes.SetupRouter()

	utils.LogInfo("Server starting on port %s", cfg.Port)
	// Start server
	if err := router.Run(":" + cfg.Port); err != nil {
		utils.LogError("Error starting server: %v", err)
		log.Fatal("Error starting server:", err)
	}
}
