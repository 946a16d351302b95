package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig holds the loaded configuration for the whole service.
var AppConfig *Config

// Config holds all configuration for the application
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string
	Port      string
	Env       string

	RazorpayKey    string
	RazorpaySecret string

	ShiprocketBaseURL  string
	ShiprocketEmail    string
	ShiprocketPassword string
	PickupPostalCode   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	ChatWebhookURL string
	RedisAddr      string
	AMQPURL        string

	// CODLimit is the maximum order total eligible for cash on delivery.
	CODLimit float64
	// TaxRate applied to the item subtotal at checkout (GST).
	TaxRate float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// A missing .env file is fine in deployed environments; the variables
	// come from the process environment there.
	_ = godotenv.Load()

	config := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		Port:      os.Getenv("PORT"),
		Env:       os.Getenv("ENV"),

		RazorpayKey:    os.Getenv("RAZORPAY_KEY"),
		RazorpaySecret: os.Getenv("RAZORPAY_SECRET"),

		ShiprocketBaseURL:  os.Getenv("SHIPROCKET_BASE_URL"),
		ShiprocketEmail:    os.Getenv("SHIPROCKET_EMAIL"),
		ShiprocketPassword: os.Getenv("SHIPROCKET_PASSWORD"),
		PickupPostalCode:   os.Getenv("PICKUP_POSTAL_CODE"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     envInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),

		ChatWebhookURL: os.Getenv("CHAT_WEBHOOK_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AMQPURL:        os.Getenv("AMQP_URL"),

		CODLimit: envFloat("COD_LIMIT", 10000),
		TaxRate:  envFloat("TAX_RATE", 0.18),
	}

	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if config.Port == "" {
		config.Port = "8080"
	}
	if config.ShiprocketBaseURL == "" {
		config.ShiprocketBaseURL = "https://apiv2.shiprocket.in/v1/external"
	}

	AppConfig = config
	return config, nil
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}
