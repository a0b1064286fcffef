package config

import (
	"os"
	"strings"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port    string
	Logs    LogConfig
	DB      PostgresConfig
	Stripe  StripeConfig
	Gateway GatewayConfig
}

type LogConfig struct {
	Style string
	Level string
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
}

type StripeConfig struct {
	SecretKey         string
	PublishableKey    string
	WebhookSecret     string
	PriceIDProMonthly string
	SuccessURL        string
	CancelURL         string
	PortalReturnURL   string
}

// GatewayConfig points at the Pro usage gateway. APIKey is informational:
// its presence enables budget fetches but never grants entitlement on its own.
type GatewayConfig struct {
	URL    string
	APIKey string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port: envOr("PORT", "3001"),
		Logs: LogConfig{
			Style: os.Getenv("LOG_STYLE"),
			Level: os.Getenv("LOG_LEVEL"),
		},
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      os.Getenv("POSTGRES_URL"),
			Port:     os.Getenv("POSTGRES_PORT"),
		},
		Stripe: StripeConfig{
			SecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
			PublishableKey:    os.Getenv("STRIPE_PUBLISHABLE_KEY"),
			WebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceIDProMonthly: envOr("STRIPE_PRICE_ID_PRO_MONTHLY", "price_pro_monthly"),
			SuccessURL:        envOr("SUBSCRIPTION_SUCCESS_URL", "deepseekdrew://subscription-success"),
			CancelURL:         envOr("SUBSCRIPTION_CANCEL_URL", "deepseekdrew://subscription-cancelled"),
			PortalReturnURL:   envOr("BILLING_PORTAL_RETURN_URL", "deepseekdrew://settings/billing"),
		},
		Gateway: GatewayConfig{
			URL:    envOr("PRO_GATEWAY_URL", "https://llm-gateway.deepseekdrew.com"),
			APIKey: os.Getenv("PRO_GATEWAY_API_KEY"),
		},
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
