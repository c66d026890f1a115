package config

import (
	"os"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Chain    ChainConfig
	Webhook  WebhookConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// ChainConfig points at the custody/processing backend that holds the keys,
// screens withdrawals and watches the chains.
type ChainConfig struct {
	BaseURL        string
	APIKey         string
	WebhookBaseURL string // e.g. https://api.example.com - callbacks land on WebhookBaseURL + /api/v1/webhooks/...
}

// WebhookConfig guards the inbound webhook endpoints.
type WebhookConfig struct {
	Secret string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envOr("PORT", "8090"),
			Env:          envOr("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envOr("DB_DSN", "predix:predix@tcp(localhost:3306)/predix?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  envOr("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: envOr("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "predix",
		},
		Chain: ChainConfig{
			BaseURL:        envOr("CHAIN_GATEWAY_URL", "https://custody.predix.internal"),
			APIKey:         envOr("CHAIN_GATEWAY_API_KEY", ""),
			WebhookBaseURL: envOr("CHAIN_WEBHOOK_BASE_URL", ""),
		},
		Webhook: WebhookConfig{
			Secret: envOr("WEBHOOK_SECRET", ""),
		},
	}
}
