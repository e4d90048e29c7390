// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// BackendConfig provides settings for the spreadsheet backend gateway.
type BackendConfig interface {
	GetBackendURL() string
	GetBackendTimeout() time.Duration
}

// SessionConfig provides settings for the wizard session store.
type SessionConfig interface {
	GetRedisURL() string
	GetSessionTTL() time.Duration
}

// LookupConfig provides settings for the debounced address lookup.
type LookupConfig interface {
	GetLookupDebounce() time.Duration
}

// PaymentConfig provides settings for card payment verification.
type PaymentConfig interface {
	GetStripeSecretKey() string
	IsPaymentVerificationEnabled() bool
}

// DeliveryConfig provides settings for the best-effort delivery queue.
type DeliveryConfig interface {
	GetRedisURL() string
	GetDeliveryQueueName() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env             string
	HTTPAddr        string
	BackendURL      string
	BackendTimeout  time.Duration
	RedisURL        string
	SessionTTL      time.Duration
	LookupDebounce  time.Duration
	StripeSecretKey string
	DeliveryQueue   string
	CORSAllowAll    bool
	CORSOrigins     []string
}

// Load reads configuration from the environment (and an optional .env file).
// The spreadsheet backend URL is mandatory: its absence is a startup error,
// never a runtime fallback.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		BackendURL:      getEnv("BACKEND_URL", ""),
		BackendTimeout:  mustDuration(getEnv("BACKEND_TIMEOUT", "15s")),
		RedisURL:        getEnv("REDIS_URL", ""),
		SessionTTL:      mustDuration(getEnv("SESSION_TTL", "24h")),
		LookupDebounce:  mustDuration(getEnv("LOOKUP_DEBOUNCE", "600ms")),
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		DeliveryQueue:   getEnv("DELIVERY_QUEUE", "default"),
		CORSAllowAll:    corsAllowAll,
		CORSOrigins:     corsOrigins,
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		panic("invalid duration: " + raw)
	}
	return d
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Interface implementations.

func (c *Config) GetBackendURL() string                { return c.BackendURL }
func (c *Config) GetBackendTimeout() time.Duration     { return c.BackendTimeout }
func (c *Config) GetRedisURL() string                  { return c.RedisURL }
func (c *Config) GetSessionTTL() time.Duration         { return c.SessionTTL }
func (c *Config) GetLookupDebounce() time.Duration     { return c.LookupDebounce }
func (c *Config) GetStripeSecretKey() string           { return c.StripeSecretKey }
func (c *Config) IsPaymentVerificationEnabled() bool   { return c.StripeSecretKey != "" }
func (c *Config) GetDeliveryQueueName() string         { return c.DeliveryQueue }
func (c *Config) GetHTTPAddr() string                  { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool                { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string             { return c.CORSOrigins }
