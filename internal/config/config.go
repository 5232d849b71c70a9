// Package config maps SPROUT_* environment variables onto a typed struct.
// Configuration is loaded once at startup and passed to components by value;
// nothing reads the environment after Load returns.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Deployment modes. Anything other than "hosted" (including an unset
// SPROUT_MODE) is treated as self-hosted: single-tenant, unmetered,
// never write-blocked.
const (
	ModeHosted     = "hosted"
	ModeSelfHosted = "selfhosted"
)

// ErrSessionSecretMissing is the fatal misconfiguration case: without a
// signing secret no session token can ever be issued or verified.
var ErrSessionSecretMissing = errors.New("config: SPROUT_SESSION_SECRET is not set")

type Config struct {
	Port      string `env:"SPROUT_PORT" envDefault:"8080"`
	BaseURL   string `env:"SPROUT_BASE_URL" envDefault:"http://localhost:8080"`
	DBPath    string `env:"SPROUT_DB_PATH" envDefault:"sprout.db"`
	LogLevel  string `env:"SPROUT_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"SPROUT_LOG_FORMAT" envDefault:"text"`

	// Mode selects hosted (multi-tenant, billing-gated) or selfhosted
	// (single-tenant, unmetered) behavior.
	Mode string `env:"SPROUT_MODE" envDefault:"selfhosted"`

	// SessionSecret signs session tokens. Required.
	SessionSecret   string        `env:"SPROUT_SESSION_SECRET"`
	SessionLifetime time.Duration `env:"SPROUT_SESSION_LIFETIME" envDefault:"30m"`

	// AdminPassword is the application-level system administrator secret.
	// Empty means system-administrator login is not configured.
	AdminPassword string `env:"SPROUT_ADMIN_PASSWORD"`

	// Login lockout policy.
	LockoutThreshold int           `env:"SPROUT_LOCKOUT_THRESHOLD" envDefault:"5"`
	LockoutWindow    time.Duration `env:"SPROUT_LOCKOUT_WINDOW" envDefault:"15m"`
	LockoutDuration  time.Duration `env:"SPROUT_LOCKOUT_DURATION" envDefault:"15m"`

	// RedisAddr, when set, backs the attempt ledger with Redis so lockout
	// state is shared across instances. Empty keeps it in-process.
	RedisAddr     string `env:"SPROUT_REDIS_ADDR"`
	RedisPassword string `env:"SPROUT_REDIS_PASSWORD"`

	// Stripe (hosted mode only).
	StripeSecretKey           string `env:"SPROUT_STRIPE_SECRET_KEY"`
	StripeWebhookSecret       string `env:"SPROUT_STRIPE_WEBHOOK_SECRET"`
	StripeSubscriptionPriceID string `env:"SPROUT_STRIPE_SUBSCRIPTION_PRICE_ID"`
	StripeLifetimePriceID     string `env:"SPROUT_STRIPE_LIFETIME_PRICE_ID"`

	// Web push.
	VAPIDPublicKey  string `env:"SPROUT_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"SPROUT_VAPID_PRIVATE_KEY"`

	// TrialDays is the free trial granted to new hosted accounts.
	TrialDays int `env:"SPROUT_TRIAL_DAYS" envDefault:"14"`
}

// Load parses the environment and validates required secrets.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if cfg.SessionSecret == "" {
		return nil, ErrSessionSecretMissing
	}
	return cfg, nil
}

// Hosted reports whether the deployment is billing-gated.
func (c *Config) Hosted() bool {
	return c.Mode == ModeHosted
}
