package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Stripe holds payment processor configuration.
type Stripe struct {
	SecretKey      string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET"`
	MonthlyPriceID string `env:"STRIPE_MONTHLY_PRICE_ID"`
	AnnualPriceID  string `env:"STRIPE_ANNUAL_PRICE_ID"`
}

// Push holds VAPID keys for web push notifications.
type Push struct {
	VAPIDPublicKey  string `env:"RESETT_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"RESETT_VAPID_PRIVATE_KEY"`
}

// Backup holds S3-compatible snapshot storage configuration.
type Backup struct {
	Endpoint   string `env:"RESETT_BACKUP_ENDPOINT"`
	Bucket     string `env:"RESETT_BACKUP_BUCKET"`
	Region     string `env:"RESETT_BACKUP_REGION" envDefault:"auto"`
	AccessKey  string `env:"RESETT_BACKUP_ACCESS_KEY"`
	SecretKey  string `env:"RESETT_BACKUP_SECRET_KEY"`
	Passphrase string `env:"RESETT_BACKUP_PASSPHRASE"`
	Keep       int    `env:"RESETT_BACKUP_KEEP" envDefault:"14"`
}

// Config is the full service configuration, loaded from the environment.
type Config struct {
	Port          string   `env:"RESETT_PORT" envDefault:"8080"`
	BaseURL       string   `env:"RESETT_BASE_URL"`
	DBPath        string   `env:"RESETT_DB_PATH" envDefault:"resett.db"`
	LogLevel      string   `env:"RESETT_LOG_LEVEL" envDefault:"info"`
	AllowList     []string `env:"RESETT_ALLOWLIST" envSeparator:","`
	PostmarkToken string   `env:"RESETT_POSTMARK_TOKEN"`
	FromEmail     string   `env:"RESETT_FROM_EMAIL" envDefault:"hello@getresett.com"`

	Stripe Stripe
	Push   Push
	Backup Backup
}

// Load reads .env if present, then parses configuration from the environment.
func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	return cfg, nil
}

// BackupEnabled reports whether snapshot backups are fully configured.
func (c Config) BackupEnabled() bool {
	b := c.Backup
	return b.Bucket != "" && b.AccessKey != "" && b.SecretKey != "" && b.Passphrase != ""
}

// PushEnabled reports whether web push is configured.
func (c Config) PushEnabled() bool {
	return c.Push.VAPIDPublicKey != "" && c.Push.VAPIDPrivateKey != ""
}
