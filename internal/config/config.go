// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - All functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of classification workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many recent dedup hashes are remembered in memory.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxListLimit caps ?limit on listing endpoints.
	MaxListLimit int `koanf:"max_list_limit"`

	// DatabaseURL selects the Postgres store; empty keeps everything in memory.
	DatabaseURL string `koanf:"database_url"`
	// DatabaseMaxConns caps the pgx pool.
	DatabaseMaxConns int `koanf:"database_max_conns"`
	// MigrateOnStart applies embedded migrations before serving.
	MigrateOnStart bool `koanf:"migrate_on_start"`

	// USAC open data (Socrata) settings.
	USACBaseURL        string  `koanf:"usac_base_url"`
	USACFilingsDataset string  `koanf:"usac_filings_dataset"`
	USACFundingDataset string  `koanf:"usac_funding_dataset"`
	USACAppToken       string  `koanf:"usac_app_token"`
	USACRatePerSec     float64 `koanf:"usac_rate_per_sec"`
	USACTimeoutMS      int     `koanf:"usac_timeout_ms"`
	USACPageSize       int     `koanf:"usac_page_size"`

	// Automation platform webhooks. Empty URLs disable the matching endpoint.
	EnrichmentWebhookURL string `koanf:"enrichment_webhook_url"`
	OutreachWebhookURL   string `koanf:"outreach_webhook_url"`
	WebhookToken         string `koanf:"webhook_token"`
	WebhookTimeoutMS     int    `koanf:"webhook_timeout_ms"`
	WebhookMaxRetries    int    `koanf:"webhook_max_retries"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		QueueSize:          10_000,
		WorkerCount:        runtime.NumCPU() * 2,
		DedupeSize:         200_000,
		MaxListLimit:       500,
		DatabaseMaxConns:   10,
		USACBaseURL:        "https://opendata.usac.org",
		USACFilingsDataset: "96rf-xd57",
		USACRatePerSec:     5,
		USACTimeoutMS:      30_000,
		USACPageSize:       1000,
		WebhookTimeoutMS:   10_000,
		WebhookMaxRetries:  3,
	}
}

// USACTimeout returns the open data client timeout.
func (c *Config) USACTimeout() time.Duration {
	return time.Duration(c.USACTimeoutMS) * time.Millisecond
}

// WebhookTimeout returns the webhook client timeout.
func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutMS) * time.Millisecond
}

// Validate checks ranges and required values.
func (c *Config) Validate(_ context.Context) error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxListLimit <= 0:
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	case c.USACRatePerSec <= 0:
		return fmt.Errorf("%w: usac_rate_per_sec must be positive", ErrInvalidConfig)
	case c.USACPageSize <= 0:
		return fmt.Errorf("%w: usac_page_size must be positive", ErrInvalidConfig)
	case c.DatabaseMaxConns < 0 || c.DatabaseMaxConns > math.MaxInt32:
		return fmt.Errorf("%w: database_max_conns out of range", ErrInvalidConfig)
	case c.WebhookMaxRetries < 0:
		return fmt.Errorf("%w: webhook_max_retries must not be negative", ErrInvalidConfig)
	}
	return nil
}
