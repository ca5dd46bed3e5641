// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Remote store (Supabase project) credentials.
	SupabaseURL     string `env:"NODEZ_SUPABASE_URL,required"`
	SupabaseAnonKey string `env:"NODEZ_SUPABASE_ANON_KEY,required"`
	StorageBucket   string `env:"NODEZ_STORAGE_BUCKET" envDefault:"covers"`

	// AdminEmails is the allow-list of admin addresses. Exact, case-sensitive
	// matches only. Changing it means redeploying, not a data migration.
	AdminEmails []string `env:"NODEZ_ADMIN_EMAILS,required" envSeparator:","`

	SessionSecret string `env:"NODEZ_SESSION_SECRET,required"`
	DBPath        string `env:"NODEZ_DB_PATH" envDefault:"./data/nodez.db"`
	ServerHost    string `env:"NODEZ_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"NODEZ_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"NODEZ_ENV" envDefault:"development"`
	LogLevel      string `env:"NODEZ_LOG_LEVEL" envDefault:"info"`

	// SiteURL is the public base URL the site is served from. Emailed
	// sign-in links redirect to it, and its host is trusted for
	// cross-origin form posts behind a reverse proxy.
	SiteURL string `env:"NODEZ_SITE_URL" envDefault:"http://localhost:8080"`

	// Cache configuration
	RedisURL     string `env:"NODEZ_REDIS_URL"`                        // Optional Redis URL for distributed caching
	CachePrefix  string `env:"NODEZ_CACHE_PREFIX" envDefault:"nodez:"` // Redis key prefix
	CacheTTL     int    `env:"NODEZ_CACHE_TTL" envDefault:"300"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"NODEZ_CACHE_MAX_SIZE" envDefault:"1000"` // Max memory cache entries

	// EventRetentionDays controls how long mirrored WARN/ERROR log rows are kept.
	EventRetentionDays int `env:"NODEZ_EVENT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("NODEZ_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("NODEZ_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("NODEZ_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	// An empty allow-list is a configuration mistake: every admin page
	// would deny everyone forever.
	cleaned := make([]string, 0, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		e = strings.TrimSpace(e)
		if e != "" {
			cleaned = append(cleaned, e)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("NODEZ_ADMIN_EMAILS must contain at least one address")
	}
	cfg.AdminEmails = cleaned

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
