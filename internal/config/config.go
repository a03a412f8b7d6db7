// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads Lumina's configuration from LUMINA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver      string        `env:"LUMINA_DB_DRIVER" envDefault:"sqlite"`
	DBPath        string        `env:"LUMINA_DB_PATH" envDefault:"./data/lumina.db"`
	DBDSN         string        `env:"LUMINA_DB_DSN"`                     // MySQL DSN, e.g. user:pass@tcp(host:3306)/lumina
	DBTimeout     time.Duration `env:"LUMINA_DB_TIMEOUT" envDefault:"5s"` // Bound on each repository call
	SessionSecret string        `env:"LUMINA_SESSION_SECRET,required"`
	ServerHost    string        `env:"LUMINA_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int           `env:"LUMINA_SERVER_PORT" envDefault:"8080"`
	Env           string        `env:"LUMINA_ENV" envDefault:"development"`
	LogLevel      string        `env:"LUMINA_LOG_LEVEL" envDefault:"info"`
	ContentDir    string        `env:"LUMINA_CONTENT_DIR" envDefault:"./content/posts"`
	UploadsDir    string        `env:"LUMINA_UPLOADS_DIR" envDefault:"./uploads"`

	// Cache configuration
	RedisURL     string `env:"LUMINA_REDIS_URL"`
	CachePrefix  string `env:"LUMINA_CACHE_PREFIX" envDefault:"lumina:"`
	CacheTTL     int    `env:"LUMINA_CACHE_TTL" envDefault:"300"` // seconds
	CacheMaxSize int    `env:"LUMINA_CACHE_MAX_SIZE" envDefault:"10000"`

	CORSOrigins []string `env:"LUMINA_CORS_ORIGINS" envSeparator:","`

	// Mail
	ResendAPIKey string `env:"LUMINA_RESEND_API_KEY"`
	MailFrom     string `env:"LUMINA_MAIL_FROM" envDefault:"Lumina <onboarding@resend.dev>"`

	// Scheduler
	TrendingSchedule   string `env:"LUMINA_TRENDING_SCHEDULE" envDefault:"*/10 * * * *"`
	EventRetentionDays int    `env:"LUMINA_EVENT_RETENTION_DAYS" envDefault:"30"`

	DoSeed bool `env:"LUMINA_DO_SEED" envDefault:"false"`
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

// MailEnabled returns true if outgoing mail is configured.
func (c Config) MailEnabled() bool {
	return c.ResendAPIKey != ""
}

// DSN returns the data source for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "mysql" {
		return c.DBDSN
	}
	return c.DBPath
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("LUMINA_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("LUMINA_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return errors.New("LUMINA_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	switch c.DBDriver {
	case "sqlite":
	case "mysql":
		if c.DBDSN == "" {
			return errors.New("LUMINA_DB_DSN is required when LUMINA_DB_DRIVER=mysql")
		}
	default:
		return fmt.Errorf("LUMINA_DB_DRIVER must be sqlite or mysql, got %q", c.DBDriver)
	}

	if c.DBTimeout <= 0 {
		return errors.New("LUMINA_DB_TIMEOUT must be positive")
	}
	return nil
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
