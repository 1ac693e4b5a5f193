// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

// Package config provides layered configuration for Newsync using Koanf v2.
//
// Precedence (highest wins): environment variables > YAML config file >
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Newsync server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Sync     SyncConfig     `koanf:"sync"`
	Store    StoreConfig    `koanf:"store"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// UpstreamConfig holds settings for the newsletter backend API.
type UpstreamConfig struct {
	// URL is the base URL of the newsletter backend (required).
	URL string `koanf:"url" validate:"required,url"`

	// Timeout bounds a single backend request.
	Timeout time.Duration `koanf:"timeout"`

	// RetryDelay is the fixed delay before the single network-error retry.
	RetryDelay time.Duration `koanf:"retry_delay"`

	// APIKey authenticates Newsync against the backend, if set.
	APIKey string `koanf:"api_key"`
}

// SyncConfig holds reconciliation behavior settings.
type SyncConfig struct {
	// MaxSubscriptions is the per-user category cap.
	MaxSubscriptions int `koanf:"max_subscriptions" validate:"min=1"`

	// SettleDelay is how long after a successful toggle the second,
	// eventual-consistency refresh fires.
	SettleDelay time.Duration `koanf:"settle_delay"`

	// RefreshInterval is the background refresh period for active sessions.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// RefreshBurst caps how many refreshes the rate limiter allows in a burst.
	RefreshBurst int `koanf:"refresh_burst" validate:"min=1"`
}

// StoreConfig holds BadgerDB snapshot store settings.
type StoreConfig struct {
	// Path is the BadgerDB directory. Empty selects an in-memory store.
	Path string `koanf:"path"`

	// SnapshotTTL bounds how long a persisted snapshot may serve as
	// fallback data before it is considered too stale.
	SnapshotTTL time.Duration `koanf:"snapshot_ttl"`
}

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	// JWTSecret signs session tokens (HS256). Required in production.
	JWTSecret string `koanf:"jwt_secret" validate:"omitempty,min=32"`

	// SessionTimeout is how long issued session tokens stay valid.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// AdminUsername and AdminPasswordHash (bcrypt) gate the login endpoint.
	AdminUsername     string `koanf:"admin_username"`
	AdminPasswordHash string `koanf:"admin_password_hash"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CORSOrigins lists allowed origins for browser clients.
	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// validate is the shared validator instance.
var validate = validator.New()

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			f := invalid[0]
			return fmt.Errorf("config field %s failed %q validation", f.Namespace(), f.Tag())
		}
		return err
	}

	if c.Security.AdminUsername != "" && c.Security.AdminPasswordHash == "" {
		return fmt.Errorf("security.admin_password_hash is required when admin_username is set")
	}
	if c.Sync.SettleDelay <= 0 {
		return fmt.Errorf("sync.settle_delay must be positive")
	}
	return nil
}
