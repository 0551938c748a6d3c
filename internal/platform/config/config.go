// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (upstream client, queues) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Vendaro API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL): durable mutation/upload queue
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis): persisted catalog cache, replay leader lock
	RedisURL string `env:"REDIS_URL,required"`

	// Upstream marketplace REST API (WordPress/WooCommerce-compatible).
	// Example: https://market.example.com/wp-json
	UpstreamBaseURL string `env:"UPSTREAM_BASE_URL,required"`

	// UpstreamQuickTimeout bounds proxied single-entity calls.
	UpstreamQuickTimeout time.Duration `env:"UPSTREAM_QUICK_TIMEOUT" envDefault:"8s"`

	// UpstreamBulkTimeout bounds full paginated catalog walks.
	UpstreamBulkTimeout time.Duration `env:"UPSTREAM_BULK_TIMEOUT" envDefault:"45s"`

	// VendorJWTSecret verifies the HMAC signature of vendor bearer tokens
	// issued by the upstream WordPress JWT plugin.
	VendorJWTSecret string `env:"VENDOR_JWT_SECRET,required"`

	// UploadSpoolDir is where queued media upload bodies are spooled until
	// they replay against the upstream.
	UploadSpoolDir string `env:"UPLOAD_SPOOL_DIR" envDefault:"./data/uploads"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Upstream URLs are joined with relative resource paths, so a trailing
	// slash would produce double slashes in every request.
	cfg.UpstreamBaseURL = strings.TrimRight(cfg.UpstreamBaseURL, "/")

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
