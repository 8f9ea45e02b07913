// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

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
  - DI-Friendly: Passed to core components (DB, Redis, asset store) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Backend Selectors

const (
	// DriverPostgres selects the pgx-backed repository.
	DriverPostgres = "postgres"
	// DriverSQLite selects the embedded modernc SQLite repository.
	DriverSQLite = "sqlite"

	// AssetsLocal stores uploads on the local filesystem.
	AssetsLocal = "local"
	// AssetsGCS stores uploads in a Google Cloud Storage bucket.
	AssetsGCS = "gcs"
)

// # Configuration Schema

// Config holds all runtime configuration for the storybook API server and CLI.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL or SQLite)
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`

	// PostgreSQL pool sizing. Ignored by SQLite.
	DatabaseMaxConns int32 `env:"DATABASE_MAX_CONNS" envDefault:"25"`
	DatabaseMinConns int32 `env:"DATABASE_MIN_CONNS" envDefault:"2"`

	// Key-Value Cache (Redis). Empty disables the published storybook cache.
	RedisURL string `env:"REDIS_URL"`

	// Cryptographic keys for editor session tokens. The server needs the
	// public key; the private key is only used by the CLI to issue tokens.
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`

	// Asset Store
	AssetDriver     string `env:"ASSET_DRIVER"      envDefault:"local"`
	AssetRoot       string `env:"ASSET_ROOT"        envDefault:"./storage/public"`
	GCSBucket       string `env:"GCS_BUCKET"`
	GCSEmulatorHost string `env:"GCS_EMULATOR_HOST"`

	// Tracing (OTLP/HTTP). Empty disables export.
	OTELEndpoint string `env:"OTEL_ENDPOINT"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"storybook.app"`
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

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects unknown backend selectors before anything is dialled.
func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.AssetDriver {
	case AssetsLocal:
	case AssetsGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("config: GCS_BUCKET is required when ASSET_DRIVER=gcs")
		}
	default:
		return fmt.Errorf("config: unsupported ASSET_DRIVER %q", c.AssetDriver)
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginSuffix returns the host suffix trusted by the CORS middleware in production.
func (c *Config) OriginSuffix() string {
	return c.AllowedOriginSuffix
}
