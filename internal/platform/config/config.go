// Copyright (c) 2026 Eventhub. All rights reserved.
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
  - DI-Friendly: Passed to core components (DB, Redis, workers) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/eventhub/internal/platform/constants"
)

// # Configuration Schema

// Config holds all runtime configuration for the eventhub service.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Ingestion
	LockTimeout      time.Duration `env:"LOCK_TIMEOUT"       envDefault:"5s"`
	IngestMaxWorkers int           `env:"INGEST_MAX_WORKERS" envDefault:"20"`

	// Location resolution
	CountryCacheTTL time.Duration `env:"COUNTRY_CACHE_TTL" envDefault:"6h"`
	CityRulesPath   string        `env:"CITY_RULES_PATH"`

	// Statistics
	ClusterThresholdKm float64 `env:"CLUSTER_THRESHOLD_KM" envDefault:"20"`

	// Cross-Origin Resource Sharing
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`
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

// validate rejects values that parse but cannot work at runtime.
func (c *Config) validate() error {
	if c.LockTimeout <= 0 {
		c.LockTimeout = constants.DefaultLockTimeout
	}
	if c.CountryCacheTTL <= 0 {
		c.CountryCacheTTL = constants.DefaultCountryCacheTTL
	}
	if c.ClusterThresholdKm <= 0 {
		return fmt.Errorf("config: CLUSTER_THRESHOLD_KM must be positive, got %v", c.ClusterThresholdKm)
	}
	if c.IngestMaxWorkers < 1 {
		return fmt.Errorf("config: INGEST_MAX_WORKERS must be at least 1, got %d", c.IngestMaxWorkers)
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

// AllowedOrigins returns the origins admitted by CORS outside development.
func (c *Config) AllowedOrigins() []string {
	return c.ExtraOrigins
}
