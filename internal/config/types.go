// Package config loads the persistence-engine environment: which
// driver to use, how to reach the database, and whether managed
// migrations run at build time. The unit-of-work core itself is
// configuration-free; everything here is pre-wired engine state.
package config

import (
	"fmt"

	"github.com/leapstack-labs/leapstore/pkg/driver"
)

// Environment holds the engine environment configuration.
type Environment struct {
	// Driver names the registered database driver (sqlite, postgres,
	// duckdb).
	Driver string `koanf:"driver"`

	// DSN is the full data source name. When set, the individual
	// connection fields below are ignored.
	DSN string `koanf:"dsn"`

	Database string            `koanf:"database"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Options  map[string]string `koanf:"options"`

	Migrations MigrationsConfig `koanf:"migrations"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// MigrationsConfig controls goose migrations applied when the session
// factory is built.
type MigrationsConfig struct {
	// Dir is the directory holding goose migration files. Empty
	// disables migrations.
	Dir string `koanf:"dir"`

	// Auto applies pending migrations during factory build.
	Auto bool `koanf:"auto"`
}

// Default configuration values.
const (
	DefaultDriver   = "sqlite"
	DefaultLogLevel = "info"
)

// DriverConfig converts the environment to driver connection settings.
func (e *Environment) DriverConfig() driver.Config {
	return driver.Config{
		DSN:      e.DSN,
		Database: e.Database,
		Host:     e.Host,
		Port:     e.Port,
		User:     e.User,
		Password: e.Password,
		Options:  e.Options,
	}
}

// Validate checks the environment for obvious misconfiguration.
func (e *Environment) Validate() error {
	if e.Driver == "" {
		return fmt.Errorf("driver is required")
	}
	if e.Migrations.Auto && e.Migrations.Dir == "" {
		return fmt.Errorf("migrations.auto requires migrations.dir")
	}
	return nil
}
