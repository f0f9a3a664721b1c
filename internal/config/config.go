// Package config loads the profiletree server configuration from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// State backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	FHIRVersion string `mapstructure:"FHIR_VERSION"`

	// Profile source: exactly one of ProfileDir, ProfileBaseURL and
	// ProfilePackage.
	ProfileDir     string        `mapstructure:"PROFILE_DIR"`
	ProfileBaseURL string        `mapstructure:"PROFILE_BASE_URL"`
	ProfilePackage string        `mapstructure:"PROFILE_PACKAGE"`
	HTTPTimeout    time.Duration `mapstructure:"HTTP_TIMEOUT"`
	CacheSize      int           `mapstructure:"CACHE_SIZE"`
	Watch          bool          `mapstructure:"WATCH"`

	// Expanded-state persistence.
	StateBackend string `mapstructure:"STATE_BACKEND"`
	StateDir     string `mapstructure:"STATE_DIR"`
	SQLitePath   string `mapstructure:"SQLITE_PATH"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	StorageKey   string `mapstructure:"STORAGE_KEY"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "FHIR_VERSION",
	"PROFILE_DIR", "PROFILE_BASE_URL", "PROFILE_PACKAGE", "HTTP_TIMEOUT", "CACHE_SIZE", "WATCH",
	"STATE_BACKEND", "STATE_DIR", "SQLITE_PATH", "DATABASE_URL", "STORAGE_KEY",
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("FHIR_VERSION", "R4")
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("CACHE_SIZE", 64)
	v.SetDefault("WATCH", false)
	v.SetDefault("STATE_BACKEND", BackendMemory)
	v.SetDefault("STORAGE_KEY", "profiletree.expanded")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that exactly one profile source is configured and that
// the chosen state backend has what it needs.
func (c *Config) Validate() error {
	sources := 0
	for _, s := range []string{c.ProfileDir, c.ProfileBaseURL, c.ProfilePackage} {
		if s != "" {
			sources++
		}
	}
	switch sources {
	case 0:
		return errors.New("one of PROFILE_DIR, PROFILE_BASE_URL or PROFILE_PACKAGE is required")
	case 1:
	default:
		return errors.New("PROFILE_DIR, PROFILE_BASE_URL and PROFILE_PACKAGE are mutually exclusive")
	}
	if c.Watch && c.ProfileDir == "" {
		return errors.New("WATCH requires PROFILE_DIR")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("CACHE_SIZE must not be negative, got %d", c.CacheSize)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}

	switch c.StateBackend {
	case BackendMemory:
	case BackendFile:
		if c.StateDir == "" {
			return errors.New("STATE_DIR is required when STATE_BACKEND is \"file\"")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STATE_BACKEND is \"sqlite\"")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STATE_BACKEND is \"postgres\"")
		}
	default:
		return fmt.Errorf("STATE_BACKEND must be one of memory, file, sqlite, postgres; got %q", c.StateBackend)
	}
	return nil
}
