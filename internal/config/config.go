// Package config handles loading runtime configuration for the scorebook server.
// Values (the listen address, the database location, how often writes are flushed)
// come from environment variables rather than being hardcoded, so the same binary
// runs on a phone-side shell, a laptop, or a test machine by changing only the
// environment.
package config

import (
	"fmt"
	"os"
	"time"

	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	// This is convenient in development: put overrides in .env and they're picked up
	// automatically. Real environment variables always win over the file.
	"github.com/joho/godotenv"
)

// Defaults used when a variable is unset or empty.
const (
	DefaultPort          = "8080"
	DefaultHost          = "127.0.0.1" // Loopback only: the scorebook serves this device
	DefaultDatabaseURL   = "file:scorebook.db"
	DefaultFlushInterval = time.Second
	DefaultEnv           = "development"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port          string        // The TCP port the HTTP server listens on (e.g., "8080")
	Host          string        // The interface to bind; keep it on loopback for local use
	DatabaseURL   string        // "file:..." opens SQLite, "postgres://..." opens PostgreSQL
	FlushInterval time.Duration // How often queued writes are pushed to the database
	Env           string        // The runtime environment: "development" or "production"
}

// Addr returns the host:port pair the server listens on.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Load reads configuration from environment variables and returns a populated Config.
// It first tries to load a .env file for local development; a missing file is fine.
// The only error is an unparsable FLUSH_INTERVAL, because silently flushing at the
// wrong rate is worse than refusing to start.
func Load() (*Config, error) {
	// The error is intentionally ignored: a missing .env is the normal case outside development.
	_ = godotenv.Load()

	flush := DefaultFlushInterval
	if v := os.Getenv("FLUSH_INTERVAL"); v != "" {
		// time.ParseDuration accepts values like "500ms", "2s" or "1m".
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse FLUSH_INTERVAL %q: %w", v, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("FLUSH_INTERVAL must be positive, got %s", d)
		}
		flush = d
	}

	return &Config{
		Port:          getenv("PORT", DefaultPort),
		Host:          getenv("HOST", DefaultHost),
		DatabaseURL:   getenv("DATABASE_URL", DefaultDatabaseURL),
		FlushInterval: flush,
		Env:           getenv("ENV", DefaultEnv),
	}, nil
}

// getenv returns the value of key, or fallback when it is unset or empty.
func getenv(key, fallback string) string {
	// os.Getenv returns "" both for unset and for empty variables; we treat them the same.
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
