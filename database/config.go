package database

import (
	"fmt"
	"strings"
	"time"
)

// DefaultConnectionName is the connection string services share.
const DefaultConnectionName = "eCommerceConnection"

// Config holds database connection configuration.
type Config struct {
	// Enabled controls whether the database component is active.
	Enabled bool `mapstructure:"enabled"`

	// Driver selects the GORM dialector: sqlserver, postgres or sqlite.
	Driver string `mapstructure:"driver"`

	// ConnectionStrings holds named connection strings. Lookups are
	// case-insensitive because configuration keys are lowercased on load.
	ConnectionStrings map[string]string `mapstructure:"connection_strings"`

	// ConnectionName selects the entry of ConnectionStrings to use.
	ConnectionName string `mapstructure:"connection_name"`

	// DSN, when set, is used instead of ConnectionStrings.
	DSN string `mapstructure:"dsn"`

	// MaxOpenConns sets the maximum number of open connections to the database.
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// MaxIdleConns sets the maximum number of idle connections in the pool.
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// ConnMaxLifetime is the maximum time a connection may be reused (e.g. "1h", "30m").
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`

	// ConnMaxIdleTime is the maximum time a connection may sit idle (e.g. "5m").
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`

	// RetryOnFailure retries operations that fail with a transient error.
	// Nil means enabled.
	RetryOnFailure *bool `mapstructure:"retry_on_failure"`

	// MaxRetries is the number of retries after the first attempt, used for
	// both connecting and transient operation failures.
	MaxRetries int `mapstructure:"max_retries"`

	// MaxRetryDelay caps the delay between two attempts (e.g. "30s").
	MaxRetryDelay string `mapstructure:"max_retry_delay"`

	// AutoMigrate controls whether GORM auto-migration runs on startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`

	// SlowQueryThreshold is the duration above which queries are logged as slow (e.g. "200ms").
	SlowQueryThreshold string `mapstructure:"slow_query_threshold"`

	// LogLevel is the GORM log level: silent, error, warn or info.
	LogLevel string `mapstructure:"log_level"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLServer
	}
	if c.ConnectionName == "" {
		c.ConnectionName = DefaultConnectionName
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "1h"
	}
	if c.ConnMaxIdleTime == "" {
		c.ConnMaxIdleTime = "5m"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 6
	}
	if c.MaxRetryDelay == "" {
		c.MaxRetryDelay = "30s"
	}
	if c.SlowQueryThreshold == "" {
		c.SlowQueryThreshold = "200ms"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks that required fields are present and parseable.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if !isSupportedDriver(c.Driver) {
		return fmt.Errorf("database driver %q is not supported (use %s, %s or %s)",
			c.Driver, DriverSQLServer, DriverPostgres, DriverSQLite)
	}
	if _, err := c.ResolveDSN(); err != nil {
		return err
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max_open_conns must be > 0")
	}
	if c.MaxIdleConns <= 0 {
		return fmt.Errorf("max_idle_conns must be > 0")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns (%d) must be <= max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	for name, value := range map[string]string{
		"conn_max_lifetime":    c.ConnMaxLifetime,
		"conn_max_idle_time":   c.ConnMaxIdleTime,
		"max_retry_delay":      c.MaxRetryDelay,
		"slow_query_threshold": c.SlowQueryThreshold,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be > 0")
	}
	return nil
}

// ResolveDSN returns DSN when set, otherwise the connection string named by
// ConnectionName, matched case-insensitively.
func (c *Config) ResolveDSN() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	name := c.ConnectionName
	if name == "" {
		name = DefaultConnectionName
	}
	if dsn, ok := c.ConnectionStrings[name]; ok && dsn != "" {
		return dsn, nil
	}
	for key, dsn := range c.ConnectionStrings {
		if strings.EqualFold(key, name) && dsn != "" {
			return dsn, nil
		}
	}
	return "", fmt.Errorf("connection string %q is not configured", name)
}

// RetryEnabled reports whether transient failures are retried.
func (c *Config) RetryEnabled() bool {
	return c.RetryOnFailure == nil || *c.RetryOnFailure
}

func (c *Config) maxRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.MaxRetryDelay)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
