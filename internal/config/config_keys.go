// config_keys.go provides key-value access to configuration settings.
//
// Separated from config.go to isolate the key enumeration and string-based
// get/set logic. This separation allows config.go to focus on YAML structure
// and loading, while this file handles the MCP and CLI interface where config
// is accessed by string keys (e.g., "wal.max_size").
//
// Design: Pointers are used for optional fields so we can distinguish between
// "not set" (nil) and "explicitly set to zero/false". This enables proper
// defaulting - we only apply defaults when the user hasn't set a value.

package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jpl-au/sqlitepdo/internal/driver"
)

// ValidKeys returns all valid configuration keys.
func ValidKeys() []string {
	return []string{
		"database.path", "database.busy_timeout", "database.read_only",
		"wal.enabled", "wal.synchronous", "wal.max_size", "wal.interval",
		"pool.min", "pool.max", "pool.idle_timeout",
		"debug",
	}
}

// IsValidKey returns true if the key is a valid configuration key.
func IsValidKey(key string) bool {
	return slices.Contains(ValidKeys(), key)
}

// Get returns the value of a configuration key as a string.
func (c *Config) Get(key string) (string, error) {
	if !IsValidKey(key) {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return c.All()[key], nil
}

// Set sets the value of a configuration key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "database.path":
		c.Database.Path = value
	case "database.busy_timeout":
		d, err := parseDuration(key, value, true)
		if err != nil {
			return err
		}
		c.Database.BusyTimeout = &d
	case "database.read_only":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.Database.ReadOnly = &b
	case "wal.enabled":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.WAL.Enabled = &b
	case "wal.synchronous":
		level, err := driver.ParseSynchronous(value)
		if err != nil {
			return fmt.Errorf("%w: wal.synchronous must be one of OFF, NORMAL, FULL, EXTRA", ErrInvalidValue)
		}
		c.WAL.Synchronous = string(level)
	case "wal.max_size":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: wal.max_size must be a non-negative number of megabytes", ErrInvalidValue)
		}
		c.WAL.MaxSize = &f
	case "wal.interval":
		d, err := parseDuration(key, value, false)
		if err != nil {
			return err
		}
		c.WAL.Interval = &d
	case "pool.min":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: pool.min must be a non-negative integer", ErrInvalidValue)
		}
		c.Pool.Min = &n
	case "pool.max":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: pool.max must be a positive integer", ErrInvalidValue)
		}
		c.Pool.Max = &n
	case "pool.idle_timeout":
		d, err := parseDuration(key, value, true)
		if err != nil {
			return err
		}
		c.Pool.IdleTimeout = &d
	case "debug":
		b, err := parseBool(key, value)
		if err != nil {
			return err
		}
		c.Debug = &b
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// All returns all configuration values as a map.
func (c *Config) All() map[string]string {
	return map[string]string{
		"database.path":         c.Database.Path,
		"database.busy_timeout": c.BusyTimeout().String(),
		"database.read_only":    strconv.FormatBool(c.ReadOnly()),
		"wal.enabled":           strconv.FormatBool(c.WALEnabled()),
		"wal.synchronous":       c.WAL.Synchronous,
		"wal.max_size":          strconv.FormatFloat(c.WALMaxSize(), 'f', -1, 64),
		"wal.interval":          c.WALInterval().String(),
		"pool.min":              strconv.Itoa(c.PoolMin()),
		"pool.max":              strconv.Itoa(c.PoolMax()),
		"pool.idle_timeout":     c.PoolIdleTimeout().String(),
		"debug":                 strconv.FormatBool(c.DebugEnabled()),
	}
}

// IsSet returns true if the key has an explicit value (not just defaults).
func (c *Config) IsSet(key string) bool {
	switch key {
	case "database.path":
		return c.Database.Path != ""
	case "database.busy_timeout":
		return c.Database.BusyTimeout != nil
	case "database.read_only":
		return c.Database.ReadOnly != nil
	case "wal.enabled":
		return c.WAL.Enabled != nil
	case "wal.synchronous":
		return c.WAL.Synchronous != ""
	case "wal.max_size":
		return c.WAL.MaxSize != nil
	case "wal.interval":
		return c.WAL.Interval != nil
	case "pool.min":
		return c.Pool.Min != nil
	case "pool.max":
		return c.Pool.Max != nil
	case "pool.idle_timeout":
		return c.Pool.IdleTimeout != nil
	case "debug":
		return c.Debug != nil
	default:
		return false
	}
}

func parseBool(key, value string) (bool, error) {
	v := strings.ToLower(value)
	if v != "true" && v != "false" {
		return false, fmt.Errorf("%w: %s must be true or false", ErrInvalidValue, key)
	}
	return v == "true", nil
}

func parseDuration(key, value string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 || (!allowZero && d == 0) {
		return 0, fmt.Errorf("%w: %s must be a duration such as 5s or 1m", ErrInvalidValue, key)
	}
	return d, nil
}
