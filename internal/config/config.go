// Package config provides reading and writing of sqlitepdo configuration.
// Supports both global (~/.sqlitepdo/config.yaml) and local (.sqlitepdo/config.yaml).
// Reading: uses local if it exists, otherwise global.
// Writing: defaults to global, use --local for local.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jpl-au/sqlitepdo/internal/driver"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoConfigPath is returned when the config path cannot be determined.
	ErrNoConfigPath = errors.New("cannot determine config path")
	// ErrUnknownKey is returned when getting/setting an unknown config key.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrInvalidValue is returned when a config value is invalid.
	ErrInvalidValue = errors.New("invalid config value")
)

// Scope represents the configuration scope (global or local).
type Scope int

const (
	// ScopeGlobal is user-wide config in ~/.sqlitepdo/config.yaml (default)
	ScopeGlobal Scope = iota
	// ScopeLocal is directory-specific config in .sqlitepdo/config.yaml
	ScopeLocal
)

// Database holds connection options.
type Database struct {
	Path        string         `yaml:"path,omitempty"`
	BusyTimeout *time.Duration `yaml:"busy_timeout,omitempty"`
	ReadOnly    *bool          `yaml:"read_only,omitempty"`
}

// WAL holds journal and guardian options.
type WAL struct {
	Enabled     *bool          `yaml:"enabled,omitempty"`
	Synchronous string         `yaml:"synchronous,omitempty"`
	MaxSize     *float64       `yaml:"max_size,omitempty"`
	Interval    *time.Duration `yaml:"interval,omitempty"`
}

// Pool holds connection pool sizing.
type Pool struct {
	Min         *int           `yaml:"min,omitempty"`
	Max         *int           `yaml:"max,omitempty"`
	IdleTimeout *time.Duration `yaml:"idle_timeout,omitempty"`
}

// Defaults applied when not configured.
const (
	DefaultWALEnabled  = true
	DefaultWALInterval = 5 * time.Second
	DefaultBusyTimeout = driver.DefaultBusyTimeout
	DefaultPoolMin     = 2
	DefaultPoolMax     = 10
)

// Config contains configuration for sqlitepdo.
type Config struct {
	Database Database `yaml:"database,omitempty"`
	WAL      WAL      `yaml:"wal,omitempty"`
	Pool     Pool     `yaml:"pool,omitempty"`
	Debug    *bool    `yaml:"debug,omitempty"`

	// path is the file this config was loaded from (for Save)
	path  string
	scope Scope
}

// Validate checks that all configured values are within acceptable bounds.
// Returns nil if all values are valid or not set (defaults will be used).
func (c *Config) Validate() error {
	if _, err := driver.ParseSynchronous(c.WAL.Synchronous); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	if c.WAL.MaxSize != nil && *c.WAL.MaxSize < 0 {
		return fmt.Errorf("%w: wal.max_size must not be negative, got %g", ErrInvalidValue, *c.WAL.MaxSize)
	}
	if c.WAL.Interval != nil && *c.WAL.Interval <= 0 {
		return fmt.Errorf("%w: wal.interval must be positive, got %s", ErrInvalidValue, *c.WAL.Interval)
	}
	if c.Database.BusyTimeout != nil && *c.Database.BusyTimeout < 0 {
		return fmt.Errorf("%w: database.busy_timeout must not be negative, got %s", ErrInvalidValue, *c.Database.BusyTimeout)
	}
	if c.Pool.IdleTimeout != nil && *c.Pool.IdleTimeout < 0 {
		return fmt.Errorf("%w: pool.idle_timeout must not be negative, got %s", ErrInvalidValue, *c.Pool.IdleTimeout)
	}
	if c.PoolMin() < 0 {
		return fmt.Errorf("%w: pool.min must not be negative, got %d", ErrInvalidValue, c.PoolMin())
	}
	if c.PoolMax() < 1 {
		return fmt.Errorf("%w: pool.max must be at least 1, got %d", ErrInvalidValue, c.PoolMax())
	}
	if c.PoolMin() > c.PoolMax() {
		return fmt.Errorf("%w: pool.min (%d) exceeds pool.max (%d)", ErrInvalidValue, c.PoolMin(), c.PoolMax())
	}
	return nil
}

// BusyTimeout returns how long a connection waits on a locked database (defaults to 5s).
func (c *Config) BusyTimeout() time.Duration {
	if c.Database.BusyTimeout == nil {
		return DefaultBusyTimeout
	}
	return *c.Database.BusyTimeout
}

// ReadOnly returns whether the database is opened read-only (defaults to false).
func (c *Config) ReadOnly() bool {
	return c.Database.ReadOnly != nil && *c.Database.ReadOnly
}

// WALEnabled returns whether WAL journal mode is requested (defaults to true).
func (c *Config) WALEnabled() bool {
	if c.WAL.Enabled == nil {
		return DefaultWALEnabled
	}
	return *c.WAL.Enabled
}

// WALMaxSize returns the guardian threshold in megabytes (defaults to 0, guardian off).
func (c *Config) WALMaxSize() float64 {
	if c.WAL.MaxSize == nil {
		return 0
	}
	return *c.WAL.MaxSize
}

// WALInterval returns the guardian polling interval (defaults to 5s).
func (c *Config) WALInterval() time.Duration {
	if c.WAL.Interval == nil {
		return DefaultWALInterval
	}
	return *c.WAL.Interval
}

// PoolMin returns the number of idle connections kept open (defaults to 2).
func (c *Config) PoolMin() int {
	if c.Pool.Min == nil {
		return DefaultPoolMin
	}
	return *c.Pool.Min
}

// PoolMax returns the maximum number of open connections (defaults to 10).
func (c *Config) PoolMax() int {
	if c.Pool.Max == nil {
		return DefaultPoolMax
	}
	return *c.Pool.Max
}

// PoolIdleTimeout returns how long an idle connection lives (defaults to 0, forever).
func (c *Config) PoolIdleTimeout() time.Duration {
	if c.Pool.IdleTimeout == nil {
		return 0
	}
	return *c.Pool.IdleTimeout
}

// DebugEnabled returns whether statements are logged (defaults to false).
func (c *Config) DebugEnabled() bool {
	return c.Debug != nil && *c.Debug
}

// DriverOptions builds driver settings from the configuration. A non-empty
// path overrides database.path; with neither set the database is in memory.
// The caller supplies the logger and any callbacks.
func (c *Config) DriverOptions(path string) (driver.Options, driver.PoolOptions, driver.Attributes, error) {
	if path == "" {
		path = c.Database.Path
	}
	if path == "" {
		path = driver.MemoryPath
	}
	level, err := driver.ParseSynchronous(c.WAL.Synchronous)
	if err != nil {
		return driver.Options{}, driver.PoolOptions{}, driver.Attributes{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	opts := driver.Options{
		Path:           path,
		WAL:            c.WALEnabled(),
		WALSynchronous: level,
		WALMaxSize:     c.WALMaxSize(),
		WALInterval:    c.WALInterval(),
		BusyTimeout:    c.BusyTimeout(),
		ReadOnly:       c.ReadOnly(),
	}
	pool := driver.PoolOptions{
		Min:         c.PoolMin(),
		Max:         c.PoolMax(),
		IdleTimeout: c.PoolIdleTimeout(),
	}
	return opts, pool, driver.Attributes{Debug: c.DebugEnabled()}, nil
}

// LocalPath returns the path to the local config file.
func LocalPath() string {
	return filepath.Join(".sqlitepdo", "config.yaml")
}

// GlobalPath returns the path to the global (user) config file: ~/.sqlitepdo/config.yaml
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sqlitepdo", "config.yaml")
}

// Load reads configuration: uses local if it exists, otherwise global.
func Load() (*Config, error) {
	if _, err := os.Stat(LocalPath()); err == nil {
		return LoadScope(ScopeLocal)
	}
	return LoadScope(ScopeGlobal)
}

// LoadScope reads configuration from a specific scope.
func LoadScope(scope Scope) (*Config, error) {
	path := pathForScope(scope)
	if path == "" {
		return &Config{scope: scope}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{path: path, scope: scope}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("malformed config file %s: %w\n\nTo fix: edit the file to correct the YAML syntax, or delete it to use defaults", path, err)
	}
	cfg.path = path
	cfg.scope = scope

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Scope returns which scope this config was loaded from.
func (c *Config) Scope() Scope {
	return c.scope
}

// Save writes the configuration to its original location.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = pathForScope(c.scope)
	}
	if c.path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(c.path)
}

// SaveScope writes the configuration to the specified scope.
func (c *Config) SaveScope(scope Scope) error {
	path := pathForScope(scope)
	if path == "" {
		return ErrNoConfigPath
	}
	return c.saveToPath(path)
}

// saveToPath writes configuration to a specific filesystem path.
// Creates parent directories as needed with mode 0755.
func (c *Config) saveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// pathForScope returns the filesystem path for a given scope.
func pathForScope(scope Scope) string {
	switch scope {
	case ScopeLocal:
		return LocalPath()
	case ScopeGlobal:
		return GlobalPath()
	default:
		return ""
	}
}
