package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jpl-au/sqlitepdo/internal/config"
	"github.com/jpl-au/sqlitepdo/internal/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points both scopes at temporary directories.
func isolate(t *testing.T) (home, work string) {
	t.Helper()
	home, work = t.TempDir(), t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(work)
	return home, work
}

func TestDefaults(t *testing.T) {
	var cfg config.Config
	require.NoError(t, cfg.Validate())

	assert.Equal(t, map[string]string{
		"database.path":         "",
		"database.busy_timeout": "5s",
		"database.read_only":    "false",
		"wal.enabled":           "true",
		"wal.synchronous":       "",
		"wal.max_size":          "0",
		"wal.interval":          "5s",
		"pool.min":              "2",
		"pool.max":              "10",
		"pool.idle_timeout":     "0s",
		"debug":                 "false",
	}, cfg.All())

	for _, key := range config.ValidKeys() {
		assert.False(t, cfg.IsSet(key), key)
	}
}

func TestSetGet(t *testing.T) {
	var cfg config.Config
	for key, value := range map[string]string{
		"database.path":         "app.db",
		"database.busy_timeout": "250ms",
		"database.read_only":    "TRUE",
		"wal.enabled":           "false",
		"wal.synchronous":       "normal",
		"wal.max_size":          "0.5",
		"wal.interval":          "1m",
		"pool.min":              "0",
		"pool.max":              "3",
		"pool.idle_timeout":     "30s",
		"debug":                 "true",
	} {
		require.NoError(t, cfg.Set(key, value), key)
		assert.True(t, cfg.IsSet(key), key)
	}

	for key, want := range map[string]string{
		"database.path":         "app.db",
		"database.busy_timeout": "250ms",
		"database.read_only":    "true",
		"wal.enabled":           "false",
		"wal.synchronous":       "NORMAL",
		"wal.max_size":          "0.5",
		"wal.interval":          "1m0s",
		"pool.min":              "0",
		"pool.max":              "3",
		"pool.idle_timeout":     "30s",
		"debug":                 "true",
	} {
		got, err := cfg.Get(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
	}
	require.NoError(t, cfg.Validate())
}

func TestSetRejects(t *testing.T) {
	var cfg config.Config
	for key, value := range map[string]string{
		"database.busy_timeout": "soon",
		"database.read_only":    "yes",
		"wal.synchronous":       "fast",
		"wal.max_size":          "-1",
		"wal.interval":          "0s",
		"pool.min":              "-1",
		"pool.max":              "0",
		"debug":                 "1",
	} {
		assert.ErrorIs(t, cfg.Set(key, value), config.ErrInvalidValue, key)
	}

	assert.ErrorIs(t, cfg.Set("author.name", "x"), config.ErrUnknownKey)
	_, err := cfg.Get("author.name")
	assert.ErrorIs(t, err, config.ErrUnknownKey)
	assert.False(t, config.IsValidKey("author.name"))
}

func TestValidate_PoolBounds(t *testing.T) {
	var cfg config.Config
	require.NoError(t, cfg.Set("pool.min", "5"))
	require.NoError(t, cfg.Set("pool.max", "2"))
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidValue)
}

func TestSaveLoad_Scopes(t *testing.T) {
	home, _ := isolate(t)

	global := &config.Config{}
	require.NoError(t, global.Set("wal.max_size", "64"))
	require.NoError(t, global.SaveScope(config.ScopeGlobal))
	assert.FileExists(t, filepath.Join(home, ".sqlitepdo", "config.yaml"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.ScopeGlobal, cfg.Scope())
	assert.Equal(t, 64.0, cfg.WALMaxSize())

	local := &config.Config{}
	require.NoError(t, local.Set("wal.interval", "2s"))
	require.NoError(t, local.SaveScope(config.ScopeLocal))

	cfg, err = config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.ScopeLocal, cfg.Scope())
	assert.Equal(t, 2*time.Second, cfg.WALInterval())
	assert.Zero(t, cfg.WALMaxSize(), "local scope replaces global")

	require.NoError(t, cfg.Set("debug", "true"))
	require.NoError(t, cfg.Save())
	cfg, err = config.LoadScope(config.ScopeLocal)
	require.NoError(t, err)
	assert.True(t, cfg.DebugEnabled())
	assert.Equal(t, 2*time.Second, cfg.WALInterval())
}

func TestLoad_Missing(t *testing.T) {
	isolate(t)
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.ScopeGlobal, cfg.Scope())
	assert.True(t, cfg.WALEnabled())
}

func TestLoad_Malformed(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(".sqlitepdo", 0755))
	require.NoError(t, os.WriteFile(config.LocalPath(), []byte("wal: [unclosed"), 0644))

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed config file")
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(".sqlitepdo", 0755))
	require.NoError(t, os.WriteFile(config.LocalPath(), []byte("wal:\n  synchronous: sometimes\n"), 0644))

	_, err := config.Load()
	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestDriverOptions(t *testing.T) {
	var cfg config.Config
	require.NoError(t, cfg.Set("database.path", "from-config.db"))
	require.NoError(t, cfg.Set("wal.synchronous", "FULL"))
	require.NoError(t, cfg.Set("wal.max_size", "16"))
	require.NoError(t, cfg.Set("pool.max", "4"))
	require.NoError(t, cfg.Set("debug", "true"))

	opts, pool, attrs, err := cfg.DriverOptions("")
	require.NoError(t, err)
	assert.Equal(t, "from-config.db", opts.Path)
	assert.True(t, opts.WAL)
	assert.Equal(t, driver.SyncFull, opts.WALSynchronous)
	assert.Equal(t, 16.0, opts.WALMaxSize)
	assert.Equal(t, 5*time.Second, opts.WALInterval)
	assert.Equal(t, 5*time.Second, opts.BusyTimeout)
	assert.Equal(t, 2, pool.Min)
	assert.Equal(t, 4, pool.Max)
	assert.True(t, attrs.Debug)

	opts, _, _, err = cfg.DriverOptions("flag.db")
	require.NoError(t, err)
	assert.Equal(t, "flag.db", opts.Path)

	opts, _, _, err = (&config.Config{}).DriverOptions("")
	require.NoError(t, err)
	assert.Equal(t, driver.MemoryPath, opts.Path)
}
