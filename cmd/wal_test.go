package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAL(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		env := newTestEnv(t)
		env.run("config", "wal.max_size", "16")

		out := env.run("wal", "status")
		env.contains(out, "Journal mode: wal")
		env.contains(out, "WAL guardian: watching")
		env.contains(out, "threshold: 16 MiB")
	})

	t.Run("status json", func(t *testing.T) {
		env := newTestEnv(t)

		out := env.run("wal", "status", "-o", "json")
		var st map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &st))
		assert.Equal(t, "wal", st["journal_mode"])
		assert.Equal(t, false, st["enabled"])
		assert.Equal(t, "disabled", st["state"])
	})

	t.Run("in memory has no wal", func(t *testing.T) {
		env := newTestEnv(t)
		env.run("config", "wal.max_size", "16")

		out := env.run("wal", "status", "--db", ":memory:")
		env.contains(out, "Journal mode: memory")
		env.contains(out, "WAL guardian: disabled")
	})

	t.Run("checkpoint", func(t *testing.T) {
		env := newTestEnv(t)
		env.run("exec", "CREATE TABLE t (v TEXT)")
		env.run("exec", "INSERT INTO t (v) VALUES (?)", strings.Repeat("x", 4096))

		out := env.run("wal", "checkpoint", "-o", "json")
		var res map[string]float64
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Zero(t, res["after_mb"])
	})

	t.Run("watch requires threshold", func(t *testing.T) {
		env := newTestEnv(t)
		out, err := env.runErr("wal", "watch", "--for", "100ms")
		require.Error(t, err)
		env.contains(out, "WAL guardian disabled")
	})

	t.Run("watch runs for duration", func(t *testing.T) {
		env := newTestEnv(t)
		out, err := env.runErr("wal", "watch", "--max-size", "1", "--interval", "20ms", "--for", "200ms")
		require.NoError(t, err, out)
	})
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	out := env.run("version")
	env.contains(out, "Build Tag:")
	env.contains(out, "SQLite:")

	out = env.run("version", "-o", "json")
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info["build_tag"])
}

func TestRoot_InvalidOutput(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.runErr("version", "-o", "yaml")
	require.Error(t, err)
	env.contains(out, "invalid output format")
}
