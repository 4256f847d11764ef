package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpl-au/sqlitepdo/internal/driver"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlers(t *testing.T) *handlers {
	t.Helper()
	logger, _ := test.NewNullLogger()
	d, err := driver.New(driver.Options{
		Path:   filepath.Join(t.TempDir(), "mcp.db"),
		WAL:    true,
		Logger: logger,
	}, driver.PoolOptions{}, driver.Attributes{})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	_, err = d.Exec(context.Background(), `CREATE TABLE accounts (
		id INTEGER PRIMARY KEY,
		balance BIGINT NOT NULL DEFAULT 0,
		rate REAL,
		owner TEXT
	)`)
	require.NoError(t, err)
	return &handlers{d: d, path: d.Options().Path, log: logger}
}

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestTools_ExecAndQuery(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()

	res, err := h.exec(ctx, request(map[string]any{
		"sql":    `INSERT INTO accounts (balance, rate, owner) VALUES (?, ?, ?)`,
		"params": []any{"9007199254740993", 0.1, "ada"},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.JSONEq(t, `{"lastInsertRowid": 1, "affectedRows": 1}`, text(t, res))

	res, err = h.query(ctx, request(map[string]any{
		"sql":   `SELECT balance, rate, owner FROM accounts WHERE owner = :owner`,
		"named": map[string]any{"owner": "ada"},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	dec := json.NewDecoder(strings.NewReader(text(t, res)))
	dec.UseNumber()
	var body struct {
		Columns []driver.Column `json:"columns"`
		Rows    [][]any         `json:"rows"`
	}
	require.NoError(t, dec.Decode(&body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, json.Number("9007199254740993"), body.Rows[0][0])
	assert.Equal(t, "0.1", body.Rows[0][1])
	assert.Equal(t, "ada", body.Rows[0][2])
	assert.Equal(t, "BIGINT", body.Columns[0].Type)
}

func TestTools_QueryText(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()

	_, err := h.d.Exec(ctx, `INSERT INTO accounts (balance, owner) VALUES (5, 'bo')`)
	require.NoError(t, err)

	res, err := h.query(ctx, request(map[string]any{
		"sql":  `SELECT id, balance, owner FROM accounts`,
		"text": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "id\tbalance\towner\n1\t5\tbo\n", text(t, res))
}

func TestTools_Errors(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()

	res, err := h.query(ctx, request(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "sql is required", text(t, res))

	res, err = h.query(ctx, request(map[string]any{"sql": `SELECT * FROM missing`}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "no such table")

	res, err = h.exec(ctx, request(map[string]any{
		"sql":    `SELECT ?, :a`,
		"params": []any{1},
		"named":  map[string]any{"a": 2},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "mixed params")

	res, err = h.exec(ctx, request(map[string]any{"sql": `SELECT ?`, "params": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "params must be an array")
}

func TestTools_WALStatusAndCheckpoint(t *testing.T) {
	h := setupHandlers(t)
	ctx := context.Background()

	res, err := h.walStatus(ctx, request(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled": false, "state": "disabled", "last_size_mb": 0, "max_size_mb": 0, "interval": 0}`, text(t, res))

	res, err = h.checkpoint(ctx, request(nil))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), `"checkpointed": true`)
}

func TestParam(t *testing.T) {
	for in, want := range map[float64]any{
		1:       int64(1),
		-3:      int64(-3),
		1.5:     1.5,
		1 << 60: float64(1 << 60),
	} {
		got, err := param(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%v", in)
	}
	got, err := param(json.Number("9007199254740993"))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), got)

	_, err = param([]any{1})
	assert.Error(t, err)
}
