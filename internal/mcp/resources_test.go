package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resourceText(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	return tc.Text
}

func readRequest(uri string) mcp.ReadResourceRequest {
	var req mcp.ReadResourceRequest
	req.Params.URI = uri
	return req
}

func TestResources_Tables(t *testing.T) {
	h := setupHandlers(t)

	contents, err := h.readTables(context.Background(), readRequest("sqlite://tables"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name": "accounts", "type": "table"}]`, resourceText(t, contents))
}

func TestResources_Table(t *testing.T) {
	h := setupHandlers(t)

	contents, err := h.readTable(context.Background(), readRequest("sqlite://tables/accounts"))
	require.NoError(t, err)
	body := resourceText(t, contents)
	assert.Contains(t, body, `"name": "accounts"`)
	assert.Contains(t, body, `CREATE TABLE accounts`)
	assert.Contains(t, body, `"type": "BIGINT"`)
	assert.Contains(t, body, `"primaryKey": true`)

	_, err = h.readTable(context.Background(), readRequest("sqlite://tables/missing"))
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestParseTableURI(t *testing.T) {
	name, err := parseTableURI("sqlite://tables/accounts")
	require.NoError(t, err)
	assert.Equal(t, "accounts", name)

	for _, uri := range []string{"sqlite://tables/", "sqlite://other/x", "sqlite://tables/a/b"} {
		_, err := parseTableURI(uri)
		assert.ErrorIs(t, err, ErrInvalidURI, uri)
	}
}
