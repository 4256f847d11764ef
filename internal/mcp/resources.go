// resources.go implements MCP resource handlers for schema access.
//
// MCP resources provide read-only access via URI schemes, enabling LLM
// clients to load table definitions as context before writing statements.
//
// Design: Resource URIs follow the pattern sqlite://tables[/{name}]. The
// listing and the per-table view are read from sqlite_schema and
// pragma_table_info, so declared types are reported exactly as the
// numeric classifier sees them.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jpl-au/sqlitepdo/internal/value"
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	// ErrInvalidURI indicates a malformed resource URI, helping clients
	// debug URI construction issues.
	ErrInvalidURI = errors.New("invalid URI")
	// ErrNoTable indicates the named table does not exist.
	ErrNoTable = errors.New("no such table")
)

const tablesURI = "sqlite://tables"

// tableEntry is one row of the table listing.
type tableEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// tableColumn describes one column of a table.
type tableColumn struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	NotNull    bool        `json:"notNull"`
	Default    value.Value `json:"default"`
	PrimaryKey bool        `json:"primaryKey"`
}

// tableInfo is the per-table resource body.
type tableInfo struct {
	Name    string        `json:"name"`
	SQL     string        `json:"sql"`
	Columns []tableColumn `json:"columns"`
}

// readTables handles sqlite://tables resource requests.
func (h *handlers) readTables(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	res, err := h.d.Query(ctx, `SELECT name, type FROM sqlite_schema
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}

	tables := make([]tableEntry, len(res.Rows))
	for i, row := range res.Rows {
		tables[i] = tableEntry{Name: row[0].String(), Type: row[1].String()}
	}
	return jsonContents(req.Params.URI, tables)
}

// readTable handles sqlite://tables/{name} resource requests.
func (h *handlers) readTable(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name, err := parseTableURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	res, err := h.d.Query(ctx, `SELECT sql FROM sqlite_schema WHERE type IN ('table', 'view') AND name = ?`, name)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, name)
	}
	info := tableInfo{Name: name, SQL: res.Value(0, 0).String()}

	cols, err := h.d.Query(ctx, `SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`, name)
	if err != nil {
		return nil, err
	}
	for _, row := range cols.Rows {
		notNull, _ := row[2].Int64()
		pk, _ := row[4].Int64()
		info.Columns = append(info.Columns, tableColumn{
			Name:       row[0].String(),
			Type:       row[1].String(),
			NotNull:    notNull != 0,
			Default:    row[3],
			PrimaryKey: pk != 0,
		})
	}
	return jsonContents(req.Params.URI, info)
}

// parseTableURI extracts the table name from sqlite://tables/{name}.
func parseTableURI(uri string) (string, error) {
	const prefix = tablesURI + "/"
	if !strings.HasPrefix(uri, prefix) {
		return "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	name := strings.TrimPrefix(uri, prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	return name, nil
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
