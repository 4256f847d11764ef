// tools.go implements the MCP tool handlers.
//
// Design: Every handler records an audit entry and reports failures as MCP
// error results rather than Go errors, so the LLM sees the engine's message
// and can correct its statement.

package mcp

import (
	"context"
	"strings"

	"github.com/jpl-au/sqlitepdo/internal/audit"
	"github.com/jpl-au/sqlitepdo/internal/driver"
	"github.com/jpl-au/sqlitepdo/internal/format"
	"github.com/jpl-au/sqlitepdo/internal/value"
	"github.com/mark3labs/mcp-go/mcp"
)

// queryResult is the JSON shape returned by sqlite_query.
type queryResult struct {
	Columns []driver.Column `json:"columns"`
	Rows    [][]value.Value `json:"rows"`
}

// run executes one statement from a tool call.
func (h *handlers) run(ctx context.Context, req mcp.CallToolRequest, source, action string) (*driver.Result, *mcp.CallToolResult) {
	query, err := req.RequireString("sql")
	if err != nil || strings.TrimSpace(query) == "" {
		return nil, mcp.NewToolResultError("sql is required")
	}

	params, err := getParams(req)
	if err != nil {
		audit.Event(source, action).Database(h.path).Statement(query).Write(err)
		return nil, mcp.NewToolResultError(err.Error())
	}

	res, err := h.d.Query(ctx, query, params...)
	ev := audit.Event(source, action).Database(h.path).Statement(query)
	if err != nil {
		ev.Write(err)
		h.log.WithField("tool", source).WithError(err).Debug("statement failed")
		return nil, mcp.NewToolResultError(err.Error())
	}
	if res.Reader {
		ev.Rows(int64(len(res.Rows)))
	} else {
		ev.Rows(res.Affecting.AffectedRows)
	}
	ev.Write(nil)
	return res, nil
}

// query handles sqlite_query tool calls.
func (h *handlers) query(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, errResult := h.run(ctx, req, "mcp:sqlite_query", "query")
	if errResult != nil {
		return errResult, nil
	}
	if !res.Reader {
		return jsonResult(res.Affecting)
	}

	if getBool(req, "text", false) {
		var b strings.Builder
		if err := format.TSV(&b, res); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(b.String()), nil
	}
	return jsonResult(queryResult{Columns: res.Columns, Rows: res.Rows})
}

// exec handles sqlite_exec tool calls.
func (h *handlers) exec(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, errResult := h.run(ctx, req, "mcp:sqlite_exec", "exec")
	if errResult != nil {
		return errResult, nil
	}
	if res.Reader {
		return jsonResult(queryResult{Columns: res.Columns, Rows: res.Rows})
	}
	return jsonResult(res.Affecting)
}

// walStatus handles sqlite_wal_status tool calls.
func (h *handlers) walStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := h.d.WALStatus()
	audit.Event("mcp:sqlite_wal_status", "status").Database(h.path).Write(nil)
	return jsonResult(st)
}

// checkpoint handles sqlite_checkpoint tool calls.
func (h *handlers) checkpoint(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	err := h.d.Checkpoint(ctx)
	audit.Event("mcp:sqlite_checkpoint", "checkpoint").Database(h.path).Write(err)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"checkpointed": true, "wal": h.d.WALStatus()})
}
