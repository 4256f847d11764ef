// tools_util.go provides helper functions for MCP tool parameter extraction.
//
// Separated to centralise the boilerplate of extracting typed parameters from
// MCP's generic argument map. These helpers provide safe defaults when
// optional parameters are missing.
//
// Design: We use permissive extraction (return default on error) rather than
// strict validation because an LLM omitting an optional parameter shouldn't
// cause cryptic errors. Bound parameters are the exception: a value that
// cannot be bound is reported, never silently dropped.

package mcp

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/jpl-au/sqlitepdo/internal/numeric"
	"github.com/mark3labs/mcp-go/mcp"
)

// getString extracts a string parameter from the MCP request, returning the
// provided default if the parameter is missing or cannot be parsed as a string.
func getString(req mcp.CallToolRequest, name, def string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return def
}

// getBool extracts a boolean parameter from the MCP request arguments.
// Returns the default if the parameter is missing or not a boolean.
func getBool(req mcp.CallToolRequest, name string, def bool) bool {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return def
	}
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}

// getParams extracts statement parameters: "params" binds positionally and
// "named" binds by name. Supplying both is left to the bind layer to reject.
//
// JSON numbers arrive as float64, so integral numbers inside the safe range
// bind as integers and everything else as reals. Integers beyond 2^53 must be
// sent as strings; an integer-affinity column stores them exactly.
func getParams(req mcp.CallToolRequest) ([]any, error) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil, nil
	}

	var out []any
	if raw, ok := args["params"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("params must be an array, got %T", raw)
		}
		for i, v := range list {
			p, err := param(v)
			if err != nil {
				return nil, fmt.Errorf("params[%d]: %w", i, err)
			}
			out = append(out, p)
		}
	}
	if raw, ok := args["named"]; ok && raw != nil {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("named must be an object, got %T", raw)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			p, err := param(obj[k])
			if err != nil {
				return nil, fmt.Errorf("named.%s: %w", k, err)
			}
			out = append(out, sql.Named(k, p))
		}
	}
	return out, nil
}

func param(v any) (any, error) {
	switch v := v.(type) {
	case nil, string, bool:
		return v, nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) <= float64(numeric.MaxSafeInteger) {
			return int64(v), nil
		}
		return v, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return v.Float64()
	}
	return nil, fmt.Errorf("cannot bind %T", v)
}

// jsonResult serialises any value as pretty-printed JSON and wraps it in an
// MCP text result for return to the LLM client. Converted values keep their
// precision: big integers are written as bare JSON numbers and decimals as
// strings.
//
// Errors during marshalling are converted to MCP error results rather than
// propagating as Go errors, keeping the tool response pattern consistent.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
