// Package mcp implements the Model Context Protocol server, exposing SQLite
// statements and WAL maintenance to LLMs. Results keep full numeric
// precision in the JSON they return.
package mcp

import (
	"context"
	"errors"
	"os"

	"github.com/jpl-au/sqlitepdo/internal/driver"
	"github.com/jpl-au/sqlitepdo/internal/version"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// Serve starts the MCP server over stdio for the database d.
// Uses stdio transport for compatibility with Claude Desktop and other MCP clients.
func Serve(d *driver.Driver) error {
	// Log to stderr; stdout is reserved for MCP JSON-RPC messages
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	s := NewServer(d, logger)
	logger.WithFields(logrus.Fields{
		"version":   version.Short(),
		"transport": "stdio",
		"database":  d.Options().Path,
	}).Info("sqlitepdo MCP server ready")

	err := server.ServeStdio(s)
	if errors.Is(err, context.Canceled) {
		logger.Info("server stopped")
		return nil
	}
	return err
}

// NewServer builds the MCP server with every tool and resource registered.
func NewServer(d *driver.Driver, logger logrus.FieldLogger) *server.MCPServer {
	h := &handlers{d: d, path: d.Options().Path, log: logger}

	s := server.NewMCPServer(
		"sqlitepdo",
		version.Short(),
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	registerResources(s, h)
	registerTools(s, h)
	return s
}

// handlers provides MCP request handlers with access to the database.
type handlers struct {
	d    *driver.Driver
	path string
	log  logrus.FieldLogger
}

// registerResources adds URI-based access to table definitions.
func registerResources(s *server.MCPServer, h *handlers) {
	s.AddResource(
		mcp.NewResource(
			"sqlite://tables",
			"Tables",
			mcp.WithResourceDescription("List tables and views in the database"),
			mcp.WithMIMEType("application/json"),
		),
		h.readTables,
	)

	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"sqlite://tables/{name}",
			"Table",
			mcp.WithTemplateDescription("Read the CREATE statement and columns of a table"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		h.readTable,
	)
}

// registerTools exposes statement execution and WAL maintenance as MCP tools.
func registerTools(s *server.MCPServer, h *handlers) {
	s.AddTool(
		mcp.NewTool("sqlite_query",
			mcp.WithDescription("Run a statement and return its rows. Integers beyond 2^53 are returned as bare JSON numbers, non-integer numbers as decimal strings."),
			mcp.WithString("sql", mcp.Required(), mcp.Description("SQL statement")),
			mcp.WithArray("params", mcp.Description("Positional parameters for ? placeholders. Send integers beyond 2^53 as strings.")),
			mcp.WithObject("named", mcp.Description("Named parameters for :name placeholders. Cannot be combined with params.")),
			mcp.WithBoolean("text", mcp.Description("Return tab-separated text instead of JSON")),
		),
		h.query,
	)

	s.AddTool(
		mcp.NewTool("sqlite_exec",
			mcp.WithDescription("Run a statement that changes data and return the affected row count and last insert rowid"),
			mcp.WithString("sql", mcp.Required(), mcp.Description("SQL statement")),
			mcp.WithArray("params", mcp.Description("Positional parameters for ? placeholders. Send integers beyond 2^53 as strings.")),
			mcp.WithObject("named", mcp.Description("Named parameters for :name placeholders. Cannot be combined with params.")),
		),
		h.exec,
	)

	s.AddTool(
		mcp.NewTool("sqlite_wal_status",
			mcp.WithDescription("Report the WAL guardian's state, last observed WAL size and threshold"),
		),
		h.walStatus,
	)

	s.AddTool(
		mcp.NewTool("sqlite_checkpoint",
			mcp.WithDescription("Checkpoint the WAL into the database and truncate it"),
		),
		h.checkpoint,
	)
}
