/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// serve.go implements the "sqlitepdo serve" command for MCP server operation.
//
// Separated because serve has unique lifecycle requirements. Unlike other
// commands that run and exit, serve blocks handling MCP requests over stdio
// and keeps the database, and its WAL guardian, open the whole time.

package cmd

import (
	"github.com/jpl-au/sqlitepdo/internal/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start MCP server",
		Long: `Start an MCP (Model Context Protocol) server over stdio for LLM integration.

Use --db to serve a specific database:
  sqlitepdo serve --db app.db`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	d, err := openDriver()
	if err != nil {
		return err
	}
	defer d.Close()
	return mcp.Serve(d)
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
