/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// exec.go implements the "sqlitepdo exec" command.

package cmd

import "github.com/spf13/cobra"

func newExecCmd() *cobra.Command {
	f := &statementFlags{}
	c := &cobra.Command{
		Use:   "exec <sql> [params...]",
		Short: "Run a statement that changes data",
		Long: `Run a statement and print the affected row count and last insert rowid.

  sqlitepdo exec "CREATE TABLE accounts (id INTEGER PRIMARY KEY, balance BIGINT)"
  sqlitepdo exec "INSERT INTO accounts (balance) VALUES (?)" 9007199254740993

A statement that returns rows (for example INSERT ... RETURNING) prints
them as query does.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runStatement(c.Context(), "cli:exec", "exec", args, f)
		},
	}
	f.bind(c)
	return c
}

func init() {
	rootCmd.AddCommand(newExecCmd())
}
