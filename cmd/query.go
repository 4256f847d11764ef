/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// query.go implements the "sqlitepdo query" command.

package cmd

import "github.com/spf13/cobra"

func newQueryCmd() *cobra.Command {
	f := &statementFlags{}
	c := &cobra.Command{
		Use:   "query <sql> [params...]",
		Short: "Run a statement and print its rows",
		Long: `Run a statement and print its rows.

  sqlitepdo query "SELECT * FROM accounts WHERE id = ?" 42
  sqlitepdo query "SELECT * FROM accounts WHERE owner = :owner" -p owner=ada
  sqlitepdo query "SELECT balance FROM accounts" -o json

Parameters are typed from their text: NULL, integers and reals bind as
values, anything else as text. Use --text to bind every positional
parameter as text.

Integers beyond 2^53 and non-integer numbers are printed exactly. With
-o json, big integers are bare JSON numbers and decimals are strings.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runStatement(c.Context(), "cli:query", "query", args, f)
		},
	}
	f.bind(c)
	return c
}

func init() {
	rootCmd.AddCommand(newQueryCmd())
}
