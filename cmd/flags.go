/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// flags.go holds the persistent flags every subcommand reads (--db,
// --output, --debug) and the JSON output path built on them.
//
// Design: The flags are package-level variables bound to rootCmd in init.
// Commands resolve the database through DB(), which falls back to
// SQLITEPDO_DB before the config file, and write results to out.
// PrintJSONError turns a command error into a JSON error object when
// --output json is set.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var validOutputFormats = []string{"json"}

var (
	output string
	db     string
	debug  bool
)

// out receives command output.
var out io.Writer = os.Stdout

// DB returns the database path given by --db or SQLITEPDO_DB. An empty
// result leaves the choice to database.path in the config, else in memory.
func DB() string {
	if db != "" {
		return db
	}
	return os.Getenv("SQLITEPDO_DB")
}

// JSON returns true if JSON output is requested.
func JSON() bool { return output == "json" }

// PrintJSON marshals v to JSON and writes it to the output writer.
// Returns nil if output format is not JSON.
func PrintJSON(v any) error {
	if output != "json" {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(out, string(b))
	return nil
}

// PrintJSONError prints an error in JSON format if output is JSON.
// Returns nil if error was printed (suppressing Cobra error), or the original error if not.
func PrintJSONError(err error) error {
	if output != "json" || err == nil {
		return err
	}
	// If we can't print the error, checking it is futile. We just return nil
	// to suppress Cobra's duplicate printing.
	_ = PrintJSON(map[string]string{"error": err.Error()})
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format: json")
	rootCmd.PersistentFlags().StringVar(&db, "db", "", "Database path (default: database.path config, else in memory)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log every statement to stderr")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return validOutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
}
