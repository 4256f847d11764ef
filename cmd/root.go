/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// root.go defines the root command and CLI execution entry point.
//
// Design: PersistentPreRunE validates global flags and configures logging.
// Commands that need a database open it through openDriver, which layers the
// --db and --debug flags over the loaded configuration, and close it before
// returning so every invocation leaves the WAL guardian stopped.

package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/jpl-au/sqlitepdo/internal/audit"
	"github.com/jpl-au/sqlitepdo/internal/config"
	"github.com/jpl-au/sqlitepdo/internal/driver"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// logger is the CLI's event channel. It writes to stderr so stdout stays
// clean for results.
var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "sqlitepdo",
	Short: "SQLite client with lossless numbers and WAL size control",
	Long: `Run SQLite statements without losing numeric precision, and keep the
write-ahead log under a size threshold with a background checkpoint guardian.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if output != "" && !slices.Contains(validOutputFormats, output) {
			return fmt.Errorf("invalid output format: %s (valid: %v)", output, validOutputFormats)
		}
		configureLogger()
		return nil
	},
}

func configureLogger() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

// openDriver loads configuration and opens the selected database. Flags
// override configuration values; adjust runs last.
func openDriver(adjust ...func(*driver.Options)) (*driver.Driver, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	opts, pool, attrs, err := cfg.DriverOptions(DB())
	if err != nil {
		return nil, err
	}
	if debug {
		attrs.Debug = true
	}
	opts.Logger = logger
	opts.OnWALError = func(err error) {
		audit.Event("cli:wal", "guardian").Database(opts.Path).Write(err)
	}
	for _, fn := range adjust {
		fn(&opts)
	}
	return driver.New(opts, pool, attrs)
}

// withDriver opens the database, runs fn and closes the database.
func withDriver(fn func(d *driver.Driver) error) error {
	d, err := openDriver()
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}

// Execute runs the root command and handles process lifecycle.
// Opens audit logging, executes the command, and exits with code 1 on error.
func Execute() {
	// Initialise audit logger (warn if it fails, but continue)
	if err := audit.Open(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log unavailable: %v\n", err)
	}
	err := rootCmd.Execute()
	audit.Close()

	if err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
