/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// config.go implements the "sqlitepdo config" command for configuration management.
//
// Design: Config follows a cascade model similar to git: local config
// (.sqlitepdo/config.yaml) takes precedence over global
// (~/.sqlitepdo/config.yaml). The --local flag forces use of local config
// even if it doesn't exist yet.

package cmd

import (
	"fmt"
	"slices"

	"github.com/jpl-au/sqlitepdo/internal/audit"
	"github.com/jpl-au/sqlitepdo/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "View or set config values",
		Long: `View or set config values.

  sqlitepdo config                     # show config
  sqlitepdo config wal.max_size        # show wal.max_size value
  sqlitepdo config wal.max_size 64     # set wal.max_size

Configuration locations:
  Global: ~/.sqlitepdo/config.yaml
  Local:  .sqlitepdo/config.yaml

Uses local config if it exists, otherwise global.
Writes go to the same place reads come from.
Use --local to use local config instead.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runConfig,
	}
	c.Flags().Bool("local", false, "Use local config (.sqlitepdo/config.yaml)")
	return c
}

func runConfig(c *cobra.Command, args []string) error {
	forceLocal, _ := c.Flags().GetBool("local")

	// --local forces local even if it doesn't exist yet
	var cfg *config.Config
	var err error
	if forceLocal {
		cfg, err = config.LoadScope(config.ScopeLocal)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return PrintJSONError(fmt.Errorf("config load: %w", err))
	}

	scopeName := "global"
	if cfg.Scope() == config.ScopeLocal {
		scopeName = "local"
	}

	switch len(args) {
	case 0:
		all := cfg.All()
		audit.Event("cli:config", "list").Write(nil)
		if JSON() {
			return PrintJSON(all)
		}
		keys := config.ValidKeys()
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s: %s\n", k, all[k])
		}

	case 1:
		v, err := cfg.Get(args[0])
		audit.Event("cli:config", "get").Detail("key", args[0]).Write(err)
		if err != nil {
			return PrintJSONError(fmt.Errorf("config get %q: %w", args[0], err))
		}
		if JSON() {
			return PrintJSON(map[string]string{args[0]: v})
		}
		fmt.Fprintln(out, v)

	case 2:
		// Write to same place we read from
		if err := cfg.Set(args[0], args[1]); err != nil {
			audit.Event("cli:config", "set").Detail("key", args[0]).Write(err)
			return PrintJSONError(fmt.Errorf("config set %q: %w", args[0], err))
		}
		if err := cfg.Validate(); err != nil {
			audit.Event("cli:config", "set").Detail("key", args[0]).Write(err)
			return PrintJSONError(fmt.Errorf("config set %q: %w", args[0], err))
		}

		saveErr := cfg.Save()
		audit.Event("cli:config", "set").Detail("key", args[0]).Detail("scope", scopeName).Write(saveErr)
		if saveErr != nil {
			return PrintJSONError(fmt.Errorf("config save: %w", saveErr))
		}
		if JSON() {
			return PrintJSON(map[string]string{"key": args[0], "value": args[1], "scope": scopeName})
		}
		fmt.Fprintf(out, "%s = %s (%s)\n", args[0], args[1], scopeName)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newConfigCmd())
}
