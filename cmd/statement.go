/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// statement.go holds the execution path shared by query and exec.
//
// Design: Command-line parameters are strings, so they are typed here before
// binding: NULL, integers and reals become their values and everything else
// stays text. Integers beyond int64 stay text as well, which an
// integer-affinity column stores exactly.

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/jpl-au/sqlitepdo/internal/audit"
	"github.com/jpl-au/sqlitepdo/internal/driver"
	"github.com/jpl-au/sqlitepdo/internal/format"
	"github.com/jpl-au/sqlitepdo/internal/value"
	"github.com/spf13/cobra"
)

// statementFlags are shared by query and exec.
type statementFlags struct {
	text  bool
	named []string
}

func (f *statementFlags) bind(c *cobra.Command) {
	c.Flags().BoolVar(&f.text, "text", false, "Bind every positional parameter as text")
	c.Flags().StringArrayVarP(&f.named, "param", "p", nil, "Named parameter name=value (repeatable)")
}

// rowsJSON is the JSON shape of a reader result.
type rowsJSON struct {
	Columns []driver.Column `json:"columns"`
	Rows    [][]value.Value `json:"rows"`
}

// parseParam converts a command-line argument into a bound value.
func parseParam(s string, asText bool) any {
	if asText {
		return s
	}
	if strings.EqualFold(s, "NULL") {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if _, ok := new(big.Int).SetString(s, 10); ok {
		return s
	}
	if strings.ContainsAny(s, "0123456789") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

// statementArgs builds the bind list from positional arguments and
// --param flags. Supplying both is rejected by the bind layer.
func statementArgs(positional []string, f *statementFlags) ([]any, error) {
	args := make([]any, 0, len(positional)+len(f.named))
	for _, p := range positional {
		args = append(args, parseParam(p, f.text))
	}
	if len(f.named) == 0 {
		return args, nil
	}

	named := make(map[string]any, len(f.named))
	for _, kv := range f.named {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q: want name=value", kv)
		}
		named[k] = parseParam(v, false)
	}
	if len(args) == 0 {
		return []any{named}, nil
	}
	// Mixed styles: hand both to the bind layer so it reports the conflict.
	for k, v := range named {
		args = append(args, sql.Named(k, v))
	}
	return args, nil
}

// runStatement executes args[0] with the remaining args as parameters and
// prints the result.
func runStatement(ctx context.Context, source, action string, args []string, f *statementFlags) error {
	query := args[0]
	params, err := statementArgs(args[1:], f)
	if err != nil {
		return PrintJSONError(err)
	}

	return PrintJSONError(withDriver(func(d *driver.Driver) error {
		res, err := d.Query(ctx, query, params...)
		ev := audit.Event(source, action).Database(d.Options().Path).Statement(query)
		if err != nil {
			ev.Write(err)
			return err
		}
		if res.Reader {
			ev.Rows(int64(len(res.Rows)))
		} else {
			ev.Rows(res.Affecting.AffectedRows)
		}
		ev.Write(nil)

		if JSON() {
			if res.Reader {
				return PrintJSON(rowsJSON{Columns: res.Columns, Rows: res.Rows})
			}
			return PrintJSON(res.Affecting)
		}
		return format.Result(out, res, format.IsTerminal(out))
	}))
}
