// Package format provides output formatting utilities for CLI display.
//
// Centralises formatting logic so that command implementations focus on
// statement execution while this package handles presentation concerns like
// column alignment and human-readable sizes.
package format

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jpl-au/sqlitepdo/internal/driver"
	"github.com/jpl-au/sqlitepdo/internal/value"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// maxCell caps column width in aligned tables.
const maxCell = 60

// cell renders one value for display.
func cell(v value.Value) string {
	if v.Kind() == value.Blob {
		return fmt.Sprintf("<blob %s>", humanize.Bytes(uint64(len(v.Bytes()))))
	}
	return v.String()
}

// Table prints a reader result as aligned columns with a header.
func Table(w io.Writer, res *driver.Result) error {
	if len(res.Columns) == 0 {
		return nil
	}

	widths := make([]int, len(res.Columns))
	for i, c := range res.Columns {
		widths[i] = len(c.Name)
	}
	cells := make([][]string, len(res.Rows))
	for r, row := range res.Rows {
		cells[r] = make([]string, len(row))
		for i, v := range row {
			s := cell(v)
			if len(s) > maxCell {
				s = s[:maxCell-3] + "..."
			}
			cells[r][i] = s
			widths[i] = max(widths[i], len(s))
		}
	}

	printRow := func(vals []string) {
		parts := make([]string, len(vals))
		for i, s := range vals {
			parts[i] = fmt.Sprintf("%-*s", widths[i], s)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	header := make([]string, len(res.Columns))
	rule := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c.Name
		rule[i] = strings.Repeat("-", widths[i])
	}
	printRow(header)
	printRow(rule)
	for _, row := range cells {
		printRow(row)
	}
	fmt.Fprintf(w, "(%s %s)\n", humanize.Comma(int64(len(res.Rows))), plural(len(res.Rows), "row", "rows"))
	return nil
}

// TSV prints a reader result as tab-separated values with a header line.
// Values are not truncated.
func TSV(w io.Writer, res *driver.Result) error {
	if len(res.Columns) == 0 {
		return nil
	}
	names := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		names[i] = c.Name
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))
	for _, row := range res.Rows {
		vals := make([]string, len(row))
		for i, v := range row {
			vals[i] = v.String()
		}
		fmt.Fprintln(w, strings.Join(vals, "\t"))
	}
	return nil
}

// Affecting prints the outcome of a statement that returned no rows.
func Affecting(w io.Writer, a driver.Affecting) error {
	fmt.Fprintf(w, "%s %s affected", humanize.Comma(a.AffectedRows), plural(int(a.AffectedRows), "row", "rows"))
	if !a.LastInsertRowID.IsNull() {
		fmt.Fprintf(w, ", last insert rowid %s", a.LastInsertRowID)
	}
	fmt.Fprintln(w)
	return nil
}

// Result prints whichever half of res is meaningful.
func Result(w io.Writer, res *driver.Result, aligned bool) error {
	if !res.Reader {
		return Affecting(w, res.Affecting)
	}
	if aligned {
		return Table(w, res)
	}
	return TSV(w, res)
}

// WALStatus prints the guardian's state.
func WALStatus(w io.Writer, st driver.WALStatus) error {
	if !st.Enabled {
		fmt.Fprintln(w, "WAL guardian: disabled")
		return nil
	}
	fmt.Fprintf(w, "WAL guardian: %s\n", st.State)
	fmt.Fprintf(w, "  file:      %s\n", st.Path)
	fmt.Fprintf(w, "  size:      %s\n", Megabytes(st.LastSize))
	fmt.Fprintf(w, "  threshold: %s\n", Megabytes(st.MaxSize))
	fmt.Fprintf(w, "  interval:  %s\n", st.Interval.Round(time.Millisecond))
	return nil
}

// Megabytes renders a size in the guardian's megabyte unit.
func Megabytes(mb float64) string {
	return humanize.IBytes(uint64(mb * 1024 * 1024))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
