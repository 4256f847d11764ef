// Package progress provides CLI progress indicators. Output goes to stderr
// to keep stdout clean for piping, and TTY detection ensures proper formatting
// in both interactive and scripted usage.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Meter displays a changing reading, such as the WAL size while watching.
type Meter struct {
	w     io.Writer
	label string
	isTTY bool
	last  string
	width int
}

// New creates a meter that writes to stderr.
func New(label string) *Meter {
	return NewWriter(os.Stderr, label)
}

// NewWriter creates a meter that writes to w. TTY behaviour applies only
// when w is a terminal.
func NewWriter(w io.Writer, label string) *Meter {
	f, ok := w.(*os.File)
	return &Meter{
		w:     w,
		label: label,
		isTTY: ok && term.IsTerminal(int(f.Fd())),
	}
}

// Update shows reading. On TTY the line is overwritten in place; otherwise
// a line is written only when the reading changes.
func (m *Meter) Update(reading string) {
	if reading == m.last {
		return
	}
	m.last = reading

	line := fmt.Sprintf("%s: %s", m.label, reading)
	if !m.isTTY {
		fmt.Fprintln(m.w, line)
		return
	}
	pad := max(m.width-len(line), 0)
	m.width = max(m.width, len(line))
	fmt.Fprintf(m.w, "\r%s%s", line, strings.Repeat(" ", pad))
}

// Done clears the meter line (on TTY) to make way for final output.
func (m *Meter) Done() {
	if !m.isTTY || m.width == 0 {
		return
	}
	fmt.Fprintf(m.w, "\r%s\r", strings.Repeat(" ", m.width))
	m.width = 0
}
