// Package audit provides centralised audit logging for sqlitepdo operations.
// Entries are stored in ~/.sqlitepdo/log/sqlitepdo-log.db and track every
// CLI command and MCP tool invocation across databases.
//
// # Fluent API
//
// Use the fluent builder API to construct and write entries:
//
//	audit.Event("cli:exec", "exec").
//		Database(path).
//		Statement(query).
//		Rows(res.Affecting.AffectedRows).
//		Write(err)
//
// The source parameter is "cli:{command}" for CLI commands or "mcp:{tool}"
// for MCP tools. Examples: "cli:query", "cli:wal", "mcp:sqlite_exec".
package audit

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jpl-au/sqlitepdo/internal/driver"
	"github.com/sirupsen/logrus"
)

var (
	global *Logger
	mu     sync.Mutex
)

// Entry represents a single audit entry.
type Entry struct {
	Source    string // e.g., "cli:query", "mcp:sqlite_exec"
	Action    string // verb: query, exec, checkpoint, status
	Database  string // database path the operation targeted
	Statement string // SQL text, if any
	Rows      int64  // rows returned or affected

	// Timing
	Start int64 // unix milliseconds when Event() called
	End   int64 // unix milliseconds when Write() called

	Success bool           // whether operation succeeded
	Error   string         // error message if failed
	Detail  map[string]any // additional operation-specific data
}

// Builder constructs an entry using a fluent API.
// Create with [Event], chain methods to set fields, then call [Builder.Write].
type Builder struct {
	entry Entry
}

// Event creates a new entry builder for an operation.
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Start:  time.Now().UnixMilli(),
		},
	}
}

// Database sets the database the operation targeted.
func (b *Builder) Database(path string) *Builder {
	b.entry.Database = path
	return b
}

// Statement sets the SQL text that was run.
func (b *Builder) Statement(query string) *Builder {
	b.entry.Statement = query
	return b
}

// Rows sets the number of rows returned or affected.
func (b *Builder) Rows(n int64) *Builder {
	b.entry.Rows = n
	return b
}

// Detail adds a key-value pair to the entry's detail map.
// Can be called multiple times to add multiple details.
func (b *Builder) Detail(key string, value any) *Builder {
	if b.entry.Detail == nil {
		b.entry.Detail = make(map[string]any)
	}
	b.entry.Detail[key] = value
	return b
}

// Write records the entry, deriving success/failure from err.
//
//	res, err := d.Query(ctx, query)
//	audit.Event("cli:query", "query").Database(path).Statement(query).Write(err)
func (b *Builder) Write(err error) {
	b.entry.End = time.Now().UnixMilli()
	b.entry.Success = err == nil
	if err != nil {
		b.entry.Error = err.Error()
	}
	Log(b.entry)
}

// Open initialises the global logger. Safe to call multiple times.
// Errors are returned but callers may choose to ignore them (best-effort logging).
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	p := dbPath()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	d, err := driver.New(driver.Options{
		Path:           p,
		WAL:            true,
		WALSynchronous: driver.SyncNormal,
		WALMaxSize:     maxWALSize,
		Logger:         quietLogger(),
	}, driver.PoolOptions{Min: 1, Max: 1}, driver.Attributes{})
	if err != nil {
		return err
	}

	if err := migrate(context.Background(), d); err != nil {
		d.Close()
		return err
	}

	global = &Logger{d: d}
	return nil
}

// Log writes an entry. Safe to call if logger not initialised (no-op).
func Log(e Entry) {
	mu.Lock()
	l := global
	mu.Unlock()

	if l == nil {
		return
	}
	l.log(e)
}

// Close closes the global logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.d.Close()
		global = nil
	}
}

// quietLogger keeps the audit database's own guardian warnings off the
// terminal.
func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.ErrorLevel)
	return l
}
