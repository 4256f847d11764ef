// audit_storage.go implements SQLite-based persistent audit logging.
//
// Separated from audit.go to isolate database concerns. audit.go provides
// the fluent API for building entries, while this file handles persistence.
// The audit database is opened through this module's own driver, so entry
// ids and row counts come back as exact values. The db_hash column holds a
// hash of the database path to enable aggregation while preserving privacy.
//
// Design: Errors during logging are silently ignored (best-effort). This prevents
// audit failures from breaking the main operation - a statement should succeed
// even if we can't record it.

package audit

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpl-au/sqlitepdo/internal/driver"
	"golang.org/x/crypto/blake2b"
)

// maxWALSize keeps the audit database's WAL under 4 MB.
const maxWALSize = 4

// Logger writes audit entries to a SQLite database.
type Logger struct {
	d *driver.Driver
}

func (l *Logger) log(e Entry) {
	var detail any
	if len(e.Detail) > 0 {
		if b, err := json.Marshal(e.Detail); err == nil {
			detail = string(b)
		}
	}

	var database any
	if e.Database != "" {
		database = hash(e.Database)
	}

	_, err := l.d.Exec(context.Background(), `
		INSERT INTO log (start, end, db_hash, source, action, statement, row_count,
		                 success, error, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Start, e.End, database, e.Source, e.Action, nilIfEmpty(e.Statement),
		e.Rows, e.Success, nilIfEmpty(e.Error), detail,
	)
	if err != nil {
		// Best-effort logging: don't break main operation, but report failure
		fmt.Fprintf(os.Stderr, "warning: audit log write failed: %v\n", err)
	}
}

// dbPathFunc is the function that returns the database path.
// Tests can override this to use a temp directory.
var dbPathFunc = defaultDBPath

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to current directory if home cannot be determined.
		return filepath.Join(".sqlitepdo", "log", "sqlitepdo-log.db")
	}
	return filepath.Join(home, ".sqlitepdo", "log", "sqlitepdo-log.db")
}

func dbPath() string {
	return dbPathFunc()
}

// DBPath returns the path to the audit database.
func DBPath() string {
	return dbPath()
}

// hash creates a database identifier from its path, enabling cross-database
// queries without storing the path itself.
func hash(s string) string {
	h, err := blake2b.New(8, nil) // 64-bit = 16 hex chars
	if err != nil {
		// Should never happen with nil key, but don't silently ignore
		panic("blake2b.New failed: " + err.Error())
	}
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// migrate creates the log table if it doesn't exist.
func migrate(ctx context.Context, d *driver.Driver) error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			start     INTEGER NOT NULL,
			end       INTEGER NOT NULL,
			db_hash   TEXT,
			source    TEXT NOT NULL,
			action    TEXT NOT NULL,
			statement TEXT,
			row_count INTEGER NOT NULL DEFAULT 0,
			success   BOOLEAN NOT NULL,
			error     TEXT,
			detail    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_log_start ON log(start)`,
		`CREATE INDEX IF NOT EXISTS idx_log_db_hash ON log(db_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_log_source ON log(source)`,
	} {
		if _, err := d.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate audit log: %w", err)
		}
	}
	return nil
}

// nilIfEmpty returns nil for empty strings so they are stored as NULL.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
