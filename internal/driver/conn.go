// conn.go implements the statement execution pipeline on one pooled
// connection.
//
// Separated from driver.go because a Conn pins a single engine connection:
// statements on it run in submission order and share the connection's
// change counters, which the affecting path relies on.
//
// Design: Statements run on the engine connection itself, reached through
// sql.Conn.Raw, so rows are read as the engine produces them. Every
// statement runs through QueryContext. The engine steps the statement once
// and reports zero columns for statements that return no rows, so the
// column count is the reader flag. Affected rows come from changes(),
// guarded by total_changes() so statements that touch nothing (DDL, no-op
// updates) report zero instead of a stale count. Statements compiled with
// columns skip the guard.

package driver

import (
	"context"
	"database/sql"
	sqldriver "database/sql/driver"
	"fmt"

	"github.com/google/uuid"
	"github.com/jpl-au/sqlitepdo/internal/metrics"
	"github.com/jpl-au/sqlitepdo/internal/numeric"
	"github.com/jpl-au/sqlitepdo/internal/value"
	"github.com/sirupsen/logrus"
)

// connConfig is fixed when a Conn is handed out.
type connConfig struct {
	safeIntegers bool
	debug        bool
	verbose      func(query string)
}

// Conn is one connection taken from the pool. Close returns it.
type Conn struct {
	conn *sql.Conn
	cfg  connConfig
	id   uuid.UUID
	log  logrus.FieldLogger
}

// ID identifies the connection in debug logs.
func (c *Conn) ID() uuid.UUID { return c.id }

// Close returns the connection to the pool.
func (c *Conn) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Execute prepares, runs and finalises one statement.
func (c *Conn) Execute(ctx context.Context, query string, args ...any) (*Result, error) {
	stmt, err := c.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	return stmt.Execute(ctx, args...)
}

// Prepare compiles query on this connection. Engine errors are returned
// unmodified.
func (c *Conn) Prepare(ctx context.Context, query string) (*Stmt, error) {
	if !c.cfg.safeIntegers || c.conn == nil {
		return nil, ErrUnsafeConnection
	}
	s := &Stmt{conn: c, query: query}
	err := c.raw(func(ec rawConn) error {
		st, err := ec.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		s.stmt = st
		if h, err := handleOf(st); err == nil && h.valid() {
			s.reader = h.columns() > 0
		}
		return nil
	})
	if err != nil {
		metrics.StatementsTotal.WithLabelValues(metrics.StatementFailed).Inc()
		return nil, err
	}
	return s, nil
}

func (c *Conn) trace(query string) {
	if !c.cfg.debug {
		return
	}
	if c.cfg.verbose != nil {
		c.cfg.verbose(query)
	}
	c.log.WithFields(logrus.Fields{"conn": c.id.String(), "statement": query}).Debug("executing statement")
}

// raw runs fn with exclusive use of the engine connection.
func (c *Conn) raw(fn func(ec rawConn) error) error {
	return c.conn.Raw(func(dc any) error {
		ec, ok := dc.(rawConn)
		if !ok {
			return fmt.Errorf("%w: connection %T", errEngineLayout, dc)
		}
		return fn(ec)
	})
}

// queryInts reads one row of integers from a helper query.
func queryInts(ctx context.Context, ec rawConn, query string, n int) ([]int64, error) {
	rows, err := ec.QueryContext(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dest := make([]sqldriver.Value, n)
	if err := rows.Next(dest); err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i, v := range dest {
		x, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected %T", query, v)
		}
		out[i] = x
	}
	return out, nil
}

func totalChanges(ctx context.Context, ec rawConn) (int64, error) {
	v, err := queryInts(ctx, ec, `SELECT total_changes()`, 1)
	if err != nil {
		return 0, fmt.Errorf("read total changes: %w", err)
	}
	return v[0], nil
}

// affecting reads the insert id and change counters after a statement that
// returned no rows.
func affecting(ctx context.Context, ec rawConn, before int64) (Affecting, error) {
	v, err := queryInts(ctx, ec, `SELECT last_insert_rowid(), changes(), total_changes()`, 3)
	if err != nil {
		return Affecting{}, fmt.Errorf("read affected rows: %w", err)
	}
	rowid, changes, total := v[0], v[1], v[2]

	var a Affecting
	if total != before {
		a.AffectedRows = changes
	}
	if rowid != 0 {
		a.LastInsertRowID, err = numeric.ToSafe(rowid, true)
		if err != nil {
			return Affecting{}, err
		}
	}
	return a, nil
}

// Stmt is a prepared statement bound to one Conn.
type Stmt struct {
	conn  *Conn
	stmt  sqldriver.Stmt
	query string
	// reader is set when the compiled statement is known to return columns.
	// Readers skip the change baseline.
	reader bool
}

// Close releases the statement.
func (s *Stmt) Close() error {
	if s.stmt == nil {
		return nil
	}
	st := s.stmt
	s.stmt = nil
	return s.conn.raw(func(rawConn) error { return st.Close() })
}

// Execute runs the statement with args. Arguments are either all
// positional, all sql.NamedArg, or a single map[string]any.
func (s *Stmt) Execute(ctx context.Context, args ...any) (*Result, error) {
	params, err := namedValues(args)
	if err != nil {
		return nil, err
	}
	if s.stmt == nil {
		return nil, ErrStmtClosed
	}

	s.conn.trace(s.query)

	var res *Result
	err = s.conn.raw(func(ec rawConn) error {
		var err error
		res, err = s.run(ctx, ec, params)
		return err
	})
	if err != nil {
		metrics.StatementsTotal.WithLabelValues(metrics.StatementFailed).Inc()
		return nil, err
	}
	if res.Reader {
		metrics.StatementsTotal.WithLabelValues(metrics.StatementReader).Inc()
	} else {
		metrics.StatementsTotal.WithLabelValues(metrics.StatementAffecting).Inc()
	}
	return res, nil
}

func (s *Stmt) run(ctx context.Context, ec rawConn, params []sqldriver.NamedValue) (*Result, error) {
	q, ok := s.stmt.(sqldriver.StmtQueryContext)
	if !ok {
		return nil, fmt.Errorf("%w: statement %T", errEngineLayout, s.stmt)
	}

	var before int64
	if !s.reader {
		var err error
		if before, err = totalChanges(ctx, ec); err != nil {
			return nil, err
		}
	}

	rows, err := q.QueryContext(ctx, params)
	if err != nil {
		return nil, err
	}

	if len(rows.Columns()) == 0 {
		if err := rows.Close(); err != nil {
			return nil, err
		}
		a, err := affecting(ctx, ec, before)
		if err != nil {
			return nil, err
		}
		return &Result{Affecting: a, Columns: []Column{}, Rows: [][]value.Value{}}, nil
	}

	defer rows.Close()
	cols := describe(rows)
	data, err := collectRows(rows, cols)
	if err != nil {
		return nil, err
	}
	return &Result{Reader: true, Columns: cols, Rows: data}, nil
}
