// connector.go provides SQLite connection creation.
//
// Separated to isolate connection setup: the DSN, per-connection pragmas,
// the pool's Created hook and the choice of engine instance.
//
// Design: open is the single connection factory. The pool reaches it through
// database/sql's Connector interface; the WAL guardian and manual checkpoints
// call it with unsecure set, which skips the Created hook and never touches
// the pool.

package driver

import (
	"context"
	sqldriver "database/sql/driver"
	"errors"
	"fmt"

	"modernc.org/sqlite"
)

// rawConn is an engine connection with context-aware prepare, exec and query.
type rawConn interface {
	sqldriver.Conn
	sqldriver.ConnPrepareContext
	sqldriver.ExecerContext
	sqldriver.QueryerContext
}

// engineFor picks the engine for a driver instance: the registry's own
// engine, or one without functions.
func engineFor(funcs *Functions) (sqldriver.Driver, error) {
	if funcs.Len() == 0 {
		return &sqlite.Driver{}, nil
	}
	return funcs.engine()
}

// connector implements database/sql/driver.Connector over open.
type connector struct {
	opts    Options
	created func(ctx context.Context, s *Session) error
	engine  sqldriver.Driver
}

var _ sqldriver.Connector = (*connector)(nil)

// Connect opens a pooled connection.
func (c *connector) Connect(ctx context.Context) (sqldriver.Conn, error) {
	return c.open(ctx, false)
}

// Driver returns the engine driver.
func (c *connector) Driver() sqldriver.Driver {
	return c.engine
}

// open creates a connection and applies the per-connection pragmas.
// Unsecure connections skip the pool's Created hook.
func (c *connector) open(ctx context.Context, unsecure bool) (rawConn, error) {
	if c.opts.FileMustExist {
		if _, err := c.opts.Fs.Stat(c.opts.Path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrFileMustExist, c.opts.Path)
		}
	}

	dc, err := c.engine.Open(c.opts.dsn())
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", c.opts.Path, err)
	}
	conn, ok := dc.(rawConn)
	if !ok {
		dc.Close()
		return nil, errors.New("sqlite engine connection does not support contexts")
	}

	for _, p := range c.opts.pragmas() {
		if _, err := conn.ExecContext(ctx, p, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if !unsecure && c.created != nil {
		if err := c.created(ctx, &Session{conn: conn}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("created hook: %w", err)
		}
	}
	return conn, nil
}

// Session is a bare connection handed to the pool's Created hook.
type Session struct {
	conn rawConn
}

// Exec runs a statement on the new connection, discarding any rows.
func (s *Session) Exec(ctx context.Context, query string, args ...any) error {
	named, err := namedValues(args)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx, query, named)
	return err
}
