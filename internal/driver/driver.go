// Package driver is a SQLite driver that returns numbers without losing
// precision and keeps the WAL file in check.
//
// A Driver owns a database/sql pool over a custom connector, an optional
// function registry and, for file databases in WAL mode with a size
// threshold, a WAL guardian that starts on first pool access.
package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jpl-au/sqlitepdo/internal/wal"
	"github.com/sirupsen/logrus"
)

// Driver is a configured SQLite database handle.
type Driver struct {
	opts  Options
	attrs Attributes
	conn  *connector
	db    *sql.DB
	log   logrus.FieldLogger

	guardian  *wal.Guardian
	startOnce sync.Once

	disconnected atomic.Bool
}

// New validates the options and builds the pool. No connection is opened
// until the first Acquire.
func New(opts Options, pool PoolOptions, attrs Attributes) (*Driver, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	pool = pool.normalize(opts.InMemory())

	engine, err := engineFor(opts.Functions)
	if err != nil {
		return nil, err
	}

	c := &connector{opts: opts, created: pool.Created, engine: engine}
	db := sql.OpenDB(c)
	db.SetMaxOpenConns(pool.Max)
	db.SetMaxIdleConns(pool.Min)
	db.SetConnMaxIdleTime(pool.IdleTimeout)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	d := &Driver{
		opts:  opts,
		attrs: attrs,
		conn:  c,
		db:    db,
		log:   opts.Logger.WithField("database", opts.Path),
	}

	if opts.guardianEnabled() {
		d.guardian = wal.New(wal.Config{
			Path:         opts.Path,
			MaxSize:      opts.WALMaxSize,
			Interval:     opts.WALInterval,
			Connect:      d.checkpointConn,
			OnError:      opts.OnWALError,
			Disconnected: d.disconnected.Load,
			Logger:       opts.Logger,
			Fs:           opts.Fs,
		})
	}
	return d, nil
}

// Options returns the normalised options.
func (d *Driver) Options() Options { return d.opts }

// Acquire takes a connection from the pool. The caller must Close it.
func (d *Driver) Acquire(ctx context.Context) (*Conn, error) {
	if d.disconnected.Load() {
		return nil, ErrDisconnected
	}
	d.startGuardian()

	raw, err := d.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{
		conn: raw,
		cfg: connConfig{
			safeIntegers: true,
			debug:        d.attrs.Debug,
			verbose:      d.opts.Verbose,
		},
		id:  uuid.New(),
		log: d.log,
	}, nil
}

// Query runs one statement on a pooled connection.
func (d *Driver) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	c, err := d.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Execute(ctx, query, args...)
}

// Exec runs one statement and returns the number of affected rows.
func (d *Driver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.Affecting.AffectedRows, nil
}

// Checkpoint copies the WAL into the main database and truncates it, using a
// connection outside the pool.
func (d *Driver) Checkpoint(ctx context.Context) error {
	if d.disconnected.Load() {
		return ErrDisconnected
	}
	conn, err := d.conn.open(ctx, true)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, wal.CheckpointSQL, nil); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}

// WALStatus describes the guardian.
type WALStatus struct {
	Enabled  bool          `json:"enabled"`
	State    string        `json:"state"`
	Path     string        `json:"path,omitempty"`
	LastSize float64       `json:"last_size_mb"`
	MaxSize  float64       `json:"max_size_mb"`
	Interval time.Duration `json:"interval"`
}

// WALStatus reports the guardian's state. Enabled is false for drivers
// without a guardian, including every in-memory driver.
func (d *Driver) WALStatus() WALStatus {
	if d.guardian == nil {
		return WALStatus{State: wal.Disabled.String()}
	}
	return WALStatus{
		Enabled:  true,
		State:    d.guardian.State().String(),
		Path:     d.guardian.WALPath(),
		LastSize: d.guardian.LastSize(),
		MaxSize:  d.guardian.MaxSize(),
		Interval: d.guardian.Interval(),
	}
}

// WALFileSize reads the current WAL size in megabytes without checkpointing.
// It is zero for in-memory databases and when no WAL file exists.
func (d *Driver) WALFileSize() (float64, error) {
	if d.opts.InMemory() {
		return 0, nil
	}
	fi, err := d.opts.Fs.Stat(wal.FilePath(d.opts.Path))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return wal.SizeMB(fi.Size()), nil
}

// Close marks the driver disconnected, stops the guardian after any
// in-flight checkpoint and closes the pool.
func (d *Driver) Close() error {
	if !d.disconnected.CompareAndSwap(false, true) {
		return nil
	}
	if d.guardian != nil {
		d.guardian.Stop()
	}
	return d.db.Close()
}

func (d *Driver) startGuardian() {
	if d.guardian == nil {
		return
	}
	d.startOnce.Do(d.guardian.Start)
}

// checkpointConn is the guardian's connection factory.
func (d *Driver) checkpointConn(ctx context.Context) (wal.Execer, error) {
	return d.conn.open(ctx, true)
}
