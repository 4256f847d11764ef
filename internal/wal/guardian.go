// guardian.go implements the WAL guardian: a background watcher that keeps
// the write-ahead log from growing without bound.
//
// Separated from the driver because the guardian shares nothing with the
// statement pipeline except the ability to open a connection. It never
// borrows a pooled connection; every checkpoint runs on a throwaway one.
//
// Design: One goroutine per guardian polls the WAL file size on a ticker.
// Ticks run to completion before the next is read, so checkpoints never
// overlap. Stop cancels the loop but an in-flight checkpoint finishes on a
// context detached from that cancellation.

package wal

import (
	"context"
	"database/sql/driver"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpl-au/sqlitepdo/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DefaultInterval is the polling interval used when Config.Interval is zero.
const DefaultInterval = 5 * time.Second

// ErrNoConnect is returned by Check when a checkpoint is due but the
// guardian has no connection factory.
var ErrNoConnect = errors.New("wal guardian: no connection factory")

// CheckpointSQL truncates the WAL after copying it into the main database.
const CheckpointSQL = `PRAGMA wal_checkpoint(TRUNCATE)`

// State is the guardian lifecycle state.
type State int32

const (
	// Disabled means no watcher is running.
	Disabled State = iota
	// Watching means the polling loop is active.
	Watching
)

func (s State) String() string {
	if s == Watching {
		return "watching"
	}
	return "disabled"
}

// Execer is the part of a raw engine connection the guardian uses.
type Execer interface {
	ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error)
	Close() error
}

// Config configures a Guardian.
type Config struct {
	// Path is the main database file; the WAL lives at Path + "-wal".
	Path string
	// MaxSize is the threshold in megabytes. Zero or less never starts.
	MaxSize float64
	// Interval between checks. Defaults to DefaultInterval.
	Interval time.Duration
	// Connect opens a fresh connection outside any pool.
	Connect func(ctx context.Context) (Execer, error)
	// OnError receives the raw error of every failed tick. Optional.
	OnError func(error)
	// Disconnected reports whether the owning driver has been closed. Optional.
	Disconnected func() bool
	// Logger receives checkpoint warnings. Defaults to logrus.StandardLogger.
	Logger logrus.FieldLogger
	// Fs is used to stat the WAL file. Defaults to the OS filesystem.
	Fs afero.Fs
}

// Guardian watches one database's WAL file.
type Guardian struct {
	cfg     Config
	walPath string
	log     logrus.FieldLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	state    atomic.Int32
	lastSize atomic.Uint64 // math.Float64bits of the last size in MB
}

// FilePath returns the WAL side-file path for a database path.
func FilePath(dbPath string) string {
	return dbPath + "-wal"
}

// SizeMB converts a byte count to megabytes rounded to two decimals.
func SizeMB(bytes int64) float64 {
	return math.Round(float64(bytes)/1024/1024*100) / 100
}

// New returns a guardian in the Disabled state.
func New(cfg Config) *Guardian {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	walPath := FilePath(cfg.Path)
	return &Guardian{
		cfg:     cfg,
		walPath: walPath,
		log:     cfg.Logger.WithFields(logrus.Fields{"component": "wal", "path": walPath}),
	}
}

// Start begins polling. It is a no-op when already watching or when no
// positive threshold is configured.
func (g *Guardian) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.State() == Watching || g.cfg.MaxSize <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.state.Store(int32(Watching))
	g.wg.Add(1)
	go g.run(ctx)
}

// Stop halts polling and waits for any in-flight checkpoint to finish.
func (g *Guardian) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	g.wg.Wait()
	g.state.Store(int32(Disabled))
}

// State reports whether the guardian is watching.
func (g *Guardian) State() State {
	return State(g.state.Load())
}

// LastSize returns the most recently observed WAL size in megabytes.
func (g *Guardian) LastSize() float64 {
	return math.Float64frombits(g.lastSize.Load())
}

// MaxSize returns the configured threshold in megabytes.
func (g *Guardian) MaxSize() float64 { return g.cfg.MaxSize }

// Interval returns the polling interval.
func (g *Guardian) Interval() time.Duration { return g.cfg.Interval }

// WALPath returns the watched file.
func (g *Guardian) WALPath() string { return g.walPath }

func (g *Guardian) run(ctx context.Context) {
	defer g.wg.Done()

	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if g.cfg.Disconnected != nil && g.cfg.Disconnected() {
			g.state.Store(int32(Disabled))
			return
		}

		if err := g.Check(context.WithoutCancel(ctx)); err != nil {
			g.fail(err)
		}
	}
}

// Check runs a single pass: stat the WAL and checkpoint when it exceeds the
// threshold. Errors are returned unwrapped.
func (g *Guardian) Check(ctx context.Context) error {
	fi, err := g.cfg.Fs.Stat(g.walPath)
	if err != nil {
		return err
	}

	size := SizeMB(fi.Size())
	g.lastSize.Store(math.Float64bits(size))
	metrics.WALSizeMegabytes.WithLabelValues(g.cfg.Path).Set(size)

	if size <= g.cfg.MaxSize {
		return nil
	}

	if err := g.checkpoint(ctx); err != nil {
		return err
	}

	metrics.WALCheckpointsTotal.WithLabelValues(g.cfg.Path).Inc()
	g.log.WithFields(logrus.Fields{
		"size_mb":     size,
		"max_size_mb": g.cfg.MaxSize,
	}).Warn("wal checkpoint triggered")
	return nil
}

func (g *Guardian) checkpoint(ctx context.Context) (err error) {
	if g.cfg.Connect == nil {
		return ErrNoConnect
	}
	conn, err := g.cfg.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = conn.ExecContext(ctx, CheckpointSQL, nil)
	return err
}

func (g *Guardian) fail(err error) {
	metrics.WALGuardianErrorsTotal.WithLabelValues(g.cfg.Path).Inc()
	g.log.WithError(err).Warn("wal guardian failed")
	if g.cfg.OnError != nil {
		g.cfg.OnError(err)
	}
}
