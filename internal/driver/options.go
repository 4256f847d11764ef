// options.go defines the configuration surface recognised when a driver is
// constructed.
//
// Separated so normalisation rules live in one place: in-memory databases
// silently drop every WAL setting, and the pool is pinned to one connection
// because each SQLite connection to ":memory:" is a separate database.

package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// MemoryPath is the in-memory database marker.
const MemoryPath = ":memory:"

// DefaultBusyTimeout is applied when Options.BusyTimeout is zero.
const DefaultBusyTimeout = 5 * time.Second

// Synchronous is the PRAGMA synchronous level used in WAL mode.
type Synchronous string

// Synchronous levels.
const (
	SyncOff    Synchronous = "OFF"
	SyncNormal Synchronous = "NORMAL"
	SyncFull   Synchronous = "FULL"
	SyncExtra  Synchronous = "EXTRA"
)

// ParseSynchronous accepts a level in any case. An empty string is valid
// and means the engine default.
func ParseSynchronous(s string) (Synchronous, error) {
	v := Synchronous(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case "", SyncOff, SyncNormal, SyncFull, SyncExtra:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q (valid: OFF, NORMAL, FULL, EXTRA)", ErrInvalidSynchronous, s)
}

// Options configures the database a driver opens.
type Options struct {
	// Path is a filesystem path or MemoryPath.
	Path string
	// WAL enables journal_mode=WAL on every connection.
	WAL bool
	// WALSynchronous sets PRAGMA synchronous when WAL is enabled.
	WALSynchronous Synchronous
	// WALMaxSize is the WAL size in megabytes above which the guardian
	// checkpoints. Zero disables the guardian.
	WALMaxSize float64
	// WALInterval is the guardian polling interval (default 5s).
	WALInterval time.Duration
	// OnWALError receives every guardian failure.
	OnWALError func(error)

	// BusyTimeout is how long a connection waits on a lock.
	BusyTimeout time.Duration
	// ReadOnly opens the database with mode=ro.
	ReadOnly bool
	// FileMustExist fails Connect when the database file is missing.
	FileMustExist bool

	// Verbose is called with each statement before it runs when the Debug
	// attribute is set.
	Verbose func(query string)
	// Logger is the event channel. Defaults to logrus.StandardLogger.
	Logger logrus.FieldLogger
	// Functions are installed on every connection the driver opens.
	Functions *Functions
	// Fs is used by the guardian to stat the WAL file.
	Fs afero.Fs
}

// InMemory reports whether the options target a non-durable database.
func (o Options) InMemory() bool {
	return IsMemoryPath(o.Path)
}

// IsMemoryPath reports whether path names an in-memory database.
func IsMemoryPath(path string) bool {
	switch {
	case path == "", path == MemoryPath:
		return true
	case strings.HasPrefix(path, "file::memory:"):
		return true
	case strings.HasPrefix(path, "file:") && strings.Contains(path, "mode=memory"):
		return true
	}
	return false
}

// guardianEnabled reports whether a WAL guardian should run.
func (o Options) guardianEnabled() bool {
	return o.WAL && o.WALMaxSize > 0 && !o.InMemory()
}

// normalize validates o and applies defaults. In-memory targets have every
// WAL setting cleared.
func (o Options) normalize() (Options, error) {
	level, err := ParseSynchronous(string(o.WALSynchronous))
	if err != nil {
		return o, err
	}
	o.WALSynchronous = level

	if o.InMemory() {
		o.WAL = false
		o.WALSynchronous = ""
		o.WALMaxSize = 0
		o.OnWALError = nil
		o.FileMustExist = false
		o.ReadOnly = false
	}
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = DefaultBusyTimeout
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	return o, nil
}

// dsn returns the name handed to the engine.
func (o Options) dsn() string {
	if o.Path == "" {
		return MemoryPath
	}
	if o.ReadOnly && !strings.HasPrefix(o.Path, "file:") {
		return "file:" + o.Path + "?mode=ro"
	}
	return o.Path
}

// pragmas returns the statements run on every new connection.
func (o Options) pragmas() []string {
	p := []string{fmt.Sprintf("PRAGMA busy_timeout=%d", o.BusyTimeout.Milliseconds())}
	if o.WAL {
		p = append(p, "PRAGMA journal_mode=WAL")
		if o.WALSynchronous != "" {
			p = append(p, "PRAGMA synchronous="+string(o.WALSynchronous))
		}
	}
	return p
}

// PoolOptions sizes the connection pool.
type PoolOptions struct {
	// Min is the number of idle connections kept open (default 2).
	Min int
	// Max caps open connections. Zero means unlimited.
	Max int
	// IdleTimeout closes connections idle for longer than this.
	IdleTimeout time.Duration
	// MaxLifetime closes connections older than this.
	MaxLifetime time.Duration
	// Created runs on every pooled connection right after it is opened.
	// Checkpoint connections do not run it.
	Created func(ctx context.Context, s *Session) error
}

// normalize pins in-memory databases to a single immortal connection.
func (p PoolOptions) normalize(memory bool) PoolOptions {
	if memory {
		p.Min, p.Max = 1, 1
		p.IdleTimeout, p.MaxLifetime = 0, 0
		return p
	}
	if p.Min <= 0 {
		p.Min = 2
	}
	if p.Max > 0 && p.Min > p.Max {
		p.Min = p.Max
	}
	return p
}

// Attributes are driver-wide flags.
type Attributes struct {
	// Debug logs every statement at debug level and calls Options.Verbose.
	Debug bool
}
