/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// wal.go implements the "sqlitepdo wal" command group.
//
// Design: status and checkpoint open the database, act once and close it.
// watch keeps the database open so the WAL guardian runs for as long as the
// command does, optionally serving Prometheus metrics while it watches.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpl-au/sqlitepdo/internal/audit"
	"github.com/jpl-au/sqlitepdo/internal/driver"
	"github.com/jpl-au/sqlitepdo/internal/format"
	"github.com/jpl-au/sqlitepdo/internal/metrics"
	"github.com/jpl-au/sqlitepdo/internal/progress"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// walStatusJSON is the JSON shape of "wal status".
type walStatusJSON struct {
	driver.WALStatus
	Journal string  `json:"journal_mode"`
	Current float64 `json:"current_size_mb"`
}

func newWALCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "wal",
		Short: "Inspect and control the write-ahead log",
		Long: `Inspect and control the write-ahead log.

  sqlitepdo wal status                         # journal mode, size and threshold
  sqlitepdo wal checkpoint                     # fold the WAL into the database
  sqlitepdo wal watch                          # run the guardian until interrupted
  sqlitepdo wal watch --metrics-addr :9090     # and serve /metrics

The guardian checkpoints whenever the WAL grows past wal.max_size
megabytes. Set it with: sqlitepdo config wal.max_size 64`,
	}
	c.AddCommand(newWALStatusCmd(), newWALCheckpointCmd(), newWALWatchCmd())
	return c
}

func newWALStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show journal mode, WAL size and guardian settings",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return PrintJSONError(withDriver(func(d *driver.Driver) error {
				res, err := d.Query(c.Context(), `PRAGMA journal_mode`)
				if err != nil {
					return err
				}
				size, err := d.WALFileSize()
				audit.Event("cli:wal", "status").Database(d.Options().Path).Write(err)
				if err != nil {
					return err
				}

				st := walStatusJSON{WALStatus: d.WALStatus(), Journal: res.Value(0, 0).String(), Current: size}
				if JSON() {
					return PrintJSON(st)
				}
				fmt.Fprintf(out, "Database:     %s\n", d.Options().Path)
				fmt.Fprintf(out, "Journal mode: %s\n", st.Journal)
				fmt.Fprintf(out, "WAL size:     %s\n", format.Megabytes(size))
				return format.WALStatus(out, st.WALStatus)
			}))
		},
	}
}

func newWALCheckpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkpoint",
		Short: "Copy the WAL into the database and truncate it",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return PrintJSONError(withDriver(func(d *driver.Driver) error {
				before, err := d.WALFileSize()
				if err != nil {
					return err
				}
				err = d.Checkpoint(c.Context())
				audit.Event("cli:wal", "checkpoint").Database(d.Options().Path).Detail("size_mb", before).Write(err)
				if err != nil {
					return err
				}
				after, err := d.WALFileSize()
				if err != nil {
					return err
				}

				if JSON() {
					return PrintJSON(map[string]float64{"before_mb": before, "after_mb": after})
				}
				fmt.Fprintf(out, "checkpointed %s (%s -> %s)\n", d.Options().Path, format.Megabytes(before), format.Megabytes(after))
				return nil
			}))
		},
	}
}

func newWALWatchCmd() *cobra.Command {
	var (
		metricsAddr string
		maxSize     float64
		interval    time.Duration
		duration    time.Duration
	)
	c := &cobra.Command{
		Use:   "watch",
		Short: "Run the WAL guardian in the foreground",
		Long: `Run the WAL guardian in the foreground until interrupted, showing the
WAL size as it changes. --max-size and --interval override wal.max_size and
wal.interval for this run.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return PrintJSONError(watch(ctx, metricsAddr, maxSize, interval))
		},
	}
	c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	c.Flags().Float64Var(&maxSize, "max-size", 0, "WAL threshold in megabytes (overrides wal.max_size)")
	c.Flags().DurationVar(&interval, "interval", 0, "Guardian polling interval (overrides wal.interval)")
	c.Flags().DurationVar(&duration, "for", 0, "Stop after this long (default: until interrupted)")
	return c
}

func watch(ctx context.Context, metricsAddr string, maxSize float64, interval time.Duration) error {
	d, err := openDriver(func(o *driver.Options) {
		if maxSize > 0 {
			o.WALMaxSize = maxSize
		}
		if interval > 0 {
			o.WALInterval = interval
		}
	})
	if err != nil {
		return err
	}
	defer d.Close()

	if !d.WALStatus().Enabled {
		return errors.New("WAL guardian disabled: needs a file database with wal.enabled and a positive wal.max_size")
	}

	if metricsAddr != "" {
		srv, err := serveMetrics(metricsAddr)
		if err != nil {
			return err
		}
		defer srv.Shutdown(context.WithoutCancel(ctx))
	}

	// First pool access starts the guardian.
	if _, err := d.Query(ctx, `PRAGMA journal_mode`); err != nil {
		return err
	}
	st := d.WALStatus()
	logger.WithFields(logrus.Fields{
		"path":        st.Path,
		"max_size_mb": st.MaxSize,
		"interval":    st.Interval,
	}).Info("wal guardian watching")
	audit.Event("cli:wal", "watch").Database(d.Options().Path).Detail("max_size_mb", st.MaxSize).Write(nil)

	meter := progress.New("WAL")
	defer meter.Done()
	t := time.NewTicker(st.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			meter.Update(fmt.Sprintf("%s / %s", format.Megabytes(d.WALStatus().LastSize), format.Megabytes(st.MaxSize)))
		}
	}
}

// serveMetrics exposes the module's collectors on addr/metrics.
func serveMetrics(addr string) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()
	logger.WithField("addr", addr).Info("serving metrics")
	return srv, nil
}

func init() {
	rootCmd.AddCommand(newWALCmd())
}
