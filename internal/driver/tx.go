// tx.go implements transactions on a pinned connection.
//
// Separated from conn.go because a transaction owns its connection for its
// whole lifetime and releases it on Commit or Rollback.
//
// Design: Transactions are plain BEGIN/COMMIT/ROLLBACK statements on one
// Conn so every statement inside runs through the same execution pipeline
// as statements outside.

package driver

import (
	"context"
	"fmt"
)

// Tx is an open transaction.
type Tx struct {
	conn *Conn
	done bool
}

// Begin acquires a connection and starts a transaction on it.
func (d *Driver) Begin(ctx context.Context) (*Tx, error) {
	c, err := d.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := c.Execute(ctx, "BEGIN"); err != nil {
		c.Close()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{conn: c}, nil
}

// Execute runs a statement inside the transaction.
func (t *Tx) Execute(ctx context.Context, query string, args ...any) (*Result, error) {
	if t.done {
		return nil, ErrTxDone
	}
	return t.conn.Execute(ctx, query, args...)
}

// Prepare compiles a statement inside the transaction.
func (t *Tx) Prepare(ctx context.Context, query string) (*Stmt, error) {
	if t.done {
		return nil, ErrTxDone
	}
	return t.conn.Prepare(ctx, query)
}

// Commit commits and releases the connection.
func (t *Tx) Commit(ctx context.Context) error {
	return t.finish(ctx, "COMMIT")
}

// Rollback rolls back and releases the connection.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.finish(ctx, "ROLLBACK")
}

func (t *Tx) finish(ctx context.Context, stmt string) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.conn.Close()

	if _, err := t.conn.Execute(ctx, stmt); err != nil {
		if stmt == "COMMIT" {
			// Never hand a connection back to the pool mid-transaction.
			_, _ = t.conn.Execute(context.WithoutCancel(ctx), "ROLLBACK")
		}
		return fmt.Errorf("%s: %w", stmt, err)
	}
	return nil
}

// Tx executes fn within a transaction, committing when fn returns nil and
// rolling back otherwise.
//
//	err := d.Tx(ctx, func(tx *driver.Tx) error {
//		_, err := tx.Execute(ctx, "INSERT INTO t (v) VALUES (?)", 1)
//		return err
//	})
func (d *Driver) Tx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := d.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
