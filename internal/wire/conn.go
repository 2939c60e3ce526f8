package wire

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
)

type sqlConn struct {
	sqlConn *sql.Conn
	release func() // returns this connection's slot to the pool's semaphore

	closeOnce sync.Once
	closeErr  error
}

func (c *sqlConn) ThreadID(ctx context.Context) (uint32, error) {
	var id uint32
	if err := c.sqlConn.QueryRowContext(ctx, "SELECT CONNECTION_ID()").Scan(&id); err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (c *sqlConn) Exec(ctx context.Context, query string, args ...any) (ExecResult, error) {
	res, err := c.sqlConn.ExecContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, mapError(err)
	}
	affected, _ := res.RowsAffected()
	insertID, _ := res.LastInsertId()
	return ExecResult{RowsAffected: affected, LastInsertID: insertID}, nil
}

func (c *sqlConn) Query(ctx context.Context, query string, args []any) (QueryHandle, error) {
	rows, err := c.sqlConn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}

	h := &queryHandle{
		events:     make(chan Event, 1),
		resumeGate: make(chan struct{}),
	}
	close(h.resumeGate) // start un-paused: a closed channel never blocks a receive

	go h.pump(ctx, c.sqlConn, rows)
	return h, nil
}

func (c *sqlConn) Release() error {
	return c.teardown(func() error { return c.sqlConn.Close() })
}

func (c *sqlConn) End() error {
	// database/sql has no separate notion of a graceful wire-level "end"
	// distinct from returning the connection to the pool, so End does
	// exactly what Release does.
	return c.Release()
}

func (c *sqlConn) Destroy() error {
	return c.teardown(func() error {
		// Returning driver.ErrBadConn from Raw tells database/sql to
		// discard the underlying connection instead of returning it to
		// the idle pool — the closest equivalent to a hard socket kill
		// available through the public database/sql API.
		_ = c.sqlConn.Raw(func(driverConn any) error { return driver.ErrBadConn })
		return c.sqlConn.Close()
	})
}

func (c *sqlConn) teardown(closeFn func() error) error {
	c.closeOnce.Do(func() {
		c.closeErr = mapError(closeFn())
		if c.release != nil {
			c.release()
		}
	})
	return c.closeErr
}
