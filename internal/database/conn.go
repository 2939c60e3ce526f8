package database

import (
	"context"
	"sync/atomic"

	"github.com/flowsql/streamdb/internal/config"
	"github.com/flowsql/streamdb/internal/errs"
	"github.com/flowsql/streamdb/internal/logger"
	"github.com/flowsql/streamdb/internal/wire"
)

// Conn is a single leased connection that can run any number of
// sequential statements and transactions before being closed. Unlike
// Pool's per-call methods, a Conn's connection survives across calls, so
// session state (temp tables, SET statements, transactions) is visible
// from one call to the next.
type Conn struct {
	wireConn wire.Conn
	pool     wire.Pool
	cfg      *config.Config
	log      *logger.Logger
	threadID uint32

	closed int32
}

func newConn(wireConn wire.Conn, pool wire.Pool, cfg *config.Config, log *logger.Logger) (*Conn, error) {
	threadID, err := wireConn.ThreadID(context.Background())
	if err != nil {
		_ = wireConn.Release()
		return nil, err
	}
	return &Conn{wireConn: wireConn, pool: pool, cfg: cfg, log: logOr(log), threadID: threadID}, nil
}

func (c *Conn) checkOpen() error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return errs.New(errs.ErrKindClosed, "connection closed")
	}
	return nil
}

// Query runs a row-producing statement and returns its cursor. The cursor
// does not own this connection — closing it does not close the Conn.
func (c *Conn) Query(ctx context.Context, sqlStr string, args ...any) (*Rows, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return newRows(ctx, c.wireConn, c.pool, true, c.threadID, sqlStr, flattenArgs(args), c.cfg.HighWaterMark, c.cfg.LowWaterMark, c.log)
}

// QueryRow runs a statement expected to produce at most one row. It
// returns (nil, nil) if the statement matched no rows.
func (c *Conn) QueryRow(ctx context.Context, sqlStr string, args ...any) (*Row, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return queryRow(ctx, c.wireConn, c.pool, true, c.threadID, c.cfg, sqlStr, args, c.log)
}

// Exec runs a statement that produces no result set.
func (c *Conn) Exec(ctx context.Context, sqlStr string, args ...any) (ExecResult, error) {
	if err := c.checkOpen(); err != nil {
		return ExecResult{}, err
	}
	return execStatement(ctx, c.wireConn, c.pool, true, c.threadID, c.cfg, sqlStr, args, c.log)
}

// BeginTxn starts a transaction on this connection. The transaction does
// not release the connection on Commit/Rollback — it belongs to the Conn,
// which must be Closed separately.
func (c *Conn) BeginTxn(ctx context.Context, opts *TxnOptions) (*Txn, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	txn := newTxn(c.wireConn, c.pool, c.cfg, c.threadID, true, c.log)
	if err := txn.begin(ctx, opts); err != nil {
		return nil, err
	}
	return txn, nil
}

// Close releases the underlying connection back to the pool. Idempotent.
func (c *Conn) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	return c.wireConn.Release()
}
