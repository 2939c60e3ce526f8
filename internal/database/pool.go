package database

import (
	"context"
	"sync/atomic"

	"github.com/flowsql/streamdb/internal/config"
	"github.com/flowsql/streamdb/internal/errs"
	"github.com/flowsql/streamdb/internal/logger"
	"github.com/flowsql/streamdb/internal/wire"
)

// Pool is the top-level entry point: a MySQL connection pool exposing
// one-shot Query/QueryRow/Exec calls that lease, use, and release a
// connection per call, plus Conn/BeginTxn for callers that need a
// connection's lifetime to span multiple statements.
type Pool struct {
	wire wire.Pool
	cfg  *config.Config
	log  *logger.Logger

	closed int32
}

// Open opens a MySQL connection pool per cfg. The pool's logger is taken
// from ctx via logger.FromContext so every acquire, pause/resume
// transition, cancellation, and KILL QUERY issuance it logs carries
// whatever fields the caller's logger was already scoped with (falling
// back to logger's own default if ctx carries none).
func Open(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	wp, err := wire.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Pool{wire: wp, cfg: cfg, log: logger.FromContext(ctx)}, nil
}

func (p *Pool) checkOpen() error {
	if atomic.LoadInt32(&p.closed) == 1 {
		return errs.New(errs.ErrKindClosed, "pool closed")
	}
	return nil
}

// Conn leases a connection for the caller to use across multiple
// statements. The caller must Close it when done.
func (p *Pool) Conn(ctx context.Context) (*Conn, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	wc, err := p.wire.GetConnection(ctx)
	if err != nil {
		return nil, err
	}
	c, err := newConn(wc, p.wire, p.cfg, p.log)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Query leases a connection for one statement and hands its ownership to
// the returned Rows: closing the cursor releases (or, on cancellation,
// destroys) the connection.
func (p *Pool) Query(ctx context.Context, sqlStr string, args ...any) (*Rows, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	conn, threadID, err := leaseConn(ctx, p.wire, p.log)
	if err != nil {
		return nil, err
	}
	rows, err := newRows(ctx, conn, p.wire, false, threadID, sqlStr, flattenArgs(args), p.cfg.HighWaterMark, p.cfg.LowWaterMark, p.log)
	if err != nil {
		_ = conn.Release()
		return nil, err
	}
	return rows, nil
}

// QueryRow leases a connection, runs sqlStr expecting at most one row, and
// releases the connection before returning.
func (p *Pool) QueryRow(ctx context.Context, sqlStr string, args ...any) (*Row, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	var row *Row
	err := withLeasedConn(ctx, p.wire, p.log, func(conn wire.Conn, threadID uint32) error {
		r, err := queryRow(ctx, conn, p.wire, true, threadID, p.cfg, sqlStr, args, p.log)
		row = r
		return err
	})
	return row, err
}

// Exec leases a connection, runs a statement that produces no result set,
// and releases the connection before returning.
func (p *Pool) Exec(ctx context.Context, sqlStr string, args ...any) (ExecResult, error) {
	if err := p.checkOpen(); err != nil {
		return ExecResult{}, err
	}
	var res ExecResult
	err := withLeasedConn(ctx, p.wire, p.log, func(conn wire.Conn, threadID uint32) error {
		r, err := execStatement(ctx, conn, p.wire, true, threadID, p.cfg, sqlStr, args, p.log)
		res = r
		return err
	})
	return res, err
}

// BeginTxn leases a connection and starts a transaction on it. The
// connection is released when the transaction commits or rolls back.
func (p *Pool) BeginTxn(ctx context.Context, opts *TxnOptions) (*Txn, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	conn, threadID, err := leaseConn(ctx, p.wire, p.log)
	if err != nil {
		return nil, err
	}
	txn := newTxn(conn, p.wire, p.cfg, threadID, false, p.log)
	if err := txn.begin(ctx, opts); err != nil {
		return nil, err
	}
	return txn, nil
}

// Close shuts down the pool. Idempotent.
func (p *Pool) Close() error {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return nil
	}
	return p.wire.Close()
}
