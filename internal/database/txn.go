package database

import (
	"context"
	"sync"

	"github.com/flowsql/streamdb/internal/config"
	"github.com/flowsql/streamdb/internal/errs"
	"github.com/flowsql/streamdb/internal/logger"
	"github.com/flowsql/streamdb/internal/wire"
)

type txnState int

const (
	txnNotBegun txnState = iota
	txnActive
	txnFinished
)

// Txn is a SQL transaction bound to one connection. keepOpen mirrors the
// Conn/Pool distinction from Rows: when a Txn was started from a Conn the
// caller owns the connection's lifetime and keepOpen is true, so
// Commit/Rollback never release it; when started directly from a Pool the
// Txn itself leased the connection and releases it once the transaction
// ends.
type Txn struct {
	wireConn wire.Conn
	pool     wire.Pool
	cfg      *config.Config
	log      *logger.Logger
	threadID uint32
	keepOpen bool

	mu    sync.Mutex
	state txnState
}

func newTxn(wireConn wire.Conn, pool wire.Pool, cfg *config.Config, threadID uint32, keepOpen bool, log *logger.Logger) *Txn {
	return &Txn{wireConn: wireConn, pool: pool, cfg: cfg, threadID: threadID, keepOpen: keepOpen, log: logOr(log)}
}

func (t *Txn) begin(ctx context.Context, opts *TxnOptions) error {
	t.mu.Lock()
	if t.state != txnNotBegun {
		t.mu.Unlock()
		return errs.New(errs.ErrKindInvalidState, "transaction already begun")
	}
	t.mu.Unlock()

	if opts == nil {
		opts = &TxnOptions{}
	}

	level, err := isolationSQL(opts.Isolation)
	if err != nil {
		t.abortBegin()
		return err
	}
	if _, err := t.execRaw(ctx, "SET TRANSACTION ISOLATION LEVEL "+level); err != nil {
		t.abortBegin()
		return err
	}

	mode := "WRITE"
	if opts.ReadOnly {
		mode = "ONLY"
	}
	if _, err := t.execRaw(ctx, "START TRANSACTION READ "+mode); err != nil {
		t.abortBegin()
		return err
	}

	t.mu.Lock()
	t.state = txnActive
	t.mu.Unlock()
	return nil
}

// abortBegin releases a Pool-leased connection when Begin fails before the
// transaction ever became active; a Conn-owned connection is left for its
// owner to close.
func (t *Txn) abortBegin() {
	if !t.keepOpen {
		_ = t.wireConn.Release()
	}
}

func (t *Txn) checkActive() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != txnActive {
		return errs.New(errs.ErrKindInvalidState, "transaction not active")
	}
	return nil
}

func (t *Txn) execRaw(ctx context.Context, sqlStr string) (ExecResult, error) {
	return execStatement(ctx, t.wireConn, t.pool, true, t.threadID, t.cfg, sqlStr, nil, t.log)
}

// Query runs a row-producing statement within this transaction.
func (t *Txn) Query(ctx context.Context, sqlStr string, args ...any) (*Rows, error) {
	if err := t.checkActive(); err != nil {
		return nil, err
	}
	return newRows(ctx, t.wireConn, t.pool, true, t.threadID, sqlStr, flattenArgs(args), t.cfg.HighWaterMark, t.cfg.LowWaterMark, t.log)
}

// QueryRow runs a statement expected to match at most one row.
func (t *Txn) QueryRow(ctx context.Context, sqlStr string, args ...any) (*Row, error) {
	if err := t.checkActive(); err != nil {
		return nil, err
	}
	return queryRow(ctx, t.wireConn, t.pool, true, t.threadID, t.cfg, sqlStr, args, t.log)
}

// Exec runs a statement that produces no result set.
func (t *Txn) Exec(ctx context.Context, sqlStr string, args ...any) (ExecResult, error) {
	if err := t.checkActive(); err != nil {
		return ExecResult{}, err
	}
	return execStatement(ctx, t.wireConn, t.pool, true, t.threadID, t.cfg, sqlStr, args, t.log)
}

// Commit commits the transaction. The connection is released afterward if
// this Txn owns it (see keepOpen), regardless of whether COMMIT itself
// succeeded, since the transaction boundary is over either way.
func (t *Txn) Commit(ctx context.Context) error {
	if err := t.finishGuard(); err != nil {
		return err
	}
	defer t.release()
	_, err := t.execRaw(ctx, "COMMIT")
	return err
}

// Rollback rolls back the transaction.
func (t *Txn) Rollback(ctx context.Context) error {
	if err := t.finishGuard(); err != nil {
		return err
	}
	defer t.release()
	_, err := t.execRaw(ctx, "ROLLBACK")
	return err
}

func (t *Txn) finishGuard() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != txnActive {
		return errs.New(errs.ErrKindInvalidState, "transaction not active")
	}
	t.state = txnFinished
	return nil
}

func (t *Txn) release() {
	if !t.keepOpen {
		_ = t.wireConn.Release()
	}
}
