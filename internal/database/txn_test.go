package database

import (
	"context"
	"testing"

	"github.com/flowsql/streamdb/internal/errs"
	"github.com/flowsql/streamdb/internal/wire"
	"github.com/flowsql/streamdb/internal/wire/wiretest"
)

func execOKConn(threadID uint32) *wiretest.Conn {
	conn := wiretest.NewConn(threadID)
	conn.SetScript([]wire.Event{{Kind: wire.EventExecResult, Exec: wire.ExecResult{RowsAffected: 1}}})
	return conn
}

func TestTxnCommitReleasesPoolOwnedConnection(t *testing.T) {
	pool := wiretest.NewPool()
	conn := execOKConn(1)
	cfg := testCfg()

	txn := newTxn(conn, pool, cfg, 1, false, nil)
	if err := txn.begin(context.Background(), nil); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := txn.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if conn.ReleaseCalls() != 1 {
		t.Fatalf("ReleaseCalls() = %d, want 1", conn.ReleaseCalls())
	}
}

func TestTxnCommitDoesNotReleaseConnOwnedConnection(t *testing.T) {
	pool := wiretest.NewPool()
	conn := execOKConn(1)
	cfg := testCfg()

	txn := newTxn(conn, pool, cfg, 1, true, nil)
	if err := txn.begin(context.Background(), nil); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := txn.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if conn.ReleaseCalls() != 0 {
		t.Fatalf("Conn-owned transaction must not release the connection, got %d releases", conn.ReleaseCalls())
	}
}

func TestTxnRejectsOperationsBeforeBeginAndAfterFinish(t *testing.T) {
	pool := wiretest.NewPool()
	conn := execOKConn(1)
	cfg := testCfg()

	txn := newTxn(conn, pool, cfg, 1, true, nil)
	if _, err := txn.Exec(context.Background(), "SELECT 1"); !errs.IsInvalidState(err) {
		t.Fatalf("Exec before begin: got %v, want ErrKindInvalidState", err)
	}

	if err := txn.begin(context.Background(), nil); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := txn.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := txn.Exec(context.Background(), "SELECT 1"); !errs.IsInvalidState(err) {
		t.Fatalf("Exec after commit: got %v, want ErrKindInvalidState", err)
	}
	if err := txn.Commit(context.Background()); !errs.IsInvalidState(err) {
		t.Fatalf("double Commit: got %v, want ErrKindInvalidState", err)
	}
}

func TestTxnUnsupportedIsolationRejected(t *testing.T) {
	pool := wiretest.NewPool()
	conn := execOKConn(1)
	cfg := testCfg()

	txn := newTxn(conn, pool, cfg, 1, false, nil)
	err := txn.begin(context.Background(), &TxnOptions{Isolation: IsolationLevel(99)})
	if !errs.IsUnsupportedIsolation(err) {
		t.Fatalf("begin with bad isolation: got %v, want ErrKindUnsupportedIsolation", err)
	}
	if conn.ReleaseCalls() != 1 {
		t.Fatalf("failed begin on a pool-owned connection must release it, got %d releases", conn.ReleaseCalls())
	}
}

func TestIsolationSQLMapping(t *testing.T) {
	cases := []struct {
		level IsolationLevel
		want  string
	}{
		{IsolationDefault, "REPEATABLE READ"},
		{IsolationRepeatableRead, "REPEATABLE READ"},
		{IsolationReadCommitted, "READ COMMITTED"},
		{IsolationReadUncommitted, "READ UNCOMMITTED"},
		{IsolationSerializable, "SERIALIZABLE"},
	}
	for _, c := range cases {
		got, err := isolationSQL(c.level)
		if err != nil {
			t.Fatalf("isolationSQL(%v): %v", c.level, err)
		}
		if got != c.want {
			t.Fatalf("isolationSQL(%v) = %q, want %q", c.level, got, c.want)
		}
	}
}
