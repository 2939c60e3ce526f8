package database

import (
	"context"
	"errors"
	"testing"

	"github.com/flowsql/streamdb/internal/wire/wiretest"
)

func TestRunTransactionCommitsOnSuccess(t *testing.T) {
	wp := wiretest.NewPool()
	conn := execOKConn(1)
	wp.SeedConn(conn)

	p := newTestPool(wp)
	calls := 0
	err := RunTransaction(context.Background(), p, func(ctx context.Context, txn *Txn) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("RunTransaction: %v", err)
	}
	if calls != 1 {
		t.Fatalf("fn called %d times, want 1", calls)
	}
	if conn.ReleaseCalls() != 1 {
		t.Fatalf("ReleaseCalls() = %d, want 1", conn.ReleaseCalls())
	}
}

func TestRunTransactionRollsBackOnError(t *testing.T) {
	wp := wiretest.NewPool()
	conn := execOKConn(1)
	wp.SeedConn(conn)

	p := newTestPool(wp)
	boom := errors.New("boom")
	err := RunTransaction(context.Background(), p, func(ctx context.Context, txn *Txn) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunTransaction error = %v, want %v", err, boom)
	}
	if conn.ReleaseCalls() != 1 {
		t.Fatalf("ReleaseCalls() = %d, want 1 even on rollback", conn.ReleaseCalls())
	}
}

func TestRunTransactionNestsIntoOuterTransaction(t *testing.T) {
	wp := wiretest.NewPool()
	conn := execOKConn(1)
	wp.SeedConn(conn)

	p := newTestPool(wp)
	var innerTxn, outerTxn *Txn
	err := RunTransaction(context.Background(), p, func(ctx context.Context, outer *Txn) error {
		outerTxn = outer
		return RunTransaction(ctx, p, func(ctx context.Context, inner *Txn) error {
			innerTxn = inner
			return nil
		})
	})
	if err != nil {
		t.Fatalf("RunTransaction: %v", err)
	}
	if innerTxn != outerTxn {
		t.Fatalf("nested RunTransaction must reuse the outer transaction")
	}
	// Only the outer BeginTxn/Commit pair touches the pool's single seeded
	// connection, so it is released exactly once.
	if conn.ReleaseCalls() != 1 {
		t.Fatalf("ReleaseCalls() = %d, want 1 for a single outer transaction", conn.ReleaseCalls())
	}
}
