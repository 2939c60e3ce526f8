package database

import (
	"context"
	"testing"

	"github.com/flowsql/streamdb/internal/errs"
	"github.com/flowsql/streamdb/internal/wire"
	"github.com/flowsql/streamdb/internal/wire/wiretest"
)

func newTestPool(wp wire.Pool) *Pool {
	return &Pool{wire: wp, cfg: testCfg()}
}

func TestPoolQueryRowReleasesConnection(t *testing.T) {
	wp := wiretest.NewPool()
	conn := wiretest.NewConn(1)
	conn.SetScript([]wire.Event{fieldsEvent("id"), rowEvent(int64(7)), {Kind: wire.EventEnd}})
	wp.SeedConn(conn)

	p := newTestPool(wp)
	row, err := p.QueryRow(context.Background(), "SELECT id FROM t WHERE id = ?", 7)
	if err != nil {
		t.Fatalf("QueryRow: %v", err)
	}
	if row == nil {
		t.Fatalf("expected a row")
	}
	id, _ := row.ByName("id")
	if id.(int64) != 7 {
		t.Fatalf("unexpected id: %v", id)
	}
	if conn.ReleaseCalls() != 1 {
		t.Fatalf("ReleaseCalls() = %d, want 1", conn.ReleaseCalls())
	}
}

func TestPoolQueryRowNoMatchReturnsNilNotError(t *testing.T) {
	wp := wiretest.NewPool()
	conn := wiretest.NewConn(1)
	conn.SetScript([]wire.Event{fieldsEvent("id"), {Kind: wire.EventEnd}})
	wp.SeedConn(conn)

	p := newTestPool(wp)
	row, err := p.QueryRow(context.Background(), "SELECT id FROM t WHERE id = ?", 404)
	if err != nil {
		t.Fatalf("QueryRow: %v", err)
	}
	if row != nil {
		t.Fatalf("expected nil row for no match, got %v", row)
	}
}

func TestPoolExecReleasesConnectionEvenOnError(t *testing.T) {
	wp := wiretest.NewPool()
	conn := wiretest.NewConn(1)
	conn.SetScript([]wire.Event{{Kind: wire.EventError, Err: errs.New(errs.ErrKindQueryFailed, "syntax error")}})
	wp.SeedConn(conn)

	p := newTestPool(wp)
	if _, err := p.Exec(context.Background(), "BOGUS SQL"); err == nil {
		t.Fatalf("expected error")
	}
	if conn.ReleaseCalls() != 1 {
		t.Fatalf("ReleaseCalls() = %d, want 1", conn.ReleaseCalls())
	}
}

func TestPoolQueryTransfersReleaseOwnershipToStream(t *testing.T) {
	wp := wiretest.NewPool()
	conn := wiretest.NewConn(1)
	conn.SetScript([]wire.Event{fieldsEvent("id"), rowEvent(int64(1)), {Kind: wire.EventEnd}})
	wp.SeedConn(conn)

	p := newTestPool(wp)
	rows, err := p.Query(context.Background(), "SELECT id FROM t")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if conn.ReleaseCalls() != 0 {
		t.Fatalf("Pool.Query must not release before the stream is drained, got %d releases", conn.ReleaseCalls())
	}
	for rows.Next() {
	}
	if conn.ReleaseCalls() != 1 {
		t.Fatalf("ReleaseCalls() = %d, want 1 once the stream reaches end", conn.ReleaseCalls())
	}
}

func TestPoolClosedRejectsCalls(t *testing.T) {
	wp := wiretest.NewPool()
	p := newTestPool(wp)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := p.Query(context.Background(), "SELECT 1"); !errs.IsClosed(err) {
		t.Fatalf("Query on closed pool: got %v, want ErrKindClosed", err)
	}
}
