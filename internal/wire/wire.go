// Package wire is the physical MySQL driver collaborator: a connection
// pool that hands out connections emitting an event stream (fields, row,
// end, error) for each query, plus the pause/resume/destroy primitives the
// streaming query state machine in package database drives.
//
// Nothing in this package is push-based at the network level — it is built
// on go-sql-driver/mysql through database/sql, which is pull-based. Each
// query spawns a pump goroutine that repeatedly pulls from the underlying
// *sql.Rows and re-publishes what it sees as Events on a channel, honoring
// a pause gate before every pull. That reduction is what lets the rest of
// this module treat the driver as if it pushed.
package wire

import "context"

// EventKind discriminates the tagged union carried by Event.
type EventKind int

const (
	EventFields EventKind = iota
	EventRow
	EventExecResult
	EventEnd
	EventError
)

// Field is a column definition as reported by the driver, prior to this
// module's own canonicalization (see database.DecodeColumn).
type Field struct {
	Name       string
	DBTypeName string // driver-reported type name, e.g. "VARCHAR", "DECIMAL"
	Nullable   bool
	NullableOK bool
	Length     int64
	LengthOK   bool
	Precision  int64
	Scale      int64
	DecimalOK  bool
}

// ExecResult carries the outcome of a statement that produced no result set.
type ExecResult struct {
	RowsAffected int64
	LastInsertID int64
}

// Event is one item in a query's event stream. Exactly one of Fields, Row,
// Exec, or Err is meaningful, selected by Kind.
type Event struct {
	Kind   EventKind
	Fields []Field
	Row    []any
	Exec   ExecResult
	Err    error
}

// QueryHandle is the live event stream for one in-flight query.
type QueryHandle interface {
	// Events returns the channel of events for this query. It is closed
	// after the terminal EventEnd or EventError is sent.
	Events() <-chan Event

	// Pause asks the pump to stop pulling further rows until Resume is
	// called. Idempotent.
	Pause()

	// Resume reverses Pause. Idempotent.
	Resume()
}

// Conn is one leased connection, capable of running at most one query at a
// time. Concurrent use of one connection from two queries is forbidden.
type Conn interface {
	// ThreadID returns the server-assigned connection id, used as the
	// target of a sideband KILL QUERY.
	ThreadID(ctx context.Context) (uint32, error)

	// Query starts a statement and returns its event stream. Exec-shaped
	// statements (no result columns) deliver a single EventExecResult
	// instead of EventFields/EventRow*/EventEnd.
	Query(ctx context.Context, query string, args []any) (QueryHandle, error)

	// Exec runs a statement to completion without going through the event
	// stream machinery, for internal sideband use (the KILL QUERY that
	// Pool.KillQuery issues).
	Exec(ctx context.Context, query string, args ...any) (ExecResult, error)

	// Release returns the connection to the pool for reuse.
	Release() error

	// End closes the connection gracefully. The streaming layer does not
	// call it: a canceled single-shot stream destroys its connection.
	End() error

	// Destroy forces the pool to discard the connection rather than reuse
	// it, for hard-cancel paths where graceful End is not appropriate.
	Destroy() error
}

// Pool is the connection pool collaborator.
type Pool interface {
	// GetConnection leases a connection. Cancelable: if ctx is done before
	// a connection is available, it returns ctx's error and never hands
	// out a connection that would otherwise leak.
	GetConnection(ctx context.Context) (Conn, error)

	// KillQuery issues "KILL QUERY <threadID>" on a connection distinct
	// from threadID's own.
	KillQuery(ctx context.Context, threadID uint32) error

	// Close shuts down the pool. Idempotent.
	Close() error
}
