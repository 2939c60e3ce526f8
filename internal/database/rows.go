package database

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowsql/streamdb/internal/errs"
	"github.com/flowsql/streamdb/internal/logger"
	"github.com/flowsql/streamdb/internal/wire"
)

const (
	defaultHighWaterMark = 100
	defaultLowWaterMark  = 75

	killQueryTimeout = 5 * time.Second
)

// Rows is the pull-based cursor over a query's event stream. A single actor
// goroutine owns every piece of mutable state (the row buffer, the pause
// flag, the pending-waiter slot); Next/Close talk to it exclusively through
// cmdCh and Ready waits on the readyFuture it fulfills, so nothing in this
// type needs a mutex.
type Rows struct {
	wireConn wire.Conn
	pool     wire.Pool
	keepOpen bool
	threadID uint32

	// queryID is this statement's correlation id, attached to every log
	// line the actor emits for its lifetime (acquire already logged its
	// own thread_id by the time a Rows exists — queryID ties pause/resume,
	// cancellation, and KILL QUERY lines for one statement together).
	queryID string
	log     *logger.Logger

	hw, lw int

	cmdCh     chan rowsCmd
	actorDone chan struct{}

	ready *readyFuture

	// Written only by the actor; safe to read from any goroutine only
	// after observing ready.isDone() (for columns/isExec/execResult)
	// or <-actorDone (for terminalErr) — both are channel-close
	// synchronization points per the Go memory model.
	columnNames []string
	columns     []*ColumnInfo
	isExec      bool
	execResult  ExecResult
	terminalErr error

	currentRow *Row
	lastErr    error
	closeOnce  sync.Once
	closeErr   error
}

type rowsCmdKind int

const (
	cmdNext rowsCmdKind = iota
	cmdClose
)

type rowsCmd struct {
	kind rowsCmdKind
	resp chan rowsResp
}

type rowsResp struct {
	hasRow bool
	row    *Row
	err    error
}

// newRows starts the query on wireConn and spawns its actor goroutine.
// keepOpen controls who tears down wireConn when the stream ends: false
// means the stream owns the lease outright (Pool.Query's single-shot
// path); true means an outer Conn/Txn owns the connection and Rows only
// ever issues a sideband KILL QUERY to interrupt it, never releasing or
// destroying it directly.
func newRows(ctx context.Context, wireConn wire.Conn, pool wire.Pool, keepOpen bool, threadID uint32, sqlStr string, args []any, hw, lw int, log *logger.Logger) (*Rows, error) {
	handle, err := wireConn.Query(context.Background(), sqlStr, args)
	if err != nil {
		return nil, err
	}

	if hw <= 0 {
		hw = defaultHighWaterMark
	}
	if lw <= 0 || lw >= hw {
		lw = defaultLowWaterMark
	}

	queryID := uuid.New().String()
	log = logOr(log)
	log.InfoWith("query started", map[string]interface{}{
		"query_id":  queryID,
		"thread_id": threadID,
		"keep_open": keepOpen,
	})

	r := &Rows{
		wireConn:  wireConn,
		pool:      pool,
		keepOpen:  keepOpen,
		threadID:  threadID,
		queryID:   queryID,
		log:       log,
		hw:        hw,
		lw:        lw,
		cmdCh:     make(chan rowsCmd),
		actorDone: make(chan struct{}),
		ready:     newReadyFuture(),
	}
	go r.run(ctx, handle)
	return r, nil
}

// run is the actor loop. It is the sole writer of every field above
// currentRow/lastErr/closeOnce/closeErr, and the sole reader/writer of the
// local state below.
func (r *Rows) run(ctx context.Context, handle wire.QueryHandle) {
	defer close(r.actorDone)

	events := handle.Events()
	var (
		buffer      [][]any
		paused      bool
		canceling   bool
		hardCancel  bool
		done        bool
		pendingNext *rowsCmd
		pendingDone []*rowsCmd // Close() calls parked until a terminal state is reached
	)

	settle := func(err error) {
		if !r.ready.isDone() {
			r.ready.fulfill(err)
		}
	}

	// teardown disposes of a stream-owned connection once: destroyed by
	// triggerCancel on a hard cancel, otherwise released when the stream
	// has ended and no buffered row is left. keepOpen connections are
	// never touched.
	tornDown := false
	teardown := func() {
		if r.keepOpen || tornDown {
			return
		}
		tornDown = true
		teardownConn(r.wireConn, hardCancel)
	}

	finish := func(err error) {
		done = true
		r.terminalErr = err
		settle(err)
		if err != nil {
			buffer = nil // a stream error is reported in place of rows still buffered
		}
		if len(buffer) == 0 {
			teardown()
		}
		if pendingNext != nil {
			pendingNext.resp <- rowsResp{err: err}
			pendingNext = nil
		}
		for _, c := range pendingDone {
			c.resp <- rowsResp{}
		}
		pendingDone = nil
	}

	triggerCancel := func() {
		canceling = true
		buffer = nil // rows buffered before the cancel are dropped like later ones
		if paused {
			// a paused wire would never deliver the terminal event
			paused = false
			handle.Resume()
		}
		r.log.InfoWith("canceling query", map[string]interface{}{
			"query_id":  r.queryID,
			"thread_id": r.threadID,
			"keep_open": r.keepOpen,
		})
		if r.keepOpen {
			killCtx, cancel := context.WithTimeout(context.Background(), killQueryTimeout)
			if err := r.pool.KillQuery(killCtx, r.threadID); err != nil {
				// Best-effort: the sideband KILL QUERY failing doesn't
				// change this query's own terminal transition, which is
				// still driven by whatever the wire connection reports
				// next. Logged so an operator can see a KILL that never
				// reached the server.
				r.log.ErrorWith("KILL QUERY sideband failed", err, map[string]interface{}{
					"query_id":  r.queryID,
					"thread_id": r.threadID,
				})
			}
			cancel()
			return
		}
		hardCancel = true
		teardown()
	}

	// The loop outlives the terminal event while buffered rows remain, so
	// Next keeps handing them out until the buffer is empty.
	for !done || len(buffer) > 0 {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				if !done {
					finish(r.terminalErr)
				}
				continue
			}

			switch ev.Kind {
			case wire.EventFields:
				r.columnNames = make([]string, len(ev.Fields))
				r.columns = make([]*ColumnInfo, len(ev.Fields))
				for i, f := range ev.Fields {
					r.columnNames[i] = f.Name
					r.columns[i] = DecodeColumn(f)
				}
				settle(nil)

			case wire.EventExecResult:
				r.isExec = true
				r.execResult = ExecResult(ev.Exec)
				settle(nil)
				finish(nil)

			case wire.EventRow:
				if canceling {
					continue // discard rows arriving after cancellation was requested
				}
				if pendingNext != nil {
					pendingNext.resp <- rowsResp{hasRow: true, row: newRow(r.columnNames, ev.Row)}
					pendingNext = nil
					continue
				}
				buffer = append(buffer, ev.Row)
				if len(buffer) >= r.hw && !paused {
					paused = true
					handle.Pause()
					r.log.InfoWith("backpressure pause requested", map[string]interface{}{
						"query_id": r.queryID,
						"buffered": len(buffer),
					})
				}

			case wire.EventEnd:
				finish(nil)

			case wire.EventError:
				if canceling && errs.IsInterruptedExpected(ev.Err) {
					finish(nil)
				} else {
					finish(ev.Err)
				}
			}

		case cmd := <-r.cmdCh:
			switch cmd.kind {
			case cmdNext:
				switch {
				case r.isExec:
					cmd.resp <- rowsResp{}
				case len(buffer) > 0:
					raw := buffer[0]
					buffer = buffer[1:]
					if paused && len(buffer) <= r.lw {
						paused = false
						handle.Resume()
						r.log.InfoWith("backpressure resume requested", map[string]interface{}{
							"query_id": r.queryID,
							"buffered": len(buffer),
						})
					}
					if done && len(buffer) == 0 {
						teardown()
					}
					cmd.resp <- rowsResp{hasRow: true, row: newRow(r.columnNames, raw)}
				case pendingNext != nil:
					cmd.resp <- rowsResp{err: errs.New(errs.ErrKindInvalidState, "Next() called while another Next() is waiting")}
				default:
					pendingNext = &cmd
				}

			case cmdClose:
				if done {
					buffer = nil // the stream already ended; drop the rows nobody read
					teardown()
					cmd.resp <- rowsResp{}
					break
				}
				if !canceling {
					triggerCancel()
				}
				pendingDone = append(pendingDone, &cmd)
			}

		case <-ctx.Done():
			if done {
				buffer = nil
				teardown()
			} else if !canceling {
				triggerCancel()
			}
		}
	}
}

// Ready blocks until the statement's shape is known: a row-producing
// result set (Columns/ColumnTypes become valid) or an exec result
// (Result becomes valid), or the query failed before reaching either.
func (r *Rows) Ready() error {
	return r.ready.wait()
}

// Columns returns the result set's column names. Fails with ErrKindNotReady
// if called before Ready() resolves, and ErrKindInvalidState for an
// exec-shaped statement.
func (r *Rows) Columns() ([]string, error) {
	if !r.ready.isDone() {
		return nil, errs.New(errs.ErrKindNotReady, "columns read before Ready()")
	}
	if err := r.ready.wait(); err != nil {
		return nil, err
	}
	if r.isExec {
		return nil, errs.New(errs.ErrKindInvalidState, "exec statement has no columns")
	}
	out := make([]string, len(r.columnNames))
	copy(out, r.columnNames)
	return out, nil
}

// ColumnTypes returns the result set's decoded column metadata.
func (r *Rows) ColumnTypes() ([]*ColumnInfo, error) {
	if !r.ready.isDone() {
		return nil, errs.New(errs.ErrKindNotReady, "column types read before Ready()")
	}
	if err := r.ready.wait(); err != nil {
		return nil, err
	}
	if r.isExec {
		return nil, errs.New(errs.ErrKindInvalidState, "exec statement has no column types")
	}
	out := make([]*ColumnInfo, len(r.columns))
	copy(out, r.columns)
	return out, nil
}

// Result returns the exec outcome. Fails with ErrKindInvalidState if the
// statement produced a result set instead.
func (r *Rows) Result() (ExecResult, error) {
	if !r.ready.isDone() {
		return ExecResult{}, errs.New(errs.ErrKindNotReady, "result read before Ready()")
	}
	if err := r.ready.wait(); err != nil {
		return ExecResult{}, err
	}
	if !r.isExec {
		return ExecResult{}, errs.New(errs.ErrKindInvalidState, "statement produced a result set, not an exec result")
	}
	return r.execResult, nil
}

// Next advances the cursor. It returns false at the end of the result set,
// on error (check Err()), and always for an exec-shaped statement.
func (r *Rows) Next() bool {
	resp := make(chan rowsResp, 1)
	var result rowsResp
	select {
	case r.cmdCh <- rowsCmd{kind: cmdNext, resp: resp}:
		result = <-resp
	case <-r.actorDone:
		result = rowsResp{err: r.terminalErr}
	}

	r.lastErr = result.err
	r.currentRow = nil
	if result.hasRow {
		r.currentRow = result.row
		return true
	}
	return false
}

// Row returns the row produced by the most recent true-returning Next()
// call. It is valid only until the next call to Next().
func (r *Rows) Row() *Row {
	return r.currentRow
}

// Err returns the error, if any, that caused the most recent Next() to
// return false.
func (r *Rows) Err() error {
	return r.lastErr
}

// Close stops the stream, canceling the underlying query if it has not
// already finished, and releases or destroys the connection per the
// keepOpen policy set at creation. Idempotent and safe to call
// concurrently with Next().
func (r *Rows) Close() error {
	r.closeOnce.Do(func() {
		resp := make(chan rowsResp, 1)
		select {
		case r.cmdCh <- rowsCmd{kind: cmdClose, resp: resp}:
			<-resp
		case <-r.actorDone:
		}
	})
	return r.closeErr
}

// All returns an iterator over the remaining rows, closing the stream when
// the iteration ends for any reason (exhaustion, early break, or panic).
func (r *Rows) All() iter.Seq[*Row] {
	return func(yield func(*Row) bool) {
		defer r.Close()
		for r.Next() {
			if !yield(r.Row()) {
				return
			}
		}
	}
}
