package wire

import (
	"context"
	"database/sql"
	"sync"
)

type queryHandle struct {
	events chan Event

	mu         sync.Mutex
	paused     bool
	resumeGate chan struct{}
}

func (h *queryHandle) Events() <-chan Event {
	return h.events
}

func (h *queryHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.paused {
		return
	}
	h.paused = true
	h.resumeGate = make(chan struct{})
}

func (h *queryHandle) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.paused {
		return
	}
	h.paused = false
	close(h.resumeGate)
}

func (h *queryHandle) gate() chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resumeGate
}

// pump is the sole goroutine that ever touches rows; it turns *sql.Rows'
// pull-based Next/Scan into a pushed Event per row, blocking on the pause
// gate before each pull so a paused handle stops drawing from the wire.
func (h *queryHandle) pump(ctx context.Context, conn *sql.Conn, rows *sql.Rows) {
	defer close(h.events)
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		h.events <- Event{Kind: EventError, Err: mapError(err)}
		return
	}

	if len(cols) == 0 {
		h.pumpExecResult(ctx, conn, rows)
		return
	}

	h.events <- Event{Kind: EventFields, Fields: decodeFields(cols)}

	scanDest := make([]any, len(cols))
	scanPtrs := make([]any, len(cols))
	for i := range scanDest {
		scanPtrs[i] = &scanDest[i]
	}

	for {
		select {
		case <-h.gate():
		case <-ctx.Done():
			h.events <- Event{Kind: EventError, Err: mapError(ctx.Err())}
			return
		}

		if !rows.Next() {
			if err := rows.Err(); err != nil {
				h.events <- Event{Kind: EventError, Err: mapError(err)}
				return
			}
			h.events <- Event{Kind: EventEnd}
			return
		}

		if err := rows.Scan(scanPtrs...); err != nil {
			h.events <- Event{Kind: EventError, Err: mapError(err)}
			return
		}

		row := make([]any, len(scanDest))
		copy(row, scanDest)
		h.events <- Event{Kind: EventRow, Row: row}
	}
}

// pumpExecResult handles a statement whose result set carried zero
// columns — an exec-shaped statement (INSERT/UPDATE/DELETE). MySQL's own
// driver protocol would deliver this as a single OK packet; database/sql
// does not expose that packet's affected-rows/insert-id through the Query
// path, so this layer reads them back from the same session via the
// standard ROW_COUNT()/LAST_INSERT_ID() session functions, which MySQL
// guarantees reflect the statement just executed on this connection.
func (h *queryHandle) pumpExecResult(ctx context.Context, conn *sql.Conn, rows *sql.Rows) {
	for rows.Next() {
		// drain; an exec-shaped result set has no rows to yield
	}
	if err := rows.Err(); err != nil {
		h.events <- Event{Kind: EventError, Err: mapError(err)}
		return
	}
	_ = rows.Close()

	var res ExecResult
	err := conn.QueryRowContext(ctx, "SELECT ROW_COUNT(), LAST_INSERT_ID()").
		Scan(&res.RowsAffected, &res.LastInsertID)
	if err != nil {
		h.events <- Event{Kind: EventError, Err: mapError(err)}
		return
	}

	h.events <- Event{Kind: EventExecResult, Exec: res}
}

func decodeFields(cols []*sql.ColumnType) []Field {
	fields := make([]Field, len(cols))
	for i, c := range cols {
		f := Field{Name: c.Name(), DBTypeName: c.DatabaseTypeName()}
		if n, ok := c.Nullable(); ok {
			f.Nullable, f.NullableOK = n, true
		}
		if l, ok := c.Length(); ok {
			f.Length, f.LengthOK = l, true
		}
		if p, s, ok := c.DecimalSize(); ok {
			f.Precision, f.Scale, f.DecimalOK = p, s, true
		}
		fields[i] = f
	}
	return fields
}
