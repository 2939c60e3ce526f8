// Package wiretest provides a fake implementation of the wire.Pool/Conn/
// QueryHandle surface that lets tests script exact event sequences —
// including pathological "emit everything before the first read" orderings
// — and assert Pause/Resume/Destroy/KillQuery call counts deterministically,
// without a live MySQL server.
package wiretest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/flowsql/streamdb/internal/errs"
	"github.com/flowsql/streamdb/internal/wire"
)

// Script is a scriptable set of events for one query.
type Script struct {
	Events []wire.Event
}

// Pool is a fake wire.Pool. Each call to GetConnection hands out a new
// *Conn from the queue filled by SeedConn (or a freshly-minted one if the
// queue is empty), so tests can either pre-seed specific connections or let the
// pool mint them on demand.
type Pool struct {
	mu sync.Mutex

	nextThreadID  uint32
	conns         []*Conn // pre-seeded connections, consumed in order
	killCalls     []uint32
	closed        bool
	closeCalls    int32
	cancelAcquire bool // if true, GetConnection always fails with Canceled
}

func NewPool() *Pool {
	return &Pool{nextThreadID: 1}
}

// SeedConn registers a connection to be handed out by the next
// GetConnection call, in FIFO order.
func (p *Pool) SeedConn(c *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns = append(p.conns, c)
}

// FailAcquire makes every subsequent GetConnection call fail as if the
// caller's context had been canceled before a connection was delivered.
func (p *Pool) FailAcquire(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelAcquire = fail
}

func (p *Pool) GetConnection(ctx context.Context) (wire.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindCanceled, "acquire canceled", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancelAcquire {
		return nil, errs.Wrap(errs.ErrKindCanceled, "acquire canceled", context.Canceled)
	}
	if p.closed {
		return nil, errs.New(errs.ErrKindClosed, "pool closed")
	}

	if len(p.conns) > 0 {
		c := p.conns[0]
		p.conns = p.conns[1:]
		return c, nil
	}

	p.nextThreadID++
	return NewConn(p.nextThreadID), nil
}

func (p *Pool) KillQuery(ctx context.Context, threadID uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killCalls = append(p.killCalls, threadID)
	return nil
}

func (p *Pool) KillQueryCalls() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint32, len(p.killCalls))
	copy(out, p.killCalls)
	return out
}

func (p *Pool) Close() error {
	atomic.AddInt32(&p.closeCalls, 1)
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *Pool) CloseCalls() int32 {
	return atomic.LoadInt32(&p.closeCalls)
}

// Conn is a fake wire.Conn backed by a pre-scripted, channel-delivered
// event sequence for its next Query call.
type Conn struct {
	threadID uint32

	mu      sync.Mutex
	script  []wire.Event
	execErr error // returned by Exec calls (e.g. KILL QUERY sideband probes)

	released  int32
	ended     int32
	destroyed int32
}

func NewConn(threadID uint32) *Conn {
	return &Conn{threadID: threadID}
}

// SetScript installs the event sequence the next Query call will replay.
func (c *Conn) SetScript(events []wire.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = events
}

func (c *Conn) ThreadID(ctx context.Context) (uint32, error) {
	return c.threadID, nil
}

func (c *Conn) Exec(ctx context.Context, query string, args ...any) (wire.ExecResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return wire.ExecResult{}, c.execErr
}

func (c *Conn) Query(ctx context.Context, query string, args []any) (wire.QueryHandle, error) {
	c.mu.Lock()
	events := c.script
	c.mu.Unlock()

	h := newFakeHandle(events)
	go h.replay(ctx)
	return h, nil
}

func (c *Conn) Release() error { atomic.AddInt32(&c.released, 1); return nil }
func (c *Conn) End() error     { atomic.AddInt32(&c.ended, 1); return nil }
func (c *Conn) Destroy() error { atomic.AddInt32(&c.destroyed, 1); return nil }

func (c *Conn) ReleaseCalls() int32  { return atomic.LoadInt32(&c.released) }
func (c *Conn) EndCalls() int32      { return atomic.LoadInt32(&c.ended) }
func (c *Conn) DestroyCalls() int32  { return atomic.LoadInt32(&c.destroyed) }

// fakeHandle replays a scripted event list, honoring Pause/Resume exactly
// like the real pump: a pathological script (e.g. every row event queued
// up-front with a tiny events channel buffer) stalls until Resume allows
// the replay goroutine to proceed, which is what lets tests exercise
// backpressure deterministically against a pull-based buffer.
type fakeHandle struct {
	events chan wire.Event
	script []wire.Event

	mu         sync.Mutex
	paused     bool
	resumeGate chan struct{}

	pauseCalls  int32
	resumeCalls int32
}

func newFakeHandle(script []wire.Event) *fakeHandle {
	h := &fakeHandle{
		events:     make(chan wire.Event, 1),
		script:     script,
		resumeGate: make(chan struct{}),
	}
	close(h.resumeGate)
	return h
}

func (h *fakeHandle) Events() <-chan wire.Event { return h.events }

func (h *fakeHandle) Pause() {
	atomic.AddInt32(&h.pauseCalls, 1)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.paused {
		return
	}
	h.paused = true
	h.resumeGate = make(chan struct{})
}

func (h *fakeHandle) Resume() {
	atomic.AddInt32(&h.resumeCalls, 1)
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.paused {
		return
	}
	h.paused = false
	close(h.resumeGate)
}

func (h *fakeHandle) PauseCalls() int32  { return atomic.LoadInt32(&h.pauseCalls) }
func (h *fakeHandle) ResumeCalls() int32 { return atomic.LoadInt32(&h.resumeCalls) }

func (h *fakeHandle) gate() chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resumeGate
}

func (h *fakeHandle) replay(ctx context.Context) {
	defer close(h.events)
	for _, ev := range h.script {
		select {
		case <-h.gate():
		case <-ctx.Done():
			h.events <- wire.Event{Kind: wire.EventError, Err: ctx.Err()}
			return
		}
		h.events <- ev
	}
}
