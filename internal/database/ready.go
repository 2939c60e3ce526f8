package database

import "sync"

// readyFuture is a single-shot, externally-fulfilled promise: exactly one
// Fulfill call settles it, every Wait call (concurrent or later) observes
// the same outcome. Used to implement Rows.Ready() — the actor goroutine
// fulfills it once, callers of Ready()/Columns()/ColumnTypes()/Result()
// block on it from any number of goroutines.
type readyFuture struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newReadyFuture() *readyFuture {
	return &readyFuture{done: make(chan struct{})}
}

func (f *readyFuture) fulfill(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

func (f *readyFuture) wait() error {
	<-f.done
	return f.err
}

func (f *readyFuture) isDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
