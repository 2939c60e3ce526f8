package database

import (
	"context"

	"github.com/flowsql/streamdb/internal/logger"
	"github.com/flowsql/streamdb/internal/wire"
)

// leaseConn acquires a wire connection and its thread id together, since
// every caller of GetConnection immediately needs ThreadID for the KILL
// QUERY sideband path. On failure of either step, any partially-acquired
// connection is released before returning so a failed lease never leaks a
// pool slot.
func leaseConn(ctx context.Context, pool wire.Pool, log *logger.Logger) (wire.Conn, uint32, error) {
	log = logOr(log)

	conn, err := pool.GetConnection(ctx)
	if err != nil {
		log.ErrorWith("connection acquire failed", err, nil)
		return nil, 0, err
	}
	threadID, err := conn.ThreadID(ctx)
	if err != nil {
		_ = conn.Release()
		log.ErrorWith("thread id lookup failed, connection released", err, nil)
		return nil, 0, err
	}
	log.InfoWith("connection acquired", map[string]interface{}{"thread_id": threadID})
	return conn, threadID, nil
}

// withLeasedConn leases a connection for the duration of fn and always
// releases it afterward, regardless of fn's outcome. For call-scoped
// operations (Pool.QueryRow, Pool.Exec) where nothing downstream needs to
// outlive the call.
func withLeasedConn(ctx context.Context, pool wire.Pool, log *logger.Logger, fn func(conn wire.Conn, threadID uint32) error) error {
	conn, threadID, err := leaseConn(ctx, pool, log)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Release() }()
	return fn(conn, threadID)
}

// teardownConn applies the connection-disposal policy for a stream or
// sideband operation that owns its connection outright: a hard cancel
// destroys the connection rather than returning a connection mid-query to
// the pool, while any other terminal outcome releases it for reuse. The
// teardown's own error is swallowed — the caller already has the
// operation's real terminal error to report.
func teardownConn(conn wire.Conn, hardCancel bool) {
	if hardCancel {
		_ = conn.Destroy()
		return
	}
	_ = conn.Release()
}
