package database

import (
	"context"

	"github.com/flowsql/streamdb/internal/config"
	"github.com/flowsql/streamdb/internal/logger"
	"github.com/flowsql/streamdb/internal/wire"
)

// queryRow runs sqlStr expecting at most one row, draining and closing the
// stream itself so callers never have to manage a cursor for a single-row
// read. It returns (nil, nil) — not an error — when the statement matched
// no rows, leaving ErrKindNotFound-style signaling to callers that want it.
func queryRow(ctx context.Context, wireConn wire.Conn, pool wire.Pool, keepOpen bool, threadID uint32, cfg *config.Config, sqlStr string, args []any, log *logger.Logger) (*Row, error) {
	rows, err := newRows(ctx, wireConn, pool, keepOpen, threadID, sqlStr, flattenArgs(args), cfg.HighWaterMark, cfg.LowWaterMark, log)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Ready(); err != nil {
		return nil, err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return rows.Row().Clone(), nil
}

// execStatement runs sqlStr to completion as an exec-shaped statement and
// returns its affected-rows/insert-id outcome.
func execStatement(ctx context.Context, wireConn wire.Conn, pool wire.Pool, keepOpen bool, threadID uint32, cfg *config.Config, sqlStr string, args []any, log *logger.Logger) (ExecResult, error) {
	rows, err := newRows(ctx, wireConn, pool, keepOpen, threadID, sqlStr, flattenArgs(args), cfg.HighWaterMark, cfg.LowWaterMark, log)
	if err != nil {
		return ExecResult{}, err
	}
	defer rows.Close()

	if err := rows.Ready(); err != nil {
		return ExecResult{}, err
	}
	return rows.Result()
}
