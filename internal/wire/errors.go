package wire

import (
	"context"
	"database/sql"
	"errors"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/flowsql/streamdb/internal/errs"
)

// errQueryInterrupted is MySQL error 1317, ER_QUERY_INTERRUPTED, raised on
// a connection whose running statement was just hit by KILL QUERY.
const errQueryInterrupted = 1317

// mapError translates a go-sql-driver/mysql or database/sql error into
// *errs.Error, the single error type the rest of this module inspects.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.ErrKindCanceled, "context canceled", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, "no rows", err)
	}

	var merr *gomysql.MySQLError
	if errors.As(err, &merr) {
		if merr.Number == errQueryInterrupted {
			return errs.Wrap(errs.ErrKindInterruptedExpected, "query interrupted by KILL QUERY", err)
		}
		return errs.Wrap(classifyMySQLCode(merr.Number), merr.Message, err)
	}

	return errs.Wrap(errs.ErrKindDriverError, "driver error", err)
}

// classifyMySQLCode maps MySQL server error numbers to an ErrKind.
// https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case 1044, 1045, 1046, 1049, 1040, 1203:
		return errs.ErrKindConnectionFailed
	case 1054, 1064, 1146:
		return errs.ErrKindQueryFailed
	default:
		return errs.ErrKindQueryFailed
	}
}
