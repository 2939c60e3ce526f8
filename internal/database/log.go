package database

import "github.com/flowsql/streamdb/internal/logger"

// defaultLog backs every component whose log field was left unset —
// mainly unit tests that construct a Pool/Conn/Txn/Rows directly instead
// of going through Open, which wires logger.FromContext(ctx) in. Mirrors
// logger.FromContext's own fallback-to-default behavior.
var defaultLog = logger.New(nil)

func logOr(l *logger.Logger) *logger.Logger {
	if l == nil {
		return defaultLog
	}
	return l
}
