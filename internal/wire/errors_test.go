package wire

import (
	"context"
	"database/sql"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/flowsql/streamdb/internal/errs"
)

func TestMapErrorClassifiesContextCancellation(t *testing.T) {
	if !errs.IsCanceled(mapError(context.Canceled)) {
		t.Fatalf("context.Canceled should map to ErrKindCanceled")
	}
	if !errs.IsCanceled(mapError(context.DeadlineExceeded)) {
		t.Fatalf("context.DeadlineExceeded should map to ErrKindCanceled")
	}
}

func TestMapErrorClassifiesNoRows(t *testing.T) {
	if !errs.IsNotFound(mapError(sql.ErrNoRows)) {
		t.Fatalf("sql.ErrNoRows should map to ErrKindNotFound")
	}
}

func TestMapErrorClassifiesQueryInterrupted(t *testing.T) {
	err := &gomysql.MySQLError{Number: errQueryInterrupted, Message: "Query execution was interrupted"}
	if !errs.IsInterruptedExpected(mapError(err)) {
		t.Fatalf("ER_QUERY_INTERRUPTED should map to ErrKindInterruptedExpected")
	}
}

func TestMapErrorClassifiesConnectionFailures(t *testing.T) {
	for _, code := range []uint16{1044, 1045, 1049, 1040, 1203} {
		err := &gomysql.MySQLError{Number: code, Message: "denied"}
		if !errs.IsConnectionFailed(mapError(err)) {
			t.Fatalf("code %d should map to ErrKindConnectionFailed", code)
		}
	}
}

func TestMapErrorClassifiesQuerySyntaxFailures(t *testing.T) {
	err := &gomysql.MySQLError{Number: 1064, Message: "syntax error"}
	if !errs.IsQueryFailed(mapError(err)) {
		t.Fatalf("syntax error code should map to ErrKindQueryFailed")
	}
}

func TestDecodeFieldsNilReturnsEmpty(t *testing.T) {
	fields := decodeFields(nil)
	if len(fields) != 0 {
		t.Fatalf("decodeFields(nil) should return empty slice, got %v", fields)
	}
}
