package database

import "context"

type txnCtxKey struct{}

// WithTxn attaches txn to ctx so nested RunTransaction calls reuse it
// instead of starting a new transaction.
func WithTxn(ctx context.Context, txn *Txn) context.Context {
	return context.WithValue(ctx, txnCtxKey{}, txn)
}

// TxnFromContext retrieves a transaction previously attached with WithTxn.
func TxnFromContext(ctx context.Context) (*Txn, bool) {
	txn, ok := ctx.Value(txnCtxKey{}).(*Txn)
	return txn, ok
}

// Transactable is anything RunTransaction can start a transaction on —
// satisfied by both *Pool and *Conn.
type Transactable interface {
	BeginTxn(ctx context.Context, opts *TxnOptions) (*Txn, error)
}

// RunTransaction runs fn within a transaction, committing on success and
// rolling back on error. If ctx already carries a transaction (this call is
// nested inside an outer RunTransaction), fn runs against that transaction
// directly instead of starting a new one — nested calls join the
// outermost transaction rather than attempting nested transactions, which
// MySQL does not support.
func RunTransaction(ctx context.Context, t Transactable, fn func(ctx context.Context, txn *Txn) error) error {
	if txn, ok := TxnFromContext(ctx); ok {
		return fn(ctx, txn)
	}

	txn, err := t.BeginTxn(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(WithTxn(ctx, txn), txn); err != nil {
		_ = txn.Rollback(ctx)
		return err
	}
	return txn.Commit(ctx)
}
