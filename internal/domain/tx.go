package domain

import "context"

// TxRunner executes fn inside a single database transaction. The transaction
// is carried through the context so that every repository call within fn
// participates; an error from fn rolls everything back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
