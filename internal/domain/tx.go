package domain

import "context"

// TxRunner executes fn inside a single store transaction. The renewal path
// uses it to keep the member update and the payment insert all-or-nothing.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
