package repositories

import (
	"context"
)

// TransactionManager runs a unit of work atomically. The storage transaction travels in
// the context handed to fn, so every repository call made with that context joins it.
// Calling RunInTx with a context that already carries a transaction joins the outer one.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
