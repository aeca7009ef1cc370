package repositories

import (
	"context"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
)

// LedgerReader defines read operations over transactions and their entries.
type LedgerReader interface {
	// FindTransactionByID retrieves a transaction header without entries.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionByIDForUpdate retrieves a transaction header and locks it until the surrounding unit of work ends.
	FindTransactionByIDForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindEntriesByTransactionID retrieves the entries of one transaction in posting order.
	FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.Entry, error)

	// SumEntriesByAccount aggregates entries per account. A nil accountIDs aggregates every account.
	SumEntriesByAccount(ctx context.Context, accountIDs []string, filter domain.EntrySumFilter) (map[string]domain.EntryTotals, error)

	// ListEntriesByAccount returns entries of one account ordered by (entry date, sequence).
	ListEntriesByAccount(ctx context.Context, accountID string, query domain.EntryQuery) ([]domain.Entry, error)
}

// LedgerWriter defines the append-only write operations.
type LedgerWriter interface {
	// SaveTransaction persists a transaction header and all of its entries. Sequence numbers
	// are assigned by the store.
	SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.Entry) error

	// MarkTransactionReversed links a transaction to its reversal. It fails with
	// apperrors.ErrAlreadyReversed when the transaction was already reversed.
	MarkTransactionReversed(ctx context.Context, transactionID string, reversalID string) error
}

// LedgerRepositoryFacade combines ledger read and write operations.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
