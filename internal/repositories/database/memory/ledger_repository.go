package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
)

type ledgerRepository struct {
	store *Store
}

var _ portsrepo.LedgerRepositoryFacade = (*ledgerRepository)(nil)

func (r *ledgerRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.Entry) error {
	return r.store.with(ctx, func(d *state) error {
		if _, exists := d.transactions[txn.TransactionID]; exists {
			return fmt.Errorf("transaction %s: %w", txn.TransactionID, apperrors.ErrDuplicate)
		}
		txn.Entries = nil
		d.transactions[txn.TransactionID] = txn
		for _, e := range entries {
			d.sequence++
			e.Sequence = d.sequence
			d.entries = append(d.entries, e)
		}
		return nil
	})
}

func (r *ledgerRepository) MarkTransactionReversed(ctx context.Context, transactionID string, reversalID string) error {
	return r.store.with(ctx, func(d *state) error {
		txn, ok := d.transactions[transactionID]
		if !ok {
			return fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrNotFound)
		}
		if txn.Reversed {
			return fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrAlreadyReversed)
		}
		txn.Reversed = true
		txn.ReversalID = reversalID
		d.transactions[transactionID] = txn
		return nil
	})
}

func (r *ledgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var out *domain.Transaction
	err := r.store.with(ctx, func(d *state) error {
		txn, ok := d.transactions[transactionID]
		if !ok {
			return fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrNotFound)
		}
		out = &txn
		return nil
	})
	return out, err
}

// FindTransactionByIDForUpdate needs no extra locking: units of work are already serialised.
func (r *ledgerRepository) FindTransactionByIDForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return r.FindTransactionByID(ctx, transactionID)
}

func (r *ledgerRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.Entry, error) {
	var out []domain.Entry
	err := r.store.with(ctx, func(d *state) error {
		for _, e := range d.entries {
			if e.TransactionID == transactionID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r *ledgerRepository) SumEntriesByAccount(ctx context.Context, accountIDs []string, filter domain.EntrySumFilter) (map[string]domain.EntryTotals, error) {
	var wanted map[string]struct{}
	if accountIDs != nil {
		wanted = make(map[string]struct{}, len(accountIDs))
		for _, id := range accountIDs {
			wanted[id] = struct{}{}
		}
	}

	out := make(map[string]domain.EntryTotals)
	err := r.store.with(ctx, func(d *state) error {
		for _, e := range d.entries {
			if wanted != nil {
				if _, ok := wanted[e.AccountID]; !ok {
					continue
				}
			}
			if !filter.Matches(e) {
				continue
			}
			out[e.AccountID] = out[e.AccountID].Add(e)
		}
		return nil
	})
	return out, err
}

func (r *ledgerRepository) ListEntriesByAccount(ctx context.Context, accountID string, query domain.EntryQuery) ([]domain.Entry, error) {
	var out []domain.Entry
	err := r.store.with(ctx, func(d *state) error {
		for _, e := range d.entries {
			if e.AccountID != accountID {
				continue
			}
			if query.From != nil && e.EntryDate.Before(*query.From) {
				continue
			}
			if query.To != nil && e.EntryDate.After(*query.To) {
				continue
			}
			if query.After != nil && !query.After.After(e) {
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].EntryDate.Before(out[j].EntryDate)
	})
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}
