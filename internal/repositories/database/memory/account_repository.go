package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
)

type accountRepository struct {
	store *Store
}

var _ portsrepo.AccountRepositoryFacade = (*accountRepository)(nil)

func (r *accountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	var out *domain.Account
	err := r.store.with(ctx, func(d *state) error {
		acc, ok := d.accounts[accountID]
		if !ok {
			return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
		}
		out = &acc
		return nil
	})
	return out, err
}

func (r *accountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	var out *domain.Account
	err := r.store.with(ctx, func(d *state) error {
		id, ok := d.accountCodes[code]
		if !ok {
			return fmt.Errorf("account code %s: %w", code, apperrors.ErrNotFound)
		}
		acc := d.accounts[id]
		out = &acc
		return nil
	})
	return out, err
}

func (r *accountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	err := r.store.with(ctx, func(d *state) error {
		for _, id := range accountIDs {
			if acc, ok := d.accounts[id]; ok {
				out[id] = acc
			}
		}
		return nil
	})
	return out, err
}

func (r *accountRepository) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	var out []domain.Account
	err := r.store.with(ctx, func(d *state) error {
		for _, acc := range d.accounts {
			if filter.EntityType != "" && acc.EntityType != filter.EntityType {
				continue
			}
			if filter.EntityID != "" && acc.EntityID != filter.EntityID {
				continue
			}
			if filter.ParentAccountID != "" && acc.ParentAccountID != filter.ParentAccountID {
				continue
			}
			if filter.ActiveOnly && !acc.IsActive {
				continue
			}
			out = append(out, acc)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

func (r *accountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	return r.store.with(ctx, func(d *state) error {
		if _, exists := d.accountCodes[account.Code]; exists {
			return fmt.Errorf("account code %s: %w", account.Code, apperrors.ErrDuplicate)
		}
		if _, exists := d.accounts[account.AccountID]; exists {
			return fmt.Errorf("account %s: %w", account.AccountID, apperrors.ErrDuplicate)
		}
		d.accounts[account.AccountID] = account
		d.accountCodes[account.Code] = account.AccountID
		return nil
	})
}

func (r *accountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	return r.store.with(ctx, func(d *state) error {
		acc, ok := d.accounts[accountID]
		if !ok {
			return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
		}
		acc.IsActive = false
		acc.LastUpdatedAt = now
		acc.LastUpdatedBy = userID
		d.accounts[accountID] = acc
		return nil
	})
}
