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

type vaultRepository struct {
	store *Store
}

var _ portsrepo.VaultRepositoryFacade = (*vaultRepository)(nil)

func (r *vaultRepository) SaveVault(ctx context.Context, vault domain.Vault) error {
	return r.store.with(ctx, func(d *state) error {
		if _, exists := d.vaults[vault.VaultID]; exists {
			return fmt.Errorf("vault %s: %w", vault.VaultID, apperrors.ErrDuplicate)
		}
		d.vaults[vault.VaultID] = vault
		return nil
	})
}

func (r *vaultRepository) FindVaultByID(ctx context.Context, vaultID string) (*domain.Vault, error) {
	var out *domain.Vault
	err := r.store.with(ctx, func(d *state) error {
		v, ok := d.vaults[vaultID]
		if !ok {
			return fmt.Errorf("vault %s: %w", vaultID, apperrors.ErrNotFound)
		}
		out = &v
		return nil
	})
	return out, err
}

func (r *vaultRepository) FindVaultByIDForUpdate(ctx context.Context, vaultID string) (*domain.Vault, error) {
	return r.FindVaultByID(ctx, vaultID)
}

func (r *vaultRepository) ListVaults(ctx context.Context, filter domain.VaultFilter) ([]domain.Vault, error) {
	var out []domain.Vault
	err := r.store.with(ctx, func(d *state) error {
		for _, v := range d.vaults {
			if filter.AutoRevaluationOnly && !v.AutoRevaluation {
				continue
			}
			if filter.UnlockedOnly && v.IsLocked {
				continue
			}
			out = append(out, v)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].VaultID < out[j].VaultID })
	return out, err
}

func (r *vaultRepository) UpdateVaultLock(ctx context.Context, vaultID string, locked bool, reason string, userID string, now time.Time) error {
	return r.store.with(ctx, func(d *state) error {
		v, ok := d.vaults[vaultID]
		if !ok {
			return fmt.Errorf("vault %s: %w", vaultID, apperrors.ErrNotFound)
		}
		v.IsLocked = locked
		v.LockReason = reason
		v.LastUpdatedAt = now
		v.LastUpdatedBy = userID
		d.vaults[vaultID] = v
		return nil
	})
}

func (r *vaultRepository) SavePosition(ctx context.Context, position domain.CurrencyPosition) error {
	return r.store.with(ctx, func(d *state) error {
		k := positionKey{position.VaultID, position.CurrencyCode}
		if _, exists := d.positions[k]; exists {
			return fmt.Errorf("position %s/%s: %w", position.VaultID, position.CurrencyCode, apperrors.ErrDuplicate)
		}
		d.positions[k] = position
		return nil
	})
}

func (r *vaultRepository) FindPosition(ctx context.Context, vaultID, currency string) (*domain.CurrencyPosition, error) {
	var out *domain.CurrencyPosition
	err := r.store.with(ctx, func(d *state) error {
		p, ok := d.positions[positionKey{vaultID, currency}]
		if !ok {
			return fmt.Errorf("position %s/%s: %w", vaultID, currency, apperrors.ErrNotFound)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *vaultRepository) FindPositionForUpdate(ctx context.Context, vaultID, currency string) (*domain.CurrencyPosition, error) {
	return r.FindPosition(ctx, vaultID, currency)
}

func (r *vaultRepository) ListPositions(ctx context.Context, vaultID string) ([]domain.CurrencyPosition, error) {
	var out []domain.CurrencyPosition
	err := r.store.with(ctx, func(d *state) error {
		for k, p := range d.positions {
			if k.vaultID == vaultID {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyCode < out[j].CurrencyCode })
	return out, err
}

func (r *vaultRepository) UpdatePosition(ctx context.Context, position domain.CurrencyPosition) error {
	return r.store.with(ctx, func(d *state) error {
		k := positionKey{position.VaultID, position.CurrencyCode}
		stored, ok := d.positions[k]
		if !ok {
			return fmt.Errorf("position %s/%s: %w", position.VaultID, position.CurrencyCode, apperrors.ErrNotFound)
		}
		if stored.Version != position.Version {
			return fmt.Errorf("position %s/%s version %d, stored %d: %w",
				position.VaultID, position.CurrencyCode, position.Version, stored.Version, apperrors.ErrConflict)
		}
		position.Version++
		d.positions[k] = position
		return nil
	})
}

func (r *vaultRepository) SaveSnapshots(ctx context.Context, snapshots []domain.FXValuationSnapshot) error {
	return r.store.with(ctx, func(d *state) error {
		d.snapshots = append(d.snapshots, snapshots...)
		return nil
	})
}

func (r *vaultRepository) ListSnapshots(ctx context.Context, vaultID string, limit int) ([]domain.FXValuationSnapshot, error) {
	var out []domain.FXValuationSnapshot
	err := r.store.with(ctx, func(d *state) error {
		for i := len(d.snapshots) - 1; i >= 0; i-- {
			if d.snapshots[i].VaultID != vaultID {
				continue
			}
			out = append(out, d.snapshots[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}
