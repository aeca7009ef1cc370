package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
)

// VaultReader defines read operations for vaults.
type VaultReader interface {
	FindVaultByID(ctx context.Context, vaultID string) (*domain.Vault, error)
	// FindVaultByIDForUpdate locks the vault row until the surrounding unit of work ends.
	FindVaultByIDForUpdate(ctx context.Context, vaultID string) (*domain.Vault, error)
	ListVaults(ctx context.Context, filter domain.VaultFilter) ([]domain.Vault, error)
}

// VaultWriter defines write operations for vaults.
type VaultWriter interface {
	SaveVault(ctx context.Context, vault domain.Vault) error
	UpdateVaultLock(ctx context.Context, vaultID string, locked bool, reason string, userID string, now time.Time) error
}

// PositionRepository defines operations on currency positions.
type PositionRepository interface {
	// SavePosition inserts a position. A duplicate (vault, currency) yields apperrors.ErrDuplicate.
	SavePosition(ctx context.Context, position domain.CurrencyPosition) error
	FindPosition(ctx context.Context, vaultID, currency string) (*domain.CurrencyPosition, error)
	// FindPositionForUpdate locks the position row until the surrounding unit of work ends.
	FindPositionForUpdate(ctx context.Context, vaultID, currency string) (*domain.CurrencyPosition, error)
	ListPositions(ctx context.Context, vaultID string) ([]domain.CurrencyPosition, error)
	// UpdatePosition writes the valuation state when the stored version equals position.Version
	// and bumps the version. A stale version yields apperrors.ErrConflict.
	UpdatePosition(ctx context.Context, position domain.CurrencyPosition) error
}

// SnapshotRepository stores revaluation snapshots.
type SnapshotRepository interface {
	SaveSnapshots(ctx context.Context, snapshots []domain.FXValuationSnapshot) error
	ListSnapshots(ctx context.Context, vaultID string, limit int) ([]domain.FXValuationSnapshot, error)
}

// VaultRepositoryFacade combines vault, position and snapshot operations.
type VaultRepositoryFacade interface {
	VaultReader
	VaultWriter
	PositionRepository
	SnapshotRepository
}
