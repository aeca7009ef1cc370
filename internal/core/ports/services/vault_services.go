package services

import (
	"context"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/dto"
)

// VaultReaderSvc defines read operations on vaults.
type VaultReaderSvc interface {
	GetVault(ctx context.Context, vaultID string) (*domain.Vault, error)
	GetBalances(ctx context.Context, vaultID string) (*domain.VaultBalances, error)
}

// VaultWriterSvc defines vault lifecycle and money movements.
type VaultWriterSvc interface {
	CreateVault(ctx context.Context, req dto.CreateVaultRequest, userID string) (*domain.Vault, error)
	GetOrCreateCurrencyPosition(ctx context.Context, vaultID, currency, userID string) (*domain.CurrencyPosition, error)
	Deposit(ctx context.Context, vaultID string, req dto.MovementRequest, userID string) (*domain.VaultMovement, error)
	Withdraw(ctx context.Context, vaultID string, req dto.MovementRequest, userID string) (*domain.VaultMovement, error)
	Transfer(ctx context.Context, req dto.TransferRequest, userID string) (*domain.TransferResult, error)
	Lock(ctx context.Context, vaultID, reason, userID string) error
	Unlock(ctx context.Context, vaultID, userID string) error
}

// VaultSvcFacade combines all vault-related service interfaces.
type VaultSvcFacade interface {
	VaultReaderSvc
	VaultWriterSvc
}
