package services

import (
	"context"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RevaluationSvc marks foreign currency positions to market.
type RevaluationSvc interface {
	// RevaluePositions revalues every foreign position of a vault. currentRates maps
	// currency to its rate into the vault base currency; missing currencies are looked up.
	RevaluePositions(ctx context.Context, vaultID string, currentRates map[string]decimal.Decimal, userID string) (*domain.RevaluationResult, error)
	// RevalueAll sweeps every unlocked auto-revaluation vault.
	RevalueAll(ctx context.Context) (*domain.RevaluationSweep, error)
	// ListSnapshots returns the newest snapshots of a vault first.
	ListSnapshots(ctx context.Context, vaultID string, limit int) ([]domain.FXValuationSnapshot, error)
}
