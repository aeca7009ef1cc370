package services

import (
	"context"
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// FXRateSvcFacade stores and resolves exchange rates.
type FXRateSvcFacade interface {
	StoreRate(ctx context.Context, req dto.StoreFXRateRequest, userID string) (*domain.FXRate, error)
	GetRate(ctx context.Context, from, to string, date *time.Time) (*domain.ResolvedRate, error)
	GetAllCurrentRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}
