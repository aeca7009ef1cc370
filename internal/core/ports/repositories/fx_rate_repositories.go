package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
)

// FXRateReader defines read operations for stored exchange rates.
type FXRateReader interface {
	// FindRate returns the latest rate for the pair with rate_date <= asOf.
	// With asOf nil the rate flagged current is returned, falling back to the latest one.
	FindRate(ctx context.Context, from, to string, asOf *time.Time) (*domain.FXRate, error)

	// ListCurrentRates returns every rate flagged current.
	ListCurrentRates(ctx context.Context) ([]domain.FXRate, error)
}

// FXRateWriter defines write operations for exchange rates.
type FXRateWriter interface {
	// SaveRate upserts a rate keyed by (from, to, rate date).
	SaveRate(ctx context.Context, rate domain.FXRate) error

	// ClearCurrentRates unsets the current flag on every rate of the pair.
	ClearCurrentRates(ctx context.Context, from, to string) error
}

// FXRateRepositoryFacade combines FX rate read and write operations.
type FXRateRepositoryFacade interface {
	FXRateReader
	FXRateWriter
}
