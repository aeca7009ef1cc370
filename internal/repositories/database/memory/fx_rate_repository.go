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

type fxRateRepository struct {
	store *Store
}

var _ portsrepo.FXRateRepositoryFacade = (*fxRateRepository)(nil)

func keyFor(rate domain.FXRate) rateKey {
	return rateKey{from: rate.From, to: rate.To, date: rate.RateDate.UTC().UnixNano()}
}

func (r *fxRateRepository) SaveRate(ctx context.Context, rate domain.FXRate) error {
	return r.store.with(ctx, func(d *state) error {
		k := keyFor(rate)
		if existing, ok := d.rates[k]; ok {
			rate.FXRateID = existing.FXRateID
			rate.CreatedAt = existing.CreatedAt
			rate.CreatedBy = existing.CreatedBy
		}
		d.rates[k] = rate
		return nil
	})
}

func (r *fxRateRepository) ClearCurrentRates(ctx context.Context, from, to string) error {
	return r.store.with(ctx, func(d *state) error {
		for k, rate := range d.rates {
			if rate.From == from && rate.To == to && rate.IsCurrent {
				rate.IsCurrent = false
				d.rates[k] = rate
			}
		}
		return nil
	})
}

func (r *fxRateRepository) FindRate(ctx context.Context, from, to string, asOf *time.Time) (*domain.FXRate, error) {
	var out *domain.FXRate
	err := r.store.with(ctx, func(d *state) error {
		var best, current *domain.FXRate
		for _, rate := range d.rates {
			if rate.From != from || rate.To != to {
				continue
			}
			if asOf != nil && rate.RateDate.After(*asOf) {
				continue
			}
			rate := rate
			if best == nil || rate.RateDate.After(best.RateDate) {
				best = &rate
			}
			if rate.IsCurrent && (current == nil || rate.RateDate.After(current.RateDate)) {
				current = &rate
			}
		}
		if asOf == nil && current != nil {
			out = current
			return nil
		}
		if best == nil {
			return fmt.Errorf("rate %s/%s: %w", from, to, apperrors.ErrNotFound)
		}
		out = best
		return nil
	})
	return out, err
}

func (r *fxRateRepository) ListCurrentRates(ctx context.Context) ([]domain.FXRate, error) {
	var out []domain.FXRate
	err := r.store.with(ctx, func(d *state) error {
		for _, rate := range d.rates {
			if rate.IsCurrent {
				out = append(out, rate)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].From == out[j].From {
			return out[i].To < out[j].To
		}
		return out[i].From < out[j].From
	})
	return out, err
}
