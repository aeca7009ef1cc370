package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/SscSPs/vault_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fxRateService struct {
	BaseService
	txManager  portsrepo.TransactionManager
	repo       portsrepo.FXRateRepositoryFacade
	systemBase string
	cache      *rateCache
}

// NewFXRateService creates the rate store. systemBase is the pivot currency for cross rates.
func NewFXRateService(
	txManager portsrepo.TransactionManager,
	repo portsrepo.FXRateRepositoryFacade,
	systemBase string,
	cacheTTL time.Duration,
	opts ...ServiceOption,
) portssvc.FXRateSvcFacade {
	return &fxRateService{
		BaseService: newBaseService(opts),
		txManager:   txManager,
		repo:        repo,
		systemBase:  strings.ToUpper(systemBase),
		cache:       newRateCache(cacheTTL),
	}
}

var _ portssvc.FXRateSvcFacade = (*fxRateService)(nil)

// StoreRate upserts a rate. With MarkCurrent every other current rate of the pair is unset
// in the same unit of work.
func (s *fxRateService) StoreRate(ctx context.Context, req dto.StoreFXRateRequest, userID string) (*domain.FXRate, error) {
	from, err := accounting.NormalizeCurrency(req.FromCurrencyCode)
	if err != nil {
		return nil, err
	}
	to, err := accounting.NormalizeCurrency(req.ToCurrencyCode)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, apperrors.NewValidationError("from and to currencies must differ")
	}
	if !req.Rate.IsPositive() {
		return nil, apperrors.NewValidationError("rate must be positive")
	}
	if req.RateDate.IsZero() {
		return nil, apperrors.NewValidationError("rate date is required")
	}
	rate := accounting.RoundRate(req.Rate)
	if rate.IsZero() {
		return nil, apperrors.NewValidationError("rate is below the supported precision")
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "manual"
	}

	ts := now()
	record := domain.FXRate{
		FXRateID:  uuid.NewString(),
		From:      from,
		To:        to,
		Rate:      rate,
		RateDate:  req.RateDate.UTC(),
		Source:    source,
		IsCurrent: req.MarkCurrent,
		AuditFields: domain.AuditFields{
			CreatedAt:     ts,
			CreatedBy:     userID,
			LastUpdatedAt: ts,
			LastUpdatedBy: userID,
		},
	}

	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		if req.MarkCurrent {
			if err := s.repo.ClearCurrentRates(ctx, from, to); err != nil {
				return err
			}
		}
		return s.repo.SaveRate(ctx, record)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to store FX rate", slog.String("from", from), slog.String("to", to))
		return nil, fmt.Errorf("failed to store rate %s/%s: %w", from, to, err)
	}
	s.cache.purge()

	s.LogInfo(ctx, "FX rate stored",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("rate", rate.String()),
		slog.Bool("current", req.MarkCurrent))
	s.recordAudit(ctx, "fx_rate.stored", domain.RiskMedium, userID, "fx_rate", from+"/"+to, map[string]string{
		"rate":      rate.String(),
		"rate_date": record.RateDate.Format(time.DateOnly),
		"source":    source,
	})
	return &record, nil
}

// GetRate resolves from→to: identity, direct, inverse, then cross through the system base currency.
func (s *fxRateService) GetRate(ctx context.Context, from, to string, date *time.Time) (*domain.ResolvedRate, error) {
	from, err := accounting.NormalizeCurrency(from)
	if err != nil {
		return nil, err
	}
	to, err = accounting.NormalizeCurrency(to)
	if err != nil {
		return nil, err
	}

	if from == to {
		resolved := domain.ResolvedRate{From: from, To: to, Rate: decimal.NewFromInt(1), Method: domain.RateIdentity}
		if date != nil {
			resolved.RateDate = date.UTC()
		}
		return &resolved, nil
	}

	key := cacheKey(from, to, date)
	if cached, ok := s.cache.get(key); ok {
		return &cached, nil
	}

	resolved, err := s.lookupPair(ctx, from, to, date)
	if errors.Is(err, apperrors.ErrMissingFxRate) && from != s.systemBase && to != s.systemBase {
		resolved, err = s.lookupCross(ctx, from, to, date)
	}
	if err != nil {
		return nil, err
	}

	s.cache.set(key, *resolved)
	return resolved, nil
}

// GetAllCurrentRates returns the rate into base of every currency that appears in a current rate.
func (s *fxRateService) GetAllCurrentRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	base, err := accounting.NormalizeCurrency(base)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.ListCurrentRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list current rates: %w", err)
	}

	currencies := map[string]struct{}{}
	for _, r := range current {
		currencies[r.From] = struct{}{}
		currencies[r.To] = struct{}{}
	}
	delete(currencies, base)

	out := map[string]decimal.Decimal{base: decimal.NewFromInt(1)}
	for ccy := range currencies {
		resolved, err := s.GetRate(ctx, ccy, base, nil)
		if errors.Is(err, apperrors.ErrMissingFxRate) {
			s.LogDebug(ctx, "No rate path into base currency", slog.String("currency", ccy), slog.String("base", base))
			continue
		}
		if err != nil {
			return nil, err
		}
		out[ccy] = resolved.Rate
	}
	return out, nil
}

func (s *fxRateService) lookupPair(ctx context.Context, from, to string, date *time.Time) (*domain.ResolvedRate, error) {
	direct, err := s.repo.FindRate(ctx, from, to, date)
	if err == nil {
		return &domain.ResolvedRate{From: from, To: to, Rate: direct.Rate, RateDate: direct.RateDate, Method: domain.RateDirect}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up rate %s/%s: %w", from, to, err)
	}

	inverse, err := s.repo.FindRate(ctx, to, from, date)
	if err == nil {
		return &domain.ResolvedRate{From: from, To: to, Rate: accounting.InverseRate(inverse.Rate), RateDate: inverse.RateDate, Method: domain.RateInverse}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up rate %s/%s: %w", to, from, err)
	}

	return nil, fmt.Errorf("%w: %s to %s", apperrors.ErrMissingFxRate, from, to)
}

func (s *fxRateService) lookupCross(ctx context.Context, from, to string, date *time.Time) (*domain.ResolvedRate, error) {
	toBase, err := s.lookupPair(ctx, from, s.systemBase, date)
	if err != nil {
		return nil, err
	}
	fromBase, err := s.lookupPair(ctx, s.systemBase, to, date)
	if err != nil {
		return nil, err
	}

	rateDate := toBase.RateDate
	if fromBase.RateDate.Before(rateDate) {
		rateDate = fromBase.RateDate
	}
	return &domain.ResolvedRate{
		From:     from,
		To:       to,
		Rate:     accounting.RoundRate(toBase.Rate.Mul(fromBase.Rate)),
		RateDate: rateDate,
		Method:   domain.RateCross,
	}, nil
}

func cacheKey(from, to string, date *time.Time) string {
	if date == nil {
		return from + ":" + to + ":current"
	}
	return from + ":" + to + ":" + date.UTC().Format(time.RFC3339Nano)
}
