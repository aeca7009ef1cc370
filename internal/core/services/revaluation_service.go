package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// revaluationService marks foreign positions to market. It records snapshots and
// unrealized gain on the positions and posts nothing to the ledger.
type revaluationService struct {
	BaseService
	txManager  portsrepo.TransactionManager
	vaultRepo  portsrepo.VaultRepositoryFacade
	ledgerRepo portsrepo.LedgerReader
	fxRates    portssvc.FXRateSvcFacade
	workers    int
	flights    singleflight.Group
}

// NewRevaluationService creates the revaluation engine. workers bounds how many vaults
// RevalueAll processes at once.
func NewRevaluationService(
	txManager portsrepo.TransactionManager,
	vaultRepo portsrepo.VaultRepositoryFacade,
	ledgerRepo portsrepo.LedgerReader,
	fxRates portssvc.FXRateSvcFacade,
	workers int,
	opts ...ServiceOption,
) portssvc.RevaluationSvc {
	if workers < 1 {
		workers = 1
	}
	return &revaluationService{
		BaseService: newBaseService(opts),
		txManager:   txManager,
		vaultRepo:   vaultRepo,
		ledgerRepo:  ledgerRepo,
		fxRates:     fxRates,
		workers:     workers,
	}
}

var _ portssvc.RevaluationSvc = (*revaluationService)(nil)

// RevaluePositions collapses concurrent identical calls for a vault into one run.
// Calls that differ in rates or caller run on their own and queue on the vault row lock.
// The run is detached from ctx so that a caller giving up does not fail the others.
func (s *revaluationService) RevaluePositions(ctx context.Context, vaultID string, currentRates map[string]decimal.Decimal, userID string) (*domain.RevaluationResult, error) {
	ch := s.flights.DoChan(flightKey(vaultID, currentRates, userID), func() (any, error) {
		return s.revalue(context.WithoutCancel(ctx), vaultID, currentRates, userID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.LogDebug(ctx, "Joined in-flight revaluation", slog.String("vault_id", vaultID))
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.RevaluationResult), nil
	}
}

// flightKey identifies a revaluation request: the vault, the caller and the supplied rates
// in currency order.
func flightKey(vaultID string, rates map[string]decimal.Decimal, userID string) string {
	pairs := make([]string, 0, len(rates))
	for ccy, rate := range rates {
		pairs = append(pairs, strings.ToUpper(strings.TrimSpace(ccy))+"="+rate.String())
	}
	sort.Strings(pairs)
	return vaultID + "|" + userID + "|" + strings.Join(pairs, ",")
}

func (s *revaluationService) revalue(ctx context.Context, vaultID string, currentRates map[string]decimal.Decimal, userID string) (*domain.RevaluationResult, error) {
	start := time.Now()
	result, err := s.run(ctx, vaultID, currentRates, userID)
	status := "success"
	if err != nil {
		status = "error"
		if errors.Is(err, apperrors.ErrVaultLocked) {
			status = "skipped"
		}
	}
	s.metrics.RevaluationObserved(status, time.Since(start))
	if err != nil {
		if !isClientError(err) {
			s.LogError(ctx, err, "Revaluation failed", slog.String("vault_id", vaultID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Vault revalued",
		slog.String("vault_id", vaultID),
		slog.Int("positions", len(result.Snapshots)),
		slog.String("total_delta", result.TotalDelta.String()))
	s.recordAudit(ctx, "vault.revalued", domain.RiskLow, userID, "vault", vaultID, map[string]string{
		"positions":   fmt.Sprint(len(result.Snapshots)),
		"total_delta": result.TotalDelta.String(),
	})
	return result, nil
}

func (s *revaluationService) run(ctx context.Context, vaultID string, currentRates map[string]decimal.Decimal, userID string) (*domain.RevaluationResult, error) {
	vault, err := s.vaultRepo.FindVaultByID(ctx, vaultID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", vaultID, apperrors.ErrVaultNotFound)
		}
		return nil, err
	}
	if vault.IsLocked {
		return nil, lockedError(vault)
	}

	rates, err := s.resolveRates(ctx, vault, currentRates)
	if err != nil {
		return nil, err
	}

	result := &domain.RevaluationResult{VaultID: vaultID, TotalDelta: decimal.Zero}
	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		vault, err := s.vaultRepo.FindVaultByIDForUpdate(ctx, vaultID)
		if err != nil {
			return err
		}
		if vault.IsLocked {
			return lockedError(vault)
		}

		positions, err := s.vaultRepo.ListPositions(ctx, vaultID)
		if err != nil {
			return err
		}
		ts := now()
		snapshots := make([]domain.FXValuationSnapshot, 0, len(positions))
		for _, listed := range positions {
			rate, ok := rates[listed.CurrencyCode]
			if !ok || listed.CurrencyCode == vault.BaseCurrency {
				continue
			}
			pos, err := s.vaultRepo.FindPositionForUpdate(ctx, vaultID, listed.CurrencyCode)
			if err != nil {
				return err
			}
			balance, err := s.balance(ctx, pos.AccountID)
			if err != nil {
				return err
			}
			if !balance.IsPositive() {
				continue
			}

			last := pos.LastRate
			if last.IsZero() {
				last = pos.CostBasisRate
			}
			delta := accounting.RoundAmount(balance.Mul(rate.Sub(last)))
			snapshots = append(snapshots, domain.FXValuationSnapshot{
				SnapshotID:    uuid.NewString(),
				PositionID:    pos.PositionID,
				VaultID:       vaultID,
				CurrencyCode:  pos.CurrencyCode,
				BaseCurrency:  vault.BaseCurrency,
				Balance:       balance,
				CostBasisRate: pos.CostBasisRate,
				OriginalRate:  last,
				OriginalValue: accounting.ToBase(balance, last),
				CurrentRate:   rate,
				CurrentValue:  accounting.ToBase(balance, rate),
				Delta:         delta,
				SnapshotDate:  ts,
				CreatedBy:     userID,
			})

			pos.CumulativeUnrealizedGain = pos.CumulativeUnrealizedGain.Add(delta)
			pos.LastRate = rate
			pos.LastRateDate = &ts
			pos.LastUpdatedAt = ts
			pos.LastUpdatedBy = userID
			if err := s.vaultRepo.UpdatePosition(ctx, *pos); err != nil {
				return err
			}
			result.TotalDelta = result.TotalDelta.Add(delta)
		}

		if len(snapshots) > 0 {
			if err := s.vaultRepo.SaveSnapshots(ctx, snapshots); err != nil {
				return err
			}
		}
		result.Snapshots = snapshots
		result.RevaluedAt = ts
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveRates picks a rate for every foreign position that currently holds a balance.
// Supplied rates win over stored ones. Runs before the unit of work.
func (s *revaluationService) resolveRates(ctx context.Context, vault *domain.Vault, supplied map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	normalized := make(map[string]decimal.Decimal, len(supplied))
	for ccy, rate := range supplied {
		code, err := accounting.NormalizeCurrency(ccy)
		if err != nil {
			return nil, err
		}
		if !rate.IsPositive() {
			return nil, apperrors.NewValidationError(fmt.Sprintf("rate for %s must be positive", code))
		}
		normalized[code] = accounting.RoundRate(rate)
	}

	positions, err := s.vaultRepo.ListPositions(ctx, vault.VaultID)
	if err != nil {
		return nil, err
	}
	rates := make(map[string]decimal.Decimal, len(positions))
	for _, p := range positions {
		if p.CurrencyCode == vault.BaseCurrency {
			continue
		}
		if r, ok := normalized[p.CurrencyCode]; ok {
			rates[p.CurrencyCode] = r
			continue
		}
		balance, err := s.balance(ctx, p.AccountID)
		if err != nil {
			return nil, err
		}
		if !balance.IsPositive() {
			continue
		}
		resolved, err := s.fxRates.GetRate(ctx, p.CurrencyCode, vault.BaseCurrency, nil)
		if err != nil {
			return nil, err
		}
		rates[p.CurrencyCode] = resolved.Rate
	}
	return rates, nil
}

func (s *revaluationService) balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	totals, err := s.ledgerRepo.SumEntriesByAccount(ctx, []string{accountID}, domain.EntrySumFilter{})
	if err != nil {
		return decimal.Zero, err
	}
	balance, _ := accounting.BalanceFromTotals(totals[accountID], domain.Asset)
	return balance, nil
}

// RevalueAll revalues every auto-revaluation vault, at most s.workers at a time.
// Locked vaults are skipped; a failing vault does not stop the sweep.
func (s *revaluationService) RevalueAll(ctx context.Context) (*domain.RevaluationSweep, error) {
	vaults, err := s.vaultRepo.ListVaults(ctx, domain.VaultFilter{AutoRevaluationOnly: true})
	if err != nil {
		s.LogError(ctx, err, "Failed to list vaults for revaluation")
		return nil, fmt.Errorf("failed to list vaults: %w", err)
	}

	sweep := &domain.RevaluationSweep{
		Results: []domain.RevaluationResult{},
		Skipped: []string{},
		Failed:  map[string]string{},
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, v := range vaults {
		v := v
		if v.IsLocked {
			sweep.Skipped = append(sweep.Skipped, v.VaultID)
			continue
		}
		g.Go(func() error {
			res, err := s.RevaluePositions(gctx, v.VaultID, nil, domain.SystemUserID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, apperrors.ErrVaultLocked):
				sweep.Skipped = append(sweep.Skipped, v.VaultID)
			case err != nil:
				sweep.Failed[v.VaultID] = err.Error()
			default:
				sweep.Results = append(sweep.Results, *res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(sweep.Results, func(i, j int) bool { return sweep.Results[i].VaultID < sweep.Results[j].VaultID })
	sort.Strings(sweep.Skipped)

	s.LogInfo(ctx, "Revaluation sweep finished",
		slog.Int("revalued", len(sweep.Results)),
		slog.Int("skipped", len(sweep.Skipped)),
		slog.Int("failed", len(sweep.Failed)),
		slog.String("failed_vaults", strings.Join(failedIDs(sweep.Failed), ",")))
	return sweep, nil
}

const defaultSnapshotLimit = 100

func (s *revaluationService) ListSnapshots(ctx context.Context, vaultID string, limit int) ([]domain.FXValuationSnapshot, error) {
	if _, err := s.vaultRepo.FindVaultByID(ctx, vaultID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", vaultID, apperrors.ErrVaultNotFound)
		}
		return nil, err
	}
	if limit <= 0 || limit > defaultSnapshotLimit {
		limit = defaultSnapshotLimit
	}
	snapshots, err := s.vaultRepo.ListSnapshots(ctx, vaultID, limit)
	if err != nil {
		s.LogError(ctx, err, "Failed to list snapshots", slog.String("vault_id", vaultID))
		return nil, err
	}
	if snapshots == nil {
		return []domain.FXValuationSnapshot{}, nil
	}
	return snapshots, nil
}

func failedIDs(failed map[string]string) []string {
	ids := make([]string, 0, len(failed))
	for id := range failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
