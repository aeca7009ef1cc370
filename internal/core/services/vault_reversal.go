package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// positionChange is what one transaction did to a single position account.
type positionChange struct {
	vaultID  string
	currency string
	debited  decimal.Decimal // native amount debited
	debitVal decimal.Decimal // native × rate of the debits
	credited decimal.Decimal
}

// ApplyReversal restores the cost basis, last rate and realized gain of every vault position
// touched by a reversed transaction. Balances already follow from the mirror entries.
func (s *vaultService) ApplyReversal(ctx context.Context, original domain.Transaction, entries []domain.Entry, accounts map[string]domain.Account, userID string) error {
	changes := map[string]*positionChange{}
	vaultIDs := map[string]struct{}{}
	for _, e := range entries {
		acc, ok := accounts[e.AccountID]
		if !ok || acc.EntityType != domain.EntityVault || acc.EntityID == "" {
			continue
		}
		vaultIDs[acc.EntityID] = struct{}{}
		if acc.Code != vaultPositionCode(acc.EntityID, acc.CurrencyCode) {
			continue
		}
		c, ok := changes[acc.AccountID]
		if !ok {
			c = &positionChange{vaultID: acc.EntityID, currency: acc.CurrencyCode}
			changes[acc.AccountID] = c
		}
		if e.Direction == domain.Debit {
			c.debited = c.debited.Add(e.Amount)
			c.debitVal = c.debitVal.Add(e.Amount.Mul(e.FxRate))
		} else {
			c.credited = c.credited.Add(e.Amount)
		}
	}
	if len(changes) == 0 {
		return nil
	}

	ordered := make([]string, 0, len(vaultIDs))
	for id := range vaultIDs {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)
	vaults := make(map[string]*domain.Vault, len(ordered))
	for _, id := range ordered {
		v, err := s.lockVault(ctx, id)
		if err != nil {
			return err
		}
		vaults[id] = v
	}

	// Realized FX postings of a withdrawal belong to the position it credited.
	realized := map[string]decimal.Decimal{}
	for _, e := range entries {
		acc := accounts[e.AccountID]
		v, ok := vaults[acc.EntityID]
		if !ok || e.AccountID != v.RealizedFxAccountID {
			continue
		}
		if e.Direction == domain.Credit {
			realized[v.VaultID] = realized[v.VaultID].Add(e.BaseAmount)
		} else {
			realized[v.VaultID] = realized[v.VaultID].Sub(e.BaseAmount)
		}
	}

	accountIDs := make([]string, 0, len(changes))
	for id := range changes {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)
	for _, accountID := range accountIDs {
		c := changes[accountID]
		vault := vaults[c.vaultID]
		pos, err := s.vaultRepo.FindPositionForUpdate(ctx, c.vaultID, c.currency)
		if err != nil {
			return err
		}
		if err := s.restorePosition(ctx, vault, pos, c); err != nil {
			return err
		}
		if gain, ok := realized[c.vaultID]; ok && c.credited.IsPositive() {
			pos.CumulativeRealizedGain = pos.CumulativeRealizedGain.Sub(gain)
			delete(realized, c.vaultID)
		}
		ts := now()
		pos.LastUpdatedAt, pos.LastUpdatedBy = ts, userID
		if err := s.vaultRepo.UpdatePosition(ctx, *pos); err != nil {
			return err
		}
		s.LogInfo(ctx, "Currency position restored after reversal",
			slog.String("vault_id", c.vaultID),
			slog.String("currency", c.currency),
			slog.String("transaction_id", original.TransactionID),
			slog.String("cost_basis_rate", pos.CostBasisRate.String()))
	}
	return nil
}

// restorePosition recomputes the cost basis of pos from its entries, which must already
// include the mirror entries, and unwinds the reversed debits from its last rate.
func (s *vaultService) restorePosition(ctx context.Context, vault *domain.Vault, pos *domain.CurrencyPosition, c *positionChange) error {
	totals, err := s.ledgerRepo.SumEntriesByAccount(ctx, []string{pos.AccountID}, domain.EntrySumFilter{})
	if err != nil {
		return err
	}
	balance, carrying := accounting.BalanceFromTotals(totals[pos.AccountID], domain.Asset)

	if pos.CurrencyCode == vault.BaseCurrency {
		pos.CostBasisRate = decimal.NewFromInt(1)
		pos.LastRate = decimal.NewFromInt(1)
		pos.CostBasisAmount = balance
		return nil
	}
	if !balance.IsPositive() {
		pos.CostBasisAmount = decimal.Zero
		return nil
	}

	pos.CostBasisAmount = accounting.RoundAmount(carrying)
	pos.CostBasisRate = accounting.RoundRate(carrying.Div(balance))

	// Withdrawals never moved the last rate, so only the reversed debits are unwound.
	if c.debited.IsPositive() {
		before := balance.Add(c.debited).Sub(c.credited)
		remaining := before.Sub(c.debited)
		lastRate := pos.CostBasisRate
		if remaining.IsPositive() {
			if r := pos.LastRate.Mul(before).Sub(c.debitVal).Div(remaining); r.IsPositive() {
				lastRate = accounting.RoundRate(r)
			}
		}
		pos.LastRate = lastRate
	}
	return nil
}
