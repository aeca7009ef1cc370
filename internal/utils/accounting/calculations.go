package accounting

import (
	"fmt"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount applies the sign an entry has on an account of the given type.
//
// DEBIT to ASSET/EXPENSE -> +, CREDIT to ASSET/EXPENSE -> -
// DEBIT to LIABILITY/EQUITY/INCOME -> -, CREDIT to LIABILITY/EQUITY/INCOME -> +
func SignedAmount(amount decimal.Decimal, direction domain.Direction, accountType domain.AccountType) (decimal.Decimal, error) {
	switch accountType {
	case domain.Asset, domain.Expense:
		if direction == domain.Credit {
			return amount.Neg(), nil
		}
		return amount, nil
	case domain.Liability, domain.Equity, domain.Income:
		if direction == domain.Debit {
			return amount.Neg(), nil
		}
		return amount, nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s'", accountType)
	}
}

// BalanceFromTotals turns aggregated debit/credit totals into the account balance
// in both native and base currency.
func BalanceFromTotals(t domain.EntryTotals, accountType domain.AccountType) (native decimal.Decimal, base decimal.Decimal) {
	if accountType.IsDebitNormal() {
		return t.Debit.Sub(t.Credit), t.BaseDebit.Sub(t.BaseCredit)
	}
	return t.Credit.Sub(t.Debit), t.BaseCredit.Sub(t.BaseDebit)
}

// BaseTotals sums the base amounts of both sides.
func BaseTotals(entries []domain.Entry) (debits decimal.Decimal, credits decimal.Decimal) {
	for _, e := range entries {
		if e.Direction == domain.Debit {
			debits = debits.Add(e.BaseAmount)
		} else {
			credits = credits.Add(e.BaseAmount)
		}
	}
	return debits, credits
}

// ValidateBalance checks that the base amounts of entries balance within tolerance.
func ValidateBalance(entries []domain.Entry, tolerance decimal.Decimal) error {
	if len(entries) < 2 {
		return fmt.Errorf("transaction must have at least two entries")
	}
	debits, credits := BaseTotals(entries)
	if diff := debits.Sub(credits).Abs(); diff.GreaterThan(tolerance) {
		return fmt.Errorf("debits %s and credits %s differ by %s", debits.String(), credits.String(), diff.String())
	}
	return nil
}

// WeightedAverageRate blends an existing holding with an addition:
// (oldBalance*oldRate + added*addedRate) / (oldBalance + added).
// With no prior holding the added rate is returned as is.
func WeightedAverageRate(oldBalance, oldRate, added, addedRate decimal.Decimal) decimal.Decimal {
	total := oldBalance.Add(added)
	if oldBalance.Sign() <= 0 || oldRate.IsZero() || total.Sign() <= 0 {
		return RoundRate(addedRate)
	}
	weighted := oldBalance.Mul(oldRate).Add(added.Mul(addedRate))
	return weighted.DivRound(total, domain.RateScale)
}
