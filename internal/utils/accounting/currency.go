package accounting

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// NormalizeCurrency upper-cases code and checks it against the ISO 4217 table.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 || money.GetCurrency(c) == nil {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidCurrency, code)
	}
	return c, nil
}

// Tolerance is the smallest unit of the currency, 10^-fraction.
func Tolerance(code string) decimal.Decimal {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return decimal.New(1, -2)
	}
	return decimal.New(1, -int32(cur.Fraction))
}

// RoundAmount rounds a monetary amount to the ledger amount scale.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(domain.AmountScale)
}

// RoundRate rounds an exchange rate to the ledger rate scale.
func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(domain.RateScale)
}

// ToBase converts amount with rate into the base currency at amount scale.
func ToBase(amount, rate decimal.Decimal) decimal.Decimal {
	return RoundAmount(amount.Mul(rate))
}

// InverseRate returns 1/rate at rate scale.
func InverseRate(rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).DivRound(rate, domain.RateScale)
}
