package accounting

import (
	"testing"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSignedAmount(t *testing.T) {
	tests := []struct {
		name        string
		direction   domain.Direction
		accountType domain.AccountType
		want        string
	}{
		{"debit asset", domain.Debit, domain.Asset, "10"},
		{"credit asset", domain.Credit, domain.Asset, "-10"},
		{"debit expense", domain.Debit, domain.Expense, "10"},
		{"debit liability", domain.Debit, domain.Liability, "-10"},
		{"credit equity", domain.Credit, domain.Equity, "10"},
		{"credit income", domain.Credit, domain.Income, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SignedAmount(dec("10"), tt.direction, tt.accountType)
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}

	_, err := SignedAmount(dec("10"), domain.Debit, domain.AccountType("REVENUE"))
	assert.Error(t, err)
}

func TestBalanceFromTotals(t *testing.T) {
	totals := domain.EntryTotals{}.
		Add(domain.Entry{Direction: domain.Debit, Amount: dec("100"), BaseAmount: dec("108")}).
		Add(domain.Entry{Direction: domain.Credit, Amount: dec("40"), BaseAmount: dec("43.2")})

	native, base := BalanceFromTotals(totals, domain.Asset)
	assert.True(t, dec("60").Equal(native))
	assert.True(t, dec("64.8").Equal(base))

	native, base = BalanceFromTotals(totals, domain.Equity)
	assert.True(t, dec("-60").Equal(native))
	assert.True(t, dec("-64.8").Equal(base))
}

func TestValidateBalance(t *testing.T) {
	balanced := []domain.Entry{
		{Direction: domain.Debit, BaseAmount: dec("100.004")},
		{Direction: domain.Credit, BaseAmount: dec("100")},
	}
	assert.NoError(t, ValidateBalance(balanced, Tolerance("USD")))

	unbalanced := []domain.Entry{
		{Direction: domain.Debit, BaseAmount: dec("100.02")},
		{Direction: domain.Credit, BaseAmount: dec("100")},
	}
	assert.Error(t, ValidateBalance(unbalanced, Tolerance("USD")))

	assert.Error(t, ValidateBalance(balanced[:1], Tolerance("USD")))
}

func TestWeightedAverageRate(t *testing.T) {
	// First deposit sets the basis directly.
	assert.True(t, dec("1.08").Equal(WeightedAverageRate(decimal.Zero, decimal.Zero, dec("1000"), dec("1.08"))))

	// 1000 @ 1.08 + 500 @ 1.11 = (1080 + 555) / 1500 = 1.09
	got := WeightedAverageRate(dec("1000"), dec("1.08"), dec("500"), dec("1.11"))
	assert.True(t, dec("1.09").Equal(got), "got %s", got)

	// Result is kept at rate scale.
	got = WeightedAverageRate(dec("1"), dec("1"), dec("2"), dec("2"))
	assert.Equal(t, "1.66666667", got.String())
}

func TestNormalizeCurrency(t *testing.T) {
	code, err := NormalizeCurrency(" eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	for _, bad := range []string{"", "EURO", "XYZ", "12"} {
		_, err := NormalizeCurrency(bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCurrency, bad)
	}
}

func TestToleranceFollowsMinorUnit(t *testing.T) {
	assert.True(t, dec("0.01").Equal(Tolerance("USD")))
	assert.True(t, dec("1").Equal(Tolerance("JPY")))
	assert.True(t, dec("0.001").Equal(Tolerance("KWD")))
}

func TestRoundingHelpers(t *testing.T) {
	assert.Equal(t, "1080", ToBase(dec("1000"), dec("1.08")).String())
	assert.Equal(t, "0.123457", RoundAmount(dec("0.1234565")).String())
	assert.Equal(t, "1.08695652", InverseRate(dec("0.92")).String())
}
