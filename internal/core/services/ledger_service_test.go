package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	env     *testEnv
	ctx     context.Context
	cash    *domain.Account
	revenue *domain.Account
	equity  *domain.Account
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.env = newTestEnv(suite.T())
	suite.ctx = context.Background()
	suite.cash = suite.env.account(suite.T(), "CASH", domain.Asset, "USD")
	suite.revenue = suite.env.account(suite.T(), "REVENUE", domain.Income, "USD")
	suite.equity = suite.env.account(suite.T(), "EQUITY", domain.Equity, "USD")
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (suite *LedgerServiceTestSuite) TestCreateBalancedTransaction() {
	txn, err := suite.env.svc.Ledger.CreateTransaction(suite.ctx, transfer(domain.TxSettlement, "usd", suite.cash, suite.revenue, "100"), testUser)
	suite.Require().NoError(err)

	suite.Equal("USD", txn.BaseCurrency)
	assertDecimal(suite.T(), "100", txn.BaseAmount)
	suite.Require().Len(txn.Entries, 2)
	for _, e := range txn.Entries {
		suite.Positive(e.Sequence)
		assertDecimal(suite.T(), "1", e.FxRate)
	}
	assertDecimal(suite.T(), "100", suite.env.balance(suite.T(), suite.cash.AccountID))
	assertDecimal(suite.T(), "100", suite.env.balance(suite.T(), suite.revenue.AccountID))
	suite.Contains(suite.env.audit.actions(), "ledger.transaction.created")

	loaded, err := suite.env.svc.Ledger.GetTransaction(suite.ctx, txn.TransactionID)
	suite.Require().NoError(err)
	suite.Equal(txn.TransactionID, loaded.TransactionID)
	suite.Len(loaded.Entries, 2)
}

func (suite *LedgerServiceTestSuite) TestUnbalancedIsRejectedAndNothingPersists() {
	req := transfer(domain.TxAdjustment, "USD", suite.cash, suite.revenue, "100")
	req.Entries[1].Amount = d("90")

	_, err := suite.env.svc.Ledger.CreateTransaction(suite.ctx, req, testUser)
	suite.ErrorIs(err, apperrors.ErrUnbalancedTransaction)
	assertDecimal(suite.T(), "0", suite.env.balance(suite.T(), suite.cash.AccountID))
	assertDecimal(suite.T(), "0", suite.env.balance(suite.T(), suite.revenue.AccountID))
}

func (suite *LedgerServiceTestSuite) TestDifferenceWithinToleranceIsAccepted() {
	req := transfer(domain.TxAdjustment, "USD", suite.cash, suite.revenue, "100")
	req.Entries[0].Amount = d("100.000001")

	_, err := suite.env.svc.Ledger.CreateTransaction(suite.ctx, req, testUser)
	suite.NoError(err)
}

func (suite *LedgerServiceTestSuite) TestRequestValidation() {
	single := transfer(domain.TxFee, "USD", suite.cash, suite.revenue, "1")
	single.Entries = single.Entries[:1]

	zero := transfer(domain.TxFee, "USD", suite.cash, suite.revenue, "0")

	badDirection := transfer(domain.TxFee, "USD", suite.cash, suite.revenue, "1")
	badDirection.Entries[0].Direction = "SIDEWAYS"

	cases := []struct {
		name string
		req  dto.CreateTransactionRequest
		want error
	}{
		{"unknown type", transfer("GIFT", "USD", suite.cash, suite.revenue, "1"), apperrors.ErrValidation},
		{"reversal type", transfer(domain.TxReversal, "USD", suite.cash, suite.revenue, "1"), apperrors.ErrValidation},
		{"bad base currency", transfer(domain.TxFee, "XXXX", suite.cash, suite.revenue, "1"), apperrors.ErrInvalidCurrency},
		{"single entry", single, apperrors.ErrValidation},
		{"zero amount", zero, apperrors.ErrValidation},
		{"bad direction", badDirection, apperrors.ErrValidation},
	}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			_, err := suite.env.svc.Ledger.CreateTransaction(suite.ctx, tc.req, testUser)
			suite.ErrorIs(err, tc.want)
		})
	}
}

func (suite *LedgerServiceTestSuite) TestAccountChecks() {
	eurCash := suite.env.account(suite.T(), "CASH:EUR", domain.Asset, "EUR")

	mismatch := transfer(domain.TxAdjustment, "USD", suite.cash, suite.revenue, "10")
	mismatch.Entries[0].CurrencyCode = "EUR"
	_, err := suite.env.svc.Ledger.CreateTransaction(suite.ctx, mismatch, testUser)
	suite.ErrorIs(err, apperrors.ErrInvalidCurrency)

	missing := transfer(domain.TxAdjustment, "USD", suite.cash, suite.revenue, "10")
	missing.Entries[1].AccountID = "no-such-account"
	_, err = suite.env.svc.Ledger.CreateTransaction(suite.ctx, missing, testUser)
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)

	suite.Require().NoError(suite.env.svc.Account.DeactivateAccount(suite.ctx, eurCash.AccountID, testUser))
	inactive := dto.CreateTransactionRequest{
		Type:         domain.TxAdjustment,
		BaseCurrency: "USD",
		Entries: []dto.CreateEntryRequest{
			{AccountID: eurCash.AccountID, Direction: domain.Debit, Amount: d("10"), CurrencyCode: "EUR", FxRate: dp("1.1")},
			{AccountID: suite.equity.AccountID, Direction: domain.Credit, Amount: d("11"), CurrencyCode: "USD"},
		},
	}
	_, err = suite.env.svc.Ledger.CreateTransaction(suite.ctx, inactive, testUser)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestForeignEntryResolvesStoredRate() {
	eurCash := suite.env.account(suite.T(), "CASH:EUR", domain.Asset, "EUR")
	gbpCash := suite.env.account(suite.T(), "CASH:GBP", domain.Asset, "GBP")
	suite.env.rate(suite.T(), "EUR", "USD", "1.1", time.Now().UTC().Add(-time.Hour), true)

	txn, err := suite.env.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Type:         domain.TxDeposit,
		BaseCurrency: "USD",
		Entries: []dto.CreateEntryRequest{
			{AccountID: eurCash.AccountID, Direction: domain.Debit, Amount: d("100"), CurrencyCode: "EUR"},
			{AccountID: suite.equity.AccountID, Direction: domain.Credit, Amount: d("110"), CurrencyCode: "USD"},
		},
	}, testUser)
	suite.Require().NoError(err)
	for _, e := range txn.Entries {
		if e.AccountID == eurCash.AccountID {
			assertDecimal(suite.T(), "1.1", e.FxRate)
			assertDecimal(suite.T(), "110", e.BaseAmount)
		}
	}

	_, err = suite.env.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Type:         domain.TxDeposit,
		BaseCurrency: "USD",
		Entries: []dto.CreateEntryRequest{
			{AccountID: gbpCash.AccountID, Direction: domain.Debit, Amount: d("100"), CurrencyCode: "GBP"},
			{AccountID: suite.equity.AccountID, Direction: domain.Credit, Amount: d("127"), CurrencyCode: "USD"},
		},
	}, testUser)
	suite.ErrorIs(err, apperrors.ErrMissingFxRate)
}

func (suite *LedgerServiceTestSuite) TestNonNegativeAccountCannotGoBelowZero() {
	wallet, err := suite.env.svc.Account.GetOrCreateAccount(suite.ctx, dto.CreateAccountRequest{
		Code: "WALLET", Name: "Wallet", AccountType: domain.Asset, CurrencyCode: "USD", NonNegative: true,
	}, testUser)
	suite.Require().NoError(err)

	_, err = suite.env.svc.Ledger.CreateTransaction(suite.ctx, transfer(domain.TxDeposit, "USD", wallet, suite.equity, "30"), testUser)
	suite.Require().NoError(err)

	_, err = suite.env.svc.Ledger.CreateTransaction(suite.ctx, transfer(domain.TxWithdrawal, "USD", suite.equity, wallet, "30.5"), testUser)
	suite.ErrorIs(err, apperrors.ErrInsufficientBalance)

	_, err = suite.env.svc.Ledger.CreateTransaction(suite.ctx, transfer(domain.TxWithdrawal, "USD", suite.equity, wallet, "30"), testUser)
	suite.NoError(err)
	assertDecimal(suite.T(), "0", suite.env.balance(suite.T(), wallet.AccountID))
}

func (suite *LedgerServiceTestSuite) TestReverseRestoresBalances() {
	txn, err := suite.env.svc.Ledger.CreateTransaction(suite.ctx, transfer(domain.TxSettlement, "USD", suite.cash, suite.revenue, "75"), testUser)
	suite.Require().NoError(err)

	_, err = suite.env.svc.Ledger.ReverseTransaction(suite.ctx, txn.TransactionID, "  ", testUser)
	suite.ErrorIs(err, apperrors.ErrValidation)

	reversal, err := suite.env.svc.Ledger.ReverseTransaction(suite.ctx, txn.TransactionID, "posted twice", testUser)
	suite.Require().NoError(err)
	suite.Equal(domain.TxReversal, reversal.Type)
	suite.Equal(txn.TransactionID, reversal.ReversesID)
	suite.Require().Len(reversal.Entries, 2)
	for _, e := range reversal.Entries {
		if e.AccountID == suite.cash.AccountID {
			suite.Equal(domain.Credit, e.Direction)
		} else {
			suite.Equal(domain.Debit, e.Direction)
		}
	}

	assertDecimal(suite.T(), "0", suite.env.balance(suite.T(), suite.cash.AccountID))
	assertDecimal(suite.T(), "0", suite.env.balance(suite.T(), suite.revenue.AccountID))

	original, err := suite.env.svc.Ledger.GetTransaction(suite.ctx, txn.TransactionID)
	suite.Require().NoError(err)
	suite.True(original.Reversed)
	suite.Equal(reversal.TransactionID, original.ReversalID)

	_, err = suite.env.svc.Ledger.ReverseTransaction(suite.ctx, txn.TransactionID, "again", testUser)
	suite.ErrorIs(err, apperrors.ErrAlreadyReversed)

	_, err = suite.env.svc.Ledger.ReverseTransaction(suite.ctx, reversal.TransactionID, "undo the undo", testUser)
	suite.ErrorIs(err, apperrors.ErrConflict)

	suite.Contains(suite.env.audit.actions(), "ledger.transaction.reversed")
}

func (suite *LedgerServiceTestSuite) TestReverseUnknownTransaction() {
	_, err := suite.env.svc.Ledger.ReverseTransaction(suite.ctx, "missing", "typo", testUser)
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.env.svc.Ledger.GetTransaction(suite.ctx, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestTrialBalanceStaysBalanced() {
	eurCash := suite.env.account(suite.T(), "CASH:EUR", domain.Asset, "EUR")
	expense := suite.env.account(suite.T(), "FEES", domain.Expense, "USD")

	for i := 1; i <= 12; i++ {
		amount := fmt.Sprintf("%d.37", i*13)
		_, err := suite.env.svc.Ledger.CreateTransaction(suite.ctx, transfer(domain.TxSettlement, "USD", suite.cash, suite.revenue, amount), testUser)
		suite.Require().NoError(err)
		_, err = suite.env.svc.Ledger.CreateTransaction(suite.ctx, transfer(domain.TxFee, "USD", expense, suite.cash, "0.13"), testUser)
		suite.Require().NoError(err)
	}
	_, err := suite.env.svc.Ledger.CreateTransaction(suite.ctx, dto.CreateTransactionRequest{
		Type:         domain.TxDeposit,
		BaseCurrency: "USD",
		Entries: []dto.CreateEntryRequest{
			{AccountID: eurCash.AccountID, Direction: domain.Debit, Amount: d("333.33"), CurrencyCode: "EUR", FxRate: dp("1.0873")},
			{AccountID: suite.equity.AccountID, Direction: domain.Credit, Amount: d("362.429709"), CurrencyCode: "USD"},
		},
	}, testUser)
	suite.Require().NoError(err)

	tb, err := suite.env.svc.Reporting.TrialBalance(suite.ctx, domain.TrialBalanceFilter{})
	suite.Require().NoError(err)
	suite.True(tb.IsBalanced, "imbalance %s", tb.Imbalance)
	assertDecimal(suite.T(), "0", tb.Imbalance)
	suite.Equal(tb.TotalDebits.String(), tb.TotalCredits.String())

	types := make([]domain.AccountType, 0, len(tb.Groups))
	for _, g := range tb.Groups {
		types = append(types, g.AccountType)
	}
	suite.Equal([]domain.AccountType{domain.Asset, domain.Equity, domain.Income, domain.Expense}, types)
}
