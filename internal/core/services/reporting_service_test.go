package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/stretchr/testify/suite"
)

type ReportingServiceTestSuite struct {
	suite.Suite
	env    *testEnv
	ctx    context.Context
	cash   *domain.Account
	equity *domain.Account
	day    time.Time
}

func (suite *ReportingServiceTestSuite) SetupTest() {
	suite.env = newTestEnv(suite.T())
	suite.ctx = context.Background()
	suite.cash = suite.env.account(suite.T(), "CASH", domain.Asset, "USD")
	suite.equity = suite.env.account(suite.T(), "EQUITY", domain.Equity, "USD")
	suite.day = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
}

func TestReportingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}

// post deposits amount into cash dated daysAfter days after suite.day.
func (suite *ReportingServiceTestSuite) post(amount string, daysAfter int) *domain.Transaction {
	req := transfer(domain.TxDeposit, "USD", suite.cash, suite.equity, amount)
	date := suite.day.AddDate(0, 0, daysAfter)
	req.EntryDate = &date
	txn, err := suite.env.svc.Ledger.CreateTransaction(suite.ctx, req, testUser)
	suite.Require().NoError(err)
	return txn
}

func (suite *ReportingServiceTestSuite) TestStatementPaging() {
	for i, amount := range []string{"10", "20", "30", "40", "50"} {
		suite.post(amount, i)
	}

	page1, err := suite.env.svc.Reporting.AccountStatement(suite.ctx, suite.cash.AccountID, dto.StatementParams{Limit: 2})
	suite.Require().NoError(err)
	suite.Require().Len(page1.Lines, 2)
	assertDecimal(suite.T(), "0", page1.OpeningBalance)
	assertDecimal(suite.T(), "10", page1.Lines[0].RunningBalance)
	assertDecimal(suite.T(), "30", page1.Lines[1].RunningBalance)
	assertDecimal(suite.T(), "30", page1.ClosingBalance)
	suite.Require().NotNil(page1.NextToken)

	page2, err := suite.env.svc.Reporting.AccountStatement(suite.ctx, suite.cash.AccountID, dto.StatementParams{Limit: 2, NextToken: page1.NextToken})
	suite.Require().NoError(err)
	suite.Require().Len(page2.Lines, 2)
	assertDecimal(suite.T(), "30", page2.OpeningBalance)
	assertDecimal(suite.T(), "30", page2.Lines[0].Amount)
	assertDecimal(suite.T(), "100", page2.ClosingBalance)
	suite.Require().NotNil(page2.NextToken)

	page3, err := suite.env.svc.Reporting.AccountStatement(suite.ctx, suite.cash.AccountID, dto.StatementParams{Limit: 2, NextToken: page2.NextToken})
	suite.Require().NoError(err)
	suite.Require().Len(page3.Lines, 1)
	assertDecimal(suite.T(), "100", page3.OpeningBalance)
	assertDecimal(suite.T(), "150", page3.ClosingBalance)
	suite.Nil(page3.NextToken)
}

func (suite *ReportingServiceTestSuite) TestStatementDateWindow() {
	for i, amount := range []string{"10", "20", "30", "40"} {
		suite.post(amount, i)
	}

	from := suite.day.AddDate(0, 0, 2)
	to := suite.day.AddDate(0, 0, 2).Add(12 * time.Hour)
	st, err := suite.env.svc.Reporting.AccountStatement(suite.ctx, suite.cash.AccountID, dto.StatementParams{From: &from, To: &to})
	suite.Require().NoError(err)
	assertDecimal(suite.T(), "30", st.OpeningBalance)
	suite.Require().Len(st.Lines, 1)
	assertDecimal(suite.T(), "30", st.Lines[0].Amount)
	assertDecimal(suite.T(), "60", st.ClosingBalance)
	suite.Nil(st.NextToken)

	// Credit-normal accounts run upwards on credits.
	eq, err := suite.env.svc.Reporting.AccountStatement(suite.ctx, suite.equity.AccountID, dto.StatementParams{})
	suite.Require().NoError(err)
	assertDecimal(suite.T(), "100", eq.ClosingBalance)
}

func (suite *ReportingServiceTestSuite) TestStatementValidation() {
	bad := "not-a-token"
	_, err := suite.env.svc.Reporting.AccountStatement(suite.ctx, suite.cash.AccountID, dto.StatementParams{NextToken: &bad})
	suite.ErrorIs(err, apperrors.ErrValidation)

	from := suite.day
	to := suite.day.AddDate(0, 0, -1)
	_, err = suite.env.svc.Reporting.AccountStatement(suite.ctx, suite.cash.AccountID, dto.StatementParams{From: &from, To: &to})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.env.svc.Reporting.AccountStatement(suite.ctx, "missing", dto.StatementParams{})
	suite.ErrorIs(err, apperrors.ErrAccountNotFound)
}

func (suite *ReportingServiceTestSuite) TestAuditShowsBalancesAroundTransaction() {
	suite.post("100", 0)
	txn := suite.post("30", 1)
	suite.post("5", 2)

	audit, err := suite.env.svc.Reporting.AuditTransaction(suite.ctx, txn.TransactionID)
	suite.Require().NoError(err)
	suite.Equal(txn.TransactionID, audit.Transaction.TransactionID)
	suite.Require().Len(audit.Lines, 2)

	for _, line := range audit.Lines {
		switch line.AccountID {
		case suite.cash.AccountID:
			suite.Equal("CASH", line.AccountCode)
			assertDecimal(suite.T(), "100", line.BalanceBefore)
			assertDecimal(suite.T(), "130", line.BalanceAfter)
		case suite.equity.AccountID:
			assertDecimal(suite.T(), "100", line.BalanceBefore)
			assertDecimal(suite.T(), "130", line.BalanceAfter)
		default:
			suite.Failf("unexpected account", "%s", line.AccountID)
		}
	}

	_, err = suite.env.svc.Reporting.AuditTransaction(suite.ctx, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *ReportingServiceTestSuite) TestTrialBalanceAsOf() {
	suite.post("100", 0)
	suite.post("40", 5)

	asOf := suite.day.AddDate(0, 0, 1)
	tb, err := suite.env.svc.Reporting.TrialBalance(suite.ctx, domain.TrialBalanceFilter{AsOf: &asOf, BaseCurrency: "usd"})
	suite.Require().NoError(err)
	suite.True(tb.IsBalanced)
	assertDecimal(suite.T(), "100", tb.TotalDebits)
	assertDecimal(suite.T(), "100", tb.TotalCredits)

	suite.Require().Len(tb.Groups, 2)
	suite.Equal(domain.Asset, tb.Groups[0].AccountType)
	assertDecimal(suite.T(), "100", tb.Groups[0].Rows[0].Debit)
	suite.Equal(domain.Equity, tb.Groups[1].AccountType)
	assertDecimal(suite.T(), "100", tb.Groups[1].Rows[0].Credit)

	all, err := suite.env.svc.Reporting.TrialBalance(suite.ctx, domain.TrialBalanceFilter{})
	suite.Require().NoError(err)
	assertDecimal(suite.T(), "140", all.TotalDebits)
	suite.True(all.IsBalanced)

	eur, err := suite.env.svc.Reporting.TrialBalance(suite.ctx, domain.TrialBalanceFilter{BaseCurrency: "EUR"})
	suite.Require().NoError(err)
	assertDecimal(suite.T(), "0", eur.TotalDebits)
}
