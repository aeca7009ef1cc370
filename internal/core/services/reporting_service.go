package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/SscSPs/vault_ledger/internal/utils/accounting"
	"github.com/SscSPs/vault_ledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

const (
	defaultStatementLimit = 50
	maxStatementLimit     = 500
)

// trialBalanceOrder is the order account type groups appear in.
var trialBalanceOrder = []domain.AccountType{domain.Asset, domain.Liability, domain.Equity, domain.Income, domain.Expense}

type reportingService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	ledgerRepo  portsrepo.LedgerReader
}

// NewReportingService creates the read-only reporting projections.
func NewReportingService(accountRepo portsrepo.AccountReader, ledgerRepo portsrepo.LedgerReader, opts ...ServiceOption) portssvc.ReportingSvc {
	return &reportingService{
		BaseService: newBaseService(opts),
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

var _ portssvc.ReportingSvc = (*reportingService)(nil)

func (s *reportingService) AccountStatement(ctx context.Context, accountID string, params dto.StatementParams) (*domain.AccountStatement, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", accountID, apperrors.ErrAccountNotFound)
		}
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultStatementLimit
	}
	if limit > maxStatementLimit {
		limit = maxStatementLimit
	}
	if params.From != nil && params.To != nil && params.To.Before(*params.From) {
		return nil, apperrors.NewValidationError("'to' must not be before 'from'")
	}

	var cursor *domain.EntryCursor
	if params.NextToken != nil && *params.NextToken != "" {
		date, seq, err := pagination.DecodeToken(*params.NextToken)
		if err != nil {
			s.LogDebug(ctx, "Invalid statement token", slog.String("error", err.Error()))
			return nil, apperrors.NewValidationError("invalid nextToken")
		}
		cursor = &domain.EntryCursor{EntryDate: date, Sequence: seq}
	}

	opening := decimal.Zero
	switch {
	case cursor != nil:
		opening, _, err = accountBalance(ctx, s.ledgerRepo, *account, domain.EntrySumFilter{UpTo: cursor})
	case params.From != nil:
		opening, _, err = accountBalance(ctx, s.ledgerRepo, *account, domain.EntrySumFilter{Before: params.From})
	}
	if err != nil {
		s.LogError(ctx, err, "Failed to compute opening balance", slog.String("account_id", accountID))
		return nil, err
	}

	entries, err := s.ledgerRepo.ListEntriesByAccount(ctx, accountID, domain.EntryQuery{
		From:  params.From,
		To:    params.To,
		After: cursor,
		Limit: limit + 1,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list statement entries", slog.String("account_id", accountID))
		return nil, err
	}

	statement := &domain.AccountStatement{
		Account:        *account,
		From:           params.From,
		To:             params.To,
		OpeningBalance: opening,
		Lines:          make([]domain.StatementLine, 0, len(entries)),
	}
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeToken(last.EntryDate, last.Sequence)
		statement.NextToken = &token
	}

	running := opening
	for _, e := range entries {
		signed, err := accounting.SignedAmount(e.Amount, e.Direction, account.AccountType)
		if err != nil {
			return nil, err
		}
		running = running.Add(signed)
		statement.Lines = append(statement.Lines, domain.StatementLine{
			EntryID:        e.EntryID,
			TransactionID:  e.TransactionID,
			EntryDate:      e.EntryDate,
			Direction:      e.Direction,
			Amount:         e.Amount,
			Memo:           e.Memo,
			RunningBalance: running,
		})
	}
	statement.ClosingBalance = running
	return statement, nil
}

// TrialBalance nets every active account into a debit or credit column in base amounts.
// IsBalanced requires the column totals to match exactly.
func (s *reportingService) TrialBalance(ctx context.Context, filter domain.TrialBalanceFilter) (*domain.TrialBalance, error) {
	if filter.BaseCurrency != "" {
		code, err := accounting.NormalizeCurrency(filter.BaseCurrency)
		if err != nil {
			return nil, err
		}
		filter.BaseCurrency = code
	}

	accounts, err := s.accountRepo.ListAccounts(ctx, domain.AccountFilter{
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
		ActiveOnly: true,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts for trial balance")
		return nil, err
	}

	totals := map[string]domain.EntryTotals{}
	if len(accounts) > 0 {
		ids := make([]string, len(accounts))
		for i, a := range accounts {
			ids[i] = a.AccountID
		}
		totals, err = s.ledgerRepo.SumEntriesByAccount(ctx, ids, domain.EntrySumFilter{
			AsOf:         filter.AsOf,
			BaseCurrency: filter.BaseCurrency,
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to sum entries for trial balance")
			return nil, err
		}
	}

	groups := make(map[domain.AccountType]*domain.TrialBalanceGroup, len(trialBalanceOrder))
	for _, t := range trialBalanceOrder {
		groups[t] = &domain.TrialBalanceGroup{AccountType: t, Rows: []domain.TrialBalanceRow{}}
	}

	tb := &domain.TrialBalance{AsOf: filter.AsOf, Groups: []domain.TrialBalanceGroup{}}
	for _, a := range accounts {
		t := totals[a.AccountID]
		net := t.BaseDebit.Sub(t.BaseCredit)
		row := domain.TrialBalanceRow{
			AccountID:   a.AccountID,
			AccountCode: a.Code,
			AccountName: a.Name,
			AccountType: a.AccountType,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		if net.IsPositive() {
			row.Debit = net
		} else {
			row.Credit = net.Neg()
		}

		g, ok := groups[a.AccountType]
		if !ok {
			continue
		}
		g.Rows = append(g.Rows, row)
		g.TotalDebit = g.TotalDebit.Add(row.Debit)
		g.TotalCredit = g.TotalCredit.Add(row.Credit)
		tb.TotalDebits = tb.TotalDebits.Add(row.Debit)
		tb.TotalCredits = tb.TotalCredits.Add(row.Credit)
	}

	for _, t := range trialBalanceOrder {
		if g := groups[t]; len(g.Rows) > 0 {
			sort.Slice(g.Rows, func(i, j int) bool { return g.Rows[i].AccountCode < g.Rows[j].AccountCode })
			tb.Groups = append(tb.Groups, *g)
		}
	}
	tb.Imbalance = tb.TotalDebits.Sub(tb.TotalCredits)
	tb.IsBalanced = tb.Imbalance.IsZero()
	return tb, nil
}

// AuditTransaction shows each entry's account balance immediately before and after it,
// in posting order.
func (s *reportingService) AuditTransaction(ctx context.Context, transactionID string) (*domain.TransactionAudit, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("transaction " + transactionID)
		}
		return nil, err
	}
	entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	txn.Entries = entries
	audit := &domain.TransactionAudit{Transaction: *txn, Lines: make([]domain.AuditLine, 0, len(entries))}
	if len(entries) == 0 {
		return audit, nil
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Sequence < entries[j].Sequence })
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.AccountID)
	}
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	totals, err := s.ledgerRepo.SumEntriesByAccount(ctx, ids, domain.EntrySumFilter{BeforeSequence: entries[0].Sequence})
	if err != nil {
		s.LogError(ctx, err, "Failed to compute balances before transaction", slog.String("transaction_id", transactionID))
		return nil, err
	}

	running := make(map[string]decimal.Decimal, len(accounts))
	for id, acc := range accounts {
		running[id], _ = accounting.BalanceFromTotals(totals[id], acc.AccountType)
	}
	for _, e := range entries {
		acc, ok := accounts[e.AccountID]
		if !ok {
			return nil, fmt.Errorf("entry %s references %s: %w", e.EntryID, e.AccountID, apperrors.ErrAccountNotFound)
		}
		signed, err := accounting.SignedAmount(e.Amount, e.Direction, acc.AccountType)
		if err != nil {
			return nil, err
		}
		before := running[acc.AccountID]
		after := before.Add(signed)
		running[acc.AccountID] = after
		audit.Lines = append(audit.Lines, domain.AuditLine{
			EntryID:       e.EntryID,
			AccountID:     acc.AccountID,
			AccountCode:   acc.Code,
			Direction:     e.Direction,
			Amount:        e.Amount,
			CurrencyCode:  e.CurrencyCode,
			BalanceBefore: before,
			BalanceAfter:  after,
		})
	}
	audit.Transaction.Entries = entries
	return audit, nil
}
