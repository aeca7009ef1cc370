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

// Rejection reasons reported to metrics.
const (
	rejectValidation   = "validation"
	rejectUnbalanced   = "unbalanced"
	rejectInsufficient = "insufficient_balance"
	rejectStorage      = "storage"
)

// ledgerService posts balanced transactions and their reversals.
type ledgerService struct {
	BaseService
	txManager   portsrepo.TransactionManager
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	accountRepo portsrepo.AccountReader
	fxRates     portssvc.FXRateSvcFacade
	hooks       []portssvc.ReversalHook
}

// NewLedgerService creates the transaction engine.
func NewLedgerService(
	txManager portsrepo.TransactionManager,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	accountRepo portsrepo.AccountReader,
	fxRates portssvc.FXRateSvcFacade,
	opts ...ServiceOption,
) portssvc.LedgerSvcFacade {
	return newLedgerService(txManager, ledgerRepo, accountRepo, fxRates, opts...)
}

func newLedgerService(
	txManager portsrepo.TransactionManager,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	accountRepo portsrepo.AccountReader,
	fxRates portssvc.FXRateSvcFacade,
	opts ...ServiceOption,
) *ledgerService {
	return &ledgerService{
		BaseService: newBaseService(opts),
		txManager:   txManager,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		fxRates:     fxRates,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// onReversal registers h to run inside every reversal.
func (s *ledgerService) onReversal(h portssvc.ReversalHook) {
	s.hooks = append(s.hooks, h)
}

// CreateTransaction validates, converts and persists a balanced set of entries.
// Rates missing from the request are resolved before the unit of work starts.
func (s *ledgerService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	if !req.Type.IsValid() {
		return nil, s.reject(apperrors.NewValidationError(fmt.Sprintf("unknown transaction type %q", req.Type)), rejectValidation)
	}
	if req.Type == domain.TxReversal {
		return nil, s.reject(apperrors.NewValidationError("reversals are created through ReverseTransaction"), rejectValidation)
	}
	baseCurrency, err := accounting.NormalizeCurrency(req.BaseCurrency)
	if err != nil {
		return nil, s.reject(err, rejectValidation)
	}
	if len(req.Entries) < 2 {
		return nil, s.reject(apperrors.NewValidationError("a transaction needs at least two entries"), rejectValidation)
	}

	accounts, err := s.loadPostingAccounts(ctx, req.Entries)
	if err != nil {
		return nil, s.reject(err, rejectValidation)
	}

	ts := now()
	txnDate := ts
	if req.EntryDate != nil {
		txnDate = req.EntryDate.UTC()
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		Type:          req.Type,
		BaseCurrency:  baseCurrency,
		Description:   req.Description,
		SourceType:    req.SourceType,
		SourceID:      req.SourceID,
		EntryDate:     txnDate,
		CreatedBy:     userID,
		CreatedAt:     ts,
	}

	entries := make([]domain.Entry, 0, len(req.Entries))
	for i, line := range req.Entries {
		entry, err := s.buildEntry(ctx, txn, accounts[line.AccountID], line, req.EntryDate != nil || line.EntryDate != nil)
		if err != nil {
			s.LogDebug(ctx, "Rejected entry", slog.Int("index", i), slog.String("error", err.Error()))
			return nil, s.reject(fmt.Errorf("entry %d: %w", i, err), rejectValidation)
		}
		entries = append(entries, entry)
	}

	if err := accounting.ValidateBalance(entries, accounting.Tolerance(baseCurrency)); err != nil {
		s.LogDebug(ctx, "Rejected unbalanced transaction", slog.String("error", err.Error()))
		return nil, s.reject(fmt.Errorf("%w: %v", apperrors.ErrUnbalancedTransaction, err), rejectUnbalanced)
	}
	txn.BaseAmount, _ = accounting.BaseTotals(entries)

	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.guardNonNegative(ctx, accounts, entries); err != nil {
			return err
		}
		if err := s.ledgerRepo.SaveTransaction(ctx, txn, entries); err != nil {
			return err
		}
		saved, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, txn.TransactionID)
		if err != nil {
			return err
		}
		txn.Entries = saved
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientBalance) {
			return nil, s.reject(err, rejectInsufficient)
		}
		s.LogError(ctx, err, "Failed to persist transaction", slog.String("transaction_id", txn.TransactionID))
		return nil, s.reject(fmt.Errorf("failed to persist transaction: %w", err), rejectStorage)
	}

	s.metrics.TransactionPosted(string(txn.Type))
	s.LogInfo(ctx, "Transaction posted",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("type", string(txn.Type)),
		slog.String("base_amount", txn.BaseAmount.String()),
		slog.String("base_currency", baseCurrency),
		slog.Int("entries", len(entries)))
	s.recordAudit(ctx, "ledger.transaction.created", domain.RiskMedium, userID, "transaction", txn.TransactionID, map[string]string{
		"type":        string(txn.Type),
		"base_amount": txn.BaseAmount.String(),
		"currency":    baseCurrency,
	})
	return &txn, nil
}

// loadPostingAccounts fetches every referenced account and checks it can take postings.
func (s *ledgerService) loadPostingAccounts(ctx context.Context, lines []dto.CreateEntryRequest) (map[string]domain.Account, error) {
	ids := make([]string, 0, len(lines))
	seen := map[string]bool{}
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to load accounts for posting")
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	for _, id := range ids {
		acc, ok := accounts[id]
		if !ok {
			return nil, fmt.Errorf("%s: %w", id, apperrors.ErrAccountNotFound)
		}
		if !acc.IsActive {
			return nil, apperrors.NewValidationError(fmt.Sprintf("account %s is inactive", acc.Code))
		}
	}
	return accounts, nil
}

func (s *ledgerService) buildEntry(ctx context.Context, txn domain.Transaction, account domain.Account, line dto.CreateEntryRequest, dated bool) (domain.Entry, error) {
	if !line.Direction.IsValid() {
		return domain.Entry{}, apperrors.NewValidationError(fmt.Sprintf("unknown direction %q", line.Direction))
	}
	currency, err := accounting.NormalizeCurrency(line.CurrencyCode)
	if err != nil {
		return domain.Entry{}, err
	}
	if currency != account.CurrencyCode {
		return domain.Entry{}, fmt.Errorf("%w: entry in %s posted to %s account %s",
			apperrors.ErrInvalidCurrency, currency, account.CurrencyCode, account.Code)
	}
	amount := accounting.RoundAmount(line.Amount)
	if !amount.IsPositive() {
		return domain.Entry{}, apperrors.NewValidationError("entry amount must be positive")
	}

	entryDate := txn.EntryDate
	if line.EntryDate != nil {
		entryDate = line.EntryDate.UTC()
	}

	rate := decimal.NewFromInt(1)
	switch {
	case currency == txn.BaseCurrency:
	case line.FxRate != nil:
		if !line.FxRate.IsPositive() {
			return domain.Entry{}, apperrors.NewValidationError("fx rate must be positive")
		}
		rate = accounting.RoundRate(*line.FxRate)
	default:
		var asOf *time.Time
		if dated {
			asOf = &entryDate
		}
		resolved, err := s.fxRates.GetRate(ctx, currency, txn.BaseCurrency, asOf)
		if err != nil {
			return domain.Entry{}, err
		}
		rate = resolved.Rate
	}

	return domain.Entry{
		EntryID:       uuid.NewString(),
		TransactionID: txn.TransactionID,
		AccountID:     account.AccountID,
		Direction:     line.Direction,
		Amount:        amount,
		CurrencyCode:  currency,
		BaseAmount:    accounting.ToBase(amount, rate),
		BaseCurrency:  txn.BaseCurrency,
		FxRate:        rate,
		Memo:          line.Memo,
		EntryDate:     entryDate,
		CreatedAt:     txn.CreatedAt,
	}, nil
}

// guardNonNegative refuses entries that would take a non-negative account below zero.
// It must run inside the unit of work that persists the entries.
func (s *ledgerService) guardNonNegative(ctx context.Context, accounts map[string]domain.Account, entries []domain.Entry) error {
	deltas := map[string]decimal.Decimal{}
	for _, e := range entries {
		acc := accounts[e.AccountID]
		if !acc.NonNegative {
			continue
		}
		signed, err := accounting.SignedAmount(e.Amount, e.Direction, acc.AccountType)
		if err != nil {
			return err
		}
		deltas[acc.AccountID] = deltas[acc.AccountID].Add(signed)
	}
	if len(deltas) == 0 {
		return nil
	}

	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	totals, err := s.ledgerRepo.SumEntriesByAccount(ctx, ids, domain.EntrySumFilter{})
	if err != nil {
		return fmt.Errorf("failed to read balances: %w", err)
	}
	for id, delta := range deltas {
		acc := accounts[id]
		balance, _ := accounting.BalanceFromTotals(totals[id], acc.AccountType)
		if after := balance.Add(delta); after.IsNegative() {
			return fmt.Errorf("%w: account %s holds %s %s, posting needs %s",
				apperrors.ErrInsufficientBalance, acc.Code, balance.String(), acc.CurrencyCode, delta.Neg().String())
		}
	}
	return nil
}

// ReverseTransaction posts the mirror image of a transaction and links the two.
// The original is row-locked for the duration so that concurrent reversals serialise.
func (s *ledgerService) ReverseTransaction(ctx context.Context, transactionID string, reason string, userID string) (*domain.Transaction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("a reversal reason is required")
	}

	var reversal domain.Transaction
	err := s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		original, err := s.ledgerRepo.FindTransactionByIDForUpdate(ctx, transactionID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError("transaction " + transactionID)
			}
			return err
		}
		if original.IsReversal() {
			return fmt.Errorf("transaction %s reverses %s and cannot be reversed: %w",
				transactionID, original.ReversesID, apperrors.ErrConflict)
		}
		if original.Reversed {
			return fmt.Errorf("transaction %s (reversal %s): %w", transactionID, original.ReversalID, apperrors.ErrAlreadyReversed)
		}

		originalEntries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, transactionID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(originalEntries))
		for _, e := range originalEntries {
			ids = append(ids, e.AccountID)
		}
		accounts, err := s.accountRepo.FindAccountsByIDs(ctx, ids)
		if err != nil {
			return err
		}

		ts := now()
		reversal = domain.Transaction{
			TransactionID: uuid.NewString(),
			Type:          domain.TxReversal,
			BaseCurrency:  original.BaseCurrency,
			BaseAmount:    original.BaseAmount,
			Description:   fmt.Sprintf("Reversal of %s: %s", transactionID, reason),
			SourceType:    "transaction",
			SourceID:      transactionID,
			EntryDate:     ts,
			ReversesID:    transactionID,
			CreatedBy:     userID,
			CreatedAt:     ts,
		}
		mirrored := make([]domain.Entry, len(originalEntries))
		for i, e := range originalEntries {
			mirrored[i] = domain.Entry{
				EntryID:       uuid.NewString(),
				TransactionID: reversal.TransactionID,
				AccountID:     e.AccountID,
				Direction:     e.Direction.Opposite(),
				Amount:        e.Amount,
				CurrencyCode:  e.CurrencyCode,
				BaseAmount:    e.BaseAmount,
				BaseCurrency:  e.BaseCurrency,
				FxRate:        e.FxRate,
				Memo:          e.Memo,
				EntryDate:     ts,
				CreatedAt:     ts,
			}
		}

		if err := s.guardNonNegative(ctx, accounts, mirrored); err != nil {
			return err
		}
		if err := s.ledgerRepo.SaveTransaction(ctx, reversal, mirrored); err != nil {
			return err
		}
		if err := s.ledgerRepo.MarkTransactionReversed(ctx, transactionID, reversal.TransactionID); err != nil {
			return err
		}
		for _, h := range s.hooks {
			if err := h.ApplyReversal(ctx, *original, originalEntries, accounts, userID); err != nil {
				return err
			}
		}
		reversal.Entries, err = s.ledgerRepo.FindEntriesByTransactionID(ctx, reversal.TransactionID)
		return err
	})
	if err != nil {
		if !isClientError(err) {
			s.LogError(ctx, err, "Failed to reverse transaction", slog.String("transaction_id", transactionID))
		}
		return nil, err
	}

	s.metrics.TransactionPosted(string(domain.TxReversal))
	s.LogInfo(ctx, "Transaction reversed",
		slog.String("transaction_id", transactionID),
		slog.String("reversal_id", reversal.TransactionID))
	s.recordAudit(ctx, "ledger.transaction.reversed", domain.RiskHigh, userID, "transaction", transactionID, map[string]string{
		"reversal_id": reversal.TransactionID,
		"reason":      reason,
	})
	return &reversal, nil
}

// GetTransaction loads a transaction together with its entries.
func (s *ledgerService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("transaction " + transactionID)
		}
		s.LogError(ctx, err, "Failed to load transaction", slog.String("transaction_id", transactionID))
		return nil, err
	}
	entries, err := s.ledgerRepo.FindEntriesByTransactionID(ctx, transactionID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load entries", slog.String("transaction_id", transactionID))
		return nil, err
	}
	txn.Entries = entries
	return txn, nil
}

func (s *ledgerService) reject(err error, reason string) error {
	s.metrics.TransactionRejected(reason)
	return err
}

// isClientError reports whether err is caused by the request rather than by storage.
func isClientError(err error) bool {
	for _, target := range []error{
		apperrors.ErrNotFound,
		apperrors.ErrValidation,
		apperrors.ErrConflict,
		apperrors.ErrAlreadyReversed,
		apperrors.ErrInsufficientBalance,
		apperrors.ErrVaultLocked,
		apperrors.ErrInvalidCurrency,
		apperrors.ErrMissingFxRate,
		apperrors.ErrUnbalancedTransaction,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
