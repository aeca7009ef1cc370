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

// maxCreateAttempts bounds the re-read loop that resolves concurrent creates of the same code.
const maxCreateAttempts = 3

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	ledgerRepo  portsrepo.LedgerReader
}

// NewAccountService creates the account registry.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, ledgerRepo portsrepo.LedgerReader, opts ...ServiceOption) portssvc.AccountSvcFacade {
	return &accountService{
		BaseService: newBaseService(opts),
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", accountID, apperrors.ErrAccountNotFound)
		}
		s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		return nil, err
	}
	return account, nil
}

func (s *accountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("code %s: %w", code, apperrors.ErrAccountNotFound)
		}
		s.LogError(ctx, err, "Failed to find account by code", slog.String("code", code))
		return nil, err
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts",
			slog.String("entity_type", filter.EntityType),
			slog.String("entity_id", filter.EntityID))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// GetOrCreateAccount returns the account with req.Code, creating it when absent. A concurrent
// creator winning the unique code makes this call re-read and return the winner's row.
func (s *accountService) GetOrCreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, apperrors.NewValidationError("account code is required")
	}
	if !req.AccountType.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown account type %q", req.AccountType))
	}
	currency, err := accounting.NormalizeCurrency(req.CurrencyCode)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		existing, err := s.accountRepo.FindAccountByCode(ctx, code)
		if err == nil {
			if existing.AccountType != req.AccountType || existing.CurrencyCode != currency {
				return nil, fmt.Errorf("account %s exists as %s/%s: %w",
					code, existing.AccountType, existing.CurrencyCode, apperrors.ErrConflict)
			}
			return existing, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to look up account by code", slog.String("code", code))
			return nil, err
		}

		account, err := s.newAccount(ctx, code, currency, req, userID)
		if err != nil {
			return nil, err
		}

		err = s.accountRepo.SaveAccount(ctx, *account)
		if err == nil {
			s.LogInfo(ctx, "Account created",
				slog.String("account_id", account.AccountID),
				slog.String("code", code))
			s.recordAudit(ctx, "account.created", domain.RiskLow, userID, "account", account.AccountID, map[string]string{
				"code": code,
				"type": string(account.AccountType),
			})
			return account, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save account", slog.String("code", code))
			return nil, err
		}
		s.LogDebug(ctx, "Account code taken concurrently, re-reading",
			slog.String("code", code),
			slog.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("account %s could not be created or read back: %w", code, apperrors.ErrConflict)
}

func (s *accountService) newAccount(ctx context.Context, code, currency string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	parentID := ""
	if req.ParentAccountID != nil && *req.ParentAccountID != "" {
		parent, err := s.GetAccountByID(ctx, *req.ParentAccountID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent account: %w", err)
		}
		parentID = parent.AccountID
	}

	ts := now()
	return &domain.Account{
		AccountID:       uuid.NewString(),
		Code:            code,
		Name:            req.Name,
		AccountType:     req.AccountType,
		CurrencyCode:    currency,
		ParentAccountID: parentID,
		EntityType:      req.EntityType,
		EntityID:        req.EntityID,
		IsActive:        true,
		IsSystem:        req.IsSystem,
		NonNegative:     req.NonNegative,
		AuditFields: domain.AuditFields{
			CreatedAt:     ts,
			CreatedBy:     userID,
			LastUpdatedAt: ts,
			LastUpdatedBy: userID,
		},
	}, nil
}

// DeactivateAccount hides an account from new postings. System accounts and accounts
// that still carry a balance are refused.
func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.IsSystem {
		return apperrors.NewValidationError("system accounts cannot be deactivated")
	}
	if !account.IsActive {
		return nil
	}

	balance, _, err := accountBalance(ctx, s.ledgerRepo, *account, domain.EntrySumFilter{})
	if err != nil {
		return err
	}
	if !balance.IsZero() {
		return fmt.Errorf("account %s still holds %s %s: %w", accountID, balance.String(), account.CurrencyCode, apperrors.ErrConflict)
	}

	if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, now()); err != nil {
		s.LogError(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		return err
	}
	s.LogInfo(ctx, "Account deactivated", slog.String("account_id", accountID))
	s.recordAudit(ctx, "account.deactivated", domain.RiskMedium, userID, "account", accountID, nil)
	return nil
}

// GetBalance replays the entry log. With includeChildren every descendant is added: the
// native balance only counts descendants in the same currency, the base balance counts all.
func (s *accountService) GetBalance(ctx context.Context, accountID string, asOf *time.Time, includeChildren bool) (*domain.AccountBalance, error) {
	root, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	accounts := []domain.Account{*root}
	if includeChildren {
		descendants, err := s.descendants(ctx, root.AccountID)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, descendants...)
	}

	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.AccountID
	}
	totals, err := s.ledgerRepo.SumEntriesByAccount(ctx, ids, domain.EntrySumFilter{AsOf: asOf})
	if err != nil {
		s.LogError(ctx, err, "Failed to sum entries", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to compute balance for account %s: %w", accountID, err)
	}

	native, base := decimal.Zero, decimal.Zero
	for _, a := range accounts {
		n, b := accounting.BalanceFromTotals(totals[a.AccountID], a.AccountType)
		if a.CurrencyCode == root.CurrencyCode {
			native = native.Add(n)
		}
		base = base.Add(b)
	}

	return &domain.AccountBalance{
		AccountID:        root.AccountID,
		CurrencyCode:     root.CurrencyCode,
		Balance:          native,
		BaseBalance:      base,
		AsOf:             asOf,
		IncludesChildren: includeChildren,
	}, nil
}

// descendants walks the account tree breadth first.
func (s *accountService) descendants(ctx context.Context, rootID string) ([]domain.Account, error) {
	var out []domain.Account
	seen := map[string]bool{rootID: true}
	queue := []string{rootID}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		children, err := s.accountRepo.ListAccounts(ctx, domain.AccountFilter{ParentAccountID: parent})
		if err != nil {
			return nil, fmt.Errorf("failed to list children of %s: %w", parent, err)
		}
		for _, c := range children {
			if seen[c.AccountID] {
				continue
			}
			seen[c.AccountID] = true
			out = append(out, c)
			queue = append(queue, c.AccountID)
		}
	}
	return out, nil
}

// accountBalance returns the native and base balance of one account under filter.
func accountBalance(ctx context.Context, ledgerRepo portsrepo.LedgerReader, account domain.Account, filter domain.EntrySumFilter) (decimal.Decimal, decimal.Decimal, error) {
	totals, err := ledgerRepo.SumEntriesByAccount(ctx, []string{account.AccountID}, filter)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum entries of account %s: %w", account.AccountID, err)
	}
	native, base := accounting.BalanceFromTotals(totals[account.AccountID], account.AccountType)
	return native, base, nil
}
