package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock Services ---

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) GetOrCreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	return m.Called(ctx, accountID, userID).Error(0)
}

func (m *MockAccountService) GetBalance(ctx context.Context, accountID string, asOf *time.Time, includeChildren bool) (*domain.AccountBalance, error) {
	args := m.Called(ctx, accountID, asOf, includeChildren)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountBalance), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) ReverseTransaction(ctx context.Context, transactionID string, reason string, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID, reason, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) AccountStatement(ctx context.Context, accountID string, params dto.StatementParams) (*domain.AccountStatement, error) {
	args := m.Called(ctx, accountID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountStatement), args.Error(1)
}

func (m *MockReportingService) TrialBalance(ctx context.Context, filter domain.TrialBalanceFilter) (*domain.TrialBalance, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalance), args.Error(1)
}

func (m *MockReportingService) AuditTransaction(ctx context.Context, transactionID string) (*domain.TransactionAudit, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionAudit), args.Error(1)
}

var _ portssvc.ReportingSvc = (*MockReportingService)(nil)

type MockFXRateService struct {
	mock.Mock
}

func (m *MockFXRateService) StoreRate(ctx context.Context, req dto.StoreFXRateRequest, userID string) (*domain.FXRate, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FXRate), args.Error(1)
}

func (m *MockFXRateService) GetRate(ctx context.Context, from, to string, date *time.Time) (*domain.ResolvedRate, error) {
	args := m.Called(ctx, from, to, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedRate), args.Error(1)
}

func (m *MockFXRateService) GetAllCurrentRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, base)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

var _ portssvc.FXRateSvcFacade = (*MockFXRateService)(nil)

type MockVaultService struct {
	mock.Mock
}

func (m *MockVaultService) GetVault(ctx context.Context, vaultID string) (*domain.Vault, error) {
	args := m.Called(ctx, vaultID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vault), args.Error(1)
}

func (m *MockVaultService) GetBalances(ctx context.Context, vaultID string) (*domain.VaultBalances, error) {
	args := m.Called(ctx, vaultID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VaultBalances), args.Error(1)
}

func (m *MockVaultService) CreateVault(ctx context.Context, req dto.CreateVaultRequest, userID string) (*domain.Vault, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vault), args.Error(1)
}

func (m *MockVaultService) GetOrCreateCurrencyPosition(ctx context.Context, vaultID, currency, userID string) (*domain.CurrencyPosition, error) {
	args := m.Called(ctx, vaultID, currency, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CurrencyPosition), args.Error(1)
}

func (m *MockVaultService) Deposit(ctx context.Context, vaultID string, req dto.MovementRequest, userID string) (*domain.VaultMovement, error) {
	args := m.Called(ctx, vaultID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VaultMovement), args.Error(1)
}

func (m *MockVaultService) Withdraw(ctx context.Context, vaultID string, req dto.MovementRequest, userID string) (*domain.VaultMovement, error) {
	args := m.Called(ctx, vaultID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VaultMovement), args.Error(1)
}

func (m *MockVaultService) Transfer(ctx context.Context, req dto.TransferRequest, userID string) (*domain.TransferResult, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransferResult), args.Error(1)
}

func (m *MockVaultService) Lock(ctx context.Context, vaultID, reason, userID string) error {
	return m.Called(ctx, vaultID, reason, userID).Error(0)
}

func (m *MockVaultService) Unlock(ctx context.Context, vaultID, userID string) error {
	return m.Called(ctx, vaultID, userID).Error(0)
}

var _ portssvc.VaultSvcFacade = (*MockVaultService)(nil)

type MockRevaluationService struct {
	mock.Mock
}

func (m *MockRevaluationService) RevaluePositions(ctx context.Context, vaultID string, currentRates map[string]decimal.Decimal, userID string) (*domain.RevaluationResult, error) {
	args := m.Called(ctx, vaultID, currentRates, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RevaluationResult), args.Error(1)
}

func (m *MockRevaluationService) RevalueAll(ctx context.Context) (*domain.RevaluationSweep, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RevaluationSweep), args.Error(1)
}

func (m *MockRevaluationService) ListSnapshots(ctx context.Context, vaultID string, limit int) ([]domain.FXValuationSnapshot, error) {
	args := m.Called(ctx, vaultID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FXValuationSnapshot), args.Error(1)
}

var _ portssvc.RevaluationSvc = (*MockRevaluationService)(nil)
