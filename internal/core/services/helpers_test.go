package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/core/services"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/SscSPs/vault_ledger/internal/platform/config"
	"github.com/SscSPs/vault_ledger/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func testConfig() *config.Config {
	return &config.Config{
		SystemBaseCurrency: "USD",
		RevaluationWorkers: 4,
		StorageDriver:      config.StorageMemory,
	}
}

// recordingAudit keeps every audit event in memory.
type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *recordingAudit) Record(_ context.Context, e domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.Action
	}
	return out
}

type testEnv struct {
	store       *memory.Store
	svc         *portssvc.ServiceContainer
	audit       *recordingAudit
	settlements chan domain.Settlement
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	env := &testEnv{
		store:       store,
		audit:       &recordingAudit{},
		settlements: make(chan domain.Settlement, 64),
	}
	env.svc = services.NewServiceContainer(testConfig(), memory.NewRepositoryProvider(store),
		services.WithAuditLogger(env.audit),
		services.WithSettlementNotifier(func(_ context.Context, st domain.Settlement) {
			env.settlements <- st
		}),
	)
	return env
}

func (e *testEnv) account(t *testing.T, code string, accountType domain.AccountType, currency string) *domain.Account {
	t.Helper()
	acc, err := e.svc.Account.GetOrCreateAccount(context.Background(), dto.CreateAccountRequest{
		Code:         code,
		Name:         code,
		AccountType:  accountType,
		CurrencyCode: currency,
	}, testUser)
	require.NoError(t, err)
	return acc
}

func (e *testEnv) rate(t *testing.T, from, to, rate string, date time.Time, current bool) {
	t.Helper()
	_, err := e.svc.FXRate.StoreRate(context.Background(), dto.StoreFXRateRequest{
		FromCurrencyCode: from,
		ToCurrencyCode:   to,
		Rate:             d(rate),
		RateDate:         date,
		MarkCurrent:      current,
	}, testUser)
	require.NoError(t, err)
}

func (e *testEnv) vault(t *testing.T, name, base string, multi, auto bool) *domain.Vault {
	t.Helper()
	v, err := e.svc.Vault.CreateVault(context.Background(), dto.CreateVaultRequest{
		Name:            name,
		OwnerType:       "farm",
		OwnerID:         "owner-" + name,
		BaseCurrency:    base,
		MultiCurrency:   multi,
		AutoRevaluation: auto,
	}, testUser)
	require.NoError(t, err)
	return v
}

func (e *testEnv) deposit(t *testing.T, vaultID, amount, currency string, rate *decimal.Decimal) *domain.VaultMovement {
	t.Helper()
	m, err := e.svc.Vault.Deposit(context.Background(), vaultID, dto.MovementRequest{
		Amount:       d(amount),
		CurrencyCode: currency,
		FxRate:       rate,
	}, testUser)
	require.NoError(t, err)
	return m
}

func (e *testEnv) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	b, err := e.svc.Account.GetBalance(context.Background(), accountID, nil, false)
	require.NoError(t, err)
	return b.Balance
}

// transfer builds a two-line transaction moving amount from credit to debit.
func transfer(txType domain.TransactionType, base string, debit, credit *domain.Account, amount string) dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{
		Type:         txType,
		BaseCurrency: base,
		Description:  "test posting",
		Entries: []dto.CreateEntryRequest{
			{AccountID: debit.AccountID, Direction: domain.Debit, Amount: d(amount), CurrencyCode: debit.CurrencyCode},
			{AccountID: credit.AccountID, Direction: domain.Credit, Amount: d(amount), CurrencyCode: credit.CurrencyCode},
		},
	}
}
