package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/vault_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	repos portsrepo.RepositoryProvider
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.store = NewStore()
	s.repos = NewRepositoryProvider(s.store)
	s.ctx = context.Background()
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) account(id, code string) domain.Account {
	return domain.Account{AccountID: id, Code: code, Name: code, AccountType: domain.Asset, CurrencyCode: "USD", IsActive: true}
}

func (s *StoreTestSuite) TestRunInTxRollsBackOnError() {
	boom := errors.New("boom")
	err := s.repos.TxManager.RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.repos.AccountRepo.SaveAccount(ctx, s.account("a1", "CASH")))
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.repos.AccountRepo.FindAccountByID(s.ctx, "a1")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestRunInTxRollsBackOnPanic() {
	s.Panics(func() {
		_ = s.repos.TxManager.RunInTx(s.ctx, func(ctx context.Context) error {
			s.Require().NoError(s.repos.AccountRepo.SaveAccount(ctx, s.account("a1", "CASH")))
			panic("boom")
		})
	})

	_, err := s.repos.AccountRepo.FindAccountByID(s.ctx, "a1")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestNestedRunInTxJoinsOuter() {
	err := s.repos.TxManager.RunInTx(s.ctx, func(ctx context.Context) error {
		return s.repos.TxManager.RunInTx(ctx, func(ctx context.Context) error {
			return s.repos.AccountRepo.SaveAccount(ctx, s.account("a1", "CASH"))
		})
	})
	s.Require().NoError(err)

	acc, err := s.repos.AccountRepo.FindAccountByCode(s.ctx, "CASH")
	s.Require().NoError(err)
	s.Equal("a1", acc.AccountID)
}

func (s *StoreTestSuite) TestDuplicateAccountCode() {
	s.Require().NoError(s.repos.AccountRepo.SaveAccount(s.ctx, s.account("a1", "CASH")))
	err := s.repos.AccountRepo.SaveAccount(s.ctx, s.account("a2", "CASH"))
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *StoreTestSuite) TestSaveTransactionAssignsSequenceAndSums() {
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	entries := []domain.Entry{
		{EntryID: "e1", TransactionID: "t1", AccountID: "a1", Direction: domain.Debit, Amount: decimal.NewFromInt(10), BaseAmount: decimal.NewFromInt(10), BaseCurrency: "USD", EntryDate: day1},
		{EntryID: "e2", TransactionID: "t1", AccountID: "a2", Direction: domain.Credit, Amount: decimal.NewFromInt(10), BaseAmount: decimal.NewFromInt(10), BaseCurrency: "USD", EntryDate: day1},
	}
	s.Require().NoError(s.repos.LedgerRepo.SaveTransaction(s.ctx, domain.Transaction{TransactionID: "t1"}, entries))
	later := []domain.Entry{
		{EntryID: "e3", TransactionID: "t2", AccountID: "a1", Direction: domain.Credit, Amount: decimal.NewFromInt(4), BaseAmount: decimal.NewFromInt(4), BaseCurrency: "USD", EntryDate: day2},
		{EntryID: "e4", TransactionID: "t2", AccountID: "a2", Direction: domain.Debit, Amount: decimal.NewFromInt(4), BaseAmount: decimal.NewFromInt(4), BaseCurrency: "USD", EntryDate: day2},
	}
	s.Require().NoError(s.repos.LedgerRepo.SaveTransaction(s.ctx, domain.Transaction{TransactionID: "t2"}, later))

	stored, err := s.repos.LedgerRepo.FindEntriesByTransactionID(s.ctx, "t2")
	s.Require().NoError(err)
	s.Equal(int64(3), stored[0].Sequence)
	s.Equal(int64(4), stored[1].Sequence)

	all, err := s.repos.LedgerRepo.SumEntriesByAccount(s.ctx, []string{"a1"}, domain.EntrySumFilter{})
	s.Require().NoError(err)
	s.True(decimal.NewFromInt(10).Equal(all["a1"].Debit))
	s.True(decimal.NewFromInt(4).Equal(all["a1"].Credit))
	s.NotContains(all, "a2")

	asOf, err := s.repos.LedgerRepo.SumEntriesByAccount(s.ctx, nil, domain.EntrySumFilter{AsOf: &day1})
	s.Require().NoError(err)
	s.True(asOf["a1"].Credit.IsZero())
	s.True(decimal.NewFromInt(10).Equal(asOf["a2"].Credit))

	beforeT2, err := s.repos.LedgerRepo.SumEntriesByAccount(s.ctx, nil, domain.EntrySumFilter{BeforeSequence: 3})
	s.Require().NoError(err)
	s.True(beforeT2["a1"].Credit.IsZero())
}

func (s *StoreTestSuite) TestListEntriesByAccountPaging() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		txnID := "t" + string(rune('0'+i))
		entries := []domain.Entry{
			{EntryID: txnID + "d", TransactionID: txnID, AccountID: "a1", Direction: domain.Debit, Amount: decimal.NewFromInt(1), BaseAmount: decimal.NewFromInt(1), EntryDate: base.AddDate(0, 0, 4-i)},
			{EntryID: txnID + "c", TransactionID: txnID, AccountID: "a2", Direction: domain.Credit, Amount: decimal.NewFromInt(1), BaseAmount: decimal.NewFromInt(1), EntryDate: base.AddDate(0, 0, 4-i)},
		}
		s.Require().NoError(s.repos.LedgerRepo.SaveTransaction(s.ctx, domain.Transaction{TransactionID: txnID}, entries))
	}

	page, err := s.repos.LedgerRepo.ListEntriesByAccount(s.ctx, "a1", domain.EntryQuery{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal("t4d", page[0].EntryID)
	s.Equal("t3d", page[1].EntryID)

	cursor := domain.EntryCursor{EntryDate: page[1].EntryDate, Sequence: page[1].Sequence}
	next, err := s.repos.LedgerRepo.ListEntriesByAccount(s.ctx, "a1", domain.EntryQuery{After: &cursor, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(next, 3)
	s.Equal("t2d", next[0].EntryID)
}

func (s *StoreTestSuite) TestMarkTransactionReversedOnce() {
	s.Require().NoError(s.repos.LedgerRepo.SaveTransaction(s.ctx, domain.Transaction{TransactionID: "t1"}, nil))
	s.Require().NoError(s.repos.LedgerRepo.MarkTransactionReversed(s.ctx, "t1", "r1"))
	s.ErrorIs(s.repos.LedgerRepo.MarkTransactionReversed(s.ctx, "t1", "r2"), apperrors.ErrAlreadyReversed)

	txn, err := s.repos.LedgerRepo.FindTransactionByID(s.ctx, "t1")
	s.Require().NoError(err)
	s.True(txn.Reversed)
	s.Equal("r1", txn.ReversalID)
}

func (s *StoreTestSuite) TestFindRatePrefersCurrentThenLatest() {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	repo := s.repos.FXRateRepo
	s.Require().NoError(repo.SaveRate(s.ctx, domain.FXRate{FXRateID: "r1", From: "EUR", To: "USD", Rate: decimal.RequireFromString("1.08"), RateDate: d1, IsCurrent: true}))
	s.Require().NoError(repo.SaveRate(s.ctx, domain.FXRate{FXRateID: "r2", From: "EUR", To: "USD", Rate: decimal.RequireFromString("1.10"), RateDate: d2}))

	current, err := repo.FindRate(s.ctx, "EUR", "USD", nil)
	s.Require().NoError(err)
	s.Equal("r1", current.FXRateID)

	asOf, err := repo.FindRate(s.ctx, "EUR", "USD", &d2)
	s.Require().NoError(err)
	s.Equal("r2", asOf.FXRateID)

	s.Require().NoError(repo.ClearCurrentRates(s.ctx, "EUR", "USD"))
	latest, err := repo.FindRate(s.ctx, "EUR", "USD", nil)
	s.Require().NoError(err)
	s.Equal("r2", latest.FXRateID)

	before := d1.AddDate(0, 0, -1)
	_, err = repo.FindRate(s.ctx, "EUR", "USD", &before)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestSaveRateUpsertsByDate() {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := s.repos.FXRateRepo
	s.Require().NoError(repo.SaveRate(s.ctx, domain.FXRate{FXRateID: "r1", From: "EUR", To: "USD", Rate: decimal.RequireFromString("1.08"), RateDate: d1}))
	s.Require().NoError(repo.SaveRate(s.ctx, domain.FXRate{FXRateID: "r9", From: "EUR", To: "USD", Rate: decimal.RequireFromString("1.09"), RateDate: d1}))

	got, err := repo.FindRate(s.ctx, "EUR", "USD", nil)
	s.Require().NoError(err)
	s.Equal("r1", got.FXRateID)
	s.Equal("1.09", got.Rate.String())
}

func (s *StoreTestSuite) TestUpdatePositionChecksVersion() {
	repo := s.repos.VaultRepo
	pos := domain.CurrencyPosition{PositionID: "p1", VaultID: "v1", CurrencyCode: "EUR"}
	s.Require().NoError(repo.SavePosition(s.ctx, pos))
	s.ErrorIs(repo.SavePosition(s.ctx, pos), apperrors.ErrDuplicate)

	pos.LastRate = decimal.RequireFromString("1.1")
	s.Require().NoError(repo.UpdatePosition(s.ctx, pos))

	// pos still carries version 0, the store now holds 1.
	s.ErrorIs(repo.UpdatePosition(s.ctx, pos), apperrors.ErrConflict)

	stored, err := repo.FindPosition(s.ctx, "v1", "EUR")
	s.Require().NoError(err)
	s.Equal(int64(1), stored.Version)
	s.Equal("1.1", stored.LastRate.String())
}

func (s *StoreTestSuite) TestListVaultsFilter() {
	repo := s.repos.VaultRepo
	s.Require().NoError(repo.SaveVault(s.ctx, domain.Vault{VaultID: "v1", AutoRevaluation: true}))
	s.Require().NoError(repo.SaveVault(s.ctx, domain.Vault{VaultID: "v2"}))
	s.Require().NoError(repo.SaveVault(s.ctx, domain.Vault{VaultID: "v3", AutoRevaluation: true}))
	s.Require().NoError(repo.UpdateVaultLock(s.ctx, "v3", true, "audit", "u1", time.Now()))

	auto, err := repo.ListVaults(s.ctx, domain.VaultFilter{AutoRevaluationOnly: true, UnlockedOnly: true})
	s.Require().NoError(err)
	s.Require().Len(auto, 1)
	s.Equal("v1", auto[0].VaultID)
}

func TestRunInTxSerialisesConcurrentWriters(t *testing.T) {
	store := NewStore()
	repos := NewRepositoryProvider(store)
	ctx := context.Background()
	require.NoError(t, repos.VaultRepo.SavePosition(ctx, domain.CurrencyPosition{PositionID: "p1", VaultID: "v1", CurrencyCode: "EUR"}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repos.TxManager.RunInTx(ctx, func(ctx context.Context) error {
				p, err := repos.VaultRepo.FindPositionForUpdate(ctx, "v1", "EUR")
				if err != nil {
					return err
				}
				p.CumulativeRealizedGain = p.CumulativeRealizedGain.Add(decimal.NewFromInt(1))
				return repos.VaultRepo.UpdatePosition(ctx, *p)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := repos.VaultRepo.FindPosition(ctx, "v1", "EUR")
	require.NoError(t, err)
	assert.Equal(t, int64(20), p.Version)
	assert.True(t, decimal.NewFromInt(20).Equal(p.CumulativeRealizedGain))
}
