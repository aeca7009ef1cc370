package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/core/services"
	"github.com/SscSPs/vault_ledger/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type FXRateServiceTestSuite struct {
	suite.Suite
	env *testEnv
	ctx context.Context
	day time.Time
}

func (suite *FXRateServiceTestSuite) SetupTest() {
	suite.env = newTestEnv(suite.T())
	suite.ctx = context.Background()
	suite.day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
}

func TestFXRateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FXRateServiceTestSuite))
}

func (suite *FXRateServiceTestSuite) TestIdentity() {
	r, err := suite.env.svc.FXRate.GetRate(suite.ctx, "eur", "EUR", nil)
	suite.Require().NoError(err)
	suite.Equal(domain.RateIdentity, r.Method)
	assertDecimal(suite.T(), "1", r.Rate)
}

func (suite *FXRateServiceTestSuite) TestDirectAndInverse() {
	suite.env.rate(suite.T(), "USD", "EUR", "0.92", suite.day, true)

	direct, err := suite.env.svc.FXRate.GetRate(suite.ctx, "USD", "EUR", nil)
	suite.Require().NoError(err)
	suite.Equal(domain.RateDirect, direct.Method)
	assertDecimal(suite.T(), "0.92", direct.Rate)

	inverse, err := suite.env.svc.FXRate.GetRate(suite.ctx, "EUR", "USD", nil)
	suite.Require().NoError(err)
	suite.Equal(domain.RateInverse, inverse.Method)
	assertDecimal(suite.T(), "1.08695652", inverse.Rate)
}

func (suite *FXRateServiceTestSuite) TestCrossRateThroughSystemBase() {
	suite.env.rate(suite.T(), "USD", "EUR", "0.92", suite.day, true)
	suite.env.rate(suite.T(), "USD", "GBP", "0.79", suite.day, true)

	r, err := suite.env.svc.FXRate.GetRate(suite.ctx, "EUR", "GBP", nil)
	suite.Require().NoError(err)
	suite.Equal(domain.RateCross, r.Method)
	suite.True(r.Rate.Sub(d("0.8587")).Abs().LessThanOrEqual(d("0.0001")), "got %s", r.Rate)
}

func (suite *FXRateServiceTestSuite) TestMissingAndInvalid() {
	_, err := suite.env.svc.FXRate.GetRate(suite.ctx, "EUR", "JPY", nil)
	suite.ErrorIs(err, apperrors.ErrMissingFxRate)

	_, err = suite.env.svc.FXRate.GetRate(suite.ctx, "EUR", "ZZZ", nil)
	suite.ErrorIs(err, apperrors.ErrInvalidCurrency)
}

func (suite *FXRateServiceTestSuite) TestDatedLookupUsesLatestNotAfterDate() {
	suite.env.rate(suite.T(), "EUR", "USD", "1.05", suite.day, false)
	suite.env.rate(suite.T(), "EUR", "USD", "1.08", suite.day.AddDate(0, 0, 10), true)

	asOf := suite.day.AddDate(0, 0, 5)
	r, err := suite.env.svc.FXRate.GetRate(suite.ctx, "EUR", "USD", &asOf)
	suite.Require().NoError(err)
	assertDecimal(suite.T(), "1.05", r.Rate)

	before := suite.day.AddDate(0, 0, -1)
	_, err = suite.env.svc.FXRate.GetRate(suite.ctx, "EUR", "USD", &before)
	suite.ErrorIs(err, apperrors.ErrMissingFxRate)

	current, err := suite.env.svc.FXRate.GetRate(suite.ctx, "EUR", "USD", nil)
	suite.Require().NoError(err)
	assertDecimal(suite.T(), "1.08", current.Rate)
}

func (suite *FXRateServiceTestSuite) TestMarkCurrentReplacesPreviousCurrent() {
	suite.env.rate(suite.T(), "EUR", "USD", "1.08", suite.day, true)
	suite.env.rate(suite.T(), "EUR", "USD", "1.11", suite.day.AddDate(0, 0, -3), true)

	r, err := suite.env.svc.FXRate.GetRate(suite.ctx, "EUR", "USD", nil)
	suite.Require().NoError(err)
	assertDecimal(suite.T(), "1.11", r.Rate)
}

func (suite *FXRateServiceTestSuite) TestStoreRateValidation() {
	_, err := suite.env.svc.FXRate.StoreRate(suite.ctx, dto.StoreFXRateRequest{
		FromCurrencyCode: "EUR", ToCurrencyCode: "EUR", Rate: d("1"), RateDate: suite.day,
	}, testUser)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.env.svc.FXRate.StoreRate(suite.ctx, dto.StoreFXRateRequest{
		FromCurrencyCode: "EUR", ToCurrencyCode: "USD", Rate: d("-1"), RateDate: suite.day,
	}, testUser)
	suite.ErrorIs(err, apperrors.ErrValidation)

	stored, err := suite.env.svc.FXRate.StoreRate(suite.ctx, dto.StoreFXRateRequest{
		FromCurrencyCode: "eur", ToCurrencyCode: "usd", Rate: d("1.123456789"), RateDate: suite.day,
	}, testUser)
	suite.Require().NoError(err)
	suite.Equal("EUR", stored.From)
	suite.Equal("manual", stored.Source)
	assertDecimal(suite.T(), "1.12345679", stored.Rate)
	suite.Contains(suite.env.audit.actions(), "fx_rate.stored")
}

func (suite *FXRateServiceTestSuite) TestGetAllCurrentRates() {
	suite.env.rate(suite.T(), "USD", "EUR", "0.92", suite.day, true)
	suite.env.rate(suite.T(), "USD", "GBP", "0.79", suite.day, true)

	rates, err := suite.env.svc.FXRate.GetAllCurrentRates(suite.ctx, "EUR")
	suite.Require().NoError(err)
	suite.Len(rates, 3)
	assertDecimal(suite.T(), "1", rates["EUR"])
	assertDecimal(suite.T(), "0.92", rates["USD"])
	suite.Contains(rates, "GBP")
}

// MockFXRateRepository is a mock type for the FXRateRepositoryFacade interface
type MockFXRateRepository struct {
	mock.Mock
}

func (m *MockFXRateRepository) FindRate(ctx context.Context, from, to string, asOf *time.Time) (*domain.FXRate, error) {
	args := m.Called(ctx, from, to, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FXRate), args.Error(1)
}

func (m *MockFXRateRepository) ListCurrentRates(ctx context.Context) ([]domain.FXRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FXRate), args.Error(1)
}

func (m *MockFXRateRepository) SaveRate(ctx context.Context, rate domain.FXRate) error {
	return m.Called(ctx, rate).Error(0)
}

func (m *MockFXRateRepository) ClearCurrentRates(ctx context.Context, from, to string) error {
	return m.Called(ctx, from, to).Error(0)
}

// passthroughTx runs the unit of work without any storage transaction.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestFXRateCacheServesRepeatedLookups(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFXRateRepository)
	svc := services.NewFXRateService(passthroughTx{}, repo, "USD", time.Minute)

	repo.On("FindRate", ctx, "EUR", "USD", (*time.Time)(nil)).
		Return(&domain.FXRate{From: "EUR", To: "USD", Rate: d("1.08")}, nil)

	for i := 0; i < 3; i++ {
		r, err := svc.GetRate(ctx, "EUR", "USD", nil)
		require.NoError(t, err)
		assertDecimal(t, "1.08", r.Rate)
	}
	repo.AssertNumberOfCalls(t, "FindRate", 1)

	// Storing any rate drops cached answers.
	repo.On("SaveRate", ctx, mock.AnythingOfType("domain.FXRate")).Return(nil).Once()
	_, err := svc.StoreRate(ctx, dto.StoreFXRateRequest{
		FromCurrencyCode: "GBP", ToCurrencyCode: "USD", Rate: d("1.27"), RateDate: time.Now(),
	}, testUser)
	require.NoError(t, err)

	_, err = svc.GetRate(ctx, "EUR", "USD", nil)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "FindRate", 2)
	repo.AssertExpectations(t)
}

func TestFXRateCacheDisabledWithZeroTTL(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFXRateRepository)
	svc := services.NewFXRateService(passthroughTx{}, repo, "USD", 0)

	repo.On("FindRate", ctx, "EUR", "USD", (*time.Time)(nil)).
		Return(&domain.FXRate{From: "EUR", To: "USD", Rate: d("1.08")}, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.GetRate(ctx, "EUR", "USD", nil)
		require.NoError(t, err)
	}
	repo.AssertNumberOfCalls(t, "FindRate", 2)
}

func TestFXRateRepositoryFailureIsNotMissingRate(t *testing.T) {
	ctx := context.Background()
	repo := new(MockFXRateRepository)
	svc := services.NewFXRateService(passthroughTx{}, repo, "USD", 0)

	storageErr := apperrors.NewStorageError("query failed", context.DeadlineExceeded)
	repo.On("FindRate", ctx, "EUR", "USD", (*time.Time)(nil)).Return(nil, storageErr)

	_, err := svc.GetRate(ctx, "EUR", "USD", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrInternal)
	require.NotErrorIs(t, err, apperrors.ErrMissingFxRate)
}
