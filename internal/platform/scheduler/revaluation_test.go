package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRevaluation struct {
	calls    int
	deadline bool
	err      error
}

func (s *stubRevaluation) RevaluePositions(context.Context, string, map[string]decimal.Decimal, string) (*domain.RevaluationResult, error) {
	return nil, errors.New("not used")
}

func (s *stubRevaluation) RevalueAll(ctx context.Context) (*domain.RevaluationSweep, error) {
	s.calls++
	_, s.deadline = ctx.Deadline()
	if s.err != nil {
		return nil, s.err
	}
	return &domain.RevaluationSweep{Failed: map[string]string{"v1": "missing rate"}}, nil
}

func (s *stubRevaluation) ListSnapshots(context.Context, string, int) ([]domain.FXValuationSnapshot, error) {
	return nil, nil
}

func TestNewRevaluationSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewRevaluationScheduler("every tuesday", &stubRevaluation{}, slog.Default(), 0)
	assert.Error(t, err)
}

func TestRunOnceAppliesTimeout(t *testing.T) {
	svc := &stubRevaluation{}
	s, err := NewRevaluationScheduler("0 0 * * *", svc, slog.Default(), time.Minute)
	require.NoError(t, err)

	s.RunOnce(context.Background())
	assert.Equal(t, 1, svc.calls)
	assert.True(t, svc.deadline)

	svc.err = errors.New("store down")
	s.RunOnce(context.Background())
	assert.Equal(t, 2, svc.calls)
}

func TestStartAndStop(t *testing.T) {
	s, err := NewRevaluationScheduler("@every 1h", &stubRevaluation{}, slog.Default(), 0)
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
