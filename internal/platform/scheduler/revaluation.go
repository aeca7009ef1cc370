package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/robfig/cron/v3"
)

// RevaluationScheduler runs the revaluation sweep on a cron schedule.
type RevaluationScheduler struct {
	cron    *cron.Cron
	svc     portssvc.RevaluationSvc
	logger  *slog.Logger
	timeout time.Duration
}

// NewRevaluationScheduler parses spec, a standard five-field cron expression, and
// registers the sweep. Overlapping runs are skipped rather than queued.
func NewRevaluationScheduler(spec string, svc portssvc.RevaluationSvc, logger *slog.Logger, timeout time.Duration) (*RevaluationScheduler, error) {
	s := &RevaluationScheduler{
		svc:     svc,
		logger:  logger,
		timeout: timeout,
	}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid revaluation schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing the schedule in the background.
func (s *RevaluationScheduler) Start() {
	s.cron.Start()
	s.logger.Info("Revaluation scheduler started", slog.Time("next_run", s.cron.Entries()[0].Next))
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to end.
func (s *RevaluationScheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Revaluation sweep still running at shutdown")
	}
}

// RunOnce performs a single sweep and logs its outcome.
func (s *RevaluationScheduler) RunOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	sweep, err := s.svc.RevalueAll(ctx)
	if err != nil {
		s.logger.Error("Revaluation sweep failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("Revaluation sweep finished",
		slog.Int("revalued", len(sweep.Results)),
		slog.Int("skipped", len(sweep.Skipped)),
		slog.Int("failed", len(sweep.Failed)),
		slog.Duration("elapsed", time.Since(start)),
	)
	for vaultID, reason := range sweep.Failed {
		s.logger.Warn("Vault revaluation failed", slog.String("vault_id", vaultID), slog.String("error", reason))
	}
}
