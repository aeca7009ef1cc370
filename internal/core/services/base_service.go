package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
	"github.com/SscSPs/vault_ledger/internal/middleware"
	"github.com/SscSPs/vault_ledger/internal/platform/metrics"
)

// BaseService provides common functionality for all services
type BaseService struct {
	audit    portssvc.AuditLogger
	metrics  *metrics.Metrics
	notifier portssvc.SettlementNotifier
}

// ServiceOption configures the collaborators shared by every service.
type ServiceOption func(*BaseService)

// WithAuditLogger sets the sink for audit events.
func WithAuditLogger(a portssvc.AuditLogger) ServiceOption {
	return func(s *BaseService) {
		s.audit = a
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *BaseService) {
		s.metrics = m
	}
}

// WithSettlementNotifier sets the callback invoked after completed vault movements.
func WithSettlementNotifier(n portssvc.SettlementNotifier) ServiceOption {
	return func(s *BaseService) {
		s.notifier = n
	}
}

func newBaseService(opts []ServiceOption) BaseService {
	var b BaseService
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// recordAudit emits an audit event when an audit logger is configured.
func (s *BaseService) recordAudit(ctx context.Context, action string, risk domain.RiskLevel, actorID, resourceType, resourceID string, attrs map[string]string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, domain.AuditEvent{
		Action:       action,
		RiskLevel:    risk,
		ActorID:      actorID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Attributes:   attrs,
		OccurredAt:   now(),
	})
}

// notifySettlement hands st to the notifier on its own goroutine. The caller's
// cancellation does not reach the notifier.
func (s *BaseService) notifySettlement(ctx context.Context, st domain.Settlement) {
	if s.notifier == nil {
		return
	}
	go s.notifier(context.WithoutCancel(ctx), st)
}

func now() time.Time {
	return time.Now().UTC()
}
