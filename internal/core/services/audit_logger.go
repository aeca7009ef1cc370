package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/vault_ledger/internal/core/ports/services"
)

type slogAuditLogger struct {
	logger *slog.Logger
}

// NewSlogAuditLogger writes audit events as structured log records. HIGH and
// CRITICAL events are logged at warn level.
func NewSlogAuditLogger(logger *slog.Logger) portssvc.AuditLogger {
	return &slogAuditLogger{logger: logger.With(slog.String("channel", "audit"))}
}

func (a *slogAuditLogger) Record(ctx context.Context, e domain.AuditEvent) {
	level := slog.LevelInfo
	if e.RiskLevel == domain.RiskHigh || e.RiskLevel == domain.RiskCritical {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("action", e.Action),
		slog.String("risk_level", string(e.RiskLevel)),
		slog.String("actor_id", e.ActorID),
		slog.String("resource_type", e.ResourceType),
		slog.String("resource_id", e.ResourceID),
		slog.Time("occurred_at", e.OccurredAt),
	}
	if len(e.Attributes) > 0 {
		group := make([]any, 0, len(e.Attributes))
		for k, v := range e.Attributes {
			group = append(group, slog.String(k, v))
		}
		attrs = append(attrs, slog.Group("attributes", group...))
	}
	a.logger.LogAttrs(ctx, level, "audit event", attrs...)
}

// NewLoggingSettlementNotifier logs every settlement. It is the default notifier
// until a downstream consumer is attached.
func NewLoggingSettlementNotifier(logger *slog.Logger) portssvc.SettlementNotifier {
	return func(ctx context.Context, st domain.Settlement) {
		logger.InfoContext(ctx, "settlement completed",
			slog.String("transaction_id", st.TransactionID),
			slog.String("type", string(st.Type)),
			slog.String("vault_id", st.VaultID),
			slog.String("currency", st.CurrencyCode),
			slog.String("amount", st.Amount.String()),
			slog.String("base_amount", st.BaseAmount.String()),
		)
	}
}
