package services

import (
	"context"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
)

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Account     AccountSvcFacade
	FXRate      FXRateSvcFacade
	Ledger      LedgerSvcFacade
	Vault       VaultSvcFacade
	Revaluation RevaluationSvc
	Reporting   ReportingSvc
}

// AuditLogger records one structured event per mutating call.
type AuditLogger interface {
	Record(ctx context.Context, event domain.AuditEvent)
}

// SettlementNotifier is called after a deposit, withdrawal or transfer has committed.
// It runs on its own goroutine and must not block the caller.
type SettlementNotifier func(ctx context.Context, settlement domain.Settlement)
