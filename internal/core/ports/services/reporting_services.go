package services

import (
	"context"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/dto"
)

// ReportingSvc provides read-only projections over the entry log.
type ReportingSvc interface {
	AccountStatement(ctx context.Context, accountID string, params dto.StatementParams) (*domain.AccountStatement, error)
	TrialBalance(ctx context.Context, filter domain.TrialBalanceFilter) (*domain.TrialBalance, error)
	AuditTransaction(ctx context.Context, transactionID string) (*domain.TransactionAudit, error)
}
