package services

import (
	"context"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/dto"
)

// LedgerSvcFacade posts, reverses and loads ledger transactions.
type LedgerSvcFacade interface {
	CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, userID string) (*domain.Transaction, error)
	ReverseTransaction(ctx context.Context, transactionID string, reason string, userID string) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

// ReversalHook keeps state derived from postings in step with their reversal.
// ApplyReversal runs inside the reversal's unit of work, after the mirror entries are saved.
type ReversalHook interface {
	ApplyReversal(ctx context.Context, original domain.Transaction, entries []domain.Entry, accounts map[string]domain.Account, userID string) error
}
