package dto

import (
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEntryRequest is one line of a transaction to post.
type CreateEntryRequest struct {
	AccountID    string           `json:"accountID" binding:"required"`
	Direction    domain.Direction `json:"direction" binding:"required,oneof=DEBIT CREDIT"`
	Amount       decimal.Decimal  `json:"amount" binding:"required"`
	CurrencyCode string           `json:"currencyCode" binding:"required,iso4217"`
	// FxRate converts Amount into the transaction base currency. Resolved from the rate store when nil.
	FxRate    *decimal.Decimal `json:"fxRate,omitempty"`
	Memo      string           `json:"memo,omitempty"`
	EntryDate *time.Time       `json:"entryDate,omitempty"`
}

// CreateTransactionRequest is a balanced set of entries to post atomically.
type CreateTransactionRequest struct {
	Type         domain.TransactionType `json:"type" binding:"required"`
	BaseCurrency string                 `json:"baseCurrency" binding:"required,iso4217"`
	Description  string                 `json:"description"`
	SourceType   string                 `json:"sourceType,omitempty"`
	SourceID     string                 `json:"sourceID,omitempty"`
	EntryDate    *time.Time             `json:"entryDate,omitempty"`
	Entries      []CreateEntryRequest   `json:"entries" binding:"required,min=2,dive"`
}

// ReverseTransactionRequest carries the reason for a reversal.
type ReverseTransactionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ReverseTransactionResponse is returned after a successful reversal.
type ReverseTransactionResponse struct {
	ReversalID string `json:"reversalId"`
}

// EntryResponse is the API view of an entry.
type EntryResponse struct {
	EntryID      string           `json:"entryID"`
	AccountID    string           `json:"accountID"`
	Direction    domain.Direction `json:"direction"`
	Amount       decimal.Decimal  `json:"amount"`
	CurrencyCode string           `json:"currencyCode"`
	BaseAmount   decimal.Decimal  `json:"baseAmount"`
	BaseCurrency string           `json:"baseCurrency"`
	FxRate       decimal.Decimal  `json:"fxRate"`
	Memo         string           `json:"memo,omitempty"`
	EntryDate    time.Time        `json:"entryDate"`
}

// TransactionResponse is the API view of a transaction with its entries.
type TransactionResponse struct {
	TransactionID string                 `json:"transactionID"`
	Type          domain.TransactionType `json:"type"`
	BaseCurrency  string                 `json:"baseCurrency"`
	BaseAmount    decimal.Decimal        `json:"baseAmount"`
	Description   string                 `json:"description"`
	SourceType    string                 `json:"sourceType,omitempty"`
	SourceID      string                 `json:"sourceID,omitempty"`
	Reversed      bool                   `json:"reversed"`
	ReversalID    string                 `json:"reversalID,omitempty"`
	ReversesID    string                 `json:"reversesID,omitempty"`
	CreatedBy     string                 `json:"createdBy"`
	CreatedAt     time.Time              `json:"createdAt"`
	Entries       []EntryResponse        `json:"entries"`
}

// ToTransactionResponse converts a domain.Transaction to its DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	entries := make([]EntryResponse, len(txn.Entries))
	for i, e := range txn.Entries {
		entries[i] = EntryResponse{
			EntryID:      e.EntryID,
			AccountID:    e.AccountID,
			Direction:    e.Direction,
			Amount:       e.Amount,
			CurrencyCode: e.CurrencyCode,
			BaseAmount:   e.BaseAmount,
			BaseCurrency: e.BaseCurrency,
			FxRate:       e.FxRate,
			Memo:         e.Memo,
			EntryDate:    e.EntryDate,
		}
	}
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		Type:          txn.Type,
		BaseCurrency:  txn.BaseCurrency,
		BaseAmount:    txn.BaseAmount,
		Description:   txn.Description,
		SourceType:    txn.SourceType,
		SourceID:      txn.SourceID,
		Reversed:      txn.Reversed,
		ReversalID:    txn.ReversalID,
		ReversesID:    txn.ReversesID,
		CreatedBy:     txn.CreatedBy,
		CreatedAt:     txn.CreatedAt,
		Entries:       entries,
	}
}
