package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies what caused a ledger transaction.
type TransactionType string

const (
	TxDeposit          TransactionType = "DEPOSIT"
	TxWithdrawal       TransactionType = "WITHDRAWAL"
	TxTransfer         TransactionType = "TRANSFER"
	TxFxRevaluation    TransactionType = "FX_REVALUATION"
	TxReversal         TransactionType = "REVERSAL"
	TxAdjustment       TransactionType = "ADJUSTMENT"
	TxFee              TransactionType = "FEE"
	TxSettlement       TransactionType = "SETTLEMENT"
	TxCarbonCreditMint TransactionType = "CARBON_CREDIT_MINT"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TxDeposit, TxWithdrawal, TxTransfer, TxFxRevaluation, TxReversal,
		TxAdjustment, TxFee, TxSettlement, TxCarbonCreditMint:
		return true
	}
	return false
}

// Transaction is a balanced group of entries posted atomically.
// Once written only Reversed and ReversalID may change.
type Transaction struct {
	TransactionID string          `json:"transactionID"`
	Type          TransactionType `json:"type"`
	BaseCurrency  string          `json:"baseCurrency"`
	BaseAmount    decimal.Decimal `json:"baseAmount"`
	Description   string          `json:"description"`
	SourceType    string          `json:"sourceType,omitempty"`
	SourceID      string          `json:"sourceID,omitempty"`
	EntryDate     time.Time       `json:"entryDate"`
	Reversed      bool            `json:"reversed"`
	ReversalID    string          `json:"reversalID,omitempty"`
	ReversesID    string          `json:"reversesID,omitempty"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`

	Entries []Entry `json:"entries,omitempty"`
}

// IsReversal reports whether the transaction is itself a reversal of another one.
func (t Transaction) IsReversal() bool {
	return t.ReversesID != ""
}
