package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the ledger_transactions table.
type Transaction struct {
	TransactionID string          `db:"transaction_id"`
	Type          string          `db:"transaction_type"`
	BaseCurrency  string          `db:"base_currency"`
	BaseAmount    decimal.Decimal `db:"base_amount"`
	Description   string          `db:"description"`
	SourceType    *string         `db:"source_type"` // Nullable
	SourceID      *string         `db:"source_id"`   // Nullable
	EntryDate     time.Time       `db:"entry_date"`
	Reversed      bool            `db:"reversed"`
	ReversalID    *string         `db:"reversal_id"` // Nullable
	ReversesID    *string         `db:"reverses_id"` // Nullable
	CreatedBy     string          `db:"created_by"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Entry is a row of the append-only ledger_entries table. Seq is assigned by the database.
type Entry struct {
	EntryID       string          `db:"entry_id"`
	Seq           int64           `db:"seq"`
	TransactionID string          `db:"transaction_id"`
	AccountID     string          `db:"account_id"`
	Direction     string          `db:"direction"`
	Amount        decimal.Decimal `db:"amount"`
	CurrencyCode  string          `db:"currency_code"`
	BaseAmount    decimal.Decimal `db:"base_amount"`
	BaseCurrency  string          `db:"base_currency"`
	FxRate        decimal.Decimal `db:"fx_rate"`
	Memo          string          `db:"memo"`
	EntryDate     time.Time       `db:"entry_date"`
	CreatedAt     time.Time       `db:"created_at"`
}

// EntryTotals is one row of an aggregate over ledger_entries grouped by account.
type EntryTotals struct {
	AccountID  string          `db:"account_id"`
	Debit      decimal.Decimal `db:"debit"`
	Credit     decimal.Decimal `db:"credit"`
	BaseDebit  decimal.Decimal `db:"base_debit"`
	BaseCredit decimal.Decimal `db:"base_credit"`
}
