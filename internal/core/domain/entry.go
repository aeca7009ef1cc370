package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether an entry is a debit or a credit.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// Opposite returns the other side of the entry.
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

// IsValid reports whether d is DEBIT or CREDIT.
func (d Direction) IsValid() bool {
	return d == Debit || d == Credit
}

// Entry is one append-only line of a transaction affecting a single account.
// Amount is always positive and in the account currency; BaseAmount is the
// same value converted into the transaction base currency.
type Entry struct {
	EntryID       string          `json:"entryID"`
	TransactionID string          `json:"transactionID"`
	AccountID     string          `json:"accountID"`
	Direction     Direction       `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currencyCode"`
	BaseAmount    decimal.Decimal `json:"baseAmount"`
	BaseCurrency  string          `json:"baseCurrency"`
	FxRate        decimal.Decimal `json:"fxRate"`
	Memo          string          `json:"memo,omitempty"`
	EntryDate     time.Time       `json:"entryDate"`
	// Sequence is the global posting order assigned by the store.
	Sequence  int64     `json:"sequence"`
	CreatedAt time.Time `json:"createdAt"`
}

// EntryTotals aggregates the debit and credit sides of one account.
type EntryTotals struct {
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	BaseDebit  decimal.Decimal
	BaseCredit decimal.Decimal
}

// Add folds e into the totals.
func (t EntryTotals) Add(e Entry) EntryTotals {
	if e.Direction == Debit {
		t.Debit = t.Debit.Add(e.Amount)
		t.BaseDebit = t.BaseDebit.Add(e.BaseAmount)
	} else {
		t.Credit = t.Credit.Add(e.Amount)
		t.BaseCredit = t.BaseCredit.Add(e.BaseAmount)
	}
	return t
}

// EntryCursor identifies a position in the (EntryDate, Sequence) ordering.
type EntryCursor struct {
	EntryDate time.Time
	Sequence  int64
}

// After reports whether e sorts strictly after the cursor.
func (c EntryCursor) After(e Entry) bool {
	if e.EntryDate.Equal(c.EntryDate) {
		return e.Sequence > c.Sequence
	}
	return e.EntryDate.After(c.EntryDate)
}

// EntrySumFilter restricts which entries are aggregated. Zero values disable a bound.
type EntrySumFilter struct {
	// AsOf includes entries with EntryDate <= AsOf.
	AsOf *time.Time
	// Before includes entries with EntryDate < Before.
	Before *time.Time
	// UpTo includes entries at or before the cursor position.
	UpTo *EntryCursor
	// BeforeSequence includes entries with Sequence < BeforeSequence.
	BeforeSequence int64
	BaseCurrency   string
}

// Matches reports whether e passes every bound set on the filter.
func (f EntrySumFilter) Matches(e Entry) bool {
	if f.AsOf != nil && e.EntryDate.After(*f.AsOf) {
		return false
	}
	if f.Before != nil && !e.EntryDate.Before(*f.Before) {
		return false
	}
	if f.UpTo != nil && f.UpTo.After(e) {
		return false
	}
	if f.BeforeSequence > 0 && e.Sequence >= f.BeforeSequence {
		return false
	}
	if f.BaseCurrency != "" && e.BaseCurrency != f.BaseCurrency {
		return false
	}
	return true
}

// EntryQuery selects a chronological page of entries for one account.
type EntryQuery struct {
	From  *time.Time
	To    *time.Time
	After *EntryCursor
	Limit int
}
