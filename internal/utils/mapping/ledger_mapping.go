package mapping

import (
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/SscSPs/vault_ledger/internal/models"
)

// ToModelTransaction converts a domain Transaction header to its row.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID: d.TransactionID,
		Type:          string(d.Type),
		BaseCurrency:  d.BaseCurrency,
		BaseAmount:    d.BaseAmount,
		Description:   d.Description,
		SourceType:    NullableString(d.SourceType),
		SourceID:      NullableString(d.SourceID),
		EntryDate:     d.EntryDate,
		Reversed:      d.Reversed,
		ReversalID:    NullableString(d.ReversalID),
		ReversesID:    NullableString(d.ReversesID),
		CreatedBy:     d.CreatedBy,
		CreatedAt:     d.CreatedAt,
	}
}

// ToDomainTransaction converts a transaction row to a domain Transaction without entries.
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID,
		Type:          domain.TransactionType(m.Type),
		BaseCurrency:  m.BaseCurrency,
		BaseAmount:    m.BaseAmount,
		Description:   m.Description,
		SourceType:    StringValue(m.SourceType),
		SourceID:      StringValue(m.SourceID),
		EntryDate:     m.EntryDate,
		Reversed:      m.Reversed,
		ReversalID:    StringValue(m.ReversalID),
		ReversesID:    StringValue(m.ReversesID),
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// ToModelEntry converts a domain Entry to its row. Seq is left to the database.
func ToModelEntry(d domain.Entry) models.Entry {
	return models.Entry{
		EntryID:       d.EntryID,
		TransactionID: d.TransactionID,
		AccountID:     d.AccountID,
		Direction:     string(d.Direction),
		Amount:        d.Amount,
		CurrencyCode:  d.CurrencyCode,
		BaseAmount:    d.BaseAmount,
		BaseCurrency:  d.BaseCurrency,
		FxRate:        d.FxRate,
		Memo:          d.Memo,
		EntryDate:     d.EntryDate,
		CreatedAt:     d.CreatedAt,
	}
}

// ToDomainEntry converts an entry row to a domain Entry.
func ToDomainEntry(m models.Entry) domain.Entry {
	return domain.Entry{
		EntryID:       m.EntryID,
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		Direction:     domain.Direction(m.Direction),
		Amount:        m.Amount,
		CurrencyCode:  m.CurrencyCode,
		BaseAmount:    m.BaseAmount,
		BaseCurrency:  m.BaseCurrency,
		FxRate:        m.FxRate,
		Memo:          m.Memo,
		EntryDate:     m.EntryDate,
		Sequence:      m.Seq,
		CreatedAt:     m.CreatedAt,
	}
}

// ToDomainEntrySlice converts entry rows to domain Entries.
func ToDomainEntrySlice(ms []models.Entry) []domain.Entry {
	ds := make([]domain.Entry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainEntry(m)
	}
	return ds
}

// ToDomainEntryTotals converts aggregate rows to totals keyed by account.
func ToDomainEntryTotals(ms []models.EntryTotals) map[string]domain.EntryTotals {
	out := make(map[string]domain.EntryTotals, len(ms))
	for _, m := range ms {
		out[m.AccountID] = domain.EntryTotals{
			Debit:      m.Debit,
			Credit:     m.Credit,
			BaseDebit:  m.BaseDebit,
			BaseCredit: m.BaseCredit,
		}
	}
	return out
}
