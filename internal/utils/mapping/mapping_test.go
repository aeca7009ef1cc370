package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountNullableColumns(t *testing.T) {
	root := domain.Account{AccountID: "a1", Code: "CASH", AccountType: domain.Asset, CurrencyCode: "USD", IsActive: true}

	m := ToModelAccount(root)
	assert.Nil(t, m.ParentAccountID)
	assert.Nil(t, m.EntityType)
	assert.Equal(t, "ASSET", m.AccountType)

	child := root
	child.ParentAccountID = "a0"
	child.EntityType = domain.EntityVault
	child.EntityID = "v1"
	m = ToModelAccount(child)
	require.NotNil(t, m.ParentAccountID)
	assert.Equal(t, "a0", *m.ParentAccountID)
	assert.Equal(t, child, ToDomainAccount(m))
}

func TestTransactionReversalLinks(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	txn := domain.Transaction{TransactionID: "t2", Type: domain.TxReversal, ReversesID: "t1", EntryDate: ts, CreatedAt: ts}

	m := ToModelTransaction(txn)
	assert.Nil(t, m.ReversalID)
	require.NotNil(t, m.ReversesID)
	assert.Equal(t, "t1", *m.ReversesID)
	assert.Equal(t, "REVERSAL", m.Type)
	assert.True(t, ToDomainTransaction(m).IsReversal())
}

func TestEntrySequenceComesFromRow(t *testing.T) {
	e := ToDomainEntry(ToModelEntry(domain.Entry{EntryID: "e1", Direction: domain.Credit, Sequence: 42}))
	assert.Zero(t, e.Sequence)
	assert.Equal(t, domain.Credit, e.Direction)
}
