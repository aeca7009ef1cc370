package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// IsDebitNormal reports whether the account grows with debits (ASSET, EXPENSE).
func (t AccountType) IsDebitNormal() bool {
	return t == Asset || t == Expense
}

// Entity types an account can be linked to.
const (
	EntityVault = "vault"
)

// Account is a node of the chart of accounts. Balances are never stored on it;
// they are always derived from the entries posted against it.
type Account struct {
	AccountID       string      `json:"accountID"`
	Code            string      `json:"code"`
	Name            string      `json:"name"`
	AccountType     AccountType `json:"accountType"`
	CurrencyCode    string      `json:"currencyCode"`
	ParentAccountID string      `json:"parentAccountID,omitempty"`
	EntityType      string      `json:"entityType,omitempty"`
	EntityID        string      `json:"entityID,omitempty"`
	IsActive        bool        `json:"isActive"`
	IsSystem        bool        `json:"isSystem"`
	// NonNegative accounts reject any posting that would take their balance below zero.
	NonNegative bool `json:"nonNegative"`
	AuditFields
}

// AccountFilter narrows ListAccounts. Empty fields match everything.
type AccountFilter struct {
	EntityType      string
	EntityID        string
	ParentAccountID string
	ActiveOnly      bool
}
