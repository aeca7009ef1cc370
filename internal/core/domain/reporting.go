package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is a balance derived by replaying entries.
type AccountBalance struct {
	AccountID        string          `json:"accountID"`
	CurrencyCode     string          `json:"currencyCode"`
	Balance          decimal.Decimal `json:"balance"`
	BaseBalance      decimal.Decimal `json:"baseBalance"`
	AsOf             *time.Time      `json:"asOf,omitempty"`
	IncludesChildren bool            `json:"includesChildren"`
}

// TrialBalanceRow is one account line of a trial balance, in base amounts.
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceGroup holds the rows of one account type.
type TrialBalanceGroup struct {
	AccountType AccountType       `json:"accountType"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
}

// TrialBalance lists every active account with its base debit or credit balance.
type TrialBalance struct {
	AsOf         *time.Time          `json:"asOf,omitempty"`
	Groups       []TrialBalanceGroup `json:"groups"`
	TotalDebits  decimal.Decimal     `json:"totalDebits"`
	TotalCredits decimal.Decimal     `json:"totalCredits"`
	Imbalance    decimal.Decimal     `json:"imbalance"`
	IsBalanced   bool                `json:"isBalanced"`
}

// TrialBalanceFilter narrows a trial balance.
type TrialBalanceFilter struct {
	EntityType   string
	EntityID     string
	BaseCurrency string
	AsOf         *time.Time
}

// StatementLine is one entry of an account statement.
type StatementLine struct {
	EntryID        string          `json:"entryID"`
	TransactionID  string          `json:"transactionID"`
	EntryDate      time.Time       `json:"entryDate"`
	Direction      Direction       `json:"direction"`
	Amount         decimal.Decimal `json:"amount"`
	Memo           string          `json:"memo,omitempty"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// AccountStatement is a chronological page of entries with running balance.
type AccountStatement struct {
	Account        Account         `json:"account"`
	From           *time.Time      `json:"from,omitempty"`
	To             *time.Time      `json:"to,omitempty"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Lines          []StatementLine `json:"lines"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	NextToken      *string         `json:"nextToken,omitempty"`
}

// AuditLine shows the effect of one entry on its account balance.
type AuditLine struct {
	EntryID       string          `json:"entryID"`
	AccountID     string          `json:"accountID"`
	AccountCode   string          `json:"accountCode"`
	Direction     Direction       `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currencyCode"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
}

// TransactionAudit is the before/after view of a transaction.
type TransactionAudit struct {
	Transaction Transaction `json:"transaction"`
	Lines       []AuditLine `json:"lines"`
}
