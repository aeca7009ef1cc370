package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vault groups currency positions owned by one party under a root asset account.
type Vault struct {
	VaultID         string `json:"vaultID"`
	Name            string `json:"name"`
	OwnerType       string `json:"ownerType"`
	OwnerID         string `json:"ownerID"`
	BaseCurrency    string `json:"baseCurrency"`
	MultiCurrency   bool   `json:"multiCurrency"`
	AutoRevaluation bool   `json:"autoRevaluation"`
	IsLocked        bool   `json:"isLocked"`
	LockReason      string `json:"lockReason,omitempty"`
	RootAccountID   string `json:"rootAccountID"`
	// System counter-accounts, all in the vault base currency.
	ExternalInAccountID  string `json:"externalInAccountID"`
	ExternalOutAccountID string `json:"externalOutAccountID"`
	RealizedFxAccountID  string `json:"realizedFxAccountID"`
	AuditFields
}

// VaultFilter narrows ListVaults.
type VaultFilter struct {
	AutoRevaluationOnly bool
	UnlockedOnly        bool
}

// CurrencyPosition is the per-currency holding of a vault. The balance itself lives
// in the ledger on AccountID; the position carries the valuation state.
type CurrencyPosition struct {
	PositionID               string          `json:"positionID"`
	VaultID                  string          `json:"vaultID"`
	CurrencyCode             string          `json:"currencyCode"`
	AccountID                string          `json:"accountID"`
	CostBasisRate            decimal.Decimal `json:"costBasisRate"`
	CostBasisAmount          decimal.Decimal `json:"costBasisAmount"`
	LastRate                 decimal.Decimal `json:"lastRate"`
	LastRateDate             *time.Time      `json:"lastRateDate,omitempty"`
	CumulativeRealizedGain   decimal.Decimal `json:"cumulativeRealizedGain"`
	CumulativeUnrealizedGain decimal.Decimal `json:"cumulativeUnrealizedGain"`
	Version                  int64           `json:"version"`
	AuditFields
}

// FXValuationSnapshot records one revaluation of one position. Informational only.
type FXValuationSnapshot struct {
	SnapshotID    string          `json:"snapshotID"`
	PositionID    string          `json:"positionID"`
	VaultID       string          `json:"vaultID"`
	CurrencyCode  string          `json:"currencyCode"`
	BaseCurrency  string          `json:"baseCurrency"`
	Balance       decimal.Decimal `json:"balance"`
	CostBasisRate decimal.Decimal `json:"costBasisRate"`
	OriginalRate  decimal.Decimal `json:"originalRate"`
	OriginalValue decimal.Decimal `json:"originalValue"`
	CurrentRate   decimal.Decimal `json:"currentRate"`
	CurrentValue  decimal.Decimal `json:"currentValue"`
	Delta         decimal.Decimal `json:"delta"`
	SnapshotDate  time.Time       `json:"snapshotDate"`
	CreatedBy     string          `json:"createdBy"`
}

// VaultMovement is the outcome of a deposit or withdrawal.
type VaultMovement struct {
	TransactionID  string          `json:"transactionID"`
	VaultID        string          `json:"vaultID"`
	CurrencyCode   string          `json:"currencyCode"`
	Amount         decimal.Decimal `json:"amount"`
	FxRate         decimal.Decimal `json:"fxRate"`
	BaseAmount     decimal.Decimal `json:"baseAmount"`
	NewBalance     decimal.Decimal `json:"newBalance"`
	RealizedFxGain decimal.Decimal `json:"realizedFxGain"`
}

// TransferResult is the outcome of a vault-to-vault transfer.
type TransferResult struct {
	TransactionID      string          `json:"transactionID"`
	CurrencyCode       string          `json:"currencyCode"`
	Amount             decimal.Decimal `json:"amount"`
	MovementRate       decimal.Decimal `json:"movementRate"`
	SourceBalance      decimal.Decimal `json:"sourceBalance"`
	DestinationBalance decimal.Decimal `json:"destinationBalance"`
}

// PositionBalance is one line of the vault balances projection.
type PositionBalance struct {
	CurrencyCode   string          `json:"currencyCode"`
	Balance        decimal.Decimal `json:"balance"`
	FxRate         decimal.Decimal `json:"fxRate"`
	BaseValue      decimal.Decimal `json:"baseValue"`
	CostBasisRate  decimal.Decimal `json:"costBasisRate"`
	UnrealizedGain decimal.Decimal `json:"unrealizedGain"`
	RealizedGain   decimal.Decimal `json:"realizedGain"`
}

// VaultBalances values every position of a vault in its base currency.
type VaultBalances struct {
	VaultID        string            `json:"vaultID"`
	BaseCurrency   string            `json:"baseCurrency"`
	Positions      []PositionBalance `json:"positions"`
	TotalBaseValue decimal.Decimal   `json:"totalBaseValue"`
}

// RevaluationResult is what one RevaluePositions call produced.
type RevaluationResult struct {
	VaultID    string                `json:"vaultID"`
	Snapshots  []FXValuationSnapshot `json:"snapshots"`
	TotalDelta decimal.Decimal       `json:"totalDelta"`
	RevaluedAt time.Time             `json:"revaluedAt"`
}

// RevaluationSweep summarises a RevalueAll run.
type RevaluationSweep struct {
	Results []RevaluationResult `json:"results"`
	Skipped []string            `json:"skipped"`
	Failed  map[string]string   `json:"failed"`
}

// Settlement is published after a completed deposit, withdrawal or transfer.
type Settlement struct {
	TransactionID  string          `json:"transactionID"`
	Type           TransactionType `json:"type"`
	VaultID        string          `json:"vaultID"`
	CounterVaultID string          `json:"counterVaultID,omitempty"`
	CurrencyCode   string          `json:"currencyCode"`
	Amount         decimal.Decimal `json:"amount"`
	BaseAmount     decimal.Decimal `json:"baseAmount"`
	SettledAt      time.Time       `json:"settledAt"`
}
