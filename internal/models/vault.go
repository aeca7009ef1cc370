package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vault is a row of the vaults table.
type Vault struct {
	VaultID              string  `db:"vault_id"`
	Name                 string  `db:"name"`
	OwnerType            string  `db:"owner_type"`
	OwnerID              string  `db:"owner_id"`
	BaseCurrency         string  `db:"base_currency"`
	MultiCurrency        bool    `db:"multi_currency"`
	AutoRevaluation      bool    `db:"auto_revaluation"`
	IsLocked             bool    `db:"is_locked"`
	LockReason           *string `db:"lock_reason"` // Nullable
	RootAccountID        string  `db:"root_account_id"`
	ExternalInAccountID  string  `db:"external_in_account_id"`
	ExternalOutAccountID string  `db:"external_out_account_id"`
	RealizedFxAccountID  string  `db:"realized_fx_account_id"`
	AuditFields
}

// CurrencyPosition is a row of the currency_positions table.
type CurrencyPosition struct {
	PositionID               string          `db:"position_id"`
	VaultID                  string          `db:"vault_id"`
	CurrencyCode             string          `db:"currency_code"`
	AccountID                string          `db:"account_id"`
	CostBasisRate            decimal.Decimal `db:"cost_basis_rate"`
	CostBasisAmount          decimal.Decimal `db:"cost_basis_amount"`
	LastRate                 decimal.Decimal `db:"last_rate"`
	LastRateDate             *time.Time      `db:"last_rate_date"` // Nullable
	CumulativeRealizedGain   decimal.Decimal `db:"cumulative_realized_gain"`
	CumulativeUnrealizedGain decimal.Decimal `db:"cumulative_unrealized_gain"`
	Version                  int64           `db:"version"`
	AuditFields
}

// FXValuationSnapshot is a row of the fx_valuation_snapshots table.
type FXValuationSnapshot struct {
	SnapshotID    string          `db:"snapshot_id"`
	PositionID    string          `db:"position_id"`
	VaultID       string          `db:"vault_id"`
	CurrencyCode  string          `db:"currency_code"`
	BaseCurrency  string          `db:"base_currency"`
	Balance       decimal.Decimal `db:"balance"`
	CostBasisRate decimal.Decimal `db:"cost_basis_rate"`
	OriginalRate  decimal.Decimal `db:"original_rate"`
	OriginalValue decimal.Decimal `db:"original_value"`
	CurrentRate   decimal.Decimal `db:"current_rate"`
	CurrentValue  decimal.Decimal `db:"current_value"`
	Delta         decimal.Decimal `db:"delta"`
	SnapshotDate  time.Time       `db:"snapshot_date"`
	CreatedBy     string          `db:"created_by"`
}
