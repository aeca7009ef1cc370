package dto

import (
	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateVaultRequest describes a new vault.
type CreateVaultRequest struct {
	Name            string `json:"name" binding:"required,max=255"`
	OwnerType       string `json:"ownerType" binding:"required,max=64"`
	OwnerID         string `json:"ownerID" binding:"required,max=128"`
	BaseCurrency    string `json:"baseCurrency" binding:"required,iso4217"`
	MultiCurrency   bool   `json:"multiCurrency"`
	AutoRevaluation bool   `json:"autoRevaluation"`
}

// MovementRequest is the body of a deposit or withdrawal.
type MovementRequest struct {
	Amount       decimal.Decimal `json:"amount" binding:"required,decimal_gt0"`
	CurrencyCode string          `json:"currencyCode" binding:"required,iso4217"`
	// FxRate converts into the vault base currency. Resolved from the rate store when nil.
	FxRate      *decimal.Decimal `json:"fxRate,omitempty"`
	Description string           `json:"description"`
	Reference   string           `json:"reference"`
}

// TransferRequest moves an amount between two vaults.
type TransferRequest struct {
	SourceVaultID      string           `json:"sourceVaultId" binding:"required"`
	DestinationVaultID string           `json:"destinationVaultId" binding:"required"`
	Amount             decimal.Decimal  `json:"amount" binding:"required,decimal_gt0"`
	CurrencyCode       string           `json:"currencyCode" binding:"required,iso4217"`
	FxRate             *decimal.Decimal `json:"fxRate,omitempty"`
	Description        string           `json:"description"`
	Reference          string           `json:"reference"`
}

// LockVaultRequest carries the lock reason.
type LockVaultRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RevalueRequest optionally supplies rates per currency into the vault base currency.
type RevalueRequest struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// DepositResponse is returned by the deposit endpoint.
type DepositResponse struct {
	TransactionID string          `json:"transactionId"`
	BaseAmount    decimal.Decimal `json:"baseAmount"`
	NewBalance    decimal.Decimal `json:"newBalance"`
}

// WithdrawResponse is returned by the withdraw endpoint.
type WithdrawResponse struct {
	TransactionID  string          `json:"transactionId"`
	BaseAmount     decimal.Decimal `json:"baseAmount"`
	NewBalance     decimal.Decimal `json:"newBalance"`
	RealizedFxGain decimal.Decimal `json:"realizedFxGain"`
}

// TransferResponse is returned by the transfer endpoint.
type TransferResponse struct {
	TransactionID string          `json:"transactionId"`
	SrcBalance    decimal.Decimal `json:"srcBalance"`
	DstBalance    decimal.Decimal `json:"dstBalance"`
}

// PositionResponse is one line of VaultBalancesResponse.
type PositionResponse struct {
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	FxRate         decimal.Decimal `json:"fxRate"`
	BaseValue      decimal.Decimal `json:"baseValue"`
	UnrealizedGain decimal.Decimal `json:"unrealizedGain"`
}

// VaultBalancesResponse is returned by the balances endpoint.
type VaultBalancesResponse struct {
	Positions      []PositionResponse `json:"positions"`
	TotalBaseValue decimal.Decimal    `json:"totalBaseValue"`
}

// ToVaultBalancesResponse converts the balances projection to its DTO.
func ToVaultBalancesResponse(b *domain.VaultBalances) VaultBalancesResponse {
	positions := make([]PositionResponse, len(b.Positions))
	for i, p := range b.Positions {
		positions[i] = PositionResponse{
			Currency:       p.CurrencyCode,
			Balance:        p.Balance,
			FxRate:         p.FxRate,
			BaseValue:      p.BaseValue,
			UnrealizedGain: p.UnrealizedGain,
		}
	}
	return VaultBalancesResponse{Positions: positions, TotalBaseValue: b.TotalBaseValue}
}

// SnapshotsQuery is the raw query string of the snapshot listing endpoint.
type SnapshotsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}
