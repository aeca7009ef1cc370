package dto

import (
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest describes an account to be created or fetched by code.
type CreateAccountRequest struct {
	Code            string             `json:"code" binding:"required,max=128"`
	Name            string             `json:"name" binding:"required,max=255"`
	AccountType     domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	CurrencyCode    string             `json:"currencyCode" binding:"required,iso4217"`
	ParentAccountID *string            `json:"parentAccountID,omitempty"`
	EntityType      string             `json:"entityType,omitempty"`
	EntityID        string             `json:"entityID,omitempty"`
	IsSystem        bool               `json:"isSystem"`
	NonNegative     bool               `json:"nonNegative"`
}

// AccountResponse is the API view of an account.
type AccountResponse struct {
	AccountID       string             `json:"accountID"`
	Code            string             `json:"code"`
	Name            string             `json:"name"`
	AccountType     domain.AccountType `json:"accountType"`
	CurrencyCode    string             `json:"currencyCode"`
	ParentAccountID string             `json:"parentAccountID,omitempty"`
	EntityType      string             `json:"entityType,omitempty"`
	EntityID        string             `json:"entityID,omitempty"`
	IsActive        bool               `json:"isActive"`
	IsSystem        bool               `json:"isSystem"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       acc.AccountID,
		Code:            acc.Code,
		Name:            acc.Name,
		AccountType:     acc.AccountType,
		CurrencyCode:    acc.CurrencyCode,
		ParentAccountID: acc.ParentAccountID,
		EntityType:      acc.EntityType,
		EntityID:        acc.EntityID,
		IsActive:        acc.IsActive,
		IsSystem:        acc.IsSystem,
		CreatedAt:       acc.CreatedAt,
	}
}

// AccountBalanceResponse is the API view of a derived balance.
type AccountBalanceResponse struct {
	AccountID        string          `json:"accountID"`
	CurrencyCode     string          `json:"currencyCode"`
	Balance          decimal.Decimal `json:"balance"`
	BaseBalance      decimal.Decimal `json:"baseBalance"`
	AsOf             *time.Time      `json:"asOf,omitempty"`
	IncludesChildren bool            `json:"includesChildren"`
}

// ToAccountBalanceResponse converts a domain.AccountBalance to its DTO.
func ToAccountBalanceResponse(b *domain.AccountBalance) AccountBalanceResponse {
	return AccountBalanceResponse{
		AccountID:        b.AccountID,
		CurrencyCode:     b.CurrencyCode,
		Balance:          b.Balance,
		BaseBalance:      b.BaseBalance,
		AsOf:             b.AsOf,
		IncludesChildren: b.IncludesChildren,
	}
}

// ListAccountsQuery is the raw query string of the account listing endpoint.
type ListAccountsQuery struct {
	EntityType      string `form:"entityType"`
	EntityID        string `form:"entityId"`
	ParentAccountID string `form:"parentAccountId"`
	ActiveOnly      bool   `form:"activeOnly"`
}

// ListAccountsResponse wraps an account listing.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// BalanceQuery is the raw query string of the balance endpoint.
type BalanceQuery struct {
	AsOfDate        string `form:"asOfDate" binding:"omitempty,datetime=2006-01-02"`
	IncludeChildren bool   `form:"includeChildren"`
}
