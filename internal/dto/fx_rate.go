package dto

import (
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StoreFXRateRequest defines the structure for storing an exchange rate.
type StoreFXRateRequest struct {
	FromCurrencyCode string          `json:"fromCurrencyCode" binding:"required,iso4217"`
	ToCurrencyCode   string          `json:"toCurrencyCode" binding:"required,iso4217"`
	Rate             decimal.Decimal `json:"rate" binding:"required,decimal_gt0"`
	RateDate         time.Time       `json:"rateDate" binding:"required"`
	Source           string          `json:"source"`
	MarkCurrent      bool            `json:"markCurrent"`
}

// FXRateResponse is the API view of a stored rate.
type FXRateResponse struct {
	FXRateID  string          `json:"fxRateID"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Rate      decimal.Decimal `json:"rate"`
	RateDate  time.Time       `json:"rateDate"`
	Source    string          `json:"source"`
	IsCurrent bool            `json:"isCurrent"`
}

// ToFXRateResponse converts a domain.FXRate to its DTO.
func ToFXRateResponse(r *domain.FXRate) FXRateResponse {
	return FXRateResponse{
		FXRateID:  r.FXRateID,
		From:      r.From,
		To:        r.To,
		Rate:      r.Rate,
		RateDate:  r.RateDate,
		Source:    r.Source,
		IsCurrent: r.IsCurrent,
	}
}

// CurrentRatesResponse maps each currency to its rate into Base.
type CurrentRatesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// GetFXRateQuery is the raw query string of the rate lookup endpoint.
type GetFXRateQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}
