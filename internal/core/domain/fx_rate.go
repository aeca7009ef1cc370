package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FXRate is a stored conversion rate: 1 unit of From = Rate units of To.
type FXRate struct {
	FXRateID  string          `json:"fxRateID"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Rate      decimal.Decimal `json:"rate"`
	RateDate  time.Time       `json:"rateDate"`
	Source    string          `json:"source"`
	IsCurrent bool            `json:"isCurrent"`
	AuditFields
}

// RateMethod tells how a resolved rate was derived.
type RateMethod string

const (
	RateIdentity RateMethod = "IDENTITY"
	RateDirect   RateMethod = "DIRECT"
	RateInverse  RateMethod = "INVERSE"
	RateCross    RateMethod = "CROSS"
)

// ResolvedRate is the answer to a rate lookup.
type ResolvedRate struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Rate     decimal.Decimal `json:"rate"`
	RateDate time.Time       `json:"rateDate"`
	Method   RateMethod      `json:"method"`
}
