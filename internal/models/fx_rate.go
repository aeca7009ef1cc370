package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FXRate stores the conversion rate between two currencies for a specific date.
type FXRate struct {
	FXRateID     string          `db:"fx_rate_id"`
	FromCurrency string          `db:"from_currency"`
	ToCurrency   string          `db:"to_currency"`
	Rate         decimal.Decimal `db:"rate"`
	RateDate     time.Time       `db:"rate_date"`
	Source       string          `db:"source"`
	IsCurrent    bool            `db:"is_current"`
	AuditFields
}
