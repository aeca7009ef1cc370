package models

// Account is a row of the accounts table.
type Account struct {
	AccountID       string  `db:"account_id"`
	Code            string  `db:"code"`
	Name            string  `db:"name"`
	AccountType     string  `db:"account_type"`
	CurrencyCode    string  `db:"currency_code"`
	ParentAccountID *string `db:"parent_account_id"` // Nullable
	EntityType      *string `db:"entity_type"`       // Nullable
	EntityID        *string `db:"entity_id"`         // Nullable
	IsActive        bool    `db:"is_active"`
	IsSystem        bool    `db:"is_system"`
	NonNegative     bool    `db:"non_negative"`
	AuditFields
}
