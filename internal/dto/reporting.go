package dto

import "time"

// StatementParams selects a page of an account statement.
type StatementParams struct {
	From      *time.Time
	To        *time.Time
	Limit     int
	NextToken *string
}

// StatementQuery is the raw query string of the statement endpoint.
type StatementQuery struct {
	From      string  `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string  `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=500"`
	NextToken *string `form:"nextToken"`
}

// TrialBalanceQuery is the raw query string of the trial balance endpoint.
type TrialBalanceQuery struct {
	EntityType   string `form:"entityType"`
	EntityID     string `form:"entityId"`
	BaseCurrency string `form:"baseCurrency" binding:"omitempty,iso4217"`
	AsOfDate     string `form:"asOfDate" binding:"omitempty,datetime=2006-01-02"`
}
