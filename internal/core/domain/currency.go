package domain

// Monetary scales used throughout the ledger: amounts are kept at 6 decimal
// places and exchange rates at 8.
const (
	AmountScale int32 = 6
	RateScale   int32 = 8
)
