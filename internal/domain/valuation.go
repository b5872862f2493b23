package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationRow is the reconciliation of one security against one priced date:
// cumulative position and invested capital as of that date, valued at the
// stored close. Recomputed from scratch on every pipeline run.
type ValuationRow struct {
	Security     string
	Date         time.Time
	Close        decimal.Decimal
	UnitsHeld    decimal.Decimal
	CashInvested decimal.Decimal
	MarketValue  decimal.Decimal // UnitsHeld * Close
}

// DailyTotal aggregates valuation rows across all securities sharing a date.
// Dates on which no security has a priced row do not appear at all.
type DailyTotal struct {
	Date        time.Time
	MarketValue decimal.Decimal
	Invested    decimal.Decimal
}
