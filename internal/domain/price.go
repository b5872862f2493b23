package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord is one closing price for a security on a calendar date.
// (Security, Date) is the unique key: writing the same key again overwrites
// the stored close, it never duplicates the row.
type PriceRecord struct {
	Security string
	Date     time.Time // calendar date, midnight UTC
	Close    decimal.Decimal
}

// BackfillStart decides where the price backfill for a security begins.
// This is a business rule, not a storage detail: resume from the most recent
// date already on file, or start from the security's first transaction when
// nothing is stored yet.
func BackfillStart(earliestTxn time.Time, lastStored time.Time, hasStored bool) time.Time {
	if hasStored {
		return lastStored
	}
	return earliestTxn
}
