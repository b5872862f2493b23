package domain

import (
	"context"
	"time"
)

// PriceRepository defines the interface for closing-price persistence
type PriceRepository interface {
	// LatestDate retrieves the most recent date on file for a security.
	// ok is false when the security has no stored prices; an unknown
	// security is not an error.
	LatestDate(ctx context.Context, security string) (latest time.Time, ok bool, err error)

	// UpsertBatch writes one security's price records as a single
	// transaction: all rows committed or none. Re-writing an existing
	// (security, date) key overwrites its close.
	UpsertBatch(ctx context.Context, security string, records []PriceRecord) error

	// QueryFrom retrieves all records for a security with date >= from,
	// ordered by date ascending.
	QueryFrom(ctx context.Context, security string, from time.Time) ([]PriceRecord, error)
}

// PriceSource supplies historical daily closes from an external market data
// provider. An unknown or delisted security yields an empty slice, not an
// error; end is exclusive.
type PriceSource interface {
	DailyCloses(ctx context.Context, security string, start, end time.Time) ([]PriceRecord, error)
}

// LedgerSource loads and normalizes the transaction ledger file.
// Returns *LedgerFormatError when required columns are missing or malformed.
type LedgerSource interface {
	Load(ctx context.Context, path string) ([]Transaction, error)
}

// SnapshotStore persists the pipeline's two output series and serves them
// back to the read API. Writes replace the previous artifact atomically so a
// concurrent reader never observes a half-written snapshot.
type SnapshotStore interface {
	WriteDetail(rows []ValuationRow) error
	WriteTotals(totals []DailyTotal) error

	// ReadTotals returns the last committed daily-total series, or
	// ErrSnapshotMissing when no run has completed yet.
	ReadTotals() ([]DailyTotal, error)
}
