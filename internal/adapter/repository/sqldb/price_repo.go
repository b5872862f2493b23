package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pverdier/patrimoine-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// priceRepository implements domain.PriceRepository
type priceRepository struct {
	db *DB
}

// NewPriceRepository creates a new closing-price repository
func NewPriceRepository(db *DB) domain.PriceRepository {
	return &priceRepository{db: db}
}

// LatestDate retrieves the most recent date on file for a security.
// A security with no stored prices yields ok=false, not an error.
func (r *priceRepository) LatestDate(ctx context.Context, security string) (time.Time, bool, error) {
	query := `
		SELECT date
		FROM valeur_marche
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT 1
	`

	var raw string
	err := r.db.QueryRowContext(ctx, query, security).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to get latest date for %s: %w", security, err)
	}

	latest, err := time.ParseInLocation(domain.DateFormat, raw, time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse stored date %q for %s: %w", raw, security, err)
	}
	return latest, true, nil
}

// UpsertBatch writes one security's records inside a single database
// transaction. An existing (ticker, date) key has its close overwritten, so
// re-running a backfill over an already covered range is a no-op.
func (r *priceRepository) UpsertBatch(ctx context.Context, security string, records []domain.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	// ON CONFLICT DO UPDATE is shared syntax between sqlite3 and postgres.
	upsertQuery := `
		INSERT INTO valeur_marche (ticker, date, close)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker, date) DO UPDATE SET close = excluded.close
	`

	for _, rec := range records {
		_, err = dbTx.ExecContext(ctx, upsertQuery,
			security,
			rec.Date.Format(domain.DateFormat),
			rec.Close.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert price %s %s: %w", security, rec.Date.Format(domain.DateFormat), err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price batch for %s: %w", security, err)
	}

	return nil
}

// QueryFrom retrieves all records for a security with date >= from, ascending.
func (r *priceRepository) QueryFrom(ctx context.Context, security string, from time.Time) ([]domain.PriceRecord, error) {
	query := `
		SELECT date, close
		FROM valeur_marche
		WHERE ticker = $1 AND date >= $2
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, security, from.Format(domain.DateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", security, err)
	}
	defer rows.Close()

	var records []domain.PriceRecord
	for rows.Next() {
		var rawDate, rawClose string
		if err := rows.Scan(&rawDate, &rawClose); err != nil {
			return nil, fmt.Errorf("failed to scan price row for %s: %w", security, err)
		}

		date, err := time.ParseInLocation(domain.DateFormat, rawDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored date %q for %s: %w", rawDate, security, err)
		}
		closePrice, err := decimal.NewFromString(rawClose)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored close %q for %s: %w", rawClose, security, err)
		}

		records = append(records, domain.PriceRecord{Security: security, Date: date, Close: closePrice})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price rows for %s: %w", security, err)
	}

	return records, nil
}
