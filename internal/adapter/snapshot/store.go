// Package snapshot persists the pipeline's output series as CSV artifacts
// and serves them back to the read API. Each run overwrites both files in
// full; writes go through a temp file and rename so a concurrent reader
// never sees a partially written snapshot.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pverdier/patrimoine-backend/internal/domain"
)

// Store implements domain.SnapshotStore over a directory of CSV files.
type Store struct {
	Dir        string
	DetailFile string
	TotalsFile string
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir, detailFile, totalsFile string) *Store {
	return &Store{Dir: dir, DetailFile: detailFile, TotalsFile: totalsFile}
}

// WriteDetail replaces the per-security daily detail artifact.
func (s *Store) WriteDetail(rows []domain.ValuationRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{
		"Symbole", "Date", "Close", "Nombre de parts", "Montant investi euro", "Valeur marché",
	})
	for _, row := range rows {
		records = append(records, []string{
			row.Security,
			row.Date.Format(domain.DateFormat),
			row.Close.String(),
			row.UnitsHeld.String(),
			row.CashInvested.String(),
			row.MarketValue.String(),
		})
	}
	return s.writeAtomic(s.DetailFile, records)
}

// WriteTotals replaces the daily portfolio total artifact.
func (s *Store) WriteTotals(totals []domain.DailyTotal) error {
	records := make([][]string, 0, len(totals)+1)
	records = append(records, []string{"Date", "Valeur marché", "Montant investi euro"})
	for _, total := range totals {
		records = append(records, []string{
			total.Date.Format(domain.DateFormat),
			total.MarketValue.String(),
			total.Invested.String(),
		})
	}
	return s.writeAtomic(s.TotalsFile, records)
}

// ReadTotals returns the last committed daily-total series.
func (s *Store) ReadTotals() ([]domain.DailyTotal, error) {
	path := filepath.Join(s.Dir, s.TotalsFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotMissing, path)
		}
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("snapshot %s has no header", path)
	}

	totals := make([]domain.DailyTotal, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) < 3 {
			return nil, fmt.Errorf("snapshot %s row %d: expected 3 columns, got %d", path, i+2, len(rec))
		}
		date, err := time.ParseInLocation(domain.DateFormat, rec[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s row %d: bad date %q: %w", path, i+2, rec[0], err)
		}
		marketValue, err := decimal.NewFromString(rec[1])
		if err != nil {
			return nil, fmt.Errorf("snapshot %s row %d: bad market value %q: %w", path, i+2, rec[1], err)
		}
		invested, err := decimal.NewFromString(rec[2])
		if err != nil {
			return nil, fmt.Errorf("snapshot %s row %d: bad invested amount %q: %w", path, i+2, rec[2], err)
		}
		totals = append(totals, domain.DailyTotal{Date: date, MarketValue: marketValue, Invested: invested})
	}
	return totals, nil
}

// writeAtomic writes records to a temp file in the target directory, then
// renames it over the destination. Rename within one directory is atomic on
// the platforms we care about.
func (s *Store) writeAtomic(name string, records [][]string) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.Dir, err)
	}

	tmp, err := os.CreateTemp(s.Dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}

	dest := filepath.Join(s.Dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to replace %s: %w", dest, err)
	}
	return nil
}
