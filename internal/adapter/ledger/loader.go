// Package ledger loads the transaction ledger file and normalizes it into
// domain transactions. The ledger is the source of truth for positions and
// is re-read in full on every pipeline run.
package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/pverdier/patrimoine-backend/internal/domain"
)

// Required ledger columns, as named in the source file.
const (
	colSecurity  = "Symbole"
	colValueDate = "Date de valeur"
	colType      = "Type opération"
	colUnits     = "Nombre de parts"
	colNetAmount = "Montant net en euros"
)

var dateLayouts = []string{
	domain.DateFormat,
	"02/01/2006",
	"02/01/2006 15:04:05",
	"01-02-06",
	time.RFC3339,
}

// Loader implements domain.LedgerSource for .xlsx and .csv ledgers.
type Loader struct {
	Sheet string // xlsx sheet holding the operations table
}

// NewLoader creates a ledger loader. sheet applies to xlsx files only.
func NewLoader(sheet string) *Loader {
	return &Loader{Sheet: sheet}
}

// Load reads the ledger at path. The file format is chosen by extension.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Transaction, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = l.readXLSX(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, &domain.LedgerFormatError{Path: path, Reason: "unsupported file extension"}
	}
	if err != nil {
		return nil, err
	}
	return parseRows(path, rows)
}

func (l *Loader) readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	defer f.Close()

	sheet := l.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &domain.LedgerFormatError{Path: path, Reason: fmt.Sprintf("sheet %q not readable: %v", sheet, err)}
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}

	comma := ','
	// French exports commonly use semicolons.
	if header, _, _ := strings.Cut(string(raw), "\n"); !strings.Contains(header, ",") && strings.Contains(header, ";") {
		comma = ';'
	}

	r := csv.NewReader(strings.NewReader(string(raw)))
	r.Comma = comma
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	return rows, nil
}

func parseRows(path string, rows [][]string) ([]domain.Transaction, error) {
	if len(rows) == 0 {
		return nil, &domain.LedgerFormatError{Path: path, Reason: "ledger is empty"}
	}

	cols, err := mapHeader(path, rows[0])
	if err != nil {
		return nil, err
	}

	var txns []domain.Transaction
	for i, row := range rows[1:] {
		security := strings.TrimSpace(cell(row, cols[colSecurity]))
		if security == "" {
			// Cash rows without a symbol carry no position information.
			continue
		}

		rawDate := strings.TrimSpace(cell(row, cols[colValueDate]))
		valueDate, err := parseDate(rawDate)
		if err != nil {
			return nil, &domain.LedgerFormatError{
				Path:   path,
				Reason: fmt.Sprintf("row %d: unparseable value date %q", i+2, rawDate),
			}
		}

		units, err := parseOptionalDecimal(cell(row, cols[colUnits]))
		if err != nil {
			return nil, &domain.LedgerFormatError{
				Path:   path,
				Reason: fmt.Sprintf("row %d: unparseable units %q", i+2, cell(row, cols[colUnits])),
			}
		}

		amount := decimal.Zero
		if parsed, err := parseOptionalDecimal(cell(row, cols[colNetAmount])); err != nil {
			return nil, &domain.LedgerFormatError{
				Path:   path,
				Reason: fmt.Sprintf("row %d: unparseable net amount %q", i+2, cell(row, cols[colNetAmount])),
			}
		} else if parsed.Valid {
			amount = parsed.Decimal
		}

		txns = append(txns, domain.Transaction{
			Security:  security,
			ValueDate: valueDate,
			Type:      domain.ParseOperationType(strings.TrimSpace(cell(row, cols[colType]))),
			Units:     units,
			NetAmount: amount,
		})
	}

	return txns, nil
}

func mapHeader(path string, header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colSecurity, colValueDate, colType, colUnits, colNetAmount} {
		if _, ok := cols[required]; !ok {
			return nil, &domain.LedgerFormatError{
				Path:   path,
				Reason: fmt.Sprintf("missing required column %q", required),
			}
		}
	}
	return cols, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return domain.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("no known date layout matches %q", raw)
}

// parseOptionalDecimal accepts French-formatted numbers ("1 234,56") and
// returns an invalid NullDecimal for blank cells.
func parseOptionalDecimal(raw string) (decimal.NullDecimal, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return decimal.NullDecimal{}, nil
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "€", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
