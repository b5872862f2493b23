package valuation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pverdier/patrimoine-backend/internal/domain"
)

// ValuationService reconciles ledger positions against stored prices into
// per-security valuation rows and daily portfolio totals. Everything is
// recomputed from scratch on each run; nothing here mutates state.
type ValuationService struct {
	PriceRepo domain.PriceRepository
}

// NewValuationService creates a new ValuationService instance
func NewValuationService(priceRepo domain.PriceRepository) *ValuationService {
	return &ValuationService{PriceRepo: priceRepo}
}

// Run produces one ValuationRow per stored price at or after each security's
// first transaction date, plus the per-date portfolio totals.
//
// A date with no stored price for a security produces no row for that
// security: totals on such a date sum only the securities that do have one.
// That approximation is accepted, not corrected.
func (s *ValuationService) Run(ctx context.Context, txns []domain.Transaction) ([]domain.ValuationRow, []domain.DailyTotal, error) {
	earliest := domain.EarliestDates(txns)

	bySecurity := make(map[string][]domain.Transaction, len(earliest))
	for _, txn := range txns {
		if txn.Security == "" {
			continue
		}
		bySecurity[txn.Security] = append(bySecurity[txn.Security], txn)
	}

	securities := make([]string, 0, len(earliest))
	for security := range earliest {
		securities = append(securities, security)
	}
	sort.Strings(securities)

	var rows []domain.ValuationRow
	for _, security := range securities {
		prices, err := s.PriceRepo.QueryFrom(ctx, security, earliest[security])
		if err != nil {
			return nil, nil, fmt.Errorf("failed to query prices for %s: %w", security, err)
		}
		rows = append(rows, valuate(security, bySecurity[security], prices)...)
	}

	return rows, aggregate(rows), nil
}

// valuate merges one security's date-sorted transactions against its
// ascending price sequence with a single pass of running totals, instead of
// re-filtering the ledger for every priced date.
func valuate(security string, txns []domain.Transaction, prices []domain.PriceRecord) []domain.ValuationRow {
	sorted := make([]domain.Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ValueDate.Before(sorted[j].ValueDate)
	})

	rows := make([]domain.ValuationRow, 0, len(prices))
	unitsHeld := decimal.Zero
	cashInvested := decimal.Zero
	next := 0

	for _, price := range prices {
		// Fold in every transaction with value date <= the priced date.
		for next < len(sorted) && !sorted[next].ValueDate.After(price.Date) {
			txn := sorted[next]
			if txn.Units.Valid {
				unitsHeld = unitsHeld.Add(txn.Units.Decimal)
			}
			if txn.CountsAsInvested() {
				cashInvested = cashInvested.Add(txn.NetAmount)
			}
			next++
		}

		rows = append(rows, domain.ValuationRow{
			Security:     security,
			Date:         price.Date,
			Close:        price.Close,
			UnitsHeld:    unitsHeld,
			CashInvested: cashInvested,
			MarketValue:  unitsHeld.Mul(price.Close),
		})
	}

	return rows
}

// aggregate groups valuation rows by date. Dates with no priced row for any
// security do not appear.
func aggregate(rows []domain.ValuationRow) []domain.DailyTotal {
	byDate := make(map[time.Time]domain.DailyTotal)
	for _, row := range rows {
		total := byDate[row.Date]
		total.Date = row.Date
		total.MarketValue = total.MarketValue.Add(row.MarketValue)
		total.Invested = total.Invested.Add(row.CashInvested)
		byDate[row.Date] = total
	}

	totals := make([]domain.DailyTotal, 0, len(byDate))
	for _, total := range byDate {
		totals = append(totals, total)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date.Before(totals[j].Date) })
	return totals
}
