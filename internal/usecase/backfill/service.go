package backfill

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pverdier/patrimoine-backend/internal/domain"
	"github.com/pverdier/patrimoine-backend/internal/logger"
)

// BackfillService ensures the price store holds daily closes for every
// security in the ledger, from the right start date up to (and excluding)
// today. Re-running it without new market data is a no-op.
type BackfillService struct {
	PriceRepo domain.PriceRepository
	Source    domain.PriceSource
}

// NewBackfillService creates a new BackfillService instance
func NewBackfillService(priceRepo domain.PriceRepository, source domain.PriceSource) *BackfillService {
	return &BackfillService{
		PriceRepo: priceRepo,
		Source:    source,
	}
}

// Run backfills prices for every security present in txns, as of today
// (exclusive, since the current session has no settled close yet).
//
// Per-security fetch problems (empty series, unknown ticker, network error)
// are logged and skipped so a single dead symbol never blocks the rest of
// the portfolio. A store write failure is fatal: batches already committed
// for earlier securities are kept, there is no cross-security rollback.
func (s *BackfillService) Run(ctx context.Context, txns []domain.Transaction, today time.Time) error {
	earliest := domain.EarliestDates(txns)

	securities := make([]string, 0, len(earliest))
	for security := range earliest {
		securities = append(securities, security)
	}
	sort.Strings(securities)

	for _, security := range securities {
		lastStored, hasStored, err := s.PriceRepo.LatestDate(ctx, security)
		if err != nil {
			return fmt.Errorf("failed to read latest stored date for %s: %w", security, err)
		}

		start := domain.BackfillStart(earliest[security], lastStored, hasStored)

		records, err := s.Source.DailyCloses(ctx, security, start, today)
		if err != nil {
			logger.Warnw("price fetch failed, skipping security for this run",
				"security", security, "start", start.Format(domain.DateFormat), "error", err)
			continue
		}
		if len(records) == 0 {
			logger.Infow("no new prices for security",
				"security", security, "start", start.Format(domain.DateFormat))
			continue
		}

		if err := s.PriceRepo.UpsertBatch(ctx, security, records); err != nil {
			return fmt.Errorf("failed to store prices for %s: %w", security, err)
		}
		logger.Infow("backfilled prices",
			"security", security,
			"from", records[0].Date.Format(domain.DateFormat),
			"to", records[len(records)-1].Date.Format(domain.DateFormat),
			"count", len(records))
	}

	return nil
}
