package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pverdier/patrimoine-backend/internal/domain"
	"github.com/pverdier/patrimoine-backend/internal/logger"
	"github.com/pverdier/patrimoine-backend/internal/usecase/backfill"
	"github.com/pverdier/patrimoine-backend/internal/usecase/valuation"
)

// PipelineService runs one full ledger-to-snapshot cycle: load the ledger,
// backfill prices, revalue the portfolio, replace both output artifacts.
//
// At most one run executes at a time; the scheduler and any manual trigger
// share the same guard. A rejected trigger returns ErrRunInProgress instead
// of queueing, since the next scheduled run covers the same work.
type PipelineService struct {
	Ledger    domain.LedgerSource
	Backfill  *backfill.BackfillService
	Valuation *valuation.ValuationService
	Snapshots domain.SnapshotStore

	// Today is injectable for tests; defaults to domain.Today.
	Today func() time.Time

	running sync.Mutex
}

// NewPipelineService creates a new PipelineService instance
func NewPipelineService(
	ledger domain.LedgerSource,
	backfillService *backfill.BackfillService,
	valuationService *valuation.ValuationService,
	snapshots domain.SnapshotStore,
) *PipelineService {
	return &PipelineService{
		Ledger:    ledger,
		Backfill:  backfillService,
		Valuation: valuationService,
		Snapshots: snapshots,
		Today:     domain.Today,
	}
}

// Run executes one pipeline cycle against the ledger at ledgerPath.
func (s *PipelineService) Run(ctx context.Context, ledgerPath string) error {
	if !s.running.TryLock() {
		return domain.ErrRunInProgress
	}
	defer s.running.Unlock()

	runID := uuid.New().String()
	started := time.Now()
	logger.Infow("pipeline run started", "run_id", runID, "ledger", ledgerPath)

	txns, err := s.Ledger.Load(ctx, ledgerPath)
	if err != nil {
		logger.Errorw("pipeline run aborted: ledger unreadable", "run_id", runID, "error", err)
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	logger.Infow("ledger loaded", "run_id", runID, "transactions", len(txns))

	if err := s.Backfill.Run(ctx, txns, s.Today()); err != nil {
		logger.Errorw("pipeline run aborted: price store write failed", "run_id", runID, "error", err)
		return fmt.Errorf("backfill failed: %w", err)
	}

	rows, totals, err := s.Valuation.Run(ctx, txns)
	if err != nil {
		logger.Errorw("pipeline run aborted: valuation failed", "run_id", runID, "error", err)
		return fmt.Errorf("valuation failed: %w", err)
	}

	if err := s.Snapshots.WriteDetail(rows); err != nil {
		return fmt.Errorf("failed to write detail snapshot: %w", err)
	}
	if err := s.Snapshots.WriteTotals(totals); err != nil {
		return fmt.Errorf("failed to write totals snapshot: %w", err)
	}

	logger.Infow("pipeline run finished",
		"run_id", runID,
		"valuation_rows", len(rows),
		"daily_totals", len(totals),
		"duration", time.Since(started).String())
	return nil
}
