package domain

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned when a pipeline run is triggered while a
// previous run is still executing. The new trigger is rejected, not queued.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// ErrSnapshotMissing is returned by the snapshot store when the requested
// artifact has never been written (typically before the first pipeline run).
var ErrSnapshotMissing = errors.New("snapshot artifact missing")

// LedgerFormatError indicates the ledger file cannot be interpreted: a
// required column is absent or a cell cannot be parsed. Fatal for the run.
type LedgerFormatError struct {
	Path   string
	Reason string
}

func (e *LedgerFormatError) Error() string {
	return fmt.Sprintf("ledger format error in %s: %s", e.Path, e.Reason)
}
