package ports

import (
	"context"

	"fooddelivery/internal/core/domain/model/automation"
)

// RunLedger stores AutomationRun leases and their history.
//
// Acquire must be atomic across processes: of two concurrent calls for the same kind
// exactly one succeeds while the lease is live.
type RunLedger interface {
	// Acquire records run as the live lease of run.Kind. Expired leases of the same kind
	// are reclaimed (closed as failed). Returns automation.ErrAlreadyRunning when a live
	// lease exists.
	Acquire(ctx context.Context, run automation.Run) error

	// Finish closes the lease with its final status and summary.
	Finish(ctx context.Context, run automation.Run) error

	// ListRecent returns the latest runs, newest first. An empty kind lists every kind.
	ListRecent(ctx context.Context, kind automation.Kind, limit int) ([]automation.Run, error)
}
