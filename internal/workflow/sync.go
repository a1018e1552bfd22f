// internal/workflow/sync.go
package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/tamzrod/batchlink/internal/batch"
	"github.com/tamzrod/batchlink/internal/status"
)

// Sync is the download cycle: fetch, merge, write back.
type Sync struct {
	board  Board
	source Fetcher
	policy CapacityPolicy
}

// NewSync wires a sync workflow.
func NewSync(board Board, source Fetcher, policy CapacityPolicy) *Sync {
	return &Sync{board: board, source: source, policy: policy}
}

// Run executes one download cycle. The slot registers are written
// before the raspberry status flips back to idle, so a concurrent
// reader never observes "idle" next to stale slot contents.
func (s *Sync) Run(ctx context.Context) error {
	if err := s.board.Begin(status.KindDownload); err != nil {
		return err
	}

	records, err := s.source.FetchBatches(ctx)
	if err != nil {
		return s.fail(err)
	}
	zap.S().Infow("cloud fetch done", "records", len(records))

	if err := s.board.SetPhase(status.PhaseProcessing); err != nil {
		return s.fail(err)
	}

	current, err := s.board.ReadSlots()
	if err != nil {
		// Slots were never touched; only status words change.
		return s.fail(err)
	}

	merged, stats := batch.Merge(current, records)
	if stats.CapacityExceeded() {
		zap.S().Warnw("incoming records exceed free slots",
			"dropped", stats.Dropped, "preserved", stats.Preserved)
		if s.policy == CapacityStrict {
			return s.fail(capacityError(stats))
		}
	}

	if err := s.board.WriteSlots(merged); err != nil {
		return s.fail(err)
	}

	out := status.Outcome{Phase: status.PhaseIdle, ErrorCode: status.ErrNone}
	if stats.CapacityExceeded() {
		// Warning-level: the working set is valid, the operator just
		// needs to know records were cut.
		out.ErrorCode = status.ErrCapacity
	}
	if err := s.board.Complete(out); err != nil {
		return err
	}

	zap.S().Infow("sync complete",
		"active", merged.Active(), "preserved", stats.Preserved, "dropped", stats.Dropped)
	return nil
}

// fail closes the workflow on its error path: current slots untouched,
// error code by source, raspberry status 9, trigger cleared.
func (s *Sync) fail(err error) error {
	zap.S().Errorw("sync failed", "err", err)
	out := status.Outcome{Phase: status.PhaseError, ErrorCode: errorCodeFor(err)}
	if cerr := s.board.Complete(out); cerr != nil {
		zap.S().Errorw("sync completion write failed", "err", cerr)
	}
	return err
}
