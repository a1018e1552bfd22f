// internal/workflow/load.go
package workflow

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/tamzrod/batchlink/internal/batch"
	"github.com/tamzrod/batchlink/internal/faults"
	"github.com/tamzrod/batchlink/internal/printer"
	"github.com/tamzrod/batchlink/internal/status"
)

// Load is the print cycle: read the selected slot, validate, relay to
// both printheads, record the outcome.
type Load struct {
	board Board
	heads Sender
}

// NewLoad wires a load workflow.
func NewLoad(board Board, heads Sender) *Load {
	return &Load{board: board, heads: heads}
}

// Run executes one load cycle. The slot is rewritten (status Completed,
// count incremented) only when BOTH heads accepted the message: a
// half-printed bag must never be counted as done.
func (l *Load) Run(ctx context.Context) error {
	if err := l.board.Begin(status.KindLoad); err != nil {
		return err
	}

	ctl, err := l.board.ReadControl()
	if err != nil {
		return l.fail(err, nil)
	}

	selected := int(ctl.SelectedBatch)
	if selected < 1 || selected > batch.NumSlots {
		return l.fail(faults.NewData("selectedBatch", "must be 1-%d, got %d", batch.NumSlots, selected), nil)
	}

	rec, err := l.board.ReadSlot(selected)
	if err != nil {
		return l.fail(err, nil)
	}
	if rec == nil {
		return l.fail(faults.NewData("selectedBatch", "slot %d is empty", selected), nil)
	}

	// Validation failures abort before any printer contact.
	if err := rec.ValidateForPrint(); err != nil {
		return l.fail(err, nil)
	}

	commands, err := printer.BuildCommands(*rec)
	if err != nil {
		return l.fail(err, nil)
	}

	zap.S().Infow("sending batch to printheads",
		"slot", selected, "batchIndex", rec.Index)
	res := l.heads.SendBoth(ctx, commands)
	zanasi := encodeResults(res)

	if !res.OK() {
		// Slot left unchanged on any head failure.
		err := res.Head1
		if err == nil {
			err = res.Head2
		}
		return l.fail(err, &zanasi)
	}

	updated := *rec
	updated.Status = batch.StatusCompleted
	if updated.PrintCount < math.MaxUint16 {
		updated.PrintCount++
	}
	if err := l.board.WriteSlot(selected, &updated); err != nil {
		// Both heads printed but the PLC missed the bookkeeping; the
		// error surface makes the operator re-check rather than
		// silently double-print.
		return l.fail(err, &zanasi)
	}

	if err := l.board.Complete(status.Outcome{
		Phase:     status.PhaseIdle,
		ErrorCode: status.ErrNone,
		Zanasi:    &zanasi,
	}); err != nil {
		return err
	}

	zap.S().Infow("load complete",
		"slot", selected, "batchIndex", updated.Index, "printCount", updated.PrintCount)
	return nil
}

// encodeResults maps the per-head outcomes onto the zanasi word.
func encodeResults(res printer.Results) uint16 {
	code := func(err error) uint16 {
		if err == nil {
			return status.HeadOK
		}
		return status.HeadFail
	}
	return status.EncodeZanasi(code(res.Head1), code(res.Head2))
}

// fail closes the workflow on its error path. zanasi is written when
// the failure happened after the dual send, so the HMI can show which
// head broke.
func (l *Load) fail(err error, zanasi *uint16) error {
	zap.S().Errorw("load failed", "err", err)
	out := status.Outcome{
		Phase:     status.PhaseError,
		ErrorCode: errorCodeFor(err),
		Zanasi:    zanasi,
	}
	if cerr := l.board.Complete(out); cerr != nil {
		zap.S().Errorw("load completion write failed", "err", cerr)
	}
	return err
}
