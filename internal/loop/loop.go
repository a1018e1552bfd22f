// internal/loop/loop.go
package loop

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/batchlink/internal/faults"
	"github.com/tamzrod/batchlink/internal/status"
)

// Control is the slice of the coordinator the loop needs: trigger
// observation and the out-of-workflow error path.
type Control interface {
	ReadControl() (status.Control, error)
	ClearTrigger() error
	SetError(code uint16) error
}

// Workflow runs one request to completion.
type Workflow interface {
	Run(ctx context.Context) error
}

// Outcome tags what a tick did.
type Outcome int

const (
	// OutcomeIdle means the trigger was idle; nothing ran.
	OutcomeIdle Outcome = iota
	// OutcomeRan means a workflow ran to a terminal state (either way).
	OutcomeRan
	// OutcomeDeferred means a request was observed but refused by the
	// single-flight gate; the trigger stays set for a later tick.
	OutcomeDeferred
	// OutcomeRejected means the trigger held a value outside the
	// protocol; error registers were set and the trigger cleared.
	OutcomeRejected
)

// Result is the tagged outcome of one tick.
type Result struct {
	Outcome Outcome
	Trigger uint16
	Err     error
}

// Runner polls the trigger register and dispatches workflows. One tick
// runs at most one workflow to completion; workflows never interleave.
type Runner struct {
	control  Control
	sync     Workflow
	load     Workflow
	interval time.Duration
}

// New builds a runner.
func New(control Control, sync, load Workflow, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{control: control, sync: sync, load: load, interval: interval}
}

// Tick performs exactly one poll-and-dispatch cycle.
func (r *Runner) Tick(ctx context.Context) Result {
	ctl, err := r.control.ReadControl()
	if err != nil {
		return Result{Outcome: OutcomeIdle, Err: err}
	}

	res := Result{Trigger: ctl.Trigger}

	switch ctl.Trigger {
	case status.TriggerIdle:
		return res

	case status.TriggerDownload:
		res.Outcome, res.Err = r.dispatch(ctx, r.sync)
		return res

	case status.TriggerLoad:
		res.Outcome, res.Err = r.dispatch(ctx, r.load)
		return res

	default:
		zap.S().Errorw("invalid trigger value", "trigger", ctl.Trigger)
		res.Outcome = OutcomeRejected
		if err := r.control.SetError(status.ErrData); err != nil {
			res.Err = err
			return res
		}
		res.Err = r.control.ClearTrigger()
		return res
	}
}

func (r *Runner) dispatch(ctx context.Context, wf Workflow) (Outcome, error) {
	err := wf.Run(ctx)
	if errors.Is(err, faults.ErrAlreadyBusy) {
		// Another workflow in this process holds the gate. The request
		// stays pending and dispatches again once the gate is free.
		return OutcomeDeferred, err
	}
	return OutcomeRan, err
}

// Run drives Tick on a fixed interval until the context is canceled.
// Cancellation is honored between ticks only; an in-flight workflow
// finishes (or times out on its own calls) before the loop exits.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	zap.S().Infow("control loop started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("control loop stopped")
			return
		case <-ticker.C:
			res := r.Tick(ctx)
			if res.Err != nil && !errors.Is(res.Err, faults.ErrAlreadyBusy) {
				zap.S().Errorw("tick finished with error",
					"trigger", res.Trigger, "err", res.Err)
			}
		}
	}
}
