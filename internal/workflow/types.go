// internal/workflow/types.go
package workflow

import (
	"context"

	"github.com/tamzrod/batchlink/internal/batch"
	"github.com/tamzrod/batchlink/internal/faults"
	"github.com/tamzrod/batchlink/internal/printer"
	"github.com/tamzrod/batchlink/internal/status"
)

// Board is the status-coordinator surface the workflows drive. All
// register traffic goes through it; workflows never touch the bus.
type Board interface {
	Begin(kind status.Kind) error
	SetPhase(phase uint16) error
	Complete(out status.Outcome) error
	ReadControl() (status.Control, error)
	ReadSlots() (batch.Slots, error)
	ReadSlot(n int) (*batch.Record, error)
	WriteSlots(slots batch.Slots) error
	WriteSlot(n int, rec *batch.Record) error
}

// Fetcher is the cloud source.
type Fetcher interface {
	FetchBatches(ctx context.Context) ([]batch.Record, error)
}

// Sender is the dual printhead link.
type Sender interface {
	SendBoth(ctx context.Context, commands []string) printer.Results
}

// CapacityPolicy decides what a sync does when the cloud returns more
// records than there are free slots.
type CapacityPolicy int

const (
	// CapacityTruncate drops the excess and completes with the
	// warning-level capacity code.
	CapacityTruncate CapacityPolicy = iota
	// CapacityStrict treats the overflow as a fatal data error and
	// leaves the slots untouched.
	CapacityStrict
)

// capacityError is the strict-policy rendering of a truncated merge.
func capacityError(stats batch.MergeStats) error {
	return faults.NewData("incoming", "%d records beyond free slot capacity", stats.Dropped)
}

// errorCodeFor maps a workflow failure onto the error-code register.
func errorCodeFor(err error) uint16 {
	switch {
	case faults.IsTransport(err, faults.SourceCloud):
		return status.ErrCloud
	case faults.IsTransport(err, faults.SourcePrinter):
		return status.ErrPrinter
	default:
		// Data errors and PLC transport failures both surface as code 3.
		// The register protocol has no code for its own link, and a
		// mid-workflow register failure reaches the HMI only once the
		// link works again anyway.
		return status.ErrData
	}
}
