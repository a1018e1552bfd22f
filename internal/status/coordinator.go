// internal/status/coordinator.go
package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tamzrod/batchlink/internal/batch"
	"github.com/tamzrod/batchlink/internal/faults"
)

// RegisterBus is the exact contract the coordinator uses against the
// PLC. Register numbers are 1-based, matching the PLC data block.
// IMPORTANT: There must be NO other version of this interface anywhere.
type RegisterBus interface {
	ReadRegisters(reg uint16, qty uint16) ([]uint16, error)
	WriteRegisters(reg uint16, regs []uint16) error
}

// Kind identifies which workflow a Begin call opens.
type Kind int

const (
	KindDownload Kind = iota + 1
	KindLoad
)

func (k Kind) String() string {
	switch k {
	case KindDownload:
		return "download"
	case KindLoad:
		return "load"
	default:
		return "unknown"
	}
}

// openingPhase is the raspberry status announced when a workflow starts.
func (k Kind) openingPhase() uint16 {
	if k == KindLoad {
		return PhaseSending
	}
	return PhaseDownloading
}

// Outcome is the terminal register state a workflow hands to Complete.
type Outcome struct {
	Phase     uint16 // PhaseIdle on success, PhaseError on failure
	ErrorCode uint16
	// Zanasi, when non-nil, is written before the error code.
	Zanasi *uint16
}

// Coordinator owns every write to the control words and slot blocks.
// All other components observe hardware state through its accessors and
// never hold a live reference to mutable shared state.
type Coordinator struct {
	bus RegisterBus

	// Retry policy for transport blips before any register of a write
	// sequence has been applied.
	retryAttempts uint64
	retryDelay    time.Duration

	mu       sync.Mutex
	inFlight bool
}

// Option tunes a Coordinator.
type Option func(*Coordinator)

// WithWriteRetry sets the pre-application retry policy for Complete.
func WithWriteRetry(attempts int, delay time.Duration) Option {
	return func(c *Coordinator) {
		if attempts > 0 {
			c.retryAttempts = uint64(attempts)
		}
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// NewCoordinator wraps the register transport.
func NewCoordinator(bus RegisterBus, opts ...Option) *Coordinator {
	c := &Coordinator{
		bus:           bus,
		retryAttempts: 2,
		retryDelay:    200 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Begin opens a workflow. The in-process flag is the single-flight
// gate: this coordinator owns every raspberry-status write, so a busy
// phase read back while no workflow is in flight can only be stale
// state left by an interrupted one (crash mid-workflow, a completion
// sequence that stopped partway). Stale state never blocks the next
// request: the opening sequence below rewrites it, and the trigger
// stays with the workflow now starting.
func (c *Coordinator) Begin(kind Kind) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return faults.ErrAlreadyBusy
	}
	c.inFlight = true
	c.mu.Unlock()

	release := func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}

	regs, err := c.bus.ReadRegisters(RegRaspberryStatus, 1)
	if err != nil {
		release()
		return faults.NewTransport(faults.SourcePLC, err)
	}
	if phase := regs[0]; phase != PhaseIdle && phase != PhaseError {
		zap.S().Warnw("recovering stale busy phase left by an interrupted workflow",
			"kind", kind.String(), "phase", phase)
	}

	// Clear stale error state, then announce the opening phase.
	// errorCode and zanasiStatus are cleared together by contract.
	for _, w := range []struct {
		reg uint16
		val uint16
	}{
		{RegZanasiStatus, 0},
		{RegErrorCode, ErrNone},
		{RegRaspberryStatus, kind.openingPhase()},
	} {
		if err := c.bus.WriteRegisters(w.reg, []uint16{w.val}); err != nil {
			release()
			return faults.NewTransport(faults.SourcePLC, err)
		}
	}

	zap.S().Infow("workflow begun", "kind", kind.String())
	return nil
}

// SetPhase updates the raspberry status mid-workflow.
func (c *Coordinator) SetPhase(phase uint16) error {
	if err := c.bus.WriteRegisters(RegRaspberryStatus, []uint16{phase}); err != nil {
		return faults.NewTransport(faults.SourcePLC, err)
	}
	return nil
}

// Complete applies the terminal state of a workflow as one logical
// sequence: zanasi status, error code, raspberry status, trigger clear.
// The trigger is written last so the controller never sees an
// acknowledged request with stale status words.
//
// The whole sequence is retried on transport blips only while no
// register has been applied. After partial application the error is
// surfaced as-is: the next control-loop tick re-derives state from a
// fresh register read instead of trusting in-memory assumptions.
func (c *Coordinator) Complete(out Outcome) error {
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	type write struct {
		reg uint16
		val uint16
	}
	var seq []write
	if out.Zanasi != nil {
		seq = append(seq, write{RegZanasiStatus, *out.Zanasi})
	}
	seq = append(seq,
		write{RegErrorCode, out.ErrorCode},
		write{RegRaspberryStatus, out.Phase},
		write{RegTrigger, TriggerIdle},
	)

	applied := 0
	op := func() error {
		for applied < len(seq) {
			w := seq[applied]
			if err := c.bus.WriteRegisters(w.reg, []uint16{w.val}); err != nil {
				if applied > 0 {
					// Partial application: do not retry blindly.
					return backoff.Permanent(err)
				}
				return err
			}
			applied++
		}
		return nil
	}

	pol := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), c.retryAttempts)
	if err := backoff.Retry(op, pol); err != nil {
		return faults.NewTransport(faults.SourcePLC,
			fmt.Errorf("complete sequence stopped after %d/%d writes: %w", applied, len(seq), err))
	}

	zap.S().Infow("workflow completed",
		"phase", out.Phase, "errorCode", out.ErrorCode)
	return nil
}

// Reset forces the control words back to idle. Called at startup: a
// process that died mid-workflow leaves phase, error code and trigger
// wherever the interruption put them, and the controller cannot clear
// words this side owns. Trigger last, as in Complete.
func (c *Coordinator) Reset() error {
	for _, w := range []struct {
		reg uint16
		val uint16
	}{
		{RegZanasiStatus, 0},
		{RegErrorCode, ErrNone},
		{RegRaspberryStatus, PhaseIdle},
		{RegTrigger, TriggerIdle},
	} {
		if err := c.bus.WriteRegisters(w.reg, []uint16{w.val}); err != nil {
			return faults.NewTransport(faults.SourcePLC, err)
		}
	}
	zap.S().Info("control words reset to idle")
	return nil
}

// ReadControl returns a fresh snapshot of the control words.
func (c *Coordinator) ReadControl() (Control, error) {
	regs, err := c.bus.ReadRegisters(RegTrigger, RegSelectedBatch)
	if err != nil {
		return Control{}, faults.NewTransport(faults.SourcePLC, err)
	}
	return decodeControl(regs), nil
}

// ReadSlots reads and decodes all five batch blocks.
func (c *Coordinator) ReadSlots() (batch.Slots, error) {
	var slots batch.Slots

	regs, err := c.bus.ReadRegisters(RegBatchBase, batch.NumSlots*batch.WordsPerBlock)
	if err != nil {
		return slots, faults.NewTransport(faults.SourcePLC, err)
	}

	for i := 0; i < batch.NumSlots; i++ {
		block := regs[i*batch.WordsPerBlock : (i+1)*batch.WordsPerBlock]
		rec, err := batch.DecodeBlock(block)
		if err != nil {
			// A corrupt block must not hide the others; the slot is
			// treated as empty and will be refreshed by the next sync.
			zap.S().Warnw("undecodable slot treated as empty", "slot", i+1, "err", err)
			continue
		}
		slots[i] = rec
	}
	return slots, nil
}

// ReadSlot reads and decodes a single slot (1-5). Unlike ReadSlots, a
// corrupt block is an error here: the caller asked for this exact slot.
func (c *Coordinator) ReadSlot(n int) (*batch.Record, error) {
	if n < 1 || n > batch.NumSlots {
		return nil, faults.NewData("slot", "must be 1-%d, got %d", batch.NumSlots, n)
	}
	regs, err := c.bus.ReadRegisters(SlotBase(n), batch.WordsPerBlock)
	if err != nil {
		return nil, faults.NewTransport(faults.SourcePLC, err)
	}
	return batch.DecodeBlock(regs)
}

// WriteSlots writes all five batch blocks in one register write.
// Data lands before any status word announces it; flipping the phase
// back to idle is the caller's Complete, never part of this write.
func (c *Coordinator) WriteSlots(slots batch.Slots) error {
	regs := make([]uint16, 0, batch.NumSlots*batch.WordsPerBlock)
	for _, rec := range slots {
		var block [batch.WordsPerBlock]uint16
		if rec != nil {
			block = batch.EncodeBlock(*rec)
		}
		regs = append(regs, block[:]...)
	}
	if err := c.bus.WriteRegisters(RegBatchBase, regs); err != nil {
		return faults.NewTransport(faults.SourcePLC, err)
	}
	return nil
}

// WriteSlot rewrites a single slot block (1-5). nil clears the slot.
func (c *Coordinator) WriteSlot(n int, rec *batch.Record) error {
	if n < 1 || n > batch.NumSlots {
		return faults.NewData("slot", "must be 1-%d, got %d", batch.NumSlots, n)
	}
	var block [batch.WordsPerBlock]uint16
	if rec != nil {
		block = batch.EncodeBlock(*rec)
	}
	if err := c.bus.WriteRegisters(SlotBase(n), block[:]); err != nil {
		return faults.NewTransport(faults.SourcePLC, err)
	}
	return nil
}

// ClearTrigger acknowledges a request that never opened a workflow
// (invalid trigger values, requests refused before Begin succeeded).
func (c *Coordinator) ClearTrigger() error {
	if err := c.bus.WriteRegisters(RegTrigger, []uint16{TriggerIdle}); err != nil {
		return faults.NewTransport(faults.SourcePLC, err)
	}
	return nil
}

// SetError marks an error condition outside a workflow (for example an
// invalid trigger value observed while idle). Error code first, then
// the phase that announces it.
func (c *Coordinator) SetError(code uint16) error {
	if err := c.bus.WriteRegisters(RegErrorCode, []uint16{code}); err != nil {
		return faults.NewTransport(faults.SourcePLC, err)
	}
	if err := c.bus.WriteRegisters(RegRaspberryStatus, []uint16{PhaseError}); err != nil {
		return faults.NewTransport(faults.SourcePLC, err)
	}
	return nil
}
