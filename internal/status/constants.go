// internal/status/constants.go
package status

import "github.com/tamzrod/batchlink/internal/batch"

// PLC register map. Word addresses are 1-based.
// These values define the protocol and MUST NOT be configurable.

// ---- CONTROL WORDS (1-9) ----

const (
	RegTrigger         uint16 = 1
	RegRaspberryStatus uint16 = 2
	RegPLCStatus       uint16 = 3 // owned by the controller, read-only here
	RegZanasiStatus    uint16 = 4
	RegErrorCode       uint16 = 5
	RegSelectedBatch   uint16 = 7
)

// Registers 6, 8 and 9 are reserved.

// ---- BATCH BLOCKS ----

// RegBatchBase is the first word of slot 1. Each slot owns a fixed
// 20-word block; slots 1-5 span words 10-109. Words 110-120 reserved.
const (
	RegBatchBase   uint16 = 10
	TotalRegisters uint16 = 120
)

// SlotBase returns the first register of slot n (1-5).
func SlotBase(n int) uint16 {
	return RegBatchBase + uint16((n-1)*batch.WordsPerBlock)
}

// ---- TRIGGER VALUES ----

const (
	TriggerIdle     uint16 = 0
	TriggerDownload uint16 = 1
	TriggerLoad     uint16 = 2
)

// ---- RASPBERRY STATUS PHASES ----

const (
	PhaseIdle        uint16 = 0
	PhaseDownloading uint16 = 1
	PhaseProcessing  uint16 = 2
	PhaseReady       uint16 = 3
	PhaseSending     uint16 = 4
	PhaseComplete    uint16 = 5
	PhaseError       uint16 = 9
)

// ---- ERROR CODES ----

const (
	ErrNone     uint16 = 0
	ErrCloud    uint16 = 1
	ErrPrinter  uint16 = 2
	ErrData     uint16 = 3
	ErrCapacity uint16 = 4 // warning: sync truncated, slots still valid
)

// ---- ZANASI STATUS ----

// One word encodes both heads: head 1 in the low byte, head 2 in the
// high byte.
const (
	HeadUnknown uint16 = 0
	HeadOK      uint16 = 1
	HeadFail    uint16 = 2
)

// EncodeZanasi packs per-head outcomes into the zanasi status word.
func EncodeZanasi(head1, head2 uint16) uint16 {
	return head1&0xFF | head2<<8
}

// DecodeZanasi splits the zanasi status word into per-head outcomes.
func DecodeZanasi(w uint16) (head1, head2 uint16) {
	return w & 0xFF, w >> 8
}
