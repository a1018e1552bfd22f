// internal/batch/types.go
package batch

import "github.com/tamzrod/batchlink/internal/faults"

// Status is the lifecycle state of a batch as shown on the HMI.
type Status uint16

const (
	StatusPending    Status = 0
	StatusDownloaded Status = 1
	StatusSelected   Status = 2
	StatusPrinting   Status = 3
	StatusCompleted  Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDownloaded:
		return "downloaded"
	case StatusSelected:
		return "selected"
	case StatusPrinting:
		return "printing"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Protected reports whether a slot in this status represents an active
// operator or printer interaction. Protected slots are never touched by
// a merge.
func (s Status) Protected() bool {
	return s == StatusSelected || s == StatusPrinting
}

// Field limits. These mirror the PLC block geometry and the printer's
// field constraints and MUST NOT be configurable.
const (
	MinIndex = 1001
	MaxIndex = 99999

	MaxCodeChars = 5
	MaxDateChars = 10
)

// Record is one batch as exchanged with the cloud store, the PLC and
// the printheads. Records are values: a new status or count means a new
// Record, never in-place mutation of a shared one.
type Record struct {
	Index          uint32
	Status         Status
	PrintCount     uint16
	BatchCode      string
	DryerCode      string
	ProductionDate string
	ExpiryDate     string
}

// Validate checks field bounds. It is the single gate every record
// passes before it is encoded or transmitted.
func (r Record) Validate() error {
	if r.Index < MinIndex || r.Index > MaxIndex {
		return faults.NewData("batchIndex", "must be %d-%d, got %d", MinIndex, MaxIndex, r.Index)
	}
	if r.Status > StatusCompleted {
		return faults.NewData("status", "must be 0-4, got %d", r.Status)
	}
	if len(r.BatchCode) > MaxCodeChars {
		return faults.NewData("batchCode", "too long (max %d): %q", MaxCodeChars, r.BatchCode)
	}
	if len(r.DryerCode) > MaxCodeChars {
		return faults.NewData("dryerCode", "too long (max %d): %q", MaxCodeChars, r.DryerCode)
	}
	if len(r.ProductionDate) > MaxDateChars {
		return faults.NewData("productionDate", "too long (max %d): %q", MaxDateChars, r.ProductionDate)
	}
	if len(r.ExpiryDate) > MaxDateChars {
		return faults.NewData("expiryDate", "too long (max %d): %q", MaxDateChars, r.ExpiryDate)
	}
	for _, f := range []struct{ name, v string }{
		{"batchCode", r.BatchCode},
		{"dryerCode", r.DryerCode},
		{"productionDate", r.ProductionDate},
		{"expiryDate", r.ExpiryDate},
	} {
		for i := 0; i < len(f.v); i++ {
			if f.v[i] < 0x20 || f.v[i] > 0x7E {
				return faults.NewData(f.name, "non-printable character at %d", i)
			}
		}
	}
	return nil
}

// ValidateForPrint applies the stricter checks a printer transmission
// needs on top of Validate: every printed field must be non-empty.
func (r Record) ValidateForPrint() error {
	if err := r.Validate(); err != nil {
		return err
	}
	for _, f := range []struct{ name, v string }{
		{"batchCode", r.BatchCode},
		{"dryerCode", r.DryerCode},
		{"productionDate", r.ProductionDate},
		{"expiryDate", r.ExpiryDate},
	} {
		if f.v == "" {
			return faults.NewData(f.name, "must not be empty for printing")
		}
	}
	return nil
}
