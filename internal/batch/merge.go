// internal/batch/merge.go
package batch

// NumSlots is the fixed number of hardware-visible batch slots.
const NumSlots = 5

// Slots is the positional working set the controller sees.
// A nil entry is an empty slot.
type Slots [NumSlots]*Record

// Active counts populated slots.
func (s Slots) Active() int {
	n := 0
	for _, r := range s {
		if r != nil {
			n++
		}
	}
	return n
}

// MergeStats reports the non-fatal conditions of a merge.
type MergeStats struct {
	// Dropped is the number of incoming records that did not fit the
	// free slots (the capacity-exceeded condition).
	Dropped int
	// Preserved is the number of protected slots carried through.
	Preserved int
}

// CapacityExceeded reports whether incoming records were discarded.
func (m MergeStats) CapacityExceeded() bool { return m.Dropped > 0 }

// Merge reconciles freshly fetched records against the current slots.
// Pure and deterministic; order-sensitive on incoming.
//
// Protected slots (status selected or printing) stay in place untouched,
// whether or not their index reappears in incoming. Incoming records
// matching a protected index are discarded; that slot already
// represents them. The remaining incoming records fill the free slots
// in ascending slot order; leftover free slots become empty; records
// beyond the free capacity are dropped and counted in MergeStats.
//
// When an incoming record matches a free slot's current index, the
// hardware print count is preserved: the count changes only when a
// load completes, never because a download refreshed the slot.
func Merge(current Slots, incoming []Record) (Slots, MergeStats) {
	var result Slots
	var stats MergeStats

	protected := make(map[uint32]bool, NumSlots)
	counts := make(map[uint32]uint16, NumSlots)

	for i, r := range current {
		if r == nil {
			continue
		}
		if r.Status.Protected() {
			result[i] = r
			protected[r.Index] = true
			stats.Preserved++
		} else {
			counts[r.Index] = r.PrintCount
		}
	}

	// Filter incoming: protected indexes out, duplicates first-wins.
	seen := make(map[uint32]bool, len(incoming))
	queue := make([]Record, 0, len(incoming))
	for _, rec := range incoming {
		if protected[rec.Index] || seen[rec.Index] {
			continue
		}
		seen[rec.Index] = true
		queue = append(queue, rec)
	}

	qi := 0
	for i := range result {
		if result[i] != nil {
			continue // protected, already placed
		}
		if qi >= len(queue) {
			continue // stays empty
		}
		rec := queue[qi]
		qi++
		if pc, ok := counts[rec.Index]; ok {
			rec.PrintCount = pc
		}
		result[i] = &rec
	}

	stats.Dropped = len(queue) - qi
	return result, stats
}
