// internal/batch/codec.go
package batch

import "github.com/tamzrod/batchlink/internal/faults"

// Batch block layout constants.
// These values define the register protocol and MUST NOT be configurable.

// WordsPerBlock is the fixed size of one batch block in registers.
const WordsPerBlock = 20

// ---- WORD OFFSETS WITHIN A BLOCK ----

// Index occupies a word pair: high word first. 0 means "empty slot".
const (
	offIndexHi = 0
	offIndexLo = 1
	offStatus  = 2
	offCount   = 3

	offBatchCode = 4 // 3 words, 5 chars
	offDryerCode = 7 // 3 words, 5 chars
	offProdDate  = 10 // 5 words, 10 chars
	offExpDate   = 15 // 5 words, 10 chars
)

const (
	wordsBatchCode = 3
	wordsDryerCode = 3
	wordsProdDate  = 5
	wordsExpDate   = 5
)

// EncodeBlock converts a record into its fixed 20-word register block.
// The record must be valid; Validate is the caller's gate.
// No IO. No side effects.
func EncodeBlock(r Record) [WordsPerBlock]uint16 {
	var regs [WordsPerBlock]uint16

	regs[offIndexHi] = uint16(r.Index >> 16)
	regs[offIndexLo] = uint16(r.Index)
	regs[offStatus] = uint16(r.Status)
	regs[offCount] = r.PrintCount

	packText(regs[offBatchCode:offBatchCode+wordsBatchCode], r.BatchCode, MaxCodeChars)
	packText(regs[offDryerCode:offDryerCode+wordsDryerCode], r.DryerCode, MaxCodeChars)
	packText(regs[offProdDate:offProdDate+wordsProdDate], r.ProductionDate, MaxDateChars)
	packText(regs[offExpDate:offExpDate+wordsExpDate], r.ExpiryDate, MaxDateChars)

	return regs
}

// EmptyBlock is the sentinel written for a slot with no record.
func EmptyBlock() [WordsPerBlock]uint16 {
	return [WordsPerBlock]uint16{}
}

// DecodeBlock reconstructs a record from a 20-word block.
// An all-zero index is the empty sentinel: (nil, nil).
// Length mismatch and out-of-range indexes report a data error; the
// function never panics on well-sized input.
func DecodeBlock(regs []uint16) (*Record, error) {
	if len(regs) != WordsPerBlock {
		return nil, faults.NewData("block", "want %d words, got %d", WordsPerBlock, len(regs))
	}

	idx := uint32(regs[offIndexHi])<<16 | uint32(regs[offIndexLo])
	if idx == 0 {
		return nil, nil
	}
	if idx < MinIndex || idx > MaxIndex {
		return nil, faults.NewData("batchIndex", "out of range: %d", idx)
	}
	if regs[offStatus] > uint16(StatusCompleted) {
		return nil, faults.NewData("status", "out of range: %d", regs[offStatus])
	}

	r := &Record{
		Index:          idx,
		Status:         Status(regs[offStatus]),
		PrintCount:     regs[offCount],
		BatchCode:      unpackText(regs[offBatchCode : offBatchCode+wordsBatchCode]),
		DryerCode:      unpackText(regs[offDryerCode : offDryerCode+wordsDryerCode]),
		ProductionDate: unpackText(regs[offProdDate : offProdDate+wordsProdDate]),
		ExpiryDate:     unpackText(regs[offExpDate : offExpDate+wordsExpDate]),
	}
	return r, nil
}

// packText stores up to maxChars ASCII characters into dst, two bytes
// per word in big-endian order, zero-padded. Non-printable bytes are
// replaced so a rogue cloud value can never corrupt the block.
func packText(dst []uint16, s string, maxChars int) {
	b := []byte(s)
	if len(b) > maxChars {
		b = b[:maxChars]
	}
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}
	for i := range dst {
		var hi, lo byte
		if 2*i < len(b) {
			hi = b[2*i]
		}
		if 2*i+1 < len(b) {
			lo = b[2*i+1]
		}
		dst[i] = uint16(hi)<<8 | uint16(lo)
	}
}

// unpackText is the inverse of packText. A zero byte terminates.
func unpackText(src []uint16) string {
	out := make([]byte, 0, len(src)*2)
	for _, w := range src {
		hi := byte(w >> 8)
		if hi == 0 {
			break
		}
		out = append(out, hi)
		lo := byte(w)
		if lo == 0 {
			break
		}
		out = append(out, lo)
	}
	return string(out)
}
