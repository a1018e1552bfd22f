// internal/plc/client_test.go
package plc

import (
	"bytes"
	"testing"
)

func TestPackUnpackRegisters(t *testing.T) {
	regs := []uint16{0x0000, 0x0001, 0xABCD, 0xFFFF}

	packed := packRegisters(regs)
	want := []byte{0x00, 0x00, 0x00, 0x01, 0xAB, 0xCD, 0xFF, 0xFF}
	if !bytes.Equal(packed, want) {
		t.Fatalf("packed = %x, want %x", packed, want)
	}

	unpacked := unpackRegisters(packed)
	if len(unpacked) != len(regs) {
		t.Fatalf("len = %d, want %d", len(unpacked), len(regs))
	}
	for i := range regs {
		if unpacked[i] != regs[i] {
			t.Fatalf("word %d = %#04x, want %#04x", i, unpacked[i], regs[i])
		}
	}
}

func TestUnpackRegisters_OddLengthTruncates(t *testing.T) {
	out := unpackRegisters([]byte{0x12, 0x34, 0x56})
	if len(out) != 1 || out[0] != 0x1234 {
		t.Fatalf("out = %v", out)
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestRegisterNumbersAreOneBased(t *testing.T) {
	c := &Client{}
	if _, err := c.ReadRegisters(0, 1); err == nil {
		t.Fatal("expected error for register 0")
	}
	if err := c.WriteRegisters(0, []uint16{1}); err == nil {
		t.Fatal("expected error for register 0")
	}
}
