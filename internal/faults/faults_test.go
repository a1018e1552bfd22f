// internal/faults/faults_test.go
package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTransport(t *testing.T) {
	base := errors.New("connection refused")
	err := NewTransport(SourceCloud, base)

	if !IsTransport(err, SourceCloud) {
		t.Fatal("cloud transport not recognized")
	}
	if IsTransport(err, SourcePrinter) {
		t.Fatal("source must be matched exactly")
	}
	if !IsTransport(err, "") {
		t.Fatal("empty source must match any transport")
	}
	if !errors.Is(err, base) {
		t.Fatal("wrapped cause lost")
	}
}

func TestIsTransport_Wrapped(t *testing.T) {
	err := fmt.Errorf("fetch: %w", NewTransport(SourcePLC, errors.New("timeout")))
	if !IsTransport(err, SourcePLC) {
		t.Fatal("wrapped transport not recognized")
	}
}

func TestIsData(t *testing.T) {
	err := NewData("batchCode", "too long: %d chars", 9)
	if !IsData(err) {
		t.Fatal("data error not recognized")
	}
	if IsData(errors.New("plain")) {
		t.Fatal("plain error misclassified")
	}
	if got := err.Error(); got != "data error: batchCode: too long: 9 chars" {
		t.Fatalf("message = %q", got)
	}
}
