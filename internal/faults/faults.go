// internal/faults/faults.go
package faults

import (
	"errors"
	"fmt"
)

// Source identifies which external link a transport failure came from.
// The error-code register is derived from it after retries are exhausted.
type Source string

const (
	SourceCloud   Source = "cloud"
	SourcePrinter Source = "printer"
	SourcePLC     Source = "plc"
)

// ErrAlreadyBusy is returned by the coordinator's single-flight gate
// when a workflow is requested while another has not reached idle.
var ErrAlreadyBusy = errors.New("workflow already in flight")

// Transport is a connection or timeout failure on one of the three
// links. It is retryable up to the configured attempt count.
type Transport struct {
	Source Source
	Err    error
}

func (e *Transport) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Source, e.Err)
}

func (e *Transport) Unwrap() error { return e.Err }

// NewTransport wraps err as a transport failure from src.
func NewTransport(src Source, err error) *Transport {
	return &Transport{Source: src, Err: err}
}

// Data is malformed or out-of-range record/register content.
// It is never retried; the current workflow aborts.
type Data struct {
	Field string
	Msg   string
}

func (e *Data) Error() string {
	if e.Field == "" {
		return "data error: " + e.Msg
	}
	return fmt.Sprintf("data error: %s: %s", e.Field, e.Msg)
}

// NewData builds a data error for a named field.
func NewData(field, format string, args ...any) *Data {
	return &Data{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// IsTransport reports whether err is (or wraps) a transport failure,
// optionally from the given source.
func IsTransport(err error, src Source) bool {
	var t *Transport
	if !errors.As(err, &t) {
		return false
	}
	return src == "" || t.Source == src
}

// IsData reports whether err is (or wraps) a data error.
func IsData(err error) bool {
	var d *Data
	return errors.As(err, &d)
}
