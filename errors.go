package scpi

import (
	"errors"
	"fmt"
)

// Code classifies every failure the interpreter can produce. The set is
// closed: whatever goes wrong inside the core is translated to exactly one
// of these before it reaches the error reporter.
type Code uint8

const (
	// CodeScanError indicates a malformed token in the input buffer.
	CodeScanError Code = iota + 1
	// CodeHeaderNotRecognized indicates that no command-tree path matches
	// the header, or the matched path has no slot for the requested form.
	CodeHeaderNotRecognized
	// CodeArityMismatch indicates a wrong argument count.
	CodeArityMismatch
	// CodeArgumentType indicates an argument that does not parse as its
	// declared type; the record carries the 1-based ordinal.
	CodeArgumentType
	// CodeHandlerError indicates a domain failure reported by the handler.
	CodeHandlerError
	// CodeBufferOverflow indicates a fixed-capacity limit was exceeded.
	CodeBufferOverflow
)

// String returns a short name for the code.
func (c Code) String() string {
	switch c {
	case CodeScanError:
		return "scan-error"
	case CodeHeaderNotRecognized:
		return "header-not-recognized"
	case CodeArityMismatch:
		return "arity-mismatch"
	case CodeArgumentType:
		return "argument-type"
	case CodeHandlerError:
		return "handler-error"
	case CodeBufferOverflow:
		return "buffer-overflow"
	default:
		return "unknown"
	}
}

// number returns the default IEEE 488.2 error number for the code.
func (c Code) number() int16 {
	switch c {
	case CodeScanError:
		return -102 // Syntax error
	case CodeHeaderNotRecognized:
		return -113 // Undefined header
	case CodeArityMismatch:
		return -115 // Unexpected number of parameters
	case CodeArgumentType:
		return -104 // Data type error
	case CodeBufferOverflow:
		return -363 // Input buffer overrun
	default:
		return -300 // Device-specific error
	}
}

func (c Code) message() string {
	switch c {
	case CodeScanError:
		return "Syntax error"
	case CodeHeaderNotRecognized:
		return "Undefined header"
	case CodeArityMismatch:
		return "Unexpected number of parameters"
	case CodeArgumentType:
		return "Data type error"
	case CodeBufferOverflow:
		return "Input buffer overrun"
	default:
		return "Device specific error"
	}
}

// Record is one translated failure, delivered to the Reporter. It is
// created by the interpreter and consumed once by the reporting
// collaborator.
type Record struct {
	// Code is the taxonomy member.
	Code Code
	// Number is the IEEE 488.2 error number reported on the wire.
	Number int16
	// Message is the standard error text for Number.
	Message string
	// Offset is the byte offset of the offending token in the input
	// buffer, or -1 when unknown.
	Offset int
	// Ordinal is the 1-based argument position for CodeArgumentType,
	// zero otherwise.
	Ordinal int
	// Err is the underlying cause, when one exists.
	Err error
}

// Error implements the error interface.
func (r Record) Error() string {
	if r.Ordinal > 0 {
		return fmt.Sprintf("scpi: %s (%d, %s) at argument %d", r.Code, r.Number, r.Message, r.Ordinal)
	}
	return fmt.Sprintf("scpi: %s (%d, %s)", r.Code, r.Number, r.Message)
}

// Unwrap returns the underlying cause.
func (r Record) Unwrap() error {
	return r.Err
}

// Reporter receives every failure record. Its reaction is outside the
// interpreter's concern; the default reporter is the interpreter's error
// queue.
type Reporter interface {
	Report(Record)
}

// Error is a domain failure a handler reports, carrying its SCPI error
// number and message text. Handlers may return any error; one that is not
// an *Error is reported as a generic device-specific failure.
type Error struct {
	// Number is the SCPI error number, negative for standard errors.
	Number int16
	// Text is the error message reported by SYSTem:ERRor queries.
	Text string
	// Err is an optional wrapped cause.
	Err error
}

// NewError returns a handler error with the given SCPI number and text.
func NewError(number int16, text string) *Error {
	return &Error{Number: number, Text: text}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%d,%q", e.Number, e.Text)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Standard handler errors (IEEE 488.2 execution and device errors).
var (
	ErrExecution        = NewError(-200, "Execution error")
	ErrTriggerError     = NewError(-210, "Trigger error")
	ErrSettingsConflict = NewError(-221, "Settings conflict")
	ErrDataOutOfRange   = NewError(-222, "Data out of range")
	ErrIllegalParameter = NewError(-224, "Illegal parameter value")
	ErrHardware         = NewError(-240, "Hardware error")
	ErrDeviceSpecific   = NewError(-300, "Device specific error")
	ErrSelfTestFailed   = NewError(-330, "Self-test failed")
	ErrQueueOverflow    = NewError(-350, "Queue overflow")
)

// translate builds a Record from a taxonomy code and an optional cause.
// A handler failure that is an *Error keeps its own number and text.
func translate(code Code, offset int, err error) Record {
	rec := Record{
		Code:    code,
		Number:  code.number(),
		Message: code.message(),
		Offset:  offset,
		Err:     err,
	}
	var herr *Error
	if code == CodeHandlerError && errors.As(err, &herr) {
		rec.Number = herr.Number
		rec.Message = herr.Text
	}
	return rec
}
