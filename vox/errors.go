package vox

import (
	"errors"
	"fmt"
)

var (
	// ErrFraming is wrapped by every FramingError.
	ErrFraming = errors.New("sysex framing error")

	ErrUnknownFunctionCode = errors.New("unknown function code")

	// ErrInvalidField is wrapped by every FieldError.
	ErrInvalidField = errors.New("invalid field")
)

// FramingError reports a frame whose header does not match, or whose payload is shorter than
// the fixed shape expected for its function code.
type FramingError struct {
	Reason string
	Want   int
	Got    int
}

func (e *FramingError) Error() string {
	if e.Want == 0 && e.Got == 0 {
		return fmt.Sprintf("%s: %s", ErrFraming, e.Reason)
	}
	return fmt.Sprintf("%s: %s (want %d bytes, got %d)", ErrFraming, e.Reason, e.Want, e.Got)
}

func (e *FramingError) Unwrap() error { return ErrFraming }

// IsShort reports whether the error was caused by a truncated payload rather than a bad header.
func (e *FramingError) IsShort() bool { return e.Want > e.Got }

// FieldError reports a field whose value is not a known tag or is not representable.
type FieldError struct {
	Field string
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrInvalidField, e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return ErrInvalidField }

// UnknownFunctionCodeError carries the offending code.
type UnknownFunctionCodeError struct {
	Code FunctionCode
}

func (e *UnknownFunctionCodeError) Error() string {
	return fmt.Sprintf("%s %#02x", ErrUnknownFunctionCode, uint8(e.Code))
}

func (e *UnknownFunctionCodeError) Unwrap() error { return ErrUnknownFunctionCode }
