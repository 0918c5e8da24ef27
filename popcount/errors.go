package popcount

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMethod is returned when a method name cannot be parsed.
	ErrUnknownMethod = errors.New("popcount: unknown method")
	// ErrUnknownClass is returned when an alignment class name cannot be parsed.
	ErrUnknownClass = errors.New("popcount: unknown alignment class")
	// ErrMethodUnsupported is returned when a method cannot serve an alignment class.
	ErrMethodUnsupported = errors.New("popcount: method does not support alignment class")
	// ErrMethodUnavailable is returned when the CPU lacks the instructions a method needs.
	ErrMethodUnavailable = errors.New("popcount: method not available on this CPU")
)

// MethodError reports a rejected method selection.
type MethodError struct {
	Method Method
	Class  AlignmentClass
	cause  error
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("%v: %s for %s", e.cause, e.Method, e.Class)
}

func (e *MethodError) Unwrap() error { return e.cause }
