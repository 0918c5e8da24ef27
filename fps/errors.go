package fps

import (
	"errors"
	"fmt"
)

// ErrSyntax is wrapped by every ParseError.
var ErrSyntax = errors.New("fps: syntax error")

// ParseError reports malformed input with its 1-based line number.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fps: line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("fps: line %d: %s", e.Line, e.Msg)
}

// Is matches ErrSyntax.
func (e *ParseError) Is(target error) bool { return target == ErrSyntax }

func (e *ParseError) Unwrap() error { return e.Err }

// HeaderWarning is a header line the reader does not understand. It does not
// stop reading.
type HeaderWarning struct {
	Line  int
	Key   string
	Value string
}

func (w HeaderWarning) String() string {
	return fmt.Sprintf("line %d: unknown header key %q", w.Line, w.Key)
}
