package arena

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPopcountIndex is returned by operations that need a
	// popcount-sorted arena.
	ErrMissingPopcountIndex = errors.New("arena must have pre-computed popcount index")

	// ErrSourceConsumed is returned when a one-shot source is iterated twice.
	ErrSourceConsumed = errors.New("arena: source already consumed")

	// ErrInvalidBatchSize is returned for a negative batch size.
	ErrInvalidBatchSize = errors.New("arena: batch size must not be negative")

	// ErrInvalidRange is returned for slot ranges outside the arena.
	ErrInvalidRange = errors.New("arena: slot range out of bounds")

	// ErrInvalidAlignment is returned for a forced alignment that is not a
	// power of two between 1 and 64.
	ErrInvalidAlignment = errors.New("arena: invalid alignment")

	// ErrPaddingBits is returned when a fingerprint has bits set beyond
	// num_bits in its last byte.
	ErrPaddingBits = errors.New("arena: bits set beyond num_bits")

	// ErrInvalidLayout is returned by FromStorage for inconsistent buffers.
	ErrInvalidLayout = errors.New("arena: invalid storage layout")
)

// LengthError reports a fingerprint whose byte length does not match the
// arena it is searched against.
type LengthError struct {
	Got  int
	Want int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("fingerprint has %d bytes, arena expects %d", e.Got, e.Want)
}

// RecordLengthError reports a record whose fingerprint length differs from
// the length established by the metadata or by the first record.
type RecordLengthError struct {
	Index int
	ID    string
	Got   int
	Want  int
}

func (e *RecordLengthError) Error() string {
	return fmt.Sprintf("record %d (id %q): fingerprint has %d bytes, expected %d", e.Index, e.ID, e.Got, e.Want)
}
