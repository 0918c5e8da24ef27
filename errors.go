package fpsim

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fpsim/internal/resource"
)

var (
	// ErrInvalidThreads is returned for a thread count outside
	// [1, runtime.NumCPU()].
	ErrInvalidThreads = errors.New("invalid thread count")

	// ErrUnknownID is returned when a search by id names no target.
	ErrUnknownID = errors.New("unknown fingerprint id")

	// ErrInvalidBatchSize is returned for a negative batch size.
	ErrInvalidBatchSize = errors.New("batch size must not be negative")
)

// ThreadsError reports a rejected thread count.
type ThreadsError struct {
	Threads int
	Max     int
}

func (e *ThreadsError) Error() string {
	return fmt.Sprintf("threads must be between 1 and %d, got %d", e.Max, e.Threads)
}

func (e *ThreadsError) Unwrap() error { return ErrInvalidThreads }

var (
	// ErrStreamConsumed is returned when a Stream is iterated twice or after
	// Close.
	ErrStreamConsumed = errors.New("stream already consumed")

	// ErrNoResults is returned by Stream.Results for count searches.
	ErrNoResults = errors.New("count searches produce no result rows")
)

// ErrMemoryLimitExceeded is returned when a query batch alone is larger than
// the memory limit.
var ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
