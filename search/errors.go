package search

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/metadata"
)

var (
	// ErrInvalidThreshold is returned for a threshold outside [0, 1].
	ErrInvalidThreshold = errors.New("search: threshold must be between 0.0 and 1.0 inclusive")

	// ErrInvalidK is returned for a negative k.
	ErrInvalidK = errors.New("search: k must not be negative")

	// ErrInvalidThreads is returned for a thread count below one.
	ErrInvalidThreads = errors.New("search: threads must be at least 1")
)

func checkThreshold(t float64) error {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, t)
	}
	return nil
}

func checkK(k int) error {
	if k < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	return nil
}

// checkCompatible rejects query/target pairs that cannot be scored against
// each other. Descriptive differences are left to the caller.
func checkCompatible(queries, targets *arena.Arena) error {
	if _, err := metadata.CheckCompatible(queries.Metadata(), targets.Metadata()); err != nil {
		return err
	}
	if queries.Len() > 0 && targets.Len() > 0 && queries.NumBytes() != targets.NumBytes() {
		return &arena.LengthError{Got: queries.NumBytes(), Want: targets.NumBytes()}
	}
	return nil
}
