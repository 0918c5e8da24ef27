// Package tanimoto implements the Tanimoto similarity of bit vectors and the
// popcount bounds used to prune searches.
//
// The Tanimoto score of A and B is |A∩B| / |A∪B|, computed from popcounts as
// c / (a + b - c). Two all-zero fingerprints score 0.
package tanimoto

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fpsim/popcount"
)

// ErrLengthMismatch is returned when two fingerprints differ in length.
var ErrLengthMismatch = errors.New("tanimoto: fingerprints have different lengths")

// Score returns the Tanimoto score for an intersection popcount c and operand
// popcounts a and b.
func Score(c, a, b int) float64 {
	union := a + b - c
	if union == 0 {
		return 0
	}
	return float64(c) / float64(union)
}

// Similarity computes the Tanimoto score of two fingerprints.
func Similarity(a, b []byte) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(a), len(b))
	}
	c := popcount.Intersect(a, b)
	return Score(c, popcount.Popcount(a), popcount.Popcount(b)), nil
}

// Bound returns the highest score any fingerprint with popcount p can reach
// against a fingerprint with popcount q: min(p,q)/max(p,q).
//
// It uses the same division as Score, so Bound(p, q) >= t exactly when some
// pair with these popcounts could pass a threshold t.
func Bound(p, q int) float64 {
	if p < q {
		return Score(p, p, q)
	}
	return Score(q, p, q)
}
