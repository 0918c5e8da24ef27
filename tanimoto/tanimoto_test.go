package tanimoto

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	assert.Equal(t, 0.0, Score(0, 0, 0))
	assert.Equal(t, 1.0, Score(24, 24, 24))
	assert.InDelta(t, 0.96, Score(24, 24, 25), 1e-12)
	assert.InDelta(t, 0.84, Score(21, 24, 22), 1e-12)
}

func TestSimilarity(t *testing.T) {
	deadbeef := []byte{0xde, 0xad, 0xbe, 0xef}

	s, err := Similarity(deadbeef, deadbeef)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)

	s, err = Similarity([]byte{0, 0}, []byte{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)

	_, err = Similarity([]byte{1}, []byte{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestSimilaritySymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for range 200 {
		a := make([]byte, 16)
		b := make([]byte, 16)
		rng.Read(a)
		rng.Read(b)
		ab, err := Similarity(a, b)
		require.NoError(t, err)
		ba, err := Similarity(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0)
	}
}

func TestBound(t *testing.T) {
	assert.Equal(t, 0.0, Bound(0, 0))
	assert.Equal(t, 1.0, Bound(7, 7))
	assert.Equal(t, 0.5, Bound(2, 4))
	assert.Equal(t, 0.5, Bound(4, 2))
	assert.Equal(t, 0.0, Bound(0, 5))
}

// TestWindowExact checks the window against the bound of every bucket, so no
// bucket that can reach the threshold is ever pruned.
func TestWindowExact(t *testing.T) {
	thresholds := []float64{0, 0.01, 0.1, 1.0 / 3.0, 0.5, 0.6, 0.7, 0.75, 0.8, 0.9, 0.95, 0.99, 1}
	for _, numBits := range []int{0, 1, 8, 10, 32, 64, 166, 256} {
		for q := 0; q <= numBits; q++ {
			for _, th := range thresholds {
				lo, hi, ok := Window(q, numBits, th)
				for p := 0; p <= numBits; p++ {
					reachable := Bound(p, q) >= th
					if th == 0 {
						reachable = true
					}
					inside := ok && p >= lo && p <= hi
					require.Equal(t, reachable, inside, "numBits=%d q=%d t=%v p=%d window=[%d,%d] ok=%v", numBits, q, th, p, lo, hi, ok)
				}
			}
		}
	}
}

func TestWindowEdges(t *testing.T) {
	lo, hi, ok := Window(10, 64, 0)
	assert.True(t, ok)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 64, hi)

	_, _, ok = Window(0, 64, 0.1)
	assert.False(t, ok)

	lo, hi, ok = Window(24, 32, 1)
	assert.True(t, ok)
	assert.Equal(t, 24, lo)
	assert.Equal(t, 24, hi)

	// 0.7*10 == 7 exactly in algebra; the bucket must not be lost to rounding.
	lo, hi, ok = Window(10, 64, 0.7)
	assert.True(t, ok)
	assert.Equal(t, 7, lo)
	assert.Equal(t, 14, hi)
}
