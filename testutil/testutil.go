package testutil

import (
	"fmt"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Fingerprint returns numBytes random bytes in which each bit is set with
// probability density.
func (r *RNG) Fingerprint(numBytes int, density float64) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fingerprintLocked(numBytes, density)
}

func (r *RNG) fingerprintLocked(numBytes int, density float64) []byte {
	fp := make([]byte, numBytes)
	for i := range fp {
		for bit := range 8 {
			if r.rand.Float64() < density {
				fp[i] |= 1 << bit
			}
		}
	}
	return fp
}

// Fingerprints generates n fingerprints with densities spread over
// [0.05, 0.6], so the popcounts cover many buckets. Every tenth fingerprint
// duplicates an earlier one to produce exact ties.
func (r *RNG) Fingerprints(n, numBytes int) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]byte, n)
	for i := range out {
		if i > 0 && i%10 == 0 {
			src := out[r.rand.Intn(i)]
			out[i] = append([]byte(nil), src...)
			continue
		}
		out[i] = r.fingerprintLocked(numBytes, 0.05+0.55*r.rand.Float64())
	}
	return out
}

// Mutate returns a copy of fp with flips random bits toggled.
func (r *RNG) Mutate(fp []byte, flips int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := append([]byte(nil), fp...)
	if len(out) == 0 {
		return out
	}
	for range flips {
		bit := r.rand.Intn(8 * len(out))
		out[bit/8] ^= 1 << (bit % 8)
	}
	return out
}

// IDs returns n identifiers of the form prefix + index.
func IDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return ids
}
