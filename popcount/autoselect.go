package popcount

import (
	"math/rand"
	"runtime"
	"time"
)

// sampleStride is the slot size each class is benchmarked with.
var sampleStride = [numClasses]int{
	Align1:      3,   // 24-bit keys
	Align4:      4,   // 32-bit keys
	Align8Small: 24,  // 166-bit MACCS-sized keys padded to 8
	Align8Large: 112, // 881-bit PubChem-sized keys padded to 8
	AlignLanes:  256, // 2048-bit path fingerprints
}

const (
	benchSlots  = 512
	benchRounds = 3
)

// Timing is the measured cost of one method for one class.
type Timing struct {
	Class   AlignmentClass
	Method  Method
	Elapsed time.Duration
}

// AutoSelect benchmarks every available method that supports each class and
// records the fastest in c. It returns all measurements, grouped by class in
// Classes order.
func AutoSelect(c *Config) []Timing {
	rng := rand.New(rand.NewSource(1))
	var timings []Timing

	for _, class := range Classes {
		stride := sampleStride[class]
		buf := make([]byte, benchSlots*stride)
		rng.Read(buf)
		query := buf[:stride]

		best := MethodLUT8
		var bestElapsed time.Duration
		first := true
		for _, m := range Methods {
			if !m.Available() || !m.Supports(class) {
				continue
			}
			elapsed := measure(kernelsFor(m), buf, query, stride)
			timings = append(timings, Timing{Class: class, Method: m, Elapsed: elapsed})
			if first || elapsed < bestElapsed {
				best, bestElapsed, first = m, elapsed, false
			}
		}

		c.mu.Lock()
		c.methods[class] = best
		c.mu.Unlock()
	}
	return timings
}

// measure returns the fastest of benchRounds scans of buf with k.
func measure(k Kernels, buf, query []byte, stride int) time.Duration {
	var best time.Duration
	for r := 0; r < benchRounds; r++ {
		start := time.Now()
		n := 0
		for off := 0; off+stride <= len(buf); off += stride {
			slot := buf[off : off+stride]
			n += k.Intersect(query, slot) + k.Popcount(slot)
		}
		elapsed := time.Since(start)
		runtime.KeepAlive(n)
		if r == 0 || elapsed < best {
			best = elapsed
		}
	}
	return best
}
