package tanimoto

import "math"

// Window returns the inclusive popcount range [lo, hi] of targets that can
// score at least threshold against a query with popcount q, for fingerprints
// of numBits bits. ok is false when no target can qualify.
//
// Algebraically the range is [ceil(t*q), floor(q/t)]. The endpoints are
// derived from the float estimate and then corrected with Bound so that the
// window agrees exactly with how scores are compared; rounding in t*q can
// otherwise drop the bucket p == t*q.
func Window(q, numBits int, threshold float64) (lo, hi int, ok bool) {
	if threshold <= 0 {
		return 0, numBits, true
	}
	if q == 0 || q > numBits || threshold > 1 {
		// An empty query scores 0 against everything.
		return 0, 0, false
	}

	lo = int(math.Floor(threshold * float64(q)))
	lo = max(lo-1, 0)
	for lo <= q && Bound(lo, q) < threshold {
		lo++
	}

	hi = numBits
	if est := float64(q) / threshold; est < float64(numBits) {
		hi = min(int(math.Ceil(est))+1, numBits)
	}
	for hi >= q && Bound(hi, q) < threshold {
		hi--
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}
