package testutil

import (
	"math/bits"
	"sort"
)

// Match is one brute-force hit.
type Match struct {
	Index int
	Score float64
}

// Tanimoto computes the Tanimoto score bit by bit. Two empty fingerprints
// score 0.
func Tanimoto(a, b []byte) float64 {
	var and, or int
	for i := range a {
		and += bits.OnesCount8(a[i] & b[i])
		or += bits.OnesCount8(a[i] | b[i])
	}
	if or == 0 {
		return 0
	}
	return float64(and) / float64(or)
}

// BruteForce scores every query against every target and keeps the pairs
// scoring at least threshold, in target order.
func BruteForce(queries, targets [][]byte, threshold float64) [][]Match {
	out := make([][]Match, len(queries))
	for i, q := range queries {
		for j, t := range targets {
			if s := Tanimoto(q, t); s >= threshold {
				out[i] = append(out[i], Match{Index: j, Score: s})
			}
		}
	}
	return out
}

// BruteForceSymmetric is BruteForce of fps against itself without the
// diagonal.
func BruteForceSymmetric(fps [][]byte, threshold float64) [][]Match {
	out := make([][]Match, len(fps))
	for i := range fps {
		for j := range fps {
			if i == j {
				continue
			}
			if s := Tanimoto(fps[i], fps[j]); s >= threshold {
				out[i] = append(out[i], Match{Index: j, Score: s})
			}
		}
	}
	return out
}

// TopK returns the k best matches by decreasing score, ties by index.
func TopK(matches []Match, k int) []Match {
	sorted := append([]Match(nil), matches...)
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].Score != sorted[b].Score {
			return sorted[a].Score > sorted[b].Score
		}
		return sorted[a].Index < sorted[b].Index
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// KthScore returns the k-th best score, or -1 when there are fewer than k
// matches. Used to check k-nearest answers without fixing a tie-break.
func KthScore(matches []Match, k int) float64 {
	top := TopK(matches, k)
	if k == 0 || len(top) < k {
		return -1
	}
	return top[k-1].Score
}
