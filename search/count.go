package search

import (
	"context"

	"github.com/hupe1980/fpsim/arena"
)

// CountTanimotoHits returns, for every query slot, the number of targets
// scoring at least threshold.
func (s *Searcher) CountTanimotoHits(ctx context.Context, queries, targets *arena.Arena, threshold float64) ([]int, error) {
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	if err := checkCompatible(queries, targets); err != nil {
		return nil, err
	}

	counts := make([]int, queries.Len())
	if targets.Len() == 0 {
		return counts, nil
	}

	t := s.target(targets)
	p := s.plan(queries.Len())
	scratch := make([][]byte, p.workers)
	for w := range scratch {
		scratch[w] = t.scratch()
	}

	err := p.run(ctx, func(w, lo, hi int) {
		buf := scratch[w]
		for i := lo; i < hi; i++ {
			q := t.load(buf, queries.Fingerprint(i))
			counts[i] = t.count(buf, q, threshold, -1)
		}
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// count counts the hits of one loaded query, skipping slots <= after.
func (t *target) count(query []byte, q int, threshold float64, after int) int {
	n := 0
	t.buckets(q, threshold, func(p, lo, hi int) {
		for j := max(lo, after+1); j < hi; j++ {
			if t.hit(query, q, j, p, threshold) {
				n++
			}
		}
	})
	return n
}
