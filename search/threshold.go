package search

import (
	"context"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/results"
	"github.com/hupe1980/fpsim/tanimoto"
)

// ThresholdTanimotoSearch returns, for every query slot, all targets scoring
// at least threshold. Rows are in scan order.
func (s *Searcher) ThresholdTanimotoSearch(ctx context.Context, queries, targets *arena.Arena, threshold float64) (*results.SearchResults, error) {
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	if err := checkCompatible(queries, targets); err != nil {
		return nil, err
	}

	n := queries.Len()
	indices := make([][]int, n)
	scores := make([][]float64, n)
	if targets.Len() > 0 {
		t := s.target(targets)
		p := s.plan(n)
		scratch := make([][]byte, p.workers)
		for w := range scratch {
			scratch[w] = t.scratch()
		}

		err := p.run(ctx, func(w, lo, hi int) {
			buf := scratch[w]
			for i := lo; i < hi; i++ {
				q := t.load(buf, queries.Fingerprint(i))
				indices[i], scores[i] = t.threshold(buf, q, threshold, -1, nil, nil)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return results.New(indices, scores, targets.IDs(), queries.IDs()), nil
}

// threshold appends the hits of one loaded query to idx and sc, skipping
// slots <= after.
func (t *target) threshold(query []byte, q int, threshold float64, after int, idx []int, sc []float64) ([]int, []float64) {
	t.buckets(q, threshold, func(p, lo, hi int) {
		for j := max(lo, after+1); j < hi; j++ {
			c := t.k.Intersect(query, t.slot(j))
			if score := tanimoto.Score(c, q, t.popcountOf(j, p)); score >= threshold {
				idx = append(idx, j)
				sc = append(sc, score)
			}
		}
	})
	return idx, sc
}
