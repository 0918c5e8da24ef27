package search

import (
	"context"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/results"
	"github.com/hupe1980/fpsim/tanimoto"
)

// KNearestTanimotoSearch returns, for every query slot, the k best targets
// scoring at least threshold, best first. k == 0 yields empty rows.
func (s *Searcher) KNearestTanimotoSearch(ctx context.Context, queries, targets *arena.Arena, k int, threshold float64) (*results.SearchResults, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	if err := checkCompatible(queries, targets); err != nil {
		return nil, err
	}

	n := queries.Len()
	indices := make([][]int, n)
	scores := make([][]float64, n)
	if k > 0 && targets.Len() > 0 {
		t := s.target(targets)
		p := s.plan(n)
		scratch := make([][]byte, p.workers)
		heaps := make([]*topK, p.workers)
		for w := range scratch {
			scratch[w] = t.scratch()
			heaps[w] = newTopK(k)
		}

		err := p.run(ctx, func(w, lo, hi int) {
			buf, heap := scratch[w], heaps[w]
			for i := lo; i < hi; i++ {
				q := t.load(buf, queries.Fingerprint(i))
				heap.reset(k)
				t.knearest(buf, q, threshold, heap)
				indices[i], scores[i] = heap.drain()
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return results.New(indices, scores, targets.IDs(), queries.IDs()), nil
}

// knearest fills heap with the best hits of one loaded query.
//
// With a popcount index the buckets are visited in non-increasing order of
// their score bound, walking outwards from the query's own popcount, and the
// walk stops as soon as no remaining bucket can beat the heap.
func (t *target) knearest(query []byte, q int, threshold float64, heap *topK) {
	scan := func(p, lo, hi int) {
		for j := lo; j < hi; j++ {
			c := t.k.Intersect(query, t.slot(j))
			if score := tanimoto.Score(c, q, t.popcountOf(j, p)); score >= threshold {
				heap.push(j, score)
			}
		}
	}

	if t.index == nil {
		for j := range t.n {
			p := t.pcs[j]
			bound := tanimoto.Bound(p, q)
			if bound < threshold || (heap.full() && bound <= heap.min()) {
				continue
			}
			c := t.k.Intersect(query, t.slot(j))
			if score := tanimoto.Score(c, q, p); score >= threshold {
				heap.push(j, score)
			}
		}
		return
	}

	lo, hi, ok := tanimoto.Window(q, t.numBits, threshold)
	if !ok {
		return
	}
	down, up := min(q, hi), max(q+1, lo)
	for down >= lo || up <= hi {
		var p int
		if down >= lo && (up > hi || tanimoto.Bound(down, q) >= tanimoto.Bound(up, q)) {
			p = down
			down--
		} else {
			p = up
			up++
		}
		bound := tanimoto.Bound(p, q)
		if bound < threshold || (heap.full() && bound <= heap.min()) {
			return
		}
		scan(p, t.index[p], t.index[p+1])
	}
}
