package search

import (
	"context"
	"sort"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/results"
)

// The symmetric searches take each query's popcount from its bucket in the
// popcount index instead of recounting it.

// CountTanimotoHitsSymmetric returns, for every slot of a popcount-sorted
// arena, the number of other slots scoring at least threshold against it.
//
// Only pairs row < col are scored; each hit is credited to both rows.
func (s *Searcher) CountTanimotoHitsSymmetric(ctx context.Context, a *arena.Arena, threshold float64) ([]int, error) {
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	if !a.HasPopcountIndex() {
		return nil, arena.ErrMissingPopcountIndex
	}

	n := a.Len()
	counts := make([]int, n)
	if n < 2 {
		return counts, nil
	}

	t := s.target(a)
	p := s.plan(n)
	mirrors := make([][]int, p.workers)
	for w := range mirrors {
		mirrors[w] = make([]int, n)
	}

	err := p.run(ctx, func(w, lo, hi int) {
		mirror := mirrors[w]
		for i := lo; i < hi; i++ {
			q := t.symmetricPopcount(i)
			query := t.slot(i)
			t.buckets(q, threshold, func(bp, blo, bhi int) {
				for j := max(blo, i+1); j < bhi; j++ {
					if t.hit(query, q, j, bp, threshold) {
						counts[i]++
						mirror[j]++
					}
				}
			})
		}
	})
	if err != nil {
		return nil, err
	}

	for _, mirror := range mirrors {
		for j, c := range mirror {
			counts[j] += c
		}
	}
	return counts, nil
}

// ThresholdTanimotoSearchSymmetric returns, for every slot of a
// popcount-sorted arena, the other slots scoring at least threshold.
func (s *Searcher) ThresholdTanimotoSearchSymmetric(ctx context.Context, a *arena.Arena, threshold float64) (*results.SearchResults, error) {
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	if !a.HasPopcountIndex() {
		return nil, arena.ErrMissingPopcountIndex
	}

	n := a.Len()
	upperIdx := make([][]int, n)
	upperSc := make([][]float64, n)
	if n >= 2 {
		t := s.target(a)
		err := s.plan(n).run(ctx, func(_, lo, hi int) {
			for i := lo; i < hi; i++ {
				upperIdx[i], upperSc[i] = t.threshold(t.slot(i), t.symmetricPopcount(i), threshold, i, nil, nil)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	// Mirror the upper triangle. Row i receives hits from rows < i first, in
	// increasing row order, followed by its own upper-triangle hits.
	lowerIdx := make([][]int, n)
	lowerSc := make([][]float64, n)
	for i := range n {
		for k, j := range upperIdx[i] {
			lowerIdx[j] = append(lowerIdx[j], i)
			lowerSc[j] = append(lowerSc[j], upperSc[i][k])
		}
	}
	for i := range n {
		lowerIdx[i] = append(lowerIdx[i], upperIdx[i]...)
		lowerSc[i] = append(lowerSc[i], upperSc[i]...)
	}
	return results.New(lowerIdx, lowerSc, a.IDs(), a.IDs()), nil
}

// KNearestTanimotoSearchSymmetric returns, for every slot of a
// popcount-sorted arena, the k best other slots scoring at least threshold,
// best first.
//
// Only pairs row < col are scored. Each hit goes into the bounded heaps of
// both rows, kept per worker, and the worker heaps of a row are merged at the
// end. A row cannot stop early on its own heap minimum because the rows it
// mirrors into still need every pair, so only the threshold window prunes.
func (s *Searcher) KNearestTanimotoSearchSymmetric(ctx context.Context, a *arena.Arena, k int, threshold float64) (*results.SearchResults, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}
	if !a.HasPopcountIndex() {
		return nil, arena.ErrMissingPopcountIndex
	}

	n := a.Len()
	indices := make([][]int, n)
	scores := make([][]float64, n)
	if k == 0 || n < 2 {
		return results.New(indices, scores, a.IDs(), a.IDs()), nil
	}

	t := s.target(a)
	p := s.plan(n)
	rows := make([][]*topK, p.workers)
	for w := range rows {
		rows[w] = make([]*topK, n)
	}
	push := func(heaps []*topK, row, slot int, score float64) {
		h := heaps[row]
		if h == nil {
			h = newTopK(k)
			heaps[row] = h
		}
		h.push(slot, score)
	}

	idx := make([][]int, p.workers)
	sc := make([][]float64, p.workers)
	err := p.run(ctx, func(w, lo, hi int) {
		heaps := rows[w]
		for i := lo; i < hi; i++ {
			idx[w], sc[w] = t.threshold(t.slot(i), t.symmetricPopcount(i), threshold, i, idx[w][:0], sc[w][:0])
			for m, j := range idx[w] {
				push(heaps, i, j, sc[w][m])
				push(heaps, j, i, sc[w][m])
			}
		}
	})
	if err != nil {
		return nil, err
	}

	merged := make([]*topK, p.workers)
	for w := range merged {
		merged[w] = newTopK(k)
	}
	err = p.run(ctx, func(w, lo, hi int) {
		heap := merged[w]
		for i := lo; i < hi; i++ {
			heap.reset(k)
			for _, heaps := range rows {
				if h := heaps[i]; h != nil {
					heap.merge(h)
				}
			}
			indices[i], scores[i] = heap.drain()
		}
	})
	if err != nil {
		return nil, err
	}
	return results.New(indices, scores, a.IDs(), a.IDs()), nil
}

// symmetricPopcount returns the popcount of slot i from the index.
func (t *target) symmetricPopcount(i int) int {
	// The first bucket whose end lies beyond i.
	return sort.Search(len(t.index)-1, func(p int) bool { return t.index[p+1] > i })
}
