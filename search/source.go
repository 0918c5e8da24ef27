package search

import (
	"context"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/metadata"
	"github.com/hupe1980/fpsim/results"
)

// The Source forms search targets that need not be in memory. A source with
// a popcount index is read as one arena and searched with pruning. Any other
// source, such as an FPS reader, is read batchSize fingerprints at a time
// and every batch is scanned linearly, so only one batch is held at once.
// Target slots in the results count from the start of the source.

// CountTanimotoHitsSource returns, for every query slot, the number of
// targets of src scoring at least threshold.
func (s *Searcher) CountTanimotoHitsSource(ctx context.Context, queries *arena.Arena, src arena.Source, threshold float64, batchSize int) ([]int, error) {
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}

	counts := make([]int, queries.Len())
	_, err := s.eachTarget(ctx, queries, src, batchSize, func(batch *arena.Arena, _ int) error {
		c, err := s.CountTanimotoHits(ctx, queries, batch, threshold)
		if err != nil {
			return err
		}
		for i, n := range c {
			counts[i] += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// ThresholdTanimotoSearchSource returns, for every query slot, all targets
// of src scoring at least threshold, in source order.
func (s *Searcher) ThresholdTanimotoSearchSource(ctx context.Context, queries *arena.Arena, src arena.Source, threshold float64, batchSize int) (*results.SearchResults, error) {
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}

	n := queries.Len()
	indices := make([][]int, n)
	scores := make([][]float64, n)
	ids, err := s.eachTarget(ctx, queries, src, batchSize, func(batch *arena.Arena, offset int) error {
		r, err := s.ThresholdTanimotoSearch(ctx, queries, batch, threshold)
		if err != nil {
			return err
		}
		for i := range n {
			idx, sc := r.Row(i).IndicesAndScores()
			for m, j := range idx {
				indices[i] = append(indices[i], offset+j)
				scores[i] = append(scores[i], sc[m])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results.New(indices, scores, ids, queries.IDs()), nil
}

// KNearestTanimotoSearchSource returns, for every query slot, the k best
// targets of src scoring at least threshold, best first. The k best of each
// batch are merged into one bounded heap per query.
func (s *Searcher) KNearestTanimotoSearchSource(ctx context.Context, queries *arena.Arena, src arena.Source, k int, threshold float64, batchSize int) (*results.SearchResults, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := checkThreshold(threshold); err != nil {
		return nil, err
	}

	n := queries.Len()
	heaps := make([]*topK, n)
	for i := range heaps {
		heaps[i] = newTopK(k)
	}
	ids, err := s.eachTarget(ctx, queries, src, batchSize, func(batch *arena.Arena, offset int) error {
		r, err := s.KNearestTanimotoSearch(ctx, queries, batch, k, threshold)
		if err != nil {
			return err
		}
		for i, heap := range heaps {
			idx, sc := r.Row(i).IndicesAndScores()
			for m, j := range idx {
				heap.push(offset+j, sc[m])
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	indices := make([][]int, n)
	scores := make([][]float64, n)
	for i, heap := range heaps {
		indices[i], scores[i] = heap.drain()
	}
	return results.New(indices, scores, ids, queries.IDs()), nil
}

// eachTarget calls fn for every target arena read from src, with the source
// position of its first slot, and returns the identifiers of all targets.
func (s *Searcher) eachTarget(ctx context.Context, queries *arena.Arena, src arena.Source, batchSize int, fn func(batch *arena.Arena, offset int) error) ([]string, error) {
	if _, err := metadata.CheckCompatible(queries.Metadata(), src.Metadata()); err != nil {
		return nil, err
	}
	if src.HasPopcountIndex() {
		batchSize = 0
	}

	var ids []string
	offset := 0
	for batch, err := range src.Arenas(batchSize, arena.WithPopcountConfig(s.pc)) {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := fn(batch, offset); err != nil {
			return nil, err
		}
		ids = append(ids, batch.IDs()...)
		offset += batch.Len()
	}
	return ids, nil
}
