package search

import (
	"context"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/metadata"
	"github.com/hupe1980/fpsim/results"
)

// queryArena wraps one fingerprint as a one-slot query arena.
func queryArena(fp []byte, targets *arena.Arena) (*arena.Arena, error) {
	if targets.Len() > 0 && len(fp) != targets.NumBytes() {
		return nil, &arena.LengthError{Got: len(fp), Want: targets.NumBytes()}
	}
	return arena.FromFingerprint("", fp,
		arena.WithAlignment(1),
		arena.WithMetadata(metadata.Metadata{NumBits: targets.NumBits()}),
	)
}

// CountTanimotoHitsFP counts the targets scoring at least threshold against
// one fingerprint.
func (s *Searcher) CountTanimotoHitsFP(ctx context.Context, fp []byte, targets *arena.Arena, threshold float64) (int, error) {
	if err := checkThreshold(threshold); err != nil {
		return 0, err
	}
	q, err := queryArena(fp, targets)
	if err != nil {
		return 0, err
	}
	counts, err := s.CountTanimotoHits(ctx, q, targets, threshold)
	if err != nil {
		return 0, err
	}
	return counts[0], nil
}

// ThresholdTanimotoSearchFP returns the targets scoring at least threshold
// against one fingerprint.
func (s *Searcher) ThresholdTanimotoSearchFP(ctx context.Context, fp []byte, targets *arena.Arena, threshold float64) (results.Row, error) {
	if err := checkThreshold(threshold); err != nil {
		return results.Row{}, err
	}
	q, err := queryArena(fp, targets)
	if err != nil {
		return results.Row{}, err
	}
	r, err := s.ThresholdTanimotoSearch(ctx, q, targets, threshold)
	if err != nil {
		return results.Row{}, err
	}
	return r.Row(0), nil
}

// KNearestTanimotoSearchFP returns the k best targets scoring at least
// threshold against one fingerprint, best first.
func (s *Searcher) KNearestTanimotoSearchFP(ctx context.Context, fp []byte, targets *arena.Arena, k int, threshold float64) (results.Row, error) {
	if err := checkK(k); err != nil {
		return results.Row{}, err
	}
	if err := checkThreshold(threshold); err != nil {
		return results.Row{}, err
	}
	q, err := queryArena(fp, targets)
	if err != nil {
		return results.Row{}, err
	}
	r, err := s.KNearestTanimotoSearch(ctx, q, targets, k, threshold)
	if err != nil {
		return results.Row{}, err
	}
	return r.Row(0), nil
}
