package search

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/metadata"
	"github.com/hupe1980/fpsim/results"
	"github.com/hupe1980/fpsim/testutil"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func loadArena(t testing.TB, ids []string, fps [][]byte, opts ...arena.Option) *arena.Arena {
	t.Helper()
	records := make([]arena.Record, len(fps))
	for i := range fps {
		records[i] = arena.Record{ID: ids[i], Fingerprint: fps[i]}
	}
	a, err := arena.FromRecords(records, opts...)
	require.NoError(t, err)
	return a
}

func newSearcher(t testing.TB, threads int) *Searcher {
	t.Helper()
	s, err := New(WithThreads(threads))
	require.NoError(t, err)
	return s
}

func deadbeefTargets(t *testing.T, reorder bool) *arena.Arena {
	ids := []string{"zeros", "bit1", "two_bits", "several", "deadbeef", "DEADdead", "Deaf Beef"}
	hexes := []string{"00000000", "01000000", "03000000", "0f0f0f0f", "deadbeef", "deaddead", "deafbeef"}
	fps := make([][]byte, len(hexes))
	for i, h := range hexes {
		fps[i] = mustHex(t, h)
	}
	return loadArena(t, ids, fps, arena.WithReorder(reorder))
}

func TestDeadbeefScenario(t *testing.T) {
	ctx := context.Background()
	s := newSearcher(t, 2)
	query := mustHex(t, "deadbeef")

	for _, reorder := range []bool{true, false} {
		t.Run(fmt.Sprintf("reorder=%v", reorder), func(t *testing.T) {
			targets := deadbeefTargets(t, reorder)

			n, err := s.CountTanimotoHitsFP(ctx, query, targets, 0.7)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			row, err := s.KNearestTanimotoSearchFP(ctx, query, targets, 5, 0.7)
			require.NoError(t, err)
			ids, scores, err := row.IDsAndScores()
			require.NoError(t, err)
			assert.Equal(t, []string{"deadbeef", "Deaf Beef", "DEADdead"}, ids)
			require.Len(t, scores, 3)
			assert.Equal(t, 1.0, scores[0])
			assert.InDelta(t, 0.96, scores[1], 1e-9)
			assert.InDelta(t, 0.84, scores[2], 1e-9)

			row, err = s.ThresholdTanimotoSearchFP(ctx, query, targets, 0.7)
			require.NoError(t, err)
			ids, err = row.IDs()
			require.NoError(t, err)
			slices.Sort(ids)
			assert.Equal(t, []string{"DEADdead", "Deaf Beef", "deadbeef"}, ids)
		})
	}
}

func TestSymmetricSixScenario(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "zero"}
	fps := [][]byte{
		mustHex(t, "0f000000"),
		mustHex(t, "00f00000"),
		mustHex(t, "0f000000"),
		mustHex(t, "0000ff00"),
		mustHex(t, "000000f0"),
		mustHex(t, "00000000"),
	}
	a := loadArena(t, ids, fps, arena.WithReorder(true))
	s := newSearcher(t, 3)

	counts, err := s.CountTanimotoHitsSymmetric(context.Background(), a, 0.5)
	require.NoError(t, err)

	byID := map[string]int{}
	for i, c := range counts {
		byID[a.ID(i)] = c
	}
	assert.Equal(t, map[string]int{"a": 1, "c": 1, "b": 0, "d": 0, "e": 0, "zero": 0}, byID)
}

type oracleCase struct {
	numBytes int
	reorder  bool
	threads  int
}

func oracleCases() []oracleCase {
	var cases []oracleCase
	for _, numBytes := range []int{1, 4, 21, 128, 256} {
		for _, reorder := range []bool{true, false} {
			for _, threads := range []int{1, 4} {
				cases = append(cases, oracleCase{numBytes, reorder, threads})
			}
		}
	}
	return cases
}

var thresholds = []float64{0, 0.2, 0.5, 0.7, 0.9, 1}

// origIndex maps target slots back to generation order via the "t<n>" ids.
func origIndex(a *arena.Arena) []int {
	out := make([]int, a.Len())
	for i := range out {
		_, err := fmt.Sscanf(a.ID(i), "t%d", &out[i])
		if err != nil {
			panic(err)
		}
	}
	return out
}

func TestSearchMatchesBruteForce(t *testing.T) {
	ctx := context.Background()
	for _, tc := range oracleCases() {
		t.Run(fmt.Sprintf("bytes=%d/reorder=%v/threads=%d", tc.numBytes, tc.reorder, tc.threads), func(t *testing.T) {
			rng := testutil.NewRNG(int64(tc.numBytes))
			targetFPs := rng.Fingerprints(300, tc.numBytes)
			queryFPs := make([][]byte, 40)
			for i := range queryFPs {
				if i%2 == 0 {
					queryFPs[i] = rng.Mutate(targetFPs[rng.Intn(len(targetFPs))], 1+i%5)
				} else {
					queryFPs[i] = rng.Fingerprint(tc.numBytes, rng.Float64())
				}
			}

			targets := loadArena(t, testutil.IDs("t", len(targetFPs)), targetFPs, arena.WithReorder(tc.reorder))
			queries := loadArena(t, testutil.IDs("q", len(queryFPs)), queryFPs, arena.WithAlignment(1))
			orig := origIndex(targets)
			s := newSearcher(t, tc.threads)

			for _, th := range thresholds {
				want := testutil.BruteForce(queryFPs, targetFPs, th)

				counts, err := s.CountTanimotoHits(ctx, queries, targets, th)
				require.NoError(t, err)
				hits, err := s.ThresholdTanimotoSearch(ctx, queries, targets, th)
				require.NoError(t, err)
				require.Equal(t, len(queryFPs), hits.Len())

				for i := range queryFPs {
					require.Equal(t, len(want[i]), counts[i], "count q=%d t=%v", i, th)

					got := map[int]float64{}
					for h := range hits.Row(i).Hits() {
						got[orig[h.Index]] = h.Score
					}
					wantSet := map[int]float64{}
					for _, m := range want[i] {
						wantSet[m.Index] = m.Score
					}
					require.Equal(t, wantSet, got, "threshold q=%d t=%v", i, th)
					assert.Equal(t, counts[i], hits.Row(i).Len())
				}

				for _, k := range []int{0, 1, 3, 10} {
					knn, err := s.KNearestTanimotoSearch(ctx, queries, targets, k, th)
					require.NoError(t, err)
					for i := range queryFPs {
						scores := knn.Row(i).Scores()
						require.LessOrEqual(t, len(scores), k)
						assert.True(t, slices.IsSortedFunc(scores, func(a, b float64) int {
							return -cmpFloat(a, b)
						}), "scores not decreasing: %v", scores)

						top := testutil.TopK(want[i], k)
						wantScores := make([]float64, len(top))
						for j, m := range top {
							wantScores[j] = m.Score
						}
						require.Equal(t, wantScores, scores, "knearest q=%d k=%d t=%v", i, k, th)
						for _, idx := range knn.Row(i).Indices() {
							assert.Equal(t, testutil.Tanimoto(queryFPs[i], targetFPs[orig[idx]]), scoreOf(knn.Row(i), idx))
						}
					}
				}
			}
		})
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func scoreOf(row results.Row, idx int) float64 {
	for h := range row.Hits() {
		if h.Index == idx {
			return h.Score
		}
	}
	return math.NaN()
}

func TestSymmetricMatchesBruteForce(t *testing.T) {
	ctx := context.Background()
	for _, numBytes := range []int{4, 21, 128} {
		for _, threads := range []int{1, 3} {
			t.Run(fmt.Sprintf("bytes=%d/threads=%d", numBytes, threads), func(t *testing.T) {
				rng := testutil.NewRNG(int64(100 + numBytes))
				fps := rng.Fingerprints(250, numBytes)
				a := loadArena(t, testutil.IDs("t", len(fps)), fps, arena.WithReorder(true))

				slots := make([][]byte, a.Len())
				for i := range slots {
					slots[i] = a.Fingerprint(i)
				}
				s := newSearcher(t, threads)

				for _, th := range thresholds {
					want := testutil.BruteForceSymmetric(slots, th)

					counts, err := s.CountTanimotoHitsSymmetric(ctx, a, th)
					require.NoError(t, err)
					hits, err := s.ThresholdTanimotoSearchSymmetric(ctx, a, th)
					require.NoError(t, err)

					for i := range slots {
						require.Equal(t, len(want[i]), counts[i], "count row=%d t=%v", i, th)

						got := map[int]float64{}
						for h := range hits.Row(i).Hits() {
							got[h.Index] = h.Score
						}
						require.NotContains(t, got, i)
						wantSet := map[int]float64{}
						for _, m := range want[i] {
							wantSet[m.Index] = m.Score
						}
						require.Equal(t, wantSet, got, "threshold row=%d t=%v", i, th)
					}

					for _, k := range []int{1, 5} {
						knn, err := s.KNearestTanimotoSearchSymmetric(ctx, a, k, th)
						require.NoError(t, err)
						for i := range slots {
							assert.NotContains(t, knn.Row(i).Indices(), i)
							top := testutil.TopK(want[i], k)
							wantScores := make([]float64, len(top))
							for j, m := range top {
								wantScores[j] = m.Score
							}
							require.Equal(t, wantScores, knn.Row(i).Scores(), "knearest row=%d k=%d t=%v", i, k, th)
						}
					}
				}
			})
		}
	}
}

// With k at least the row length, the mirrored heaps must return every
// hit of the threshold form, whatever the worker split.
func TestSymmetricKNearestMirrorsAllPairs(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(77)
	fps := rng.Fingerprints(120, 8)
	a := loadArena(t, testutil.IDs("t", len(fps)), fps, arena.WithReorder(true))

	for _, threads := range []int{1, 2, 5} {
		s := newSearcher(t, threads)
		for _, th := range []float64{0, 0.3, 0.6} {
			hits, err := s.ThresholdTanimotoSearchSymmetric(ctx, a, th)
			require.NoError(t, err)
			knn, err := s.KNearestTanimotoSearchSymmetric(ctx, a, a.Len(), th)
			require.NoError(t, err)

			for i := range a.Len() {
				want := map[int]float64{}
				for h := range hits.Row(i).Hits() {
					want[h.Index] = h.Score
				}
				got := map[int]float64{}
				for h := range knn.Row(i).Hits() {
					got[h.Index] = h.Score
				}
				require.Equal(t, want, got, "row=%d threads=%d t=%v", i, threads, th)
				assert.True(t, slices.IsSortedFunc(knn.Row(i).Scores(), func(a, b float64) int {
					return -cmpFloat(a, b)
				}))
			}
		}
	}
}

func TestSymmetricExcludesDuplicates(t *testing.T) {
	fp := mustHex(t, "ff00ff00")
	a := loadArena(t, []string{"x", "y", "z"}, [][]byte{fp, fp, fp}, arena.WithReorder(true))
	s := newSearcher(t, 2)
	ctx := context.Background()

	counts, err := s.CountTanimotoHitsSymmetric(ctx, a, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, counts)

	knn, err := s.KNearestTanimotoSearchSymmetric(ctx, a, 5, 1)
	require.NoError(t, err)
	for i := range 3 {
		assert.NotContains(t, knn.Row(i).Indices(), i)
		assert.Equal(t, []float64{1, 1}, knn.Row(i).Scores())
	}
}

func TestSymmetricRequiresIndex(t *testing.T) {
	a := loadArena(t, []string{"a", "b"}, [][]byte{{1}, {2}})
	s := newSearcher(t, 1)
	ctx := context.Background()

	_, err := s.CountTanimotoHitsSymmetric(ctx, a, 0.5)
	assert.ErrorIs(t, err, arena.ErrMissingPopcountIndex)
	_, err = s.ThresholdTanimotoSearchSymmetric(ctx, a, 0.5)
	assert.ErrorIs(t, err, arena.ErrMissingPopcountIndex)
	_, err = s.KNearestTanimotoSearchSymmetric(ctx, a, 3, 0.5)
	assert.ErrorIs(t, err, arena.ErrMissingPopcountIndex)
}

func TestSingleMatchesBatch(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(77)
	fps := rng.Fingerprints(200, 32)
	targets := loadArena(t, testutil.IDs("t", len(fps)), fps, arena.WithReorder(true))
	s := newSearcher(t, 4)

	for i := range 20 {
		fp := rng.Mutate(fps[i*7], 4)
		q := loadArena(t, []string{"q"}, [][]byte{fp})

		n, err := s.CountTanimotoHitsFP(ctx, fp, targets, 0.4)
		require.NoError(t, err)
		counts, err := s.CountTanimotoHits(ctx, q, targets, 0.4)
		require.NoError(t, err)
		assert.Equal(t, counts[0], n)

		row, err := s.ThresholdTanimotoSearchFP(ctx, fp, targets, 0.4)
		require.NoError(t, err)
		batch, err := s.ThresholdTanimotoSearch(ctx, q, targets, 0.4)
		require.NoError(t, err)
		assert.Equal(t, batch.Row(0).Indices(), row.Indices())
		assert.Equal(t, batch.Row(0).Scores(), row.Scores())

		row, err = s.KNearestTanimotoSearchFP(ctx, fp, targets, 5, 0.2)
		require.NoError(t, err)
		batch, err = s.KNearestTanimotoSearch(ctx, q, targets, 5, 0.2)
		require.NoError(t, err)
		assert.Equal(t, batch.Row(0).Indices(), row.Indices())
		assert.Equal(t, batch.Row(0).Scores(), row.Scores())
	}
}

func TestParameterErrors(t *testing.T) {
	ctx := context.Background()
	targets := deadbeefTargets(t, true)
	s := newSearcher(t, 1)
	fp := mustHex(t, "deadbeef")

	for _, th := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		_, err := s.CountTanimotoHits(ctx, targets, targets, th)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
		_, err = s.ThresholdTanimotoSearchFP(ctx, fp, targets, th)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
		_, err = s.CountTanimotoHitsSymmetric(ctx, targets, th)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	}

	_, err := s.KNearestTanimotoSearch(ctx, targets, targets, -1, 0.5)
	assert.ErrorIs(t, err, ErrInvalidK)
	_, err = s.KNearestTanimotoSearchFP(ctx, fp, targets, -1, 0.5)
	assert.ErrorIs(t, err, ErrInvalidK)
	_, err = s.KNearestTanimotoSearchSymmetric(ctx, targets, -1, 0.5)
	assert.ErrorIs(t, err, ErrInvalidK)

	knn, err := s.KNearestTanimotoSearch(ctx, targets, targets, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, targets.Len(), knn.Len())
	assert.Equal(t, 0, knn.TotalHits())

	_, err = New(WithThreads(0))
	assert.ErrorIs(t, err, ErrInvalidThreads)
}

func TestCompatibilityErrors(t *testing.T) {
	ctx := context.Background()
	targets := deadbeefTargets(t, true)
	s := newSearcher(t, 1)

	_, err := s.CountTanimotoHitsFP(ctx, []byte{0xde, 0xad}, targets, 0.5)
	var lerr *arena.LengthError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 2, lerr.Got)
	assert.Equal(t, 4, lerr.Want)

	queries := loadArena(t, []string{"q"}, [][]byte{{1, 2, 3, 4, 5, 6, 7, 8}})
	_, err = s.ThresholdTanimotoSearch(ctx, queries, targets, 0.5)
	var merr *metadata.MismatchError
	require.ErrorAs(t, err, &merr)
	assert.ErrorIs(t, err, metadata.ErrIncompatible)
	assert.Equal(t, "num_bits", merr.Field)
}

func TestEmptyArenas(t *testing.T) {
	ctx := context.Background()
	s := newSearcher(t, 2)
	empty, err := arena.FromRecords(nil, arena.WithMetadata(metadata.Metadata{NumBits: 32}), arena.WithReorder(true))
	require.NoError(t, err)
	targets := deadbeefTargets(t, true)

	counts, err := s.CountTanimotoHits(ctx, empty, targets, 0.5)
	require.NoError(t, err)
	assert.Empty(t, counts)

	n, err := s.CountTanimotoHitsFP(ctx, mustHex(t, "deadbeef"), empty, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	sym, err := s.ThresholdTanimotoSearchSymmetric(ctx, empty, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, sym.Len())
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	targets := deadbeefTargets(t, true)
	s := newSearcher(t, 2)
	_, err := s.CountTanimotoHits(ctx, targets, targets, 0.5)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.KNearestTanimotoSearchSymmetric(ctx, targets, 2, 0.5)
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkKNearest(b *testing.B) {
	rng := testutil.NewRNG(1)
	fps := rng.Fingerprints(20000, 128)
	targets := loadArena(b, testutil.IDs("t", len(fps)), fps, arena.WithReorder(true))
	queries, err := targets.Slice(0, 100)
	require.NoError(b, err)
	s := newSearcher(b, 4)
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		_, _ = s.KNearestTanimotoSearch(ctx, queries, targets, 10, 0.7)
	}
}
