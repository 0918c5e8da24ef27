package fpsim

import (
	"context"
	"fmt"
	"io"
	"iter"
	"runtime"
	"time"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/internal/resource"
	"github.com/hupe1980/fpsim/metadata"
	"github.com/hupe1980/fpsim/popcount"
	"github.com/hupe1980/fpsim/results"
	"github.com/hupe1980/fpsim/search"
)

// Engine is the entry point for loading fingerprints and running searches.
//
// An Engine is immutable after New and safe for concurrent use; any number of
// searches may share it and its target arenas.
type Engine struct {
	searcher  *search.Searcher
	pc        *popcount.Config
	timings   []popcount.Timing
	alignment int
	batchSize int

	rc               *resource.Controller
	progressInterval time.Duration

	logger  *Logger
	metrics MetricsCollector
}

// New creates an Engine. Invalid configuration is reported here, never at
// search time.
func New(opts ...Option) (*Engine, error) {
	o := applyOptions(opts)

	maxThreads := runtime.NumCPU()
	if o.threads == 0 {
		o.threads = min(runtime.GOMAXPROCS(0), maxThreads)
	}
	if o.threads < 1 || o.threads > maxThreads {
		return nil, &ThreadsError{Threads: o.threads, Max: maxThreads}
	}
	if o.batchSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, o.batchSize)
	}
	if o.alignment != 0 {
		if err := arena.ValidateAlignment(o.alignment); err != nil {
			return nil, err
		}
	}

	pc := o.popcount
	if pc == nil {
		pc = popcount.NewConfig()
	}

	e := &Engine{
		pc:               pc,
		alignment:        o.alignment,
		batchSize:        o.batchSize,
		progressInterval: o.progressInterval,
		logger:           o.logger,
		metrics:          o.metricsCollector,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   o.memoryLimit,
			IOLimitBytesPerSec: o.ioLimit,
		}),
	}

	if o.autoSelect {
		e.timings = popcount.AutoSelect(pc)
		e.logger.Debug("popcount methods selected", "selection", pc.String())
	}

	s, err := search.New(search.WithThreads(o.threads), search.WithPopcountConfig(pc))
	if err != nil {
		return nil, err
	}
	e.searcher = s
	return e, nil
}

// Threads returns the worker count per search.
func (e *Engine) Threads() int { return e.searcher.Threads() }

// PopcountConfig returns the popcount method selection.
func (e *Engine) PopcountConfig() *popcount.Config { return e.pc }

// Timings returns the measurements of WithAutoSelect, or nil.
func (e *Engine) Timings() []popcount.Timing { return e.timings }

// BatchSize returns the query batch size of streams.
func (e *Engine) BatchSize() int { return e.batchSize }

// Searcher returns the underlying searcher.
func (e *Engine) Searcher() *search.Searcher { return e.searcher }

// MemoryUsage returns the bytes of query batches currently being searched.
func (e *Engine) MemoryUsage() int64 { return e.rc.MemoryUsage() }

// ArenaOptions returns the build options for arenas created by the engine.
func (e *Engine) ArenaOptions(extra ...arena.Option) []arena.Option {
	opts := []arena.Option{arena.WithPopcountConfig(e.pc)}
	if e.alignment != 0 {
		opts = append(opts, arena.WithAlignment(e.alignment))
	}
	return append(opts, extra...)
}

// LimitReader applies the engine's IO limit to r.
func (e *Engine) LimitReader(ctx context.Context, r io.Reader) io.ReadCloser {
	return resource.NewRateLimitedReader(ctx, r, e.rc)
}

// Load reads records into an arena, sorted by popcount when reorder is set.
func (e *Engine) Load(ctx context.Context, records iter.Seq2[arena.Record, error], reorder bool) (*arena.Arena, error) {
	start := time.Now()
	a, err := arena.Load(records, e.ArenaOptions(arena.WithReorder(reorder))...)
	return e.observeLoad(ctx, a, reorder, start, err)
}

// LoadArena materializes a source as one arena, popcount-sorted when
// reorder is set. A source that already has a popcount index, such as a
// sorted arena or FPB file, is returned without a copy.
func (e *Engine) LoadArena(ctx context.Context, src arena.Source, reorder bool) (*arena.Arena, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needSort := reorder && !src.HasPopcountIndex()

	start := time.Now()
	var out *arena.Arena
	for a, err := range src.Arenas(0, e.ArenaOptions(arena.WithReorder(needSort))...) {
		if err != nil {
			return e.observeLoad(ctx, nil, needSort, start, err)
		}
		out = a
	}
	// Arena sources ignore build options.
	if needSort && out != nil && !out.HasPopcountIndex() {
		out = arena.ReorderByPopcount(out)
	}
	return e.observeLoad(ctx, out, needSort, start, nil)
}

func (e *Engine) observeLoad(ctx context.Context, a *arena.Arena, reorder bool, start time.Time, err error) (*arena.Arena, error) {
	d := time.Since(start)
	n := 0
	if a != nil {
		n = a.Len()
	}
	e.metrics.RecordLoad(n, d, err)
	e.logger.LogLoad(ctx, n, reorder, d, err)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// observe times a non-streaming search and reports it.
func (e *Engine) observe(ctx context.Context, kind string, queries int, run func() (hits int, err error)) error {
	start := time.Now()
	hits, err := run()
	d := time.Since(start)
	e.metrics.RecordSearch(kind, queries, hits, d, err)
	e.logger.LogSearch(ctx, kind, queries, hits, d, err)
	return err
}

func sum(counts []int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

// CountTanimotoHitsFP counts the targets scoring at least threshold against
// one fingerprint.
func (e *Engine) CountTanimotoHitsFP(ctx context.Context, fp []byte, targets *arena.Arena, threshold float64) (int, error) {
	var n int
	err := e.observe(ctx, "count-fp", 1, func() (int, error) {
		var err error
		n, err = e.searcher.CountTanimotoHitsFP(ctx, fp, targets, threshold)
		return n, err
	})
	return n, err
}

// ThresholdTanimotoSearchFP returns the targets scoring at least threshold
// against one fingerprint.
func (e *Engine) ThresholdTanimotoSearchFP(ctx context.Context, fp []byte, targets *arena.Arena, threshold float64) (results.Row, error) {
	var row results.Row
	err := e.observe(ctx, "threshold-fp", 1, func() (int, error) {
		var err error
		row, err = e.searcher.ThresholdTanimotoSearchFP(ctx, fp, targets, threshold)
		if err != nil {
			return 0, err
		}
		return row.Len(), nil
	})
	return row, err
}

// KNearestTanimotoSearchFP returns the k best targets scoring at least
// threshold against one fingerprint.
func (e *Engine) KNearestTanimotoSearchFP(ctx context.Context, fp []byte, targets *arena.Arena, k int, threshold float64) (results.Row, error) {
	var row results.Row
	err := e.observe(ctx, "knearest-fp", 1, func() (int, error) {
		var err error
		row, err = e.searcher.KNearestTanimotoSearchFP(ctx, fp, targets, k, threshold)
		if err != nil {
			return 0, err
		}
		return row.Len(), nil
	})
	return row, err
}

// SearchByID runs a k-nearest search for the fingerprint stored under id in
// targets. The fingerprint itself is part of the answer with score 1.0
// unless it is all zeros.
func (e *Engine) SearchByID(ctx context.Context, targets *arena.Arena, id string, k int, threshold float64) (results.Row, error) {
	slot, ok := targets.IndexOf(id)
	if !ok {
		return results.Row{}, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	return e.KNearestTanimotoSearchFP(ctx, targets.Fingerprint(slot), targets, k, threshold)
}

// CountTanimotoHitsSymmetric counts, for every fingerprint of a
// popcount-sorted arena, the other fingerprints scoring at least threshold.
func (e *Engine) CountTanimotoHitsSymmetric(ctx context.Context, a *arena.Arena, threshold float64) ([]int, error) {
	var counts []int
	err := e.observe(ctx, "count-symmetric", a.Len(), func() (int, error) {
		var err error
		counts, err = e.searcher.CountTanimotoHitsSymmetric(ctx, a, threshold)
		return sum(counts), err
	})
	return counts, err
}

// ThresholdTanimotoSearchSymmetric finds, for every fingerprint of a
// popcount-sorted arena, the other fingerprints scoring at least threshold.
func (e *Engine) ThresholdTanimotoSearchSymmetric(ctx context.Context, a *arena.Arena, threshold float64) (*results.SearchResults, error) {
	var r *results.SearchResults
	err := e.observe(ctx, "threshold-symmetric", a.Len(), func() (int, error) {
		var err error
		r, err = e.searcher.ThresholdTanimotoSearchSymmetric(ctx, a, threshold)
		if err != nil {
			return 0, err
		}
		return r.TotalHits(), nil
	})
	return r, err
}

// KNearestTanimotoSearchSymmetric finds, for every fingerprint of a
// popcount-sorted arena, the k best other fingerprints.
func (e *Engine) KNearestTanimotoSearchSymmetric(ctx context.Context, a *arena.Arena, k int, threshold float64) (*results.SearchResults, error) {
	var r *results.SearchResults
	err := e.observe(ctx, "knearest-symmetric", a.Len(), func() (int, error) {
		var err error
		r, err = e.searcher.KNearestTanimotoSearchSymmetric(ctx, a, k, threshold)
		if err != nil {
			return 0, err
		}
		return r.TotalHits(), nil
	})
	return r, err
}

// CountTanimotoHitsSource counts, for every query, the targets of src
// scoring at least threshold. A source without a popcount index is read in
// batches of the engine's batch size and scanned linearly, so it is never
// loaded whole.
func (e *Engine) CountTanimotoHitsSource(ctx context.Context, queries *arena.Arena, src arena.Source, threshold float64) ([]int, error) {
	e.logSourceWarnings(ctx, queries, src)
	var counts []int
	err := e.observe(ctx, "count-source", queries.Len(), func() (int, error) {
		var err error
		counts, err = e.searcher.CountTanimotoHitsSource(ctx, queries, src, threshold, e.batchSize)
		return sum(counts), err
	})
	return counts, err
}

// ThresholdTanimotoSearchSource finds, for every query, the targets of src
// scoring at least threshold.
func (e *Engine) ThresholdTanimotoSearchSource(ctx context.Context, queries *arena.Arena, src arena.Source, threshold float64) (*results.SearchResults, error) {
	e.logSourceWarnings(ctx, queries, src)
	var r *results.SearchResults
	err := e.observe(ctx, "threshold-source", queries.Len(), func() (int, error) {
		var err error
		r, err = e.searcher.ThresholdTanimotoSearchSource(ctx, queries, src, threshold, e.batchSize)
		if err != nil {
			return 0, err
		}
		return r.TotalHits(), nil
	})
	return r, err
}

// KNearestTanimotoSearchSource finds, for every query, the k best targets
// of src scoring at least threshold.
func (e *Engine) KNearestTanimotoSearchSource(ctx context.Context, queries *arena.Arena, src arena.Source, k int, threshold float64) (*results.SearchResults, error) {
	e.logSourceWarnings(ctx, queries, src)
	var r *results.SearchResults
	err := e.observe(ctx, "knearest-source", queries.Len(), func() (int, error) {
		var err error
		r, err = e.searcher.KNearestTanimotoSearchSource(ctx, queries, src, k, threshold, e.batchSize)
		if err != nil {
			return 0, err
		}
		return r.TotalHits(), nil
	})
	return r, err
}

func (e *Engine) logSourceWarnings(ctx context.Context, queries *arena.Arena, src arena.Source) {
	if w, err := metadata.CheckCompatible(queries.Metadata(), src.Metadata()); err == nil {
		e.logger.LogWarnings(ctx, w)
	}
}
