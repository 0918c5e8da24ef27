package fpsim

import (
	"context"
	"iter"
	"runtime"
	"time"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/internal/resource"
	"github.com/hupe1980/fpsim/metadata"
	"github.com/hupe1980/fpsim/results"
)

// Batch is the answer for one batch of queries.
type Batch struct {
	// Index counts batches from zero.
	Index int
	// Offset is the position of the batch's first query in the query source.
	Offset int
	// Queries holds the batch's query fingerprints.
	Queries *arena.Arena
	// Counts is set by count searches.
	Counts []int
	// Results is set by threshold and k-nearest searches. Row i answers
	// query Offset+i.
	Results *results.SearchResults
}

type batchFunc func(queries *arena.Arena) (b Batch, hits int, err error)

// Stream delivers the batches of a search over a query source.
//
// The first batch is searched before the Stream is returned, so
// incompatible inputs and bad parameters fail at the call. Later batches are
// read and searched on demand. A Stream is single-use and not safe for
// concurrent use.
//
// A batch holds its share of the engine's memory limit only while it is
// searched, so a Stream that is dropped without Close never blocks other
// searches. Its pending reader is stopped once the Stream is collected.
type Stream struct {
	*streamState

	first   *Batch
	next    func() (Batch, error, bool)
	stop    func()
	cleanup runtime.Cleanup

	used   bool
	closed bool
}

// streamState is shared with the batch iterator. It must not point back to
// the Stream, or a dropped Stream would never be collected.
type streamState struct {
	e    *Engine
	ctx  context.Context
	kind string

	warnings []metadata.Warning
	progress *resource.Progress

	start time.Time
	hits  int
	err   error
}

func (e *Engine) stream(ctx context.Context, kind string, queries arena.Source, targets *arena.Arena, run batchFunc) (*Stream, error) {
	st := &streamState{e: e, ctx: ctx, kind: kind, start: time.Now()}
	st.progress = resource.NewProgress(e.progressInterval, func(done int64) {
		e.logger.InfoContext(ctx, "search progress", "kind", kind, "queries", done)
	})

	s := &Stream{streamState: st}
	s.next, s.stop = iter.Pull2(st.batches(queries, targets, run))
	s.cleanup = runtime.AddCleanup(s, func(stop func()) { stop() }, s.stop)

	b, err, ok := s.next()
	if err != nil {
		s.err = err
		s.Close()
		return nil, err
	}
	if ok {
		s.first = &b
	}
	return s, nil
}

func (st *streamState) batches(queries arena.Source, targets *arena.Arena, run batchFunc) iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		i, offset := 0, 0
		for a, err := range queries.Arenas(st.e.batchSize, st.e.ArenaOptions()...) {
			if err != nil {
				yield(Batch{}, err)
				return
			}
			if i == 0 {
				w, err := metadata.CheckCompatible(a.Metadata(), targets.Metadata())
				if err != nil {
					yield(Batch{}, err)
					return
				}
				st.warnings = w
				st.e.logger.LogWarnings(st.ctx, w)
			}

			size := int64(len(a.Storage()))
			if err := st.e.rc.WaitMemory(st.ctx, size); err != nil {
				yield(Batch{}, err)
				return
			}
			start := time.Now()
			b, hits, err := run(a)
			st.e.rc.ReleaseMemory(size)
			if err != nil {
				yield(Batch{}, err)
				return
			}
			d := time.Since(start)
			b.Index, b.Offset, b.Queries = i, offset, a
			st.hits += hits
			st.e.metrics.RecordBatch(a.Len(), d)
			st.e.logger.LogBatch(st.ctx, st.kind, i, a.Len(), d)
			st.progress.Add(a.Len())

			if !yield(b, nil) {
				return
			}
			i++
			offset += a.Len()
		}
	}
}

// Warnings returns the metadata differences found between queries and
// targets. They are also logged at warn level.
func (s *Stream) Warnings() []metadata.Warning { return s.warnings }

// All iterates the batches. It consumes the stream and closes it when the
// loop ends.
func (s *Stream) All() iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		if s.used || s.closed {
			yield(Batch{}, ErrStreamConsumed)
			return
		}
		s.used = true
		defer s.Close()

		if s.first == nil {
			return
		}
		first := *s.first
		s.first = nil
		if !yield(first, nil) {
			return
		}
		for {
			b, err, ok := s.next()
			if !ok {
				return
			}
			if err != nil {
				s.err = err
				yield(Batch{}, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Counts consumes the stream and returns the hit count of every query.
func (s *Stream) Counts() ([]int, error) {
	var out []int
	for b, err := range s.All() {
		if err != nil {
			return nil, err
		}
		if b.Results != nil {
			out = append(out, b.Results.Counts()...)
		} else {
			out = append(out, b.Counts...)
		}
	}
	return out, nil
}

// Results consumes the stream and merges its batches into one result set.
func (s *Stream) Results() (*results.SearchResults, error) {
	offsets := []int{0}
	var (
		indices   []int
		scores    []float64
		queryIDs  []string
		targetIDs []string
	)
	for b, err := range s.All() {
		if err != nil {
			return nil, err
		}
		if b.Results == nil {
			return nil, ErrNoResults
		}
		o, idx, sc := b.Results.CSR()
		base := len(indices)
		for _, x := range o[1:] {
			offsets = append(offsets, base+x)
		}
		indices = append(indices, idx...)
		scores = append(scores, sc...)
		queryIDs = append(queryIDs, b.Results.QueryIDs()...)
		targetIDs = b.Results.TargetIDs()
	}
	return results.FromCSR(offsets, indices, scores, targetIDs, queryIDs)
}

// Close stops the stream. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.first = nil
	s.cleanup.Stop()
	s.stop()

	d := time.Since(s.start)
	queries := int(s.progress.Done())
	s.e.metrics.RecordSearch(s.kind, queries, s.hits, d, s.err)
	s.e.logger.LogSearch(s.ctx, s.kind, queries, s.hits, d, s.err)
	return nil
}

// CountTanimotoHits counts, for every query, the targets scoring at least
// threshold.
func (e *Engine) CountTanimotoHits(ctx context.Context, queries arena.Source, targets *arena.Arena, threshold float64) (*Stream, error) {
	return e.stream(ctx, "count", queries, targets, func(q *arena.Arena) (Batch, int, error) {
		counts, err := e.searcher.CountTanimotoHits(ctx, q, targets, threshold)
		return Batch{Counts: counts}, sum(counts), err
	})
}

// ThresholdTanimotoSearch finds, for every query, the targets scoring at
// least threshold.
func (e *Engine) ThresholdTanimotoSearch(ctx context.Context, queries arena.Source, targets *arena.Arena, threshold float64) (*Stream, error) {
	return e.stream(ctx, "threshold", queries, targets, func(q *arena.Arena) (Batch, int, error) {
		r, err := e.searcher.ThresholdTanimotoSearch(ctx, q, targets, threshold)
		if err != nil {
			return Batch{}, 0, err
		}
		return Batch{Results: r}, r.TotalHits(), nil
	})
}

// KNearestTanimotoSearch finds, for every query, the k best targets scoring
// at least threshold.
func (e *Engine) KNearestTanimotoSearch(ctx context.Context, queries arena.Source, targets *arena.Arena, k int, threshold float64) (*Stream, error) {
	return e.stream(ctx, "knearest", queries, targets, func(q *arena.Arena) (Batch, int, error) {
		r, err := e.searcher.KNearestTanimotoSearch(ctx, q, targets, k, threshold)
		if err != nil {
			return Batch{}, 0, err
		}
		return Batch{Results: r}, r.TotalHits(), nil
	})
}
