package search

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/fpsim/popcount"
)

const (
	chunksPerThread = 16
	maxChunk        = 256
)

// Searcher runs searches with a fixed popcount configuration and thread
// count. A Searcher is safe for concurrent use; kernels are resolved from
// the configuration once per call.
type Searcher struct {
	pc      *popcount.Config
	threads int
}

type options struct {
	pc      *popcount.Config
	threads int
}

// Option configures a Searcher.
type Option func(*options)

// WithPopcountConfig sets the kernel selection. Defaults to
// popcount.NewConfig().
func WithPopcountConfig(cfg *popcount.Config) Option {
	return func(o *options) {
		o.pc = cfg
	}
}

// WithThreads sets the number of worker goroutines per search. Defaults to
// runtime.GOMAXPROCS(0).
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// New returns a Searcher.
func New(opts ...Option) (*Searcher, error) {
	o := options{threads: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.threads < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidThreads, o.threads)
	}
	if o.pc == nil {
		o.pc = popcount.NewConfig()
	}
	return &Searcher{pc: o.pc, threads: o.threads}, nil
}

// Threads returns the worker count.
func (s *Searcher) Threads() int { return s.threads }

// PopcountConfig returns the kernel selection.
func (s *Searcher) PopcountConfig() *popcount.Config { return s.pc }

// plan splits n rows into chunks handed out to workers on demand.
type plan struct {
	n       int
	chunk   int
	chunks  int
	workers int
}

func (s *Searcher) plan(n int) plan {
	chunk := min(max(n/(s.threads*chunksPerThread), 1), maxChunk)
	chunks := (n + chunk - 1) / chunk
	return plan{n: n, chunk: chunk, chunks: chunks, workers: max(min(s.threads, chunks), 1)}
}

// run calls fn for every chunk [lo, hi). worker identifies the calling
// worker in [0, p.workers), so fn may use per-worker state without locks.
// ctx is checked between chunks.
func (p plan) run(ctx context.Context, fn func(worker, lo, hi int)) error {
	var next atomic.Int64
	work := func(ctx context.Context, worker int) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			c := int(next.Add(1) - 1)
			if c >= p.chunks {
				return nil
			}
			lo := c * p.chunk
			fn(worker, lo, min(lo+p.chunk, p.n))
		}
	}

	if p.workers == 1 {
		return work(ctx, 0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for w := range p.workers {
		g.Go(func() error {
			return work(gctx, w)
		})
	}
	return g.Wait()
}
