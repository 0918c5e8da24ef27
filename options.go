package fpsim

import (
	"log/slog"
	"time"

	"github.com/hupe1980/fpsim/popcount"
)

type options struct {
	threads          int
	popcount         *popcount.Config
	autoSelect       bool
	alignment        int
	batchSize        int
	memoryLimit      int64
	ioLimit          int64
	progressInterval time.Duration
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures an Engine.
type Option func(*options)

// WithThreads sets the number of worker goroutines per search. It must lie
// between 1 and runtime.NumCPU(); New rejects other values.
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// WithPopcountConfig sets the popcount method selection. The engine uses the
// Config as given, so later changes through Config.Set apply to later
// searches.
func WithPopcountConfig(cfg *popcount.Config) Option {
	return func(o *options) {
		o.popcount = cfg
	}
}

// WithAutoSelect benchmarks the popcount methods during New and keeps the
// fastest per alignment class.
func WithAutoSelect() Option {
	return func(o *options) {
		o.autoSelect = true
	}
}

// WithAlignment forces the slot alignment of arenas the engine builds.
// Zero selects it from the fingerprint size.
func WithAlignment(alignment int) Option {
	return func(o *options) {
		o.alignment = alignment
	}
}

// WithBatchSize sets how many queries a stream searches at a time, and how
// many targets the Source forms read at a time from a source without a
// popcount index. Zero uses one batch for everything.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithMemoryLimit bounds the bytes of query batches searched by all streams
// of the engine at once. Zero disables the limit.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit bounds the read throughput, in bytes per second, of
// fingerprint files opened through the engine. Zero disables the limit.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithProgressInterval sets how often long streams log progress.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) {
		o.progressInterval = d
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &fpsim.BasicMetricsCollector{}
//	e, _ := fpsim.New(fpsim.WithMetricsCollector(metrics))
//	// ... use e ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := fpsim.NewJSONLogger(slog.LevelInfo)
//	e, _ := fpsim.New(fpsim.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(opts []Option) options {
	o := options{
		progressInterval: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}
