package fpsim

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metric/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordSearch is called when a search finishes. kind names the search
	// ("count", "threshold", "knearest", with a "-symmetric" or "-fp"
	// suffix), queries is the number of query rows and hits the number of
	// hits reported.
	RecordSearch(kind string, queries, hits int, duration time.Duration, err error)

	// RecordLoad is called after loading records into an arena.
	RecordLoad(records int, duration time.Duration, err error)

	// RecordBatch is called after each query batch of a stream.
	RecordBatch(size int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(string, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)                {}
func (NoopMetricsCollector) RecordBatch(int, time.Duration)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchQueries    atomic.Int64
	SearchHits       atomic.Int64
	SearchTotalNanos atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadRecords      atomic.Int64
	BatchCount       atomic.Int64
	BatchQueries     atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ string, queries, hits int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
		return
	}
	b.SearchQueries.Add(int64(queries))
	b.SearchHits.Add(int64(hits))
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(records int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadRecords.Add(int64(records))
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(size int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchQueries.Add(int64(size))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchQueries:  b.SearchQueries.Load(),
		SearchHits:     b.SearchHits.Load(),
		SearchAvgNanos: b.getAvgSearchNanos(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadRecords:    b.LoadRecords.Load(),
		BatchCount:     b.BatchCount.Load(),
		BatchQueries:   b.BatchQueries.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SearchCount    int64
	SearchErrors   int64
	SearchQueries  int64
	SearchHits     int64
	SearchAvgNanos int64
	LoadCount      int64
	LoadErrors     int64
	LoadRecords    int64
	BatchCount     int64
	BatchQueries   int64
}
