// Package prometheus exports engine metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, err := fpprom.NewCollector(reg, "fpsim")
//	if err != nil {
//	    return err
//	}
//	engine, err := fpsim.New(fpsim.WithMetricsCollector(mc))
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/fpsim"
)

// Collector implements fpsim.MetricsCollector with Prometheus vectors.
type Collector struct {
	searchLatency *prometheus.HistogramVec
	searchQueries *prometheus.CounterVec
	searchHits    *prometheus.CounterVec
	loadLatency   *prometheus.HistogramVec
	loadRecords   prometheus.Counter
	batchLatency  prometheus.Histogram
	batchQueries  prometheus.Counter
}

var _ fpsim.MetricsCollector = (*Collector)(nil)

// NewCollector creates the metrics under namespace and registers them with
// reg.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Latency of searches by kind and status.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"kind", "status"}),
		searchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "Query fingerprints searched.",
		}, []string{"kind"}),
		searchHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_hits_total",
			Help:      "Hits reported by searches.",
		}, []string{"kind"}),
		loadLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Latency of arena loads by status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		loadRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_records_total",
			Help:      "Fingerprints loaded into arenas.",
		}),
		batchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Latency of one query batch of a stream.",
			Buckets:   prometheus.DefBuckets,
		}),
		batchQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_queries_total",
			Help:      "Query fingerprints processed in stream batches.",
		}),
	}

	for _, m := range []prometheus.Collector{
		c.searchLatency, c.searchQueries, c.searchHits,
		c.loadLatency, c.loadRecords, c.batchLatency, c.batchQueries,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSearch implements fpsim.MetricsCollector.
func (c *Collector) RecordSearch(kind string, queries, hits int, d time.Duration, err error) {
	c.searchLatency.WithLabelValues(kind, status(err)).Observe(d.Seconds())
	if err != nil {
		return
	}
	c.searchQueries.WithLabelValues(kind).Add(float64(queries))
	c.searchHits.WithLabelValues(kind).Add(float64(hits))
}

// RecordLoad implements fpsim.MetricsCollector.
func (c *Collector) RecordLoad(records int, d time.Duration, err error) {
	c.loadLatency.WithLabelValues(status(err)).Observe(d.Seconds())
	if err == nil {
		c.loadRecords.Add(float64(records))
	}
}

// RecordBatch implements fpsim.MetricsCollector.
func (c *Collector) RecordBatch(size int, d time.Duration) {
	c.batchLatency.Observe(d.Seconds())
	c.batchQueries.Add(float64(size))
}
