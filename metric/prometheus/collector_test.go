package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fpsim"
	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/testutil"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func counter(f *dto.MetricFamily, labels map[string]string) float64 {
	for _, m := range f.GetMetric() {
		if matches(m, labels) {
			return m.GetCounter().GetValue()
		}
	}
	return -1
}

func histogramCount(f *dto.MetricFamily, labels map[string]string) uint64 {
	for _, m := range f.GetMetric() {
		if matches(m, labels) {
			return m.GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok && v != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg, "fpsim")
	require.NoError(t, err)

	c.RecordSearch("knearest", 10, 25, time.Millisecond, nil)
	c.RecordSearch("knearest", 5, 0, time.Millisecond, errors.New("boom"))
	c.RecordLoad(100, time.Millisecond, nil)
	c.RecordBatch(4, time.Millisecond)

	fams := gather(t, reg)
	assert.Equal(t, 10.0, counter(fams["fpsim_search_queries_total"], map[string]string{"kind": "knearest"}))
	assert.Equal(t, 25.0, counter(fams["fpsim_search_hits_total"], map[string]string{"kind": "knearest"}))
	assert.Equal(t, uint64(1), histogramCount(fams["fpsim_search_duration_seconds"], map[string]string{"status": "error"}))
	assert.Equal(t, uint64(1), histogramCount(fams["fpsim_search_duration_seconds"], map[string]string{"status": "success"}))
	assert.Equal(t, 100.0, counter(fams["fpsim_load_records_total"], nil))
	assert.Equal(t, 4.0, counter(fams["fpsim_batch_queries_total"], nil))
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg, "fpsim")
	require.NoError(t, err)
	_, err = NewCollector(reg, "fpsim")
	var are prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &are)
}

func TestEngineIntegration(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg, "fpsim")
	require.NoError(t, err)

	e, err := fpsim.New(fpsim.WithMetricsCollector(c), fpsim.WithBatchSize(4))
	require.NoError(t, err)

	rng := testutil.NewRNG(3)
	ids := testutil.IDs("t", 20)
	records := make([]arena.Record, len(ids))
	for i, fp := range rng.Fingerprints(len(ids), 8) {
		records[i] = arena.Record{ID: ids[i], Fingerprint: fp}
	}
	targets, err := e.Load(ctx, arena.FromSlice(records), true)
	require.NoError(t, err)
	queries, err := arena.FromRecords(records[:10])
	require.NoError(t, err)

	s, err := e.CountTanimotoHits(ctx, queries, targets, 0.4)
	require.NoError(t, err)
	_, err = s.Counts()
	require.NoError(t, err)

	fams := gather(t, reg)
	assert.Equal(t, 10.0, counter(fams["fpsim_search_queries_total"], map[string]string{"kind": "count"}))
	assert.Equal(t, 10.0, counter(fams["fpsim_batch_queries_total"], nil))
	assert.Equal(t, 20.0, counter(fams["fpsim_load_records_total"], nil))
}
