package core

import (
	"testing"
	"time"

	"github.com/huangsam/perftimeline/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusterRun builds a clean cluster single-run record for selection tests.
func clusterRun(path string, ts *time.Time, openLoop bool, sentPerSec float64) *schema.NormalizedRecord {
	return &schema.NormalizedRecord{
		Timestamp:  ts,
		Scenario:   schema.ClusterScenario,
		SourcePath: path,
		Kind:       schema.SingleRunSchema,
		Config: schema.RunConfig{
			Clients:       schema.Float64Ptr(5000),
			OpenLoop:      schema.BoolPtr(openLoop),
			MsgIntervalMs: schema.Float64Ptr(3000),
		},
		Metrics: schema.RunMetrics{
			SentPerSec:  schema.Float64Ptr(sentPerSec),
			DeliverRate: schema.Float64Ptr(1),
			WSErrorRate: schema.Float64Ptr(0.01),
		},
	}
}

func tsAt(t *testing.T, s string) *time.Time {
	t.Helper()
	ts, err := time.Parse(schema.TimestampLayout, s)
	require.NoError(t, err)
	return &ts
}

func TestMatchesSlice(t *testing.T) {
	baseline := schema.DefaultBaselinePolicy()
	ts := tsAt(t, "2026-01-10 00:00:00")

	tests := []struct {
		name     string
		mutate   func(r *schema.NormalizedRecord)
		expected bool
	}{
		{"clean run in window", func(*schema.NormalizedRecord) {}, true},
		{"lower bound inclusive", func(r *schema.NormalizedRecord) { r.Metrics.SentPerSec = schema.Float64Ptr(700) }, true},
		{"upper bound inclusive", func(r *schema.NormalizedRecord) { r.Metrics.SentPerSec = schema.Float64Ptr(800) }, true},
		{"below window", func(r *schema.NormalizedRecord) { r.Metrics.SentPerSec = schema.Float64Ptr(699.9) }, false},
		{"missing sentPerSec", func(r *schema.NormalizedRecord) { r.Metrics.SentPerSec = nil }, false},
		{"wrong scenario", func(r *schema.NormalizedRecord) { r.Scenario = schema.TestRunScenario }, false},
		{"aggregate", func(r *schema.NormalizedRecord) { r.Kind = schema.AggregateSchema }, false},
		{"other client count", func(r *schema.NormalizedRecord) { r.Config.Clients = schema.Float64Ptr(4000) }, false},
		{"missing client count", func(r *schema.NormalizedRecord) { r.Config.Clients = nil }, false},
		{"open loop", func(r *schema.NormalizedRecord) { r.Config.OpenLoop = schema.BoolPtr(true) }, false},
		{"absent openLoop is closed loop", func(r *schema.NormalizedRecord) { r.Config.OpenLoop = nil }, true},
		{"error rate at ceiling", func(r *schema.NormalizedRecord) { r.Metrics.WSErrorRate = schema.Float64Ptr(0.05) }, true},
		{"error rate over ceiling", func(r *schema.NormalizedRecord) { r.Metrics.WSErrorRate = schema.Float64Ptr(0.0501) }, false},
		{"absent error rate", func(r *schema.NormalizedRecord) { r.Metrics.WSErrorRate = nil }, true},
		{"absent deliver rate", func(r *schema.NormalizedRecord) { r.Metrics.DeliverRate = nil }, true},
		{"contaminated", func(r *schema.NormalizedRecord) {
			r.Anomalies = []schema.Anomaly{{Kind: schema.DuplicateAnomaly, Value: schema.Float64Ptr(1)}}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := clusterRun("logs/a.json", ts, false, 750)
			tt.mutate(rec)
			assert.Equal(t, tt.expected, MatchesSlice(rec, baseline))
		})
	}
}

func TestMatchesSliceInterval(t *testing.T) {
	current := schema.DefaultCurrentPolicy()
	rec := clusterRun("logs/a.json", nil, true, 1666)
	assert.True(t, MatchesSlice(rec, current))

	rec.Config.MsgIntervalMs = schema.Float64Ptr(1000)
	assert.False(t, MatchesSlice(rec, current))

	rec.Config.MsgIntervalMs = nil
	assert.False(t, MatchesSlice(rec, current))
}

func TestSelectBaseline(t *testing.T) {
	policy := schema.DefaultBaselinePolicy()
	early := clusterRun("logs/ws-cluster-5x-test_20260110_000000/single_e2e.json", tsAt(t, "2026-01-10 00:00:00"), false, 760)
	late := clusterRun("logs/ws-cluster-5x-test_20260111_000000/single_e2e.json", tsAt(t, "2026-01-11 00:00:00"), false, 740)
	outOfWindow := clusterRun("logs/ws-cluster-5x-test_20260101_000000/single_e2e.json", tsAt(t, "2026-01-01 00:00:00"), false, 900)

	assert.Same(t, early, SelectBaseline([]*schema.NormalizedRecord{late, outOfWindow, early}, policy))
	assert.Nil(t, SelectBaseline([]*schema.NormalizedRecord{outOfWindow}, policy))
	assert.Nil(t, SelectBaseline(nil, policy))

	undated := clusterRun("logs/undated/single_e2e.json", nil, false, 750)
	assert.Same(t, undated, SelectBaseline([]*schema.NormalizedRecord{early, undated}, policy), "records without a timestamp sort first")

	sameTime := clusterRun("logs/a/single_e2e.json", tsAt(t, "2026-01-10 00:00:00"), false, 750)
	assert.Same(t, sameTime, SelectBaseline([]*schema.NormalizedRecord{early, sameTime}, policy), "ties break on path")
}

func TestSelectCurrent(t *testing.T) {
	policy := schema.DefaultCurrentPolicy()
	a := clusterRun("logs/b.json", nil, true, 1600)
	b := clusterRun("logs/a.json", nil, true, 1700)
	closed := clusterRun("logs/c.json", nil, false, 750)

	got := SelectCurrent([]*schema.NormalizedRecord{a, closed, b}, policy)
	assert.Equal(t, []*schema.NormalizedRecord{a, b}, got, "input order is preserved")

	empty := SelectCurrent([]*schema.NormalizedRecord{closed}, policy)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSortRecords(t *testing.T) {
	r1 := clusterRun("logs/z.json", tsAt(t, "2026-01-10 00:00:00"), false, 1)
	r2 := clusterRun("logs/a.json", tsAt(t, "2026-01-10 00:00:00"), false, 1)
	r3 := clusterRun("logs/m.json", nil, false, 1)
	r4 := clusterRun("logs/b.json", tsAt(t, "2026-01-09 00:00:00"), false, 1)

	records := []*schema.NormalizedRecord{r1, r2, r3, r4}
	SortRecords(records)
	assert.Equal(t, []*schema.NormalizedRecord{r3, r4, r2, r1}, records)
}
