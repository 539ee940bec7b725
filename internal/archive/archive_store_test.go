package archive

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/perftimeline/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleRun(id string, started time.Time) schema.ArchiveRun {
	return schema.ArchiveRun{
		RunID:          id,
		StartedAt:      started,
		FinishedAt:     started.Add(150 * time.Millisecond),
		Root:           "/srv/perf",
		ScannedFiles:   3,
		RecordCount:    2,
		ParseErrors:    1,
		BaselinePath:   schema.StringPtr("logs/ws-cluster-5x-test_20260110_100000/single_e2e.json"),
		CurrentSamples: 1,
	}
}

func exampleRecords() []*schema.NormalizedRecord {
	ts := time.Date(2026, 1, 13, 16, 31, 0, 0, time.UTC)
	return []*schema.NormalizedRecord{
		{
			Scenario:   schema.OtherScenario,
			SourcePath: "logs/misc/single_e2e_avg.json",
			Kind:       schema.AggregateSchema,
			Metrics:    schema.RunMetrics{SentPerSec: schema.Float64Ptr(750)},
			Milestones: []string{},
			Anomalies:  []schema.Anomaly{{Kind: schema.AveragedFileAnomaly}},
		},
		{
			Timestamp:  &ts,
			Scenario:   schema.ClusterScenario,
			SourcePath: "logs/ws-cluster-5x-test_20260113_163100/single_e2e.json",
			Kind:       schema.SingleRunSchema,
			Config: schema.RunConfig{
				Clients:  schema.Float64Ptr(5000),
				OpenLoop: schema.BoolPtr(true),
			},
			Metrics: schema.RunMetrics{
				SentPerSec:  schema.Float64Ptr(1666),
				DeliverRate: schema.Float64Ptr(0.99),
				E2EP99Ms:    schema.Float64Ptr(2100),
			},
			Milestones: []string{"BP", "ACK-EL", "POSTDB", "OPENLOOP+ACKBATCH"},
		},
	}
}

func newSQLiteStore(t *testing.T) *ArchiveStoreImpl {
	t.Helper()
	store, err := NewArchiveStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*ArchiveStoreImpl)
}

func TestArchiveStore_NoneBackend(t *testing.T) {
	store, err := NewArchiveStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	err = store.SaveRun(context.Background(), exampleRun("run-1", time.Now()), exampleRecords())
	assert.NoError(t, err)

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	assert.NoError(t, store.Close())
}

func TestArchiveStore_UnsupportedBackend(t *testing.T) {
	_, err := NewArchiveStore(schema.DatabaseBackend("oracle"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive backend")
}

func TestArchiveStore_SaveRun(t *testing.T) {
	store := newSQLiteStore(t)
	started := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRun(context.Background(), exampleRun("run-1", started), exampleRecords()))

	var root string
	var scanned, parseErrors, current int
	row := store.db.QueryRow(`SELECT root, scanned_files, parse_errors, current_samples FROM perftimeline_runs WHERE run_id = ?`, "run-1")
	require.NoError(t, row.Scan(&root, &scanned, &parseErrors, &current))
	assert.Equal(t, "/srv/perf", root)
	assert.Equal(t, 3, scanned)
	assert.Equal(t, 1, parseErrors)
	assert.Equal(t, 1, current)

	t.Run("aggregate record keeps absences", func(t *testing.T) {
		var ts, clients, deliverRate any
		var flags, payload string
		row := store.db.QueryRow(`SELECT ts, clients, deliver_rate, flags, payload FROM perftimeline_records WHERE source_path = ?`, "logs/misc/single_e2e_avg.json")
		require.NoError(t, row.Scan(&ts, &clients, &deliverRate, &flags, &payload))
		assert.Nil(t, ts)
		assert.Nil(t, clients)
		assert.Nil(t, deliverRate)
		assert.Equal(t, "avg-file", flags)

		var decoded schema.NormalizedRecord
		require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
		assert.Equal(t, schema.AggregateSchema, decoded.Kind)
		require.NotNil(t, decoded.Metrics.SentPerSec)
		assert.Equal(t, 750.0, *decoded.Metrics.SentPerSec)
	})

	t.Run("single run record", func(t *testing.T) {
		var ts, milestones string
		var clients, p99 float64
		row := store.db.QueryRow(`SELECT ts, clients, e2e_p99_ms, milestones FROM perftimeline_records WHERE schema_kind = ?`, "single-run")
		require.NoError(t, row.Scan(&ts, &clients, &p99, &milestones))
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		require.NoError(t, err)
		assert.True(t, parsed.Equal(time.Date(2026, 1, 13, 16, 31, 0, 0, time.UTC)))
		assert.Equal(t, 5000.0, clients)
		assert.Equal(t, 2100.0, p99)
		assert.Equal(t, "BP;ACK-EL;POSTDB;OPENLOOP+ACKBATCH", milestones)
	})
}

func TestArchiveStore_SaveRunRollsBack(t *testing.T) {
	store := newSQLiteStore(t)
	records := exampleRecords()
	// Same source path twice violates the primary key on the second insert
	records = append(records, records[1])

	err := store.SaveRun(context.Background(), exampleRun("run-dup", time.Now()), records)
	require.Error(t, err)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRuns, "run row is rolled back with its records")
	assert.Equal(t, 0, status.TotalRecords)
}

func TestArchiveStore_SaveRunCancelled(t *testing.T) {
	store := newSQLiteStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.SaveRun(ctx, exampleRun("run-x", time.Now()), exampleRecords())
	assert.Error(t, err)
}

func TestArchiveStore_GetStatus(t *testing.T) {
	store := newSQLiteStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[runsTable])

	first := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)
	require.NoError(t, store.SaveRun(context.Background(), exampleRun("run-1", first), exampleRecords()))

	latest := exampleRun("run-2", second)
	latest.BaselinePath = nil
	latest.CurrentSamples = 4
	require.NoError(t, store.SaveRun(context.Background(), latest, exampleRecords()[:1]))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, 3, status.TotalRecords)
	assert.Equal(t, "run-2", status.LastRunID)
	assert.True(t, status.LastRunTime.Equal(second))
	assert.True(t, status.OldestRunTime.Equal(first))
	assert.Equal(t, "", status.LastBaseline)
	assert.Equal(t, 4, status.LastCurrentCnt)
	assert.Equal(t, int64(2), status.TableSizes[runsTable])
	assert.Equal(t, int64(3), status.TableSizes[recordsTable])
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 1, 13, 16, 31, 0, 5, time.UTC)
	assert.Equal(t, "2026-01-13T16:31:00.000000005Z", formatTime(ts, schema.SQLiteBackend))
	assert.Equal(t, ts, formatTime(ts, schema.PostgreSQLBackend))
	assert.Nil(t, formatNullableTime(nil, schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", placeholders(schema.SQLiteBackend, 3))
	assert.Equal(t, "?, ?", placeholders(schema.MySQLBackend, 2))
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`perftimeline_runs`", quoteTableName(runsTable, schema.MySQLBackend))
	assert.Equal(t, `"perftimeline_runs"`, quoteTableName(runsTable, schema.PostgreSQLBackend))
	assert.Equal(t, `"perftimeline_runs"`, quoteTableName(runsTable, schema.SQLiteBackend))
}
