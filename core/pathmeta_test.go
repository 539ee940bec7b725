package core

import (
	"testing"
	"time"

	"github.com/huangsam/perftimeline/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string // TimestampLayout, "" for absent
	}{
		{"underscore separators", "logs/ws-cluster-5x-test_20260113_163100/single_e2e.json", "2026-01-13 16:31:00"},
		{"hyphen prefix", "logs/test-run-20260109-012000/single_e2e.json", "2026-01-09 01:20:00"},
		{"in file name", "logs/bp-multi/single_e2e_20251231_235959.json", "2025-12-31 23:59:59"},
		{"first match wins", "logs/a_20260101_000000/b_20270101_000000.json", "2026-01-01 00:00:00"},
		{"no prefix character", "logs/20260113_163100/single_e2e.json", ""},
		{"too few digits", "logs/x_2026011_163100/single_e2e.json", ""},
		{"invalid month", "logs/x_20261313_163100/single_e2e.json", ""},
		{"invalid hour", "logs/x_20260113_253100/single_e2e.json", ""},
		{"no timestamp", "logs/single_e2e.json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := ExtractTimestamp(tt.path)
			if tt.expected == "" {
				assert.Nil(t, ts)
				return
			}
			require.NotNil(t, ts)
			assert.Equal(t, tt.expected, ts.Format(schema.TimestampLayout))
			assert.Equal(t, time.UTC, ts.Location())
		})
	}
}

func TestExtractTimestampRoundTrip(t *testing.T) {
	for _, digits := range []string{"20260109_012000", "20240229_235959", "19991231_000001", "20260115_000200"} {
		ts := ExtractTimestamp("logs/run_" + digits + "/single_e2e.json")
		require.NotNil(t, ts, digits)
		assert.Equal(t, digits, ts.Format("20060102_150405"))
	}
}

func TestClassifyScenario(t *testing.T) {
	tests := []struct {
		path     string
		expected schema.Scenario
	}{
		{"logs/ws-cluster-5x-test_20260113_163100/single_e2e.json", schema.ClusterScenario},
		{"/abs/logs/ws-cluster-5x-test_x/single_e2e.json", schema.ClusterScenario},
		{"logs/test-run-20260101/single_e2e.json", schema.TestRunScenario},
		{"logs/bp-multi/single_e2e.json", schema.BPMultiScenario},
		{"ws-cluster-5x-test_1/single_e2e.json", schema.ClusterScenario},
		{"logs/bp-multi-extra/single_e2e.json", schema.OtherScenario},
		{"logs/misc/single_e2e.json", schema.OtherScenario},
		{"logs/bp-multi/test-run-1/single_e2e.json", schema.TestRunScenario},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyScenario(tt.path), tt.path)
	}
}
