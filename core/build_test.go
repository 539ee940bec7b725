package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	baselineDoc = `{"mode":"SINGLE_E2E","clients":5000,"durationSeconds":60,"openLoop":false,
		"errors":{"wsError":10},
		"singleChat":{"sent":45000,"sentPerSec":750,"recvUnique":45000,"ackSaved":44000,"e2eMs":{"p50":150,"p95":900,"p99":2100}}}`
	currentDoc = `{"mode":"SINGLE_E2E","clients":5000,"durationSeconds":60,"openLoop":true,"msgIntervalMs":3000,
		"errors":{"wsError":0},
		"singleChat":{"attempted":100000,"attemptedPerSec":1666.67,"sent":99000,"sentPerSec":1650,"recvUnique":99000,"ackSaved":99000,"e2eMs":{"p50":80,"p95":300,"p99":700}}}`
	aggregateDoc = `{"repeats":3,"sentPerSecAvg":750,"e2eMs":{"p50":150}}`
	groupDoc     = `{"mode":"GROUP_E2E","sent":1}`
)

// newTestConfig builds a validated default config rooted at root.
func newTestConfig(t *testing.T, root string) *contract.Config {
	t.Helper()
	input := contract.DefaultRawInput()
	input.Root = root
	cfg := &contract.Config{}
	require.NoError(t, contract.ProcessAndValidate(cfg, input))
	return cfg
}

// writeLogs creates the given files under root/logs.
func writeLogs(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, "logs", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestBuildTimelineWithMockSource(t *testing.T) {
	cfg := newTestConfig(t, t.TempDir())
	logs := cfg.LogsPath()

	src := &contract.MockLogSource{}
	src.On("ListLogFiles", mock.Anything, logs).Return([]string{
		"bp-multi/single_e2e.json",
		"broken/single_e2e.json",
		"group/single_e2e.json",
		"ws-cluster-5x-test_20260112_200000/single_e2e_avg.json",
		"ws-cluster-5x-test_20260113_163100/single_e2e.json",
	}, nil)
	src.On("ReadLogFile", mock.Anything, filepath.Join(logs, "bp-multi", "single_e2e.json")).Return([]byte(baselineDoc), nil)
	src.On("ReadLogFile", mock.Anything, filepath.Join(logs, "broken", "single_e2e.json")).Return(nil, errors.New("permission denied"))
	src.On("ReadLogFile", mock.Anything, filepath.Join(logs, "group", "single_e2e.json")).Return([]byte(groupDoc), nil)
	src.On("ReadLogFile", mock.Anything, filepath.Join(logs, "ws-cluster-5x-test_20260112_200000", "single_e2e_avg.json")).Return([]byte(aggregateDoc), nil)
	src.On("ReadLogFile", mock.Anything, filepath.Join(logs, "ws-cluster-5x-test_20260113_163100", "single_e2e.json")).Return([]byte(currentDoc), nil)

	result, err := BuildTimeline(context.Background(), cfg, src)
	require.NoError(t, err)
	src.AssertExpectations(t)

	assert.Equal(t, 5, result.ScannedFiles)
	assert.Equal(t, 1, result.ParseErrors)
	require.Len(t, result.Records, 3)

	// undated first, then by timestamp
	assert.Equal(t, "logs/bp-multi/single_e2e.json", result.Records[0].SourcePath)
	assert.Equal(t, "logs/ws-cluster-5x-test_20260112_200000/single_e2e_avg.json", result.Records[1].SourcePath)
	assert.Equal(t, "logs/ws-cluster-5x-test_20260113_163100/single_e2e.json", result.Records[2].SourcePath)

	assert.Nil(t, result.Baseline, "the closed-loop run is not in the cluster scenario")
	require.Len(t, result.Current, 1)
	assert.Equal(t, 1, result.Summary.Count)
	assert.InDelta(t, 1666.67, *result.Summary.OfferedPerSec, 1e-9)
	assert.Equal(t, 1, result.CountByKind(schema.AggregateSchema))
}

func TestBuildTimelineFromDisk(t *testing.T) {
	root := t.TempDir()
	writeLogs(t, root, map[string]string{
		"ws-cluster-5x-test_20260110_120000/single_e2e.json": baselineDoc,
		"ws-cluster-5x-test_20260113_163100/single_e2e.json": currentDoc,
		"ws-cluster-5x-test_20260114_090000/single_e2e.json": currentDoc,
		"misc/single_e2e_broken.json":                        `{"mode":"SINGLE_E2E"`,
		"misc/notes.txt":                                     "ignored",
		"misc/multi_e2e.json":                                baselineDoc,
	})
	cfg := newTestConfig(t, root)

	result, err := BuildTimeline(context.Background(), cfg, contract.NewLocalLogSource())
	require.NoError(t, err)

	assert.Equal(t, 4, result.ScannedFiles)
	assert.Equal(t, 1, result.ParseErrors)
	assert.Len(t, result.Records, 3)
	require.NotNil(t, result.Baseline)
	assert.Equal(t, "logs/ws-cluster-5x-test_20260110_120000/single_e2e.json", result.Baseline.SourcePath)
	assert.Equal(t, []string{"BP"}, result.Baseline.Milestones)
	assert.Len(t, result.Current, 2)
	assert.Equal(t, 2, result.Summary.Count)
	assert.InDelta(t, 0.08, *result.Summary.E2EP50Sec, 1e-12)
}

func TestBuildTimelineMissingLogsDir(t *testing.T) {
	cfg := newTestConfig(t, t.TempDir())
	result, err := BuildTimeline(context.Background(), cfg, contract.NewLocalLogSource())
	require.NoError(t, err)
	assert.Zero(t, result.ScannedFiles)
	assert.Empty(t, result.Records)
	assert.NotNil(t, result.Current)
	assert.Nil(t, result.Baseline)
}

func TestBuildTimelineUnreadableSubdir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeLogs(t, root, map[string]string{
		"ws-cluster-5x-test_20260110_120000/single_e2e.json": baselineDoc,
		"locked/single_e2e.json":                             currentDoc,
	})
	locked := filepath.Join(root, "logs", "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })
	cfg := newTestConfig(t, root)

	result, err := BuildTimeline(context.Background(), cfg, contract.NewLocalLogSource())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ScannedFiles)
	require.Len(t, result.Records, 1)
	require.NotNil(t, result.Baseline)
}

// A failure listing the logs root itself is still returned.
func TestBuildTimelineListError(t *testing.T) {
	cfg := newTestConfig(t, t.TempDir())
	src := &contract.MockLogSource{}
	src.On("ListLogFiles", mock.Anything, cfg.LogsPath()).Return(nil, errors.New("boom"))

	_, err := BuildTimeline(context.Background(), cfg, src)
	assert.EqualError(t, err, "boom")
}

func TestBuildTimelineCancelled(t *testing.T) {
	cfg := newTestConfig(t, t.TempDir())
	src := &contract.MockLogSource{}
	src.On("ListLogFiles", mock.Anything, cfg.LogsPath()).Return([]string{"a/single_e2e.json"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildTimeline(ctx, cfg, src)
	assert.ErrorIs(t, err, context.Canceled)
	src.AssertNotCalled(t, "ReadLogFile", mock.Anything, mock.Anything)
}
