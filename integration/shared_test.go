//go:build integration || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a shared perftimeline binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

const (
	baselineLog = `{"mode":"SINGLE_E2E","clients":5000,"durationSeconds":60,"openLoop":false,
		"errors":{"wsError":10},
		"singleChat":{"sent":45000,"sentPerSec":750,"recvUnique":45000,"ackSaved":44000,"e2eMs":{"p50":150,"p95":900,"p99":2100}}}`
	currentLog = `{"mode":"SINGLE_E2E","clients":5000,"durationSeconds":60,"openLoop":true,"msgIntervalMs":3000,
		"errors":{"wsError":0},
		"singleChat":{"attempted":100000,"attemptedPerSec":1666.67,"sent":99000,"sentPerSec":1650,"recvUnique":99000,"ackSaved":99000,"e2eMs":{"p50":80,"p95":300,"p99":700}}}`
	aggregateLog = `{"repeats":3,"sentPerSecAvg":750,"e2eMs":{"p50":150}}`
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getPerftimelineBinary returns the path to the perftimeline binary, building it once if needed.
func getPerftimelineBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "perftimeline-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "perftimeline")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		err = buildCmd.Run()
		if err != nil {
			panic(fmt.Sprintf("failed to build perftimeline: %v", err))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// newLogRoot creates a temp root with a small logs tree: one baseline run,
// one current run, one aggregate file and one unparseable file.
func newLogRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"ws-cluster-5x-test_20260110_120000/single_e2e.json":     baselineLog,
		"ws-cluster-5x-test_20260113_163100/single_e2e.json":     currentLog,
		"ws-cluster-5x-test_20260112_200000/single_e2e_avg.json": aggregateLog,
		"broken/single_e2e.json":                                 `{"mode":`,
	}
	for rel, content := range files {
		path := filepath.Join(root, "logs", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// runPerftimeline runs the binary in dir and returns its combined output.
func runPerftimeline(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getPerftimelineBinary(), args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}
