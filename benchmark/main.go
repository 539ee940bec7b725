// Package main provides a performance benchmarking tool for the perftimeline CLI.
// It generates synthetic log trees of increasing size, runs the pipeline against each
// several times with and without the SQLite archive, treating the first archived run as
// cold and averaging the rest as warm, and writes a CSV for performance analysis.
//
// Prerequisites:
// - perftimeline binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the synthetic log trees are generated
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-archive average, cold run and average of warm runs).
type BenchmarkResult struct {
	Tree          string
	Files         int
	NoArchiveTime string
	ColdTime      string
	WarmTime      string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	NoArchiveRuns int
	ArchiveRuns   int
	TreeSizes     map[string]int
	TreeOrder     []string
}

const runTemplate = `{"mode":"SINGLE_E2E","clients":5000,"durationSeconds":60,"openLoop":%t,"msgIntervalMs":3000,
"errors":{"wsError":%d},
"singleChat":{"attempted":100000,"attemptedPerSec":%d,"sent":99000,"sentPerSec":%d,"recvUnique":99000,"ackSaved":99000,"e2eMs":{"p50":%d,"p95":%d,"p99":%d}}}`

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}
	workDir := os.Args[1]

	config := BenchmarkConfig{
		WorkDir:       workDir,
		Timeout:       5 * time.Minute,
		NoArchiveRuns: 3,
		ArchiveRuns:   4,
		TreeSizes: map[string]int{
			"small":  50,
			"medium": 500,
			"large":  5000,
		},
		TreeOrder: []string{"small", "medium", "large"},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the perftimeline binary exists
func checkPrerequisites() error {
	if _, err := exec.LookPath("perftimeline"); err != nil {
		return fmt.Errorf("perftimeline binary not found in PATH")
	}
	return nil
}

// generateTree writes n synthetic single-run logs under root/logs, one minute apart.
func generateTree(root string, n int) error {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	for i := range n {
		ts := start.Add(time.Duration(i) * time.Minute)
		dir := filepath.Join(root, "logs", "ws-cluster-5x-test_"+ts.Format("20060102_150405"))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		openLoop := i%2 == 1
		sent := 700 + i%1000
		content := fmt.Sprintf(runTemplate, openLoop, i%7, sent+20, sent, 80+i%50, 300+i%200, 700+i%400)
		if err := os.WriteFile(filepath.Join(dir, "single_e2e.json"), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// runBenchmarks executes all benchmark tests across configured tree sizes
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d trees, %v timeout, no-archive: %d runs, archive: %d runs\n",
		len(config.TreeOrder), config.Timeout, config.NoArchiveRuns, config.ArchiveRuns)

	for _, tree := range config.TreeOrder {
		files := config.TreeSizes[tree]
		root := filepath.Join(config.WorkDir, "perftimeline-bench-"+tree)
		_ = os.RemoveAll(root)

		fmt.Printf("Generating %s tree (%d files)\n", tree, files)
		if err := generateTree(root, files); err != nil {
			fmt.Printf("Warning: failed to generate %s tree: %v\n", tree, err)
			continue
		}

		results = append(results, runBenchmarkSuite(config, tree, root, files))
	}

	return results
}

// runBenchmarkSuite runs both no-archive and archive benchmarks for a tree
func runBenchmarkSuite(config BenchmarkConfig, tree, root string, files int) BenchmarkResult {
	fmt.Printf("Running timeline on %s\n", tree)

	// Helper to run a benchmark phase
	runPhase := func(extraArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, root, extraArgs, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-archive runs
	_, noArchiveAvg := runPhase([]string{"--archive-backend", "none"}, config.NoArchiveRuns, "No-archive")

	// Phase 2: Archive runs against a fresh database
	dbPath := filepath.Join(root, "archive.db")
	_ = os.Remove(dbPath)
	coldTime, warmAvg := runPhase([]string{"--archive-backend", "sqlite", "--archive-db-connect", dbPath}, config.ArchiveRuns, "Archive")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-archive average: %s, Cold time: %s, Warm average: %s\n", noArchiveAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Tree:          tree,
		Files:         files,
		NoArchiveTime: noArchiveAvg,
		ColdTime:      coldTimeStr,
		WarmTime:      warmAvg,
	}
}

// runBenchmark executes perftimeline multiple times and returns the first time and the remaining times
func runBenchmark(config BenchmarkConfig, root string, extraArgs []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{"--color", "no"}, extraArgs...)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("perftimeline", args...)
		cmd.Dir = root

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "OK: parsed_files=") &&
		strings.Contains(outputStr, "parse_errors=0") &&
		strings.Contains(outputStr, "WROTE: ")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("perftimeline_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"tree", "files", "no_archive_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Tree, fmt.Sprintf("%d", result.Files), result.NoArchiveTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s (%5d files): No-archive: %s, Cold: %s, Warm: %s\n",
			result.Tree, result.Files, result.NoArchiveTime, result.ColdTime, result.WarmTime)
	}
}
