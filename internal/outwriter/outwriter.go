// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"

	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
)

// LogTimelineHeader prints a concise, 2-line header before a timeline run.
func LogTimelineHeader(cfg *contract.Config) {
	// Line 1: what is being scanned
	fmt.Printf("🔎 Root: %s\n", cfg.Root)

	// Line 2: where logs come from and where reports go
	fmt.Printf("📂 Logs: %s/**/%s → %s\n", cfg.RelToRoot(cfg.LogsPath()), contract.LogFilePattern, cfg.RelToRoot(cfg.OutPath()))
}

// WriteTimeline writes the CSV export and the markdown narrative into the output directory.
// It returns the absolute paths it wrote, in order.
func WriteTimeline(result *schema.TimelineResult, cfg *contract.Config) ([]string, error) {
	if err := os.MkdirAll(cfg.OutPath(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	csvPath := cfg.CSVPath()
	if err := writeWithFile(csvPath, func(w io.Writer) error {
		return writeTimelineCSV(w, result.Records)
	}); err != nil {
		return nil, fmt.Errorf("error writing CSV output: %w", err)
	}

	mdPath := cfg.MarkdownPath()
	if err := writeWithFile(mdPath, func(w io.Writer) error {
		return writeTimelineMarkdown(w, result, cfg)
	}); err != nil {
		return nil, fmt.Errorf("error writing markdown output: %w", err)
	}

	return []string{csvPath, mdPath}, nil
}

// PrintRunStatus prints the final status line followed by one line per written artifact.
func PrintRunStatus(result *schema.TimelineResult, written []string, cfg *contract.Config) {
	_ = writeRunStatus(os.Stdout, result, written, cfg)
}

// digestJSON is the machine-readable digest of a timeline run.
type digestJSON struct {
	ScannedFiles int                      `json:"scannedFiles"`
	Records      int                      `json:"records"`
	ParseErrors  int                      `json:"parseErrors"`
	Aggregates   int                      `json:"aggregateRecords"`
	SingleRuns   int                      `json:"singleRunRecords"`
	Baseline     *schema.NormalizedRecord `json:"baseline"`
	Current      schema.SampleSummary     `json:"current"`
}

// WriteDigestJSON writes counts, the baseline record and the current medians as JSON.
func WriteDigestJSON(w io.Writer, result *schema.TimelineResult) error {
	return writeJSON(w, digestJSON{
		ScannedFiles: result.ScannedFiles,
		Records:      len(result.Records),
		ParseErrors:  result.ParseErrors,
		Aggregates:   result.CountByKind(schema.AggregateSchema),
		SingleRuns:   result.CountByKind(schema.SingleRunSchema),
		Baseline:     result.Baseline,
		Current:      result.Summary,
	})
}

// WriteRecordsJSON writes normalized records as a JSON array.
func WriteRecordsJSON(w io.Writer, records []*schema.NormalizedRecord) error {
	if records == nil {
		records = []*schema.NormalizedRecord{}
	}
	return writeJSON(w, records)
}
