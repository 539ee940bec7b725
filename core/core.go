// Package core has core logic for log normalization, sample selection and aggregation.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/internal/metrics"
	"github.com/huangsam/perftimeline/internal/outwriter"
	"github.com/huangsam/perftimeline/internal/parquet"
	"github.com/huangsam/perftimeline/schema"
)

// ExecuteTimeline runs the full pipeline, writes every configured artifact and
// prints the status lines. It serves as the main entry point of the CLI.
// Only output failures are returned; archive failures are reported as warnings.
func ExecuteTimeline(ctx context.Context, cfg *contract.Config, src contract.LogSource, store contract.ArchiveStore) error {
	start := time.Now()
	if !shouldSuppressHeader(ctx) {
		outwriter.LogTimelineHeader(cfg)
	}

	result, err := BuildTimeline(ctx, cfg, src)
	if err != nil {
		return err
	}

	written, err := outwriter.WriteTimeline(result, cfg)
	if err != nil {
		return err
	}
	if cfg.ParquetFile != "" {
		if err := parquet.WriteRecordsParquet(result.Records, cfg.ParquetFile); err != nil {
			return fmt.Errorf("failed to write parquet export: %w", err)
		}
		written = append(written, cfg.ParquetFile)
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile, result); err != nil {
			return fmt.Errorf("failed to write metrics textfile: %w", err)
		}
		written = append(written, cfg.MetricsFile)
	}

	if store != nil {
		run := newArchiveRun(cfg, result, start)
		if err := store.SaveRun(ctx, run, result.Records); err != nil {
			contract.LogWarn("Archiving run failed", err)
		}
	}

	if err := outwriter.PrintTimelineSummary(result, cfg, time.Since(start)); err != nil {
		return err
	}
	outwriter.PrintRunStatus(result, written, cfg)
	return nil
}

// newArchiveRun describes a finished pipeline pass for the archive.
func newArchiveRun(cfg *contract.Config, result *schema.TimelineResult, start time.Time) schema.ArchiveRun {
	run := schema.ArchiveRun{
		RunID:          uuid.NewString(),
		StartedAt:      start.UTC(),
		FinishedAt:     time.Now().UTC(),
		Root:           cfg.Root,
		ScannedFiles:   result.ScannedFiles,
		RecordCount:    len(result.Records),
		ParseErrors:    result.ParseErrors,
		CurrentSamples: len(result.Current),
	}
	if result.Baseline != nil {
		run.BaselinePath = schema.StringPtr(result.Baseline.SourcePath)
	}
	return run
}
