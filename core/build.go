package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
)

// BuildTimeline discovers, normalizes, selects and aggregates without writing anything.
// Per-file failures are counted and reported on stderr; they never abort the run.
func BuildTimeline(ctx context.Context, cfg *contract.Config, src contract.LogSource) (*schema.TimelineResult, error) {
	if _, err := loadDetectors(); err != nil {
		return nil, err
	}

	logsDir := cfg.LogsPath()
	files, err := src.ListLogFiles(ctx, logsDir)
	if err != nil {
		return nil, err
	}

	result := &schema.TimelineResult{
		ScannedFiles: len(files),
		Records:      []*schema.NormalizedRecord{},
		Milestones:   cfg.Milestones,
	}
	seen := make(map[string]struct{}, len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs := filepath.Join(logsDir, filepath.FromSlash(file))
		rel := cfg.RelToRoot(abs)
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}

		rec, err := loadRecord(ctx, src, abs, rel, cfg.Milestones)
		switch {
		case errors.Is(err, ErrNotCandidate):
			continue
		case err != nil:
			result.ParseErrors++
			contract.LogWarn(fmt.Sprintf("Skipping %s", rel), err)
			continue
		}
		result.Records = append(result.Records, rec)
	}

	SortRecords(result.Records)
	result.Baseline = SelectBaseline(result.Records, cfg.Baseline)
	result.Current = SelectCurrent(result.Records, cfg.Current)
	result.Summary = SummarizeSamples(result.Current)
	return result, nil
}

// loadRecord reads and normalizes one file.
func loadRecord(ctx context.Context, src contract.LogSource, abs, rel string, table schema.MilestoneTable) (*schema.NormalizedRecord, error) {
	raw, err := src.ReadLogFile(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}
	return NormalizeFile(rel, raw, table)
}
