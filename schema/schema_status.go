package schema

import "time"

// ArchiveStatus represents the status of the run archive.
type ArchiveStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	TotalRuns      int              `json:"total_runs"`
	TotalRecords   int              `json:"total_records"`
	LastRunID      string           `json:"last_run_id"`
	LastRunTime    time.Time        `json:"last_run_time"`
	OldestRunTime  time.Time        `json:"oldest_run_time"`
	TableSizes     map[string]int64 `json:"table_sizes"`
	LastBaseline   string           `json:"last_baseline"`
	LastCurrentCnt int              `json:"last_current_count"`
}

// ArchiveRun represents a row from the perftimeline_runs table.
type ArchiveRun struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     time.Time
	Root           string
	ScannedFiles   int
	RecordCount    int
	ParseErrors    int
	BaselinePath   *string
	CurrentSamples int
}
