// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/perftimeline/schema"
)

// LogSource defines the operations needed to discover and read perf logs.
// This allows the pipeline to be tested without touching the filesystem.
type LogSource interface {
	// ListLogFiles returns every candidate log file under dir, as paths relative to dir
	// using forward slashes, in lexical order. A missing dir yields no files and no error.
	ListLogFiles(ctx context.Context, dir string) ([]string, error)

	// ReadLogFile returns the raw bytes of one log file.
	ReadLogFile(ctx context.Context, path string) ([]byte, error)
}

// ArchiveStore defines the interface for persisting pipeline runs.
type ArchiveStore interface {
	// SaveRun stores one run and all of its normalized records atomically.
	SaveRun(ctx context.Context, run schema.ArchiveRun, records []*schema.NormalizedRecord) error

	// GetStatus returns status information about the archive
	GetStatus() (schema.ArchiveStatus, error)

	// Close closes the underlying connection
	Close() error
}
