package contract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// LogFilePattern is the base-name glob that selects single-chat end-to-end result files.
const LogFilePattern = "*single*e2e*.json"

// LocalLogSource implements the LogSource interface on the local filesystem.
type LocalLogSource struct{}

var _ LogSource = &LocalLogSource{} // Compile-time check

// NewLocalLogSource creates a new instance of the local log source.
func NewLocalLogSource() *LocalLogSource {
	return &LocalLogSource{}
}

// ListLogFiles implements the LogSource interface.
func (s *LocalLogSource) ListLogFiles(ctx context.Context, dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("cannot access log directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("log path %q is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			// Unreadable entries below the root are skipped
			LogWarn(fmt.Sprintf("Skipping unreadable %s", path), walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() || !MatchesLogFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan of %q failed: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// ReadLogFile implements the LogSource interface.
func (s *LocalLogSource) ReadLogFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

// MatchesLogFile reports whether a base name matches LogFilePattern.
// Matching is case-sensitive and "single" must come before "e2e".
func MatchesLogFile(name string) bool {
	ok, _ := path.Match(LogFilePattern, name)
	return ok
}
