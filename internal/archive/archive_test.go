package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/perftimeline/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager() {
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test
	Manager.Lock()
	Manager.store = nil
	Manager.Unlock()
}

func TestInitArchive(t *testing.T) {
	t.Run("sqlite setup", func(t *testing.T) {
		resetManager()
		dbPath := filepath.Join(t.TempDir(), "archive.db")

		require.NoError(t, InitArchive(schema.SQLiteBackend, dbPath))
		require.NotNil(t, Manager.GetStore())

		CloseArchive()

		_, err := os.Stat(dbPath)
		assert.NoError(t, err, "database file was created")
	})

	t.Run("idempotent setup", func(t *testing.T) {
		resetManager()
		dbPath := filepath.Join(t.TempDir(), "archive.db")

		// Multiple initializations should be safe (sync.Once)
		require.NoError(t, InitArchive(schema.SQLiteBackend, dbPath))
		first := Manager.GetStore()
		require.NoError(t, InitArchive(schema.SQLiteBackend, dbPath))
		assert.Same(t, first, Manager.GetStore())

		CloseArchive()
		CloseArchive()
	})

	t.Run("none backend leaves store unset", func(t *testing.T) {
		resetManager()
		require.NoError(t, InitArchive(schema.NoneBackend, ""))
		assert.Nil(t, Manager.GetStore())
		CloseArchive()
	})

	t.Run("invalid backend", func(t *testing.T) {
		resetManager()
		err := InitArchive(schema.DatabaseBackend("oracle"), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize archive store")
		assert.Nil(t, Manager.GetStore())
	})
}

func TestClearArchive(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "archive.db")
		require.NoError(t, os.WriteFile(dbPath, []byte("x"), 0o644))

		require.NoError(t, ClearArchive(schema.SQLiteBackend, dbPath, ""))
		_, err := os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sqlite missing file is fine", func(t *testing.T) {
		assert.NoError(t, ClearArchive(schema.SQLiteBackend, filepath.Join(t.TempDir(), "nope.db"), ""))
	})

	t.Run("sqlite requires path", func(t *testing.T) {
		assert.Error(t, ClearArchive(schema.SQLiteBackend, "", ""))
	})

	t.Run("none backend", func(t *testing.T) {
		assert.NoError(t, ClearArchive(schema.NoneBackend, "", ""))
	})

	t.Run("unsupported backend", func(t *testing.T) {
		err := ClearArchive(schema.DatabaseBackend("oracle"), "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported archive backend")
	})
}

func TestWriteArchiveStatus(t *testing.T) {
	t.Run("disconnected", func(t *testing.T) {
		var buf bytes.Buffer
		writeArchiveStatus(&buf, schema.ArchiveStatus{Backend: "none"})
		assert.Equal(t, "Archive Backend: none\nConnected: false\n", buf.String())
	})

	t.Run("with runs", func(t *testing.T) {
		var buf bytes.Buffer
		writeArchiveStatus(&buf, schema.ArchiveStatus{
			Backend:        "sqlite",
			Connected:      true,
			TotalRuns:      2,
			TotalRecords:   5,
			LastRunID:      "run-2",
			LastRunTime:    time.Date(2026, 1, 20, 11, 0, 0, 0, time.UTC),
			OldestRunTime:  time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC),
			LastCurrentCnt: 3,
			TableSizes:     map[string]int64{recordsTable: 5, runsTable: 2},
		})
		out := buf.String()
		assert.Contains(t, out, "Last Run ID: run-2\n")
		assert.Contains(t, out, "Last Run: 2026-01-20 11:00:00\n")
		assert.Contains(t, out, "Last Baseline: not found\n")
		assert.Contains(t, out, "Total Records: 5\n")
		assert.Contains(t, out, "  perftimeline_records: 5 rows\n  perftimeline_runs: 2 rows\n")
	})
}

func TestMockArchiveStore(t *testing.T) {
	store := &MockArchiveStore{}
	store.On("GetStatus").Return(schema.ArchiveStatus{Backend: "mock", TotalRuns: 1}, nil)
	store.On("Close").Return(nil)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
	assert.NoError(t, store.Close())
	store.AssertExpectations(t)
}
