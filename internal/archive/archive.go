// Package archive persists finished timeline runs and their records.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
)

// StoreManager guards the process-wide archive store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	store        contract.ArchiveStore
}

// GetStore returns the configured store, or nil when archiving is disabled.
func (mgr *StoreManager) GetStore() contract.ArchiveStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the default path to the SQLite archive file.
func GetDBFilePath() string {
	return contract.GetArchiveDBFilePath()
}

// InitArchive initializes the global store for the given backend.
// NoneBackend and an empty backend leave the store unset.
func InitArchive(backend schema.DatabaseBackend, connStr string) error {
	var initErr error

	initOnce.Do(func() {
		if backend == "" || backend == schema.NoneBackend {
			return
		}
		store, err := NewArchiveStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize archive store: %w", err)
			return
		}
		Manager.Lock()
		Manager.store = store
		Manager.Unlock()
	})

	return initErr
}

// CloseArchive should be called on application shutdown.
func CloseArchive() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.store != nil {
			_ = Manager.store.Close()
		}
	})
}

// ClearArchive removes all archived data for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the archive tables.
// For NoneBackend, it does nothing.
func ClearArchive(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return clearSQLTables("mysql", connStr, recordsTable, runsTable)

	case schema.PostgreSQLBackend:
		return clearSQLTables("pgx", connStr, recordsTable, runsTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported archive backend for clearing: %s", backend)
	}
}

// clearSQLTables connects to the SQL database and drops the tables in order.
func clearSQLTables(driverName, connStr string, tables ...string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
