package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/perftimeline/internal/contract"
	"github.com/huangsam/perftimeline/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for the run archive.
const (
	runsTable    = "perftimeline_runs"
	recordsTable = "perftimeline_records"
)

// recordColumns is the insert order of perftimeline_records.
var recordColumns = []string{
	"run_id", "source_path", "ts", "scenario", "schema_kind", "open_loop", "clients",
	"sent_per_sec", "deliver_rate", "ws_error_rate", "e2e_p99_ms", "milestones", "flags", "payload",
}

// ArchiveStoreImpl implements the ArchiveStore interface.
type ArchiveStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.ArchiveStore = &ArchiveStoreImpl{} // Compile-time check

// NewArchiveStore creates a new ArchiveStore with the specified backend.
func NewArchiveStore(backend schema.DatabaseBackend, connStr string) (contract.ArchiveStore, error) {
	var db *sql.DB
	var err error
	var driverName string

	switch backend {
	case schema.SQLiteBackend:
		driverName = "sqlite"
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetDBFilePath()
		}
		db, err = sql.Open(driverName, dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		driverName = "mysql"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname?parseTime=true", err)
		}

	case schema.PostgreSQLBackend:
		driverName = "pgx"
		db, err = sql.Open(driverName, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	case schema.NoneBackend:
		// Return a no-op store for disabled archiving
		return &ArchiveStoreImpl{backend: backend}, nil

	default:
		return nil, fmt.Errorf("unsupported archive backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}

	if err := createArchiveTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create archive tables: %w", err)
	}

	return &ArchiveStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
	}, nil
}

// createArchiveTables creates the run and record tables.
func createArchiveTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{recordsTable, getCreateRecordsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for perftimeline_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(36) PRIMARY KEY,
				started_at DATETIME(6) NOT NULL,
				finished_at DATETIME(6) NOT NULL,
				root TEXT NOT NULL,
				scanned_files INT NOT NULL,
				record_count INT NOT NULL,
				parse_errors INT NOT NULL,
				baseline_path VARCHAR(512),
				current_samples INT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				started_at TIMESTAMPTZ NOT NULL,
				finished_at TIMESTAMPTZ NOT NULL,
				root TEXT NOT NULL,
				scanned_files INT NOT NULL,
				record_count INT NOT NULL,
				parse_errors INT NOT NULL,
				baseline_path TEXT,
				current_samples INT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				started_at TEXT NOT NULL,
				finished_at TEXT NOT NULL,
				root TEXT NOT NULL,
				scanned_files INTEGER NOT NULL,
				record_count INTEGER NOT NULL,
				parse_errors INTEGER NOT NULL,
				baseline_path TEXT,
				current_samples INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// getCreateRecordsQuery returns the CREATE TABLE query for perftimeline_records.
func getCreateRecordsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(recordsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(36) NOT NULL,
				source_path VARCHAR(512) NOT NULL,
				ts DATETIME(6),
				scenario VARCHAR(64) NOT NULL,
				schema_kind VARCHAR(16) NOT NULL,
				open_loop BOOLEAN,
				clients DOUBLE,
				sent_per_sec DOUBLE,
				deliver_rate DOUBLE,
				ws_error_rate DOUBLE,
				e2e_p99_ms DOUBLE,
				milestones TEXT NOT NULL,
				flags TEXT NOT NULL,
				payload MEDIUMTEXT NOT NULL,
				PRIMARY KEY (run_id, source_path)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				source_path TEXT NOT NULL,
				ts TIMESTAMPTZ,
				scenario TEXT NOT NULL,
				schema_kind TEXT NOT NULL,
				open_loop BOOLEAN,
				clients DOUBLE PRECISION,
				sent_per_sec DOUBLE PRECISION,
				deliver_rate DOUBLE PRECISION,
				ws_error_rate DOUBLE PRECISION,
				e2e_p99_ms DOUBLE PRECISION,
				milestones TEXT NOT NULL,
				flags TEXT NOT NULL,
				payload TEXT NOT NULL,
				PRIMARY KEY (run_id, source_path)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				source_path TEXT NOT NULL,
				ts TEXT,
				scenario TEXT NOT NULL,
				schema_kind TEXT NOT NULL,
				open_loop INTEGER,
				clients REAL,
				sent_per_sec REAL,
				deliver_rate REAL,
				ws_error_rate REAL,
				e2e_p99_ms REAL,
				milestones TEXT NOT NULL,
				flags TEXT NOT NULL,
				payload TEXT NOT NULL,
				PRIMARY KEY (run_id, source_path)
			);
		`, quotedTableName)
	}
}

// SaveRun stores the run and every record in one transaction.
func (as *ArchiveStoreImpl) SaveRun(ctx context.Context, run schema.ArchiveRun, records []*schema.NormalizedRecord) (err error) {
	// Skip for NoneBackend
	if as.backend == schema.NoneBackend || as.db == nil {
		return nil
	}

	tx, err := as.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	runQuery := fmt.Sprintf(`INSERT INTO %s (run_id, started_at, finished_at, root, scanned_files,
		record_count, parse_errors, baseline_path, current_samples) VALUES (%s)`,
		quoteTableName(runsTable, as.backend), placeholders(as.backend, 9))
	if _, err = tx.ExecContext(ctx, runQuery,
		run.RunID, formatTime(run.StartedAt, as.backend), formatTime(run.FinishedAt, as.backend), run.Root,
		run.ScannedFiles, run.RecordCount, run.ParseErrors, run.BaselinePath, run.CurrentSamples,
	); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}

	recordQuery := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(recordsTable, as.backend), strings.Join(recordColumns, ", "), placeholders(as.backend, len(recordColumns)))
	stmt, err := tx.PrepareContext(ctx, recordQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		payload, mErr := json.Marshal(rec)
		if mErr != nil {
			err = fmt.Errorf("failed to marshal record %s: %w", rec.SourcePath, mErr)
			return err
		}
		if _, err = stmt.ExecContext(ctx,
			run.RunID, rec.SourcePath, formatNullableTime(rec.Timestamp, as.backend),
			string(rec.Scenario), string(rec.Kind), rec.Config.OpenLoop, rec.Config.Clients,
			rec.Metrics.SentPerSec, rec.Metrics.DeliverRate, rec.Metrics.WSErrorRate, rec.Metrics.E2EP99Ms,
			rec.MilestonesText(), rec.FlagsText(), string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.SourcePath, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *ArchiveStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the archive.
func (as *ArchiveStoreImpl) GetStatus() (schema.ArchiveStatus, error) {
	status := schema.ArchiveStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}

	if as.backend == schema.NoneBackend || as.db == nil {
		return status, nil
	}

	runs := quoteTableName(runsTable, as.backend)
	row := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var baseline sql.NullString
		lastRunQuery := fmt.Sprintf("SELECT run_id, started_at, baseline_path, current_samples FROM %s ORDER BY started_at DESC LIMIT 1", runs)
		row = as.db.QueryRow(lastRunQuery)

		switch as.backend {
		case schema.SQLiteBackend:
			var lastRunTimeStr string
			if err := row.Scan(&status.LastRunID, &lastRunTimeStr, &baseline, &status.LastCurrentCnt); err != nil {
				return status, fmt.Errorf("failed to get last run info: %w", err)
			}
			lastRunTime, err := time.Parse(time.RFC3339Nano, lastRunTimeStr)
			if err != nil {
				return status, fmt.Errorf("failed to parse last run time: %w", err)
			}
			status.LastRunTime = lastRunTime
		default: // MySQL and PostgreSQL store as native datetime
			if err := row.Scan(&status.LastRunID, &status.LastRunTime, &baseline, &status.LastCurrentCnt); err != nil {
				return status, fmt.Errorf("failed to get last run info: %w", err)
			}
		}
		status.LastBaseline = baseline.String

		oldestRunQuery := fmt.Sprintf("SELECT started_at FROM %s ORDER BY started_at ASC LIMIT 1", runs)
		row = as.db.QueryRow(oldestRunQuery)

		switch as.backend {
		case schema.SQLiteBackend:
			var oldestRunTimeStr string
			if err := row.Scan(&oldestRunTimeStr); err != nil {
				return status, fmt.Errorf("failed to get oldest run time: %w", err)
			}
			oldestRunTime, err := time.Parse(time.RFC3339Nano, oldestRunTimeStr)
			if err != nil {
				return status, fmt.Errorf("failed to parse oldest run time: %w", err)
			}
			status.OldestRunTime = oldestRunTime
		default:
			if err := row.Scan(&status.OldestRunTime); err != nil {
				return status, fmt.Errorf("failed to get oldest run time: %w", err)
			}
		}
	}

	for _, table := range []string{runsTable, recordsTable} {
		var count int64
		row := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRecords = int(status.TableSizes[recordsTable])

	return status, nil
}
