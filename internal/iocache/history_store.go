package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/patternscan/internal/contract"
	"github.com/huangsam/patternscan/schema"
)

// Table names for run history.
const (
	runsTable        = "patternscan_runs"
	frequenciesTable = "patternscan_frequencies"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, driverName, err := openDB(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend, driverName: driverName}, nil
}

// createHistoryTables creates the run history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{frequenciesTable, getCreateFrequenciesQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for patternscan_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				root VARCHAR(1024) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_files INT,
				total_patterns INT,
				suggestions INT,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				root TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_files INT,
				total_patterns INT,
				suggestions INT,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				root TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_files INTEGER,
				total_patterns INTEGER,
				suggestions INTEGER,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateFrequenciesQuery returns the CREATE TABLE query for patternscan_frequencies.
func getCreateFrequenciesQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(frequenciesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				category VARCHAR(32) NOT NULL,
				pattern_key VARCHAR(255) NOT NULL,
				files_containing INT NOT NULL,
				total_occurrences INT NOT NULL,
				significance INT NOT NULL,
				examples TEXT NOT NULL,
				recorded_at DATETIME(6) NOT NULL,
				PRIMARY KEY (run_id, category, pattern_key)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				category TEXT NOT NULL,
				pattern_key TEXT NOT NULL,
				files_containing INT NOT NULL,
				total_occurrences INT NOT NULL,
				significance INT NOT NULL,
				examples TEXT NOT NULL,
				recorded_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (run_id, category, pattern_key)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				category TEXT NOT NULL,
				pattern_key TEXT NOT NULL,
				files_containing INTEGER NOT NULL,
				total_occurrences INTEGER NOT NULL,
				significance INTEGER NOT NULL,
				examples TEXT NOT NULL,
				recorded_at TEXT NOT NULL,
				PRIMARY KEY (run_id, category, pattern_key)
			);
		`, quotedTableName)
	}
}

// disabled reports whether the store is a no-op.
func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// BeginRun creates a new run row and returns its ID.
func (hs *HistoryStoreImpl) BeginRun(runUUID, root string, startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	args := []any{runUUID, root, formatTime(startTime, hs.backend), string(configJSON)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, root, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = hs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, root, start_time, config_params) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		if result, err = hs.db.Exec(query, args...); err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error {
	if hs.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	ph := placeholders(hs.backend, 6)

	start := timeScanner{backend: hs.backend}
	selectQuery := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, ph[0])
	if err := hs.db.QueryRow(selectQuery, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return fmt.Errorf("failed to read start_time for run %d: %w", runID, err)
	}
	if startTime == nil {
		return fmt.Errorf("run %d has no start_time", runID)
	}

	durationMs := endTime.Sub(*startTime).Milliseconds()
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_files = %s, total_patterns = %s, suggestions = %s WHERE run_id = %s`,
		append([]any{quotedTableName}, ph...)...)
	args := []any{formatTime(endTime, hs.backend), durationMs, summary.TotalFiles, summary.TotalPatterns, summary.Suggestions, runID}
	if _, err := hs.db.Exec(updateQuery, args...); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordFrequencies stores one row per reported frequency entry inside a
// single transaction. Rows are written in category then key order.
func (hs *HistoryStoreImpl) RecordFrequencies(runID int64, recordedAt time.Time, patterns map[schema.Category]map[string]schema.PatternSummary) error {
	if hs.disabled() {
		return nil
	}

	ph := placeholders(hs.backend, 8)
	query := fmt.Sprintf(`INSERT INTO %s (run_id, category, pattern_key, files_containing, total_occurrences, significance, examples, recorded_at)
		VALUES (%s)`, quoteTableName(frequenciesTable, hs.backend), joinPlaceholders(ph))

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare frequency insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	ts := formatTime(recordedAt, hs.backend)
	for _, category := range slices.Sorted(maps.Keys(patterns)) {
		entries := patterns[category]
		for _, key := range slices.Sorted(maps.Keys(entries)) {
			summary := entries[key]
			examples := summary.Examples
			if examples == nil {
				examples = []string{}
			}
			examplesJSON, err := json.Marshal(examples)
			if err != nil {
				return fmt.Errorf("failed to marshal examples: %w", err)
			}
			if _, err := stmt.Exec(runID, string(category), key, summary.Frequency, summary.TotalOccurrences, summary.Significance, string(examplesJSON), ts); err != nil {
				return fmt.Errorf("failed to insert frequency %s/%s: %w", category, key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit frequencies: %w", err)
	}
	return nil
}

func joinPlaceholders(ph []any) string {
	parts := make([]string, len(ph))
	for i, p := range ph {
		parts[i] = p.(string)
	}
	return strings.Join(parts, ", ")
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if hs.disabled() {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeScanner{backend: hs.backend}
		lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns)
		if err := hs.db.QueryRow(lastQuery).Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if t, err := last.value(); err != nil {
			return status, err
		} else if t != nil {
			status.LastRunTime = *t
		}

		oldest := timeScanner{backend: hs.backend}
		oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns)
		if err := hs.db.QueryRow(oldestQuery).Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		if t, err := oldest.value(); err != nil {
			return status, err
		} else if t != nil {
			status.OldestRunTime = *t
		}

		filesQuery := fmt.Sprintf("SELECT COALESCE(SUM(total_files), 0) FROM %s", quotedRuns)
		if err := hs.db.QueryRow(filesQuery).Scan(&status.TotalFilesSeen); err != nil {
			return status, fmt.Errorf("failed to get total files: %w", err)
		}
	}

	for _, table := range []string{runsTable, frequenciesTable} {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves every run ordered by ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, root, start_time, end_time, run_duration_ms,
		total_files, total_patterns, suggestions, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		start := timeScanner{backend: hs.backend}
		end := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Root, start.dest(), end.dest(),
			&record.DurationMs, &record.TotalFiles, &record.TotalPatterns, &record.Suggestions, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllFrequencies retrieves every frequency row ordered by run, category and key.
func (hs *HistoryStoreImpl) GetAllFrequencies() ([]schema.FrequencyRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, category, pattern_key, files_containing, total_occurrences,
		significance, examples, recorded_at FROM %s ORDER BY run_id, category, pattern_key`, quoteTableName(frequenciesTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query frequencies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FrequencyRecord
	for rows.Next() {
		var record schema.FrequencyRecord
		recorded := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.RunID, &record.Category, &record.PatternKey, &record.FilesContaining,
			&record.TotalOccurrences, &record.Significance, &record.Examples, recorded.dest()); err != nil {
			return nil, fmt.Errorf("failed to scan frequency: %w", err)
		}
		t, err := recorded.value()
		if err != nil {
			return nil, err
		}
		if t != nil {
			record.RecordedAt = *t
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating frequencies: %w", err)
	}
	return results, nil
}
