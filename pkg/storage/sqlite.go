package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/dshills/gotrail/pkg/validation"
)

// Columns every sink log table carries in front of the header columns.
const (
	seqColumn        = "seq"
	runIDColumn      = "run_id"
	recordedAtColumn = "recorded_at"
)

// SQLiteSink persists log records to a SQLite database.
//
// Each sink owns one log table, created on first write with the header
// columns as TEXT plus bookkeeping columns (seq, run_id, recorded_at).
// Every sink instance carries a fresh run ID, so records from successive
// runs into the same table stay distinguishable. Writes into an existing
// table always append: SQLite sinks have no overwrite mode.
type SQLiteSink struct {
	db        *sql.DB
	path      string
	tableName string
	runID     string
}

// NewSQLiteSink opens (or creates) the database at dbPath and prepares a
// sink writing to the named log table.
func NewSQLiteSink(dbPath, tableName string) (*SQLiteSink, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if !validation.ValidSQLIdentifier(tableName) {
		return nil, fmt.Errorf("invalid log table name: %q", tableName)
	}

	// Create directory if it doesn't exist
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	if err := InitializeDatabase(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &SQLiteSink{
		db:        db,
		path:      dbPath,
		tableName: tableName,
		runID:     uuid.NewString(),
	}, nil
}

// RunID returns the identifier stamped on every record this sink writes.
func (s *SQLiteSink) RunID() string {
	return s.runID
}

// Target returns the database path and log table for notices and errors.
func (s *SQLiteSink) Target() string {
	return fmt.Sprintf("%s#%s", s.path, s.tableName)
}

// Close closes the database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Write persists the header and rows as one transaction.
// The log table is created from the header on first use; later writes must
// present the same header.
func (s *SQLiteSink) Write(header []string, rows [][]string) error {
	if len(header) == 0 {
		return fmt.Errorf("sink header cannot be empty")
	}
	for _, col := range header {
		if !validation.ValidSQLIdentifier(col) {
			return fmt.Errorf("invalid log column name: %q", col)
		}
		if col == seqColumn || col == runIDColumn || col == recordedAtColumn {
			return fmt.Errorf("log column name %q collides with a bookkeeping column", col)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.ensureLogTable(tx, header); err != nil {
		return err
	}

	// Register the run before its records
	registerRun := `
		INSERT INTO sink_runs (run_id, table_name, started_at)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`
	if _, err := tx.Exec(registerRun, s.runID, s.tableName, time.Now()); err != nil {
		return fmt.Errorf("failed to register sink run: %w", err)
	}

	insert := s.insertStatement(header)
	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("failed to prepare log insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("log record has %d fields, header has %d", len(row), len(header))
		}
		args := make([]interface{}, 0, len(row)+2)
		args = append(args, s.runID, now)
		for _, field := range row {
			args = append(args, field)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert log record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit log records: %w", err)
	}

	return nil
}

// ensureLogTable creates the sink's log table from the header if it does
// not exist yet.
func (s *SQLiteSink) ensureLogTable(tx *sql.Tx, header []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %q (\n", s.tableName)
	fmt.Fprintf(&b, "\t%s INTEGER PRIMARY KEY AUTOINCREMENT,\n", seqColumn)
	fmt.Fprintf(&b, "\t%s TEXT NOT NULL,\n", runIDColumn)
	fmt.Fprintf(&b, "\t%s TIMESTAMP NOT NULL", recordedAtColumn)
	for _, col := range header {
		fmt.Fprintf(&b, ",\n\t%q TEXT", col)
	}
	b.WriteString("\n);")

	if _, err := tx.Exec(b.String()); err != nil {
		return fmt.Errorf("failed to create log table %q: %w", s.tableName, err)
	}
	return nil
}

// insertStatement builds the parameterized insert for the header layout.
func (s *SQLiteSink) insertStatement(header []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %q (%s, %s", s.tableName, runIDColumn, recordedAtColumn)
	for _, col := range header {
		fmt.Fprintf(&b, ", %q", col)
	}
	b.WriteString(") VALUES (?, ?")
	b.WriteString(strings.Repeat(", ?", len(header)))
	b.WriteString(")")
	return b.String()
}

// RunInfo describes one registered sink run.
type RunInfo struct {
	// RunID is the unique identifier stamped on the run's records
	RunID string
	// TableName is the log table the run wrote to
	TableName string
	// StartedAt is when the run first flushed
	StartedAt time.Time
}

// ListRuns returns every registered run in the database, most recent first.
func ListRuns(dbPath string) ([]RunInfo, error) {
	db, err := openReadOnly(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.Query("SELECT run_id, table_name, started_at FROM sink_runs ORDER BY started_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sink runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]RunInfo, 0)
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.RunID, &info.TableName, &info.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sink run: %w", err)
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sink runs: %w", err)
	}

	return runs, nil
}

// ReadRecords returns the full contents of a log table in insertion order.
// The header covers every column including the bookkeeping ones.
func ReadRecords(dbPath, tableName string) ([]string, [][]string, error) {
	if !validation.ValidSQLIdentifier(tableName) {
		return nil, nil, fmt.Errorf("invalid log table name: %q", tableName)
	}

	db, err := openReadOnly(dbPath)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = db.Close() }()

	query := fmt.Sprintf("SELECT * FROM %q ORDER BY %s", tableName, seqColumn)
	rows, err := db.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query log table %q: %w", tableName, err)
	}
	defer func() { _ = rows.Close() }()

	header, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read log columns: %w", err)
	}

	records := make([][]string, 0)
	for rows.Next() {
		raw := make([]sql.NullString, len(header))
		dest := make([]interface{}, len(header))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan log record: %w", err)
		}

		record := make([]string, len(header))
		for i, field := range raw {
			if field.Valid {
				record[i] = field.String
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating log records: %w", err)
	}

	return header, records, nil
}

// openReadOnly opens an existing database for queries.
func openReadOnly(dbPath string) (*sql.DB, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s", dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}
