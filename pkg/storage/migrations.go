package storage

import (
	"database/sql"
	"fmt"
)

// MigrationVersion tracks the current database schema version.
const MigrationVersion = 1

// InitializeDatabase creates the SQLite schema shared by every sink in a
// database. Log tables themselves are created per sink on first write;
// this sets up migration tracking and the run registry.
func InitializeDatabase(db *sql.DB) error {
	// Create migrations table to track schema version
	migrationsTable := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL UNIQUE,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(migrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Check current version
	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to check migration version: %w", err)
	}

	// Apply migrations
	if currentVersion < 1 {
		if err := applyMigration1(db); err != nil {
			return fmt.Errorf("failed to apply migration 1: %w", err)
		}
	}

	return nil
}

// applyMigration1 creates the initial shared schema.
func applyMigration1(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Run registry - one row per sink run, so records in log tables can be
	// traced back to the run that wrote them
	sinkRunsTable := `
	CREATE TABLE sink_runs (
		run_id TEXT PRIMARY KEY,
		table_name TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL
	);`

	if _, err := tx.Exec(sinkRunsTable); err != nil {
		return fmt.Errorf("failed to create sink_runs table: %w", err)
	}

	sinkRunsIndexes := []string{
		"CREATE INDEX idx_sink_runs_table_name ON sink_runs(table_name, started_at DESC);",
		"CREATE INDEX idx_sink_runs_started_at ON sink_runs(started_at DESC);",
	}

	for _, idx := range sinkRunsIndexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create sink run index: %w", err)
		}
	}

	// Record migration
	if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", 1); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}
