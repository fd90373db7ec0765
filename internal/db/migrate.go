package db

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the version recorded in PRAGMA user_version once
// migrations have run.
const SchemaVersion = 1

// Migrate runs all schema migrations. Statements are idempotent, so running
// Migrate on an up-to-date database is a no-op.
func Migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	if current < SchemaVersion {
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
			return fmt.Errorf("recording schema version: %w", err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id    TEXT PRIMARY KEY,
		name  TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		seq   INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_color ON projects(color)`,

	`CREATE TABLE IF NOT EXISTS time_entries (
		id          TEXT PRIMARY KEY,
		start_time  TEXT NOT NULL,
		end_time    TEXT,
		description TEXT NOT NULL DEFAULT '',
		project_id  TEXT NOT NULL DEFAULT '',
		is_pinned   INTEGER NOT NULL DEFAULT 0 CHECK(is_pinned IN (0, 1)),
		seq         INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_time_entries_start ON time_entries(start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_time_entries_end ON time_entries(end_time)`,
	`CREATE INDEX IF NOT EXISTS idx_time_entries_description ON time_entries(description)`,
	`CREATE INDEX IF NOT EXISTS idx_time_entries_project ON time_entries(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_time_entries_pinned ON time_entries(is_pinned)`,
}
