package db

import (
	"context"
	"fmt"
)

// migrations are applied in order. The index plus one is the schema version
// stored in PRAGMA user_version.
var migrations = []func(ctx context.Context, s *SQLite) error{
	migrateInitial,
	migrateSplitSchedule,
}

// migrate brings the schema up to the latest version.
func (s *SQLite) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	for i := version; i < len(migrations); i++ {
		if err := migrations[i](ctx, s); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("setting schema version %d: %w", i+1, err)
		}
	}
	return nil
}

// SchemaVersion returns the applied schema version.
func (s *SQLite) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version)
	return version, err
}

// migrateInitial creates the original schema, where a single scheduled_at
// column held either a bare date (due) or a date-time (placed on the grid).
func migrateInitial(ctx context.Context, s *SQLite) error {
	query := `
		CREATE TABLE IF NOT EXISTS projects (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			color      TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS items (
			id           TEXT PRIMARY KEY,
			project_id   TEXT NOT NULL REFERENCES projects(id),
			parent_id    TEXT REFERENCES items(id),
			name         TEXT NOT NULL,
			effort       INTEGER NOT NULL DEFAULT 1,
			stage        TEXT NOT NULL DEFAULT 'backlog' CHECK(stage IN ('backlog', 'active', 'done', 'routine')),
			scheduled_at TEXT,
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_items_project ON items(project_id);
		CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id);

		CREATE TABLE IF NOT EXISTS routine_occurrences (
			id          TEXT PRIMARY KEY,
			original_id TEXT NOT NULL,
			project_id  TEXT NOT NULL,
			task_id     TEXT NOT NULL,
			subtask_id  TEXT,
			name        TEXT NOT NULL,
			start_at    TEXT NOT NULL,
			end_at      TEXT NOT NULL,
			kind        TEXT NOT NULL CHECK(kind IN ('task-occurrence', 'subtask-occurrence')),
			effort      INTEGER NOT NULL DEFAULT 1,
			color       TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_occurrences_original ON routine_occurrences(original_id);
		CREATE INDEX IF NOT EXISTS idx_occurrences_start ON routine_occurrences(start_at);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// migrateSplitSchedule moves scheduled_at into two explicit columns. Bare
// dates become due_date; values with a time component become scheduled_start.
func migrateSplitSchedule(ctx context.Context, s *SQLite) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`ALTER TABLE items ADD COLUMN due_date TEXT`,
		`ALTER TABLE items ADD COLUMN scheduled_start TEXT`,
		`ALTER TABLE items ADD COLUMN scheduled_end TEXT`,
		`UPDATE items SET due_date = scheduled_at
		  WHERE scheduled_at IS NOT NULL AND length(scheduled_at) = 10`,
		`UPDATE items SET scheduled_start = scheduled_at
		  WHERE scheduled_at IS NOT NULL AND length(scheduled_at) > 10`,
		`UPDATE items SET scheduled_at = NULL`,
		`CREATE INDEX IF NOT EXISTS idx_items_scheduled ON items(scheduled_start)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("splitting scheduled_at: %w", err)
		}
	}
	return tx.Commit()
}
