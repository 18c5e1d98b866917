// Package db provides SQLite storage for the work hierarchy and routine occurrences.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/routine"
	"github.com/javiermolinar/weekgrid/internal/task"
)

// SQLite implements task.Repository and routine.Store.
type SQLite struct {
	db *sql.DB
}

var (
	_ task.Repository = (*SQLite)(nil)
	_ routine.Store   = (*SQLite)(nil)
)

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	return open(path)
}

// NewMemory creates an in-memory repository. Used by tests and dry runs.
func NewMemory() (*SQLite, error) {
	return open(":memory:")
}

func open(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps :memory: databases and per-connection
	// pragmas consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateProject adds a new project. An empty ID is replaced by a fresh uuid.
func (s *SQLite) CreateProject(ctx context.Context, p *task.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	query := `INSERT INTO projects (id, name, color, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Color, p.CreatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

// CreateItem adds a task or subtask. An empty ID is replaced by a fresh uuid.
// Returns task.ErrProjectNotFound or task.ErrItemNotFound when the owner is missing.
func (s *SQLite) CreateItem(ctx context.Context, w *task.WorkItem) error {
	if err := s.checkOwner(ctx, w); err != nil {
		return err
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO items (
			id, project_id, parent_id, name, effort, stage,
			due_date, scheduled_start, scheduled_end, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		w.ID,
		w.ProjectID,
		nullString(w.ParentID),
		w.Name,
		int(w.Effort),
		string(w.Stage),
		formatDate(w.DueDate),
		formatInstant(w.ScheduledStart),
		formatInstant(w.ScheduledEnd),
		w.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	return nil
}

func (s *SQLite) checkOwner(ctx context.Context, w *task.WorkItem) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, w.ProjectID).Scan(&n); err != nil {
		return fmt.Errorf("checking project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", task.ErrProjectNotFound, w.ProjectID)
	}
	if w.ParentID == "" {
		return nil
	}
	query := `SELECT COUNT(*) FROM items WHERE id = ? AND project_id = ? AND parent_id IS NULL`
	if err := s.db.QueryRowContext(ctx, query, w.ParentID, w.ProjectID).Scan(&n); err != nil {
		return fmt.Errorf("checking parent: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: parent %s", task.ErrItemNotFound, w.ParentID)
	}
	return nil
}

// LoadBoard reads every project, task and subtask in insertion order.
func (s *SQLite) LoadBoard(ctx context.Context) (*task.Board, error) {
	projects, err := s.listProjects(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*task.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}

	items, err := s.listItems(ctx)
	if err != nil {
		return nil, err
	}
	tasks := make(map[string]*task.WorkItem)
	for _, w := range items {
		if w.ParentID != "" {
			continue
		}
		p, ok := byID[w.ProjectID]
		if !ok {
			continue
		}
		p.Tasks = append(p.Tasks, w)
		tasks[w.ID] = w
	}
	for _, w := range items {
		if w.ParentID == "" {
			continue
		}
		if parent, ok := tasks[w.ParentID]; ok {
			parent.Subtasks = append(parent.Subtasks, w)
		}
	}

	return task.NewBoard(projects), nil
}

func (s *SQLite) listProjects(ctx context.Context) ([]*task.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color, created_at FROM projects ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*task.Project
	for rows.Next() {
		var (
			p         task.Project
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Color, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.CreatedAt, _ = parseDate(createdAt)
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (s *SQLite) listItems(ctx context.Context) ([]*task.WorkItem, error) {
	query := `
		SELECT id, project_id, parent_id, name, effort, stage,
		       due_date, scheduled_start, scheduled_end, created_at
		FROM items
		ORDER BY rowid
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*task.WorkItem
	for rows.Next() {
		var (
			w              task.WorkItem
			parentID       sql.NullString
			effortPoints   int
			stage          string
			dueDate        sql.NullString
			scheduledStart sql.NullString
			scheduledEnd   sql.NullString
			createdAt      string
		)
		err := rows.Scan(
			&w.ID,
			&w.ProjectID,
			&parentID,
			&w.Name,
			&effortPoints,
			&stage,
			&dueDate,
			&scheduledStart,
			&scheduledEnd,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}

		w.ParentID = parentID.String
		w.Effort = effort.Estimate(effortPoints)
		w.Stage = task.Stage(stage)
		w.CreatedAt, _ = parseDate(createdAt)

		if dueDate.Valid {
			d, err := parseDate(dueDate.String)
			if err != nil {
				return nil, fmt.Errorf("parsing due date of %s: %w", w.ID, err)
			}
			w.DueDate = &d
		}
		if scheduledStart.Valid {
			start, timed, err := parseInstant(scheduledStart.String)
			if err != nil {
				return nil, fmt.Errorf("parsing scheduled start of %s: %w", w.ID, err)
			}
			if timed {
				w.ScheduledStart = &start
			} else if w.DueDate == nil {
				// A bare date in the schedule column only ever meant "due that day".
				w.DueDate = &start
			}
		}
		if scheduledEnd.Valid && w.ScheduledStart != nil {
			end, _, err := parseInstant(scheduledEnd.String)
			if err != nil {
				return nil, fmt.Errorf("parsing scheduled end of %s: %w", w.ID, err)
			}
			w.ScheduledEnd = &end
		}

		items = append(items, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// SetSchedule stores the scheduled span of an item.
func (s *SQLite) SetSchedule(ctx context.Context, id string, start, end time.Time) error {
	if !end.After(start) {
		return task.ErrEndBeforeStart
	}
	query := `UPDATE items SET scheduled_start = ?, scheduled_end = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, start.Format(time.RFC3339), end.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("setting schedule: %w", err)
	}
	return requireRow(result, id)
}

// ClearSchedule removes the scheduled span of an item.
func (s *SQLite) ClearSchedule(ctx context.Context, id string) error {
	query := `UPDATE items SET scheduled_start = NULL, scheduled_end = NULL WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("clearing schedule: %w", err)
	}
	return requireRow(result, id)
}

// UpdateItem updates name and effort in place.
func (s *SQLite) UpdateItem(ctx context.Context, id, name string, e effort.Estimate) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return task.ErrEmptyName
	}
	query := `UPDATE items SET name = ?, effort = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, name, int(e), id)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireRow(result, id)
}

// DeleteItem removes an item and its subtasks.
func (s *SQLite) DeleteItem(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE parent_id = ?`, id); err != nil {
		return fmt.Errorf("deleting subtasks: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if err := requireRow(result, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LoadOccurrences reads every stored routine occurrence ordered by start.
func (s *SQLite) LoadOccurrences(ctx context.Context) ([]routine.Occurrence, error) {
	query := `
		SELECT id, original_id, project_id, task_id, subtask_id, name,
		       start_at, end_at, kind, effort, color
		FROM routine_occurrences
		ORDER BY start_at, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying occurrences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var occs []routine.Occurrence
	for rows.Next() {
		var (
			o            routine.Occurrence
			subtaskID    sql.NullString
			startAt      string
			endAt        string
			kind         string
			effortPoints int
		)
		err := rows.Scan(
			&o.ID,
			&o.OriginalID,
			&o.ProjectID,
			&o.TaskID,
			&subtaskID,
			&o.Name,
			&startAt,
			&endAt,
			&kind,
			&effortPoints,
			&o.Color,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning occurrence: %w", err)
		}
		o.SubtaskID = subtaskID.String
		o.Kind = routine.Kind(kind)
		o.Effort = effort.Estimate(effortPoints)
		if o.Start, _, err = parseInstant(startAt); err != nil {
			return nil, fmt.Errorf("parsing start of occurrence %s: %w", o.ID, err)
		}
		if o.End, _, err = parseInstant(endAt); err != nil {
			return nil, fmt.Errorf("parsing end of occurrence %s: %w", o.ID, err)
		}
		occs = append(occs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating occurrences: %w", err)
	}
	return occs, nil
}

// SaveOccurrences replaces the stored occurrence list with occs in a single
// transaction.
func (s *SQLite) SaveOccurrences(ctx context.Context, occs []routine.Occurrence) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM routine_occurrences`); err != nil {
		return fmt.Errorf("clearing occurrences: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO routine_occurrences (
			id, original_id, project_id, task_id, subtask_id, name,
			start_at, end_at, kind, effort, color
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, o := range occs {
		_, err := stmt.ExecContext(ctx,
			o.ID,
			o.OriginalID,
			o.ProjectID,
			o.TaskID,
			nullString(o.SubtaskID),
			o.Name,
			o.Start.Format(time.RFC3339),
			o.End.Format(time.RFC3339),
			string(o.Kind),
			int(o.Effort),
			o.Color,
		)
		if err != nil {
			return fmt.Errorf("inserting occurrence %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", task.ErrItemNotFound, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format("2006-01-02"), Valid: true}
}

func formatInstant(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

var errUnrecognizedDate = errors.New("unrecognized date format")

// parseDate parses a date string in various formats SQLite might return.
// Date-only values (midnight) are parsed in local timezone to match time.Now() behavior.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}

	// SQLite returns DATE columns as "2006-01-02T00:00:00Z"; treat as local midnight.
	if len(s) == 20 && s[10] == 'T' && s[19] == 'Z' && s[11:19] == "00:00:00" {
		if t, err := time.ParseInLocation("2006-01-02", s[:10], time.Local); err == nil {
			return t, nil
		}
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
	for _, f := range formats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t.Local(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s", errUnrecognizedDate, s)
}

// parseInstant parses a stored schedule value. timed is false for a bare
// calendar date, which carries no position on the grid.
func parseInstant(s string) (t time.Time, timed bool, err error) {
	s = strings.TrimSpace(s)
	if len(s) == len("2006-01-02") {
		t, err = time.ParseInLocation("2006-01-02", s, time.Local)
		return t, false, err
	}
	t, err = parseDate(s)
	return t, err == nil, err
}
