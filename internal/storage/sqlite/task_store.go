package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/taskchat/internal/storage"
	"github.com/scrypster/taskchat/pkg/types"
)

// TaskStore implements storage.TaskStore using SQLite.
type TaskStore struct {
	db *sql.DB
}

// Open opens a SQLite database at dsn, configures WAL mode, and applies the
// schema. The returned *sql.DB is shared by TaskStore and ConversationStore
// so both see the same single-writer connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode allows concurrent readers to proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Wait instead of failing with SQLITE_BUSY when the connection is held
	// by another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// NewTaskStore creates a TaskStore on an already-opened database.
func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// CreateTask inserts a new task row.
func (s *TaskStore) CreateTask(ctx context.Context, task *types.Task) error {
	if task == nil {
		return storage.ErrInvalidInput
	}
	if task.ID == "" {
		return fmt.Errorf("%w: task ID is required", storage.ErrInvalidInput)
	}
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("%w: task title is required", storage.ErrInvalidInput)
	}
	if task.UserID == "" {
		return fmt.Errorf("%w: task user ID is required", storage.ErrInvalidInput)
	}

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, completed, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.Title, task.Description, task.Completed, task.UserID, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTask retrieves one task by ID, scoped to userID.
func (s *TaskStore) GetTask(ctx context.Context, id, userID string) (*types.Task, error) {
	if id == "" || userID == "" {
		return nil, fmt.Errorf("%w: task ID and user ID are required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, completed, user_id, created_at, updated_at
		FROM tasks
		WHERE id = ? AND user_id = ?
	`, id, userID)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListByUser returns all tasks owned by userID in insertion order.
// The id tiebreaker keeps the ordering deterministic when two tasks share a
// created_at timestamp.
func (s *TaskStore) ListByUser(ctx context.Context, userID string) ([]types.Task, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, completed, user_id, created_at, updated_at
		FROM tasks
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []types.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask persists title, description, completed, and updated_at of an
// existing task.
func (s *TaskStore) UpdateTask(ctx context.Context, task *types.Task) error {
	if task == nil || task.ID == "" || task.UserID == "" {
		return fmt.Errorf("%w: task ID and user ID are required", storage.ErrInvalidInput)
	}
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("%w: task title is required", storage.ErrInvalidInput)
	}

	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, completed = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, task.Title, task.Description, task.Completed, task.UpdatedAt, task.ID, task.UserID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteTask physically removes a task by ID, scoped to userID.
func (s *TaskStore) DeleteTask(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return fmt.Errorf("%w: task ID and user ID are required", storage.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *TaskStore) Close() error {
	return s.db.Close()
}

// GetDB exposes the underlying connection for callers that share it (e.g.
// wiring a ConversationStore onto the same file).
func (s *TaskStore) GetDB() *sql.DB {
	return s.db
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*types.Task, error) {
	var task types.Task
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.UserID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}

// Compile-time assertion.
var _ storage.TaskStore = (*TaskStore)(nil)
