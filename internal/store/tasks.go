package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attuneapp/attune/internal/log"
)

// Task is a single to-do item owned by one subject.
type Task struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   string     `json:"-"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	DueAt     *time.Time `json:"dueAt,omitempty"`
	Complete  bool       `json:"complete"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

const taskCols = `id, owner_id, title, notes, due_at, complete, created_at, updated_at`

// TaskStore manages tasks backed by PostgreSQL.
type TaskStore struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewTaskStore creates a TaskStore.
func NewTaskStore(pool *pgxpool.Pool, logger log.Logger) (*TaskStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &TaskStore{pool: pool, logger: logger}, nil
}

// Create inserts a new incomplete task and returns the stored row.
func (s *TaskStore) Create(ctx context.Context, ownerID, title, notes string, dueAt *time.Time) (*Task, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner ID is required")
	}
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (owner_id, title, notes, due_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+taskCols,
		ownerID, title, notes, dueAt,
	)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	return t, nil
}

// List returns all tasks for the owner, incomplete first, newest first
// within each group.
func (s *TaskStore) List(ctx context.Context, ownerID string) ([]*Task, error) {
	if ownerID == "" {
		return []*Task{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+taskCols+`
		 FROM tasks
		 WHERE owner_id = $1
		 ORDER BY complete ASC, created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// SetStatus sets a task's completion state. When complete is nil the
// current state is flipped; otherwise it is set explicitly, which makes
// repeated calls with the same value idempotent. The update happens in a
// single statement so concurrent toggles cannot lose a write.
func (s *TaskStore) SetStatus(ctx context.Context, ownerID string, id uuid.UUID, complete *bool) (*Task, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE tasks
		 SET complete = COALESCE($3, NOT complete), updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+taskCols,
		id, ownerID, complete,
	)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	return t, nil
}

// Delete removes a task. Returns ErrNotFound if no row matched the
// owner and ID.
func (s *TaskStore) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*Task, error) {
	t := &Task{}
	if err := row.Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Notes,
		&t.DueAt, &t.Complete, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return t, nil
}

func scanTasks(rows pgx.Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}
