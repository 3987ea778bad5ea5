package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/store"
)

// MaxTaskTitleLength caps task titles.
const MaxTaskTitleLength = 200

// TaskStore is the persistence surface the task tools need.
type TaskStore interface {
	Create(ctx context.Context, ownerID, title, notes string, dueAt *time.Time) (*store.Task, error)
	List(ctx context.Context, ownerID string) ([]*store.Task, error)
	SetStatus(ctx context.Context, ownerID string, id uuid.UUID, complete *bool) (*store.Task, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

// CreateTaskInput defines input for the create_task tool.
type CreateTaskInput struct {
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
	DueAt string `json:"dueAt,omitempty"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in CreateTaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if len(in.Title) > MaxTaskTitleLength {
		return fmt.Errorf("title length %d exceeds maximum %d", len(in.Title), MaxTaskTitleLength)
	}
	if in.DueAt != "" {
		if _, err := time.Parse(time.RFC3339, in.DueAt); err != nil {
			return fmt.Errorf("dueAt must be RFC 3339 (e.g. 2026-09-15T09:00:00Z)")
		}
	}
	return nil
}

// ListTasksInput defines input for the list_tasks tool (none needed).
type ListTasksInput struct{}

// SetTaskStatusInput defines input for the set_task_status tool.
// When Complete is omitted the current state is flipped; setting it
// explicitly makes the call idempotent.
type SetTaskStatusInput struct {
	TaskID   string `json:"taskId"`
	Complete *bool  `json:"complete,omitempty"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in SetTaskStatusInput) Validate() error {
	return validateID(in.TaskID, "taskId")
}

// DeleteTaskInput defines input for the delete_task tool.
type DeleteTaskInput struct {
	TaskID string `json:"taskId"`
}

// Validate checks domain constraints beyond the JSON schema.
func (in DeleteTaskInput) Validate() error {
	return validateID(in.TaskID, "taskId")
}

func validateID(id, field string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s must be a valid UUID", field)
	}
	return nil
}

// Tasks holds dependencies for task tools.
type Tasks struct {
	store  TaskStore
	logger log.Logger
}

// NewTasks creates a Tasks toolset.
func NewTasks(st TaskStore, logger log.Logger) (*Tasks, error) {
	if st == nil {
		return nil, fmt.Errorf("task store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Tasks{store: st, logger: logger}, nil
}

// RegisterTasks registers the task tools with Genkit.
func RegisterTasks(g *genkit.Genkit, ts *Tasks) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if ts == nil {
		return nil, fmt.Errorf("Tasks is required")
	}

	createTask, err := Define(g, CreateTaskName,
		"Create a to-do task for the signed-in user. "+
			"Provide a short title, optional notes, and an optional RFC 3339 due time. "+
			"Requires the user to be signed in.",
		ts.CreateTask)
	if err != nil {
		return nil, err
	}

	listTasks, err := Define(g, ListTasksName,
		"List the signed-in user's tasks, incomplete first. "+
			"Returns each task's ID, title, notes, due time, and completion state. "+
			"Requires the user to be signed in.",
		ts.ListTasks)
	if err != nil {
		return nil, err
	}

	setTaskStatus, err := Define(g, SetTaskStatusName,
		"Mark a task complete or incomplete. "+
			"Pass 'complete' explicitly to set the state; omit it to flip the current state. "+
			"Use list_tasks first to find the task ID. Requires the user to be signed in.",
		ts.SetTaskStatus)
	if err != nil {
		return nil, err
	}

	deleteTask, err := Define(g, DeleteTaskName,
		"Permanently delete a task by ID. "+
			"Use list_tasks first to find the task ID and confirm with the user before deleting. "+
			"Requires the user to be signed in.",
		ts.DeleteTask)
	if err != nil {
		return nil, err
	}

	return []ai.Tool{createTask, listTasks, setTaskStatus, deleteTask}, nil
}

// CreateTask creates a task owned by the signed-in subject.
func (t *Tasks) CreateTask(tctx *ai.ToolContext, in CreateTaskInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	var dueAt *time.Time
	if in.DueAt != "" {
		parsed, err := time.Parse(time.RFC3339, in.DueAt)
		if err != nil {
			return Errf(ErrCodeValidation, "dueAt must be RFC 3339"), nil
		}
		dueAt = &parsed
	}

	task, err := t.store.Create(tctx.Context, subject, strings.TrimSpace(in.Title), in.Notes, dueAt)
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("creating task: %w", err)
		}
		t.logger.Warn("creating task", "error", err)
		return Errf(ErrCodeExecution, "could not create the task"), nil
	}

	t.logger.Debug("task created", "task_id", task.ID)
	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Created task %q.", task.Title),
		Data:    map[string]any{"task": task},
	}, nil
}

// ListTasks lists all tasks owned by the signed-in subject.
func (t *Tasks) ListTasks(tctx *ai.ToolContext, _ ListTasksInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	tasks, err := t.store.List(tctx.Context, subject)
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("listing tasks: %w", err)
		}
		t.logger.Warn("listing tasks", "error", err)
		return Errf(ErrCodeExecution, "could not list tasks"), nil
	}

	if tasks == nil {
		tasks = []*store.Task{}
	}
	return OK(map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	}), nil
}

// SetTaskStatus sets or flips a task's completion state.
func (t *Tasks) SetTaskStatus(tctx *ai.ToolContext, in SetTaskStatusInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	id := uuid.MustParse(in.TaskID) // validated in Validate
	task, err := t.store.SetStatus(tctx.Context, subject, id, in.Complete)
	if errors.Is(err, store.ErrNotFound) {
		return Errf(ErrCodeNotFound, "no task with ID %s", in.TaskID), nil
	}
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("updating task: %w", err)
		}
		t.logger.Warn("updating task status", "task_id", id, "error", err)
		return Errf(ErrCodeExecution, "could not update the task"), nil
	}

	state := "incomplete"
	if task.Complete {
		state = "complete"
	}
	return Result{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Task %q is now %s.", task.Title, state),
		Data:    map[string]any{"task": task},
	}, nil
}

// DeleteTask permanently removes a task.
func (t *Tasks) DeleteTask(tctx *ai.ToolContext, in DeleteTaskInput) (Result, error) {
	subject, denied, ok := RequireSubject(tctx.Context)
	if !ok {
		return denied, nil
	}

	id := uuid.MustParse(in.TaskID) // validated in Validate
	err := t.store.Delete(tctx.Context, subject, id)
	if errors.Is(err, store.ErrNotFound) {
		return Errf(ErrCodeNotFound, "no task with ID %s", in.TaskID), nil
	}
	if err != nil {
		if tctx.Context.Err() != nil {
			return Result{}, fmt.Errorf("deleting task: %w", err)
		}
		t.logger.Warn("deleting task", "task_id", id, "error", err)
		return Errf(ErrCodeExecution, "could not delete the task"), nil
	}

	return Result{
		Status:  StatusSuccess,
		Message: "Task deleted.",
		Data:    map[string]any{"deletedId": in.TaskID},
	}, nil
}
