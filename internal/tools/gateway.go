package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/taskchat/internal/storage"
	"github.com/scrypster/taskchat/pkg/types"
)

// Gateway executes tool calls against a TaskStore. It is the in-process
// implementation of Invoker; the HTTP transport and client wrap the same
// dispatch for the two-process deployment.
type Gateway struct {
	store  storage.TaskStore
	logger *log.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithLogger sets a custom logger.
func WithLogger(logger *log.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway creates a Gateway over the given store.
func NewGateway(store storage.TaskStore, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:  store,
		logger: log.New(os.Stderr, "[tools] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke decodes args for the named tool and dispatches it. Domain failures
// (validation, not found, store errors) come back as failed envelopes; the
// returned error is always nil so callers treat the envelope as the result.
func (g *Gateway) Invoke(ctx context.Context, name ToolName, args json.RawMessage) (Envelope, error) {
	return g.Dispatch(ctx, name, args), nil
}

// Dispatch routes one call through the closed tool set.
func (g *Gateway) Dispatch(ctx context.Context, name ToolName, args json.RawMessage) Envelope {
	switch name {
	case ToolAddTask:
		var a AddTaskArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorEnvelope("invalid add_task arguments: %v", err)
		}
		return g.addTask(ctx, a)
	case ToolListTasks:
		var a ListTasksArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorEnvelope("invalid list_tasks arguments: %v", err)
		}
		return g.listTasks(ctx, a)
	case ToolUpdateTask:
		var a UpdateTaskArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorEnvelope("invalid update_task arguments: %v", err)
		}
		return g.updateTask(ctx, a)
	case ToolCompleteTask:
		var a CompleteTaskArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorEnvelope("invalid complete_task arguments: %v", err)
		}
		return g.completeTask(ctx, a)
	case ToolDeleteTask:
		var a DeleteTaskArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return errorEnvelope("invalid delete_task arguments: %v", err)
		}
		return g.deleteTask(ctx, a)
	default:
		return errorEnvelope("unknown tool %q", string(name))
	}
}

func (g *Gateway) addTask(ctx context.Context, a AddTaskArgs) Envelope {
	if strings.TrimSpace(a.Title) == "" {
		return errorEnvelope("Title is required")
	}
	if a.UserID == "" {
		return errorEnvelope("User ID is required")
	}

	now := time.Now().UTC()
	task := &types.Task{
		ID:          uuid.New().String(),
		Title:       a.Title,
		Description: a.Description,
		UserID:      a.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := g.store.CreateTask(ctx, task); err != nil {
		g.logger.Printf("add_task failed for user %s: %v", a.UserID, err)
		return errorEnvelope("Error creating task: %v", err)
	}

	view := toView(*task)
	return Envelope{Success: true, Task: &view}
}

func (g *Gateway) listTasks(ctx context.Context, a ListTasksArgs) Envelope {
	if a.UserID == "" {
		return errorEnvelope("User ID is required")
	}

	tasks, err := g.store.ListByUser(ctx, a.UserID)
	if err != nil {
		g.logger.Printf("list_tasks failed for user %s: %v", a.UserID, err)
		return errorEnvelope("Error retrieving tasks: %v", err)
	}

	views := projectPositions(tasks)
	pending := make([]TaskView, 0, len(views))
	completed := make([]TaskView, 0, len(views))
	for _, v := range views {
		if v.Completed {
			completed = append(completed, v)
		} else {
			pending = append(pending, v)
		}
	}

	return Envelope{
		Success: true,
		Tasks:   views,
		Summary: &Summary{
			Total:     len(views),
			Pending:   len(pending),
			Completed: len(completed),
		},
		PendingTasks:   pending,
		CompletedTasks: completed,
	}
}

func (g *Gateway) updateTask(ctx context.Context, a UpdateTaskArgs) Envelope {
	if a.UserID == "" {
		return errorEnvelope("User ID is required")
	}
	if a.Title == nil && a.Description == nil {
		return errorEnvelope("At least one field (title or description) must be provided for update")
	}
	if a.Title != nil && strings.TrimSpace(*a.Title) == "" {
		return errorEnvelope("Title cannot be blank")
	}

	task, env := g.taskAtPosition(ctx, a.UserID, a.TaskPosition)
	if task == nil {
		return env
	}

	if a.Title != nil {
		task.Title = *a.Title
	}
	if a.Description != nil {
		task.Description = *a.Description
	}
	task.UpdatedAt = time.Now().UTC()

	if err := g.store.UpdateTask(ctx, task); err != nil {
		g.logger.Printf("update_task failed for user %s: %v", a.UserID, err)
		return errorEnvelope("Error updating task: %v", err)
	}

	view := toView(*task)
	view.Position = g.positionOf(ctx, a.UserID, task.ID)
	return Envelope{Success: true, Task: &view}
}

func (g *Gateway) completeTask(ctx context.Context, a CompleteTaskArgs) Envelope {
	if a.UserID == "" {
		return errorEnvelope("User ID is required")
	}

	completed := true
	if a.Completed != nil {
		completed = *a.Completed
	}

	task, env := g.taskAtPosition(ctx, a.UserID, a.TaskPosition)
	if task == nil {
		return env
	}

	task.Completed = completed
	task.UpdatedAt = time.Now().UTC()
	if err := g.store.UpdateTask(ctx, task); err != nil {
		g.logger.Printf("complete_task failed for user %s: %v", a.UserID, err)
		return errorEnvelope("Error updating task completion: %v", err)
	}

	view := toView(*task)
	view.Position = g.positionOf(ctx, a.UserID, task.ID)
	return Envelope{Success: true, Task: &view}
}

func (g *Gateway) deleteTask(ctx context.Context, a DeleteTaskArgs) Envelope {
	if a.UserID == "" {
		return errorEnvelope("User ID is required")
	}

	task, env := g.taskAtPosition(ctx, a.UserID, a.TaskPosition)
	if task == nil {
		return env
	}

	if err := g.store.DeleteTask(ctx, task.ID, a.UserID); err != nil {
		g.logger.Printf("delete_task failed for user %s: %v", a.UserID, err)
		return errorEnvelope("Error deleting task: %v", err)
	}

	return Envelope{
		Success: true,
		Message: fmt.Sprintf("Task at position %d deleted successfully", a.TaskPosition),
	}
}

// positionOf re-projects the user's list after a mutation and returns the
// task's current position, since toggling completion reorders the view.
// Returns 0 (omitted from the envelope) if the task cannot be found.
func (g *Gateway) positionOf(ctx context.Context, userID, taskID string) int {
	tasks, err := g.store.ListByUser(ctx, userID)
	if err != nil {
		g.logger.Printf("position projection failed for user %s: %v", userID, err)
		return 0
	}
	for _, view := range projectPositions(tasks) {
		if view.ID == taskID {
			return view.Position
		}
	}
	return 0
}

// taskAtPosition resolves a 1-based position against a fresh projection of
// the user's list and fetches the underlying task. Returns (nil, envelope)
// when the position cannot be resolved.
func (g *Gateway) taskAtPosition(ctx context.Context, userID string, position int) (*types.Task, Envelope) {
	tasks, err := g.store.ListByUser(ctx, userID)
	if err != nil {
		g.logger.Printf("position lookup failed for user %s: %v", userID, err)
		return nil, errorEnvelope("Error retrieving tasks: %v", err)
	}

	views := projectPositions(tasks)
	if position < 1 || position > len(views) {
		return nil, errorEnvelope("Task at position %d not found", position)
	}

	task, err := g.store.GetTask(ctx, views[position-1].ID, userID)
	if err != nil {
		g.logger.Printf("position lookup failed for user %s: %v", userID, err)
		return nil, errorEnvelope("Task at position %d not found", position)
	}
	return task, Envelope{}
}
