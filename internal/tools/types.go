// Package tools implements the task tool gateway: the five named operations
// the model is allowed to call, their argument types, and the structured
// envelope every call returns. Dispatch is a closed switch over ToolName so
// that an unknown or misspelled tool name is rejected before any store
// access.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ToolName identifies one of the five task operations.
type ToolName string

const (
	ToolAddTask      ToolName = "add_task"
	ToolListTasks    ToolName = "list_tasks"
	ToolUpdateTask   ToolName = "update_task"
	ToolCompleteTask ToolName = "complete_task"
	ToolDeleteTask   ToolName = "delete_task"
)

// AllTools lists every valid tool name, in schema order.
var AllTools = []ToolName{
	ToolAddTask,
	ToolListTasks,
	ToolUpdateTask,
	ToolCompleteTask,
	ToolDeleteTask,
}

// ParseToolName validates a wire-level tool name against the closed set.
func ParseToolName(s string) (ToolName, error) {
	name := ToolName(s)
	for _, t := range AllTools {
		if name == t {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// AddTaskArgs are the arguments of add_task.
type AddTaskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	UserID      string `json:"user_id"`
}

// ListTasksArgs are the arguments of list_tasks.
type ListTasksArgs struct {
	UserID string `json:"user_id"`
}

// UpdateTaskArgs are the arguments of update_task. Title and Description are
// pointers so "not provided" and "set to empty" stay distinguishable.
type UpdateTaskArgs struct {
	TaskPosition int     `json:"task_position"`
	UserID       string  `json:"user_id"`
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
}

// CompleteTaskArgs are the arguments of complete_task. Completed defaults to
// true when omitted.
type CompleteTaskArgs struct {
	TaskPosition int    `json:"task_position"`
	UserID       string `json:"user_id"`
	Completed    *bool  `json:"completed,omitempty"`
}

// DeleteTaskArgs are the arguments of delete_task.
type DeleteTaskArgs struct {
	TaskPosition int    `json:"task_position"`
	UserID       string `json:"user_id"`
}

// TaskView is a task as presented to the model and API clients: the stored
// fields plus the view-time position.
type TaskView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	UserID      string    `json:"user_id"`
	Position    int       `json:"position,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary gives the counts returned by list_tasks.
type Summary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// Envelope is the uniform result of every tool call. Exactly one of the
// payload fields is populated on success depending on the operation; on
// failure Success is false and Error carries a model-readable reason.
type Envelope struct {
	Success        bool       `json:"success"`
	Task           *TaskView  `json:"task,omitempty"`
	Tasks          []TaskView `json:"tasks,omitempty"`
	Summary        *Summary   `json:"summary,omitempty"`
	PendingTasks   []TaskView `json:"pending_tasks,omitempty"`
	CompletedTasks []TaskView `json:"completed_tasks,omitempty"`
	Message        string     `json:"message,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// errorEnvelope builds a failed envelope with a formatted reason.
func errorEnvelope(format string, args ...interface{}) Envelope {
	return Envelope{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Invoker executes one tool call. Both the in-process Gateway and the HTTP
// Client satisfy it, so the orchestrator never knows which deployment it is
// talking to. A non-nil error means the call never produced an envelope
// (transport failure); a failed envelope with err == nil is an ordinary
// domain error meant for the model.
type Invoker interface {
	Invoke(ctx context.Context, name ToolName, args json.RawMessage) (Envelope, error)
}
