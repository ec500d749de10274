// Package types defines the core domain types shared across the TaskChat
// system: tasks, conversations, messages, and tool invocations.
package types

import "time"

// Task is a single todo item owned by exactly one user.
//
// Position is deliberately absent: a task's position is a view-time
// projection over the owner's current task set (pending first, then
// completed, both in insertion order) and is never persisted. See the
// tools package for the projection function.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
