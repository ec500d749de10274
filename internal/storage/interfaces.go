// Package storage provides the storage interfaces for the TaskChat system.
//
// The layer is split into two small interfaces — TaskStore for the task
// list itself and ConversationStore for the chat trail — so that backends
// can implement them independently and tests can mock exactly the surface
// they need. Every operation takes the owning user ID as a mandatory
// filter; no store method ever returns another user's rows.
package storage

import (
	"context"

	"github.com/scrypster/taskchat/pkg/types"
)

// TaskStore provides CRUD operations over a user's task list.
//
// ListByUser returns tasks in insertion order (created_at ascending, id as
// a tiebreaker). Position is NOT a storage concept: callers that need
// positions project them from this ordering at read time.
type TaskStore interface {
	// CreateTask inserts a new task. ID and timestamps must be set by the
	// caller.
	CreateTask(ctx context.Context, task *types.Task) error

	// GetTask retrieves one task by ID, scoped to userID.
	// Returns ErrNotFound if no such task exists for that user.
	GetTask(ctx context.Context, id, userID string) (*types.Task, error)

	// ListByUser returns all tasks owned by userID in insertion order.
	ListByUser(ctx context.Context, userID string) ([]types.Task, error)

	// UpdateTask persists title, description, completed, and updated_at of
	// an existing task, scoped to the task's user.
	// Returns ErrNotFound if the task does not exist for that user.
	UpdateTask(ctx context.Context, task *types.Task) error

	// DeleteTask physically removes a task by ID, scoped to userID.
	// Returns ErrNotFound if the task does not exist for that user.
	DeleteTask(ctx context.Context, id, userID string) error

	// Close releases any resources held by the store.
	Close() error
}

// ConversationStore persists the chat trail: conversations, their
// append-only messages, and the tool-invocation audit log.
type ConversationStore interface {
	// GetOrCreateActive returns the user's single active conversation,
	// creating one if the user has none. When several conversations exist
	// (e.g. rows written before the one-per-user policy), the earliest is
	// returned deterministically.
	GetOrCreateActive(ctx context.Context, userID string) (*types.Conversation, error)

	// GetConversation retrieves one conversation by ID, scoped to userID.
	// Returns ErrNotFound if no such conversation exists for that user.
	GetConversation(ctx context.Context, id, userID string) (*types.Conversation, error)

	// ListConversations returns all conversations for userID, newest first.
	ListConversations(ctx context.Context, userID string) ([]types.Conversation, error)

	// AppendMessage inserts a message row. Messages are write-once; there
	// is no update or delete.
	AppendMessage(ctx context.Context, msg *types.Message) error

	// ListMessages returns all messages of a conversation in timestamp
	// order (oldest first), for history replay.
	ListMessages(ctx context.Context, conversationID string) ([]types.Message, error)

	// AppendToolInvocation inserts an audit row for one executed tool call.
	AppendToolInvocation(ctx context.Context, inv *types.ToolInvocation) error

	// ListToolInvocations returns the audit trail of a conversation in
	// execution order (oldest first).
	ListToolInvocations(ctx context.Context, conversationID string) ([]types.ToolInvocation, error)

	// Close releases any resources held by the store.
	Close() error
}
