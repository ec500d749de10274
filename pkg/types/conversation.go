package types

import "time"

// Message roles. These match the wire roles of the chat completion API so
// that persisted history can be replayed into model context without
// translation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Conversation groups the messages of one user's chat thread.
//
// The system keeps exactly one active conversation per user: the earliest
// conversation found is reused on every turn, and conversations are never
// closed or deleted by the chat flow. This is an explicit policy, not an
// accident of ordering.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one append-only entry in a conversation. Messages are replayed
// in Timestamp order when reconstructing model context.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// ToolInvocation is an append-only audit record of one tool call executed
// during a turn. Parameters and Result hold the JSON-serialized arguments
// and envelope. Invocations are written for every dispatch, success or
// failure, and are never replayed into model context.
type ToolInvocation struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	ToolName       string    `json:"tool_name"`
	Parameters     string    `json:"parameters"`
	Result         string    `json:"result,omitempty"`
	ExecutedAt     time.Time `json:"executed_at"`
}

// IsValidRole reports whether role is one of the persisted message roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}
