package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/taskchat/internal/storage"
	"github.com/scrypster/taskchat/pkg/types"
)

// ConversationStore implements storage.ConversationStore using SQLite.
type ConversationStore struct {
	db *sql.DB
}

// NewConversationStore creates a ConversationStore on an already-opened
// database (typically the same one backing the TaskStore).
func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// GetOrCreateActive returns the user's single active conversation, creating
// one lazily on the first turn. The earliest conversation wins so that the
// choice is deterministic when multiple rows exist.
func (s *ConversationStore) GetOrCreateActive(ctx context.Context, userID string) (*types.Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at
		FROM conversations
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, userID)

	var conv types.Conversation
	err := row.Scan(&conv.ID, &conv.UserID, &conv.CreatedAt)
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	conv = types.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, created_at) VALUES (?, ?, ?)
	`, conv.ID, conv.UserID, conv.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

// GetConversation retrieves one conversation by ID, scoped to userID.
func (s *ConversationStore) GetConversation(ctx context.Context, id, userID string) (*types.Conversation, error) {
	if id == "" || userID == "" {
		return nil, fmt.Errorf("%w: conversation ID and user ID are required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at
		FROM conversations
		WHERE id = ? AND user_id = ?
	`, id, userID)

	var conv types.Conversation
	if err := row.Scan(&conv.ID, &conv.UserID, &conv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations returns all conversations for userID, newest first.
func (s *ConversationStore) ListConversations(ctx context.Context, userID string) ([]types.Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, created_at
		FROM conversations
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convs []types.Conversation
	for rows.Next() {
		var conv types.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return convs, nil
}

// AppendMessage inserts an append-only message row.
func (s *ConversationStore) AppendMessage(ctx context.Context, msg *types.Message) error {
	if msg == nil || msg.ConversationID == "" {
		return fmt.Errorf("%w: conversation ID is required", storage.ErrInvalidInput)
	}
	if !types.IsValidRole(msg.Role) {
		return fmt.Errorf("%w: invalid message role %q", storage.ErrInvalidInput, msg.Role)
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// ListMessages returns the messages of a conversation oldest first.
func (s *ConversationStore) ListMessages(ctx context.Context, conversationID string) ([]types.Message, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation ID is required", storage.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, timestamp
		FROM messages
		WHERE conversation_id = ?
		ORDER BY seq ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []types.Message
	for rows.Next() {
		var msg types.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return msgs, nil
}

// AppendToolInvocation inserts an audit row for one executed tool call.
func (s *ConversationStore) AppendToolInvocation(ctx context.Context, inv *types.ToolInvocation) error {
	if inv == nil || inv.ConversationID == "" || inv.ToolName == "" {
		return fmt.Errorf("%w: conversation ID and tool name are required", storage.ErrInvalidInput)
	}

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.ExecutedAt.IsZero() {
		inv.ExecutedAt = time.Now().UTC()
	}

	var result sql.NullString
	if inv.Result != "" {
		result = sql.NullString{String: inv.Result, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_invocations (id, conversation_id, tool_name, parameters, result, executed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, inv.ID, inv.ConversationID, inv.ToolName, inv.Parameters, result, inv.ExecutedAt)
	if err != nil {
		return fmt.Errorf("failed to append tool invocation: %w", err)
	}
	return nil
}

// ListToolInvocations returns the audit trail of a conversation oldest first.
func (s *ConversationStore) ListToolInvocations(ctx context.Context, conversationID string) ([]types.ToolInvocation, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation ID is required", storage.ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, tool_name, parameters, result, executed_at
		FROM tool_invocations
		WHERE conversation_id = ?
		ORDER BY executed_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool invocations: %w", err)
	}
	defer rows.Close()

	var invs []types.ToolInvocation
	for rows.Next() {
		var inv types.ToolInvocation
		var result sql.NullString
		if err := rows.Scan(&inv.ID, &inv.ConversationID, &inv.ToolName, &inv.Parameters, &result, &inv.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tool invocation: %w", err)
		}
		inv.Result = result.String
		invs = append(invs, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tool invocations: %w", err)
	}
	return invs, nil
}

// Close closes the underlying database.
func (s *ConversationStore) Close() error {
	return s.db.Close()
}

// Compile-time assertion.
var _ storage.ConversationStore = (*ConversationStore)(nil)
