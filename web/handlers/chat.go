package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/scrypster/taskchat/internal/chat"
	"github.com/scrypster/taskchat/internal/storage"
	"github.com/scrypster/taskchat/pkg/types"
)

// ChatHandler serves the conversation endpoints.
type ChatHandler struct {
	orch   *chat.Orchestrator
	convs  storage.ConversationStore
	logger *log.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(orch *chat.Orchestrator, convs storage.ConversationStore) *ChatHandler {
	return &ChatHandler{
		orch:   orch,
		convs:  convs,
		logger: log.New(os.Stderr, "[web] ", log.LstdFlags),
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// HandleChat implements POST /{user_id}/chat: one full conversational turn.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if !authorizeUser(w, r, userID) {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "request body must be JSON with a message field")
		return
	}

	result, err := h.orch.HandleTurn(r.Context(), userID, req.Message)
	if err != nil {
		if !errors.Is(err, storage.ErrInvalidInput) {
			h.logger.Printf("turn failed for user %s: %v", userID, err)
		}
		writeSentinelError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleListConversations implements GET /{user_id}/conversations.
func (h *ChatHandler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if !authorizeUser(w, r, userID) {
		return
	}

	convs, err := h.convs.ListConversations(r.Context(), userID)
	if err != nil {
		h.logger.Printf("list conversations failed for user %s: %v", userID, err)
		writeSentinelError(w, err)
		return
	}
	if convs == nil {
		convs = []types.Conversation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": convs})
}

// HandleGetConversation implements GET /{user_id}/conversations/{id}: the
// conversation plus its full message history.
func (h *ChatHandler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if !authorizeUser(w, r, userID) {
		return
	}

	conv, err := h.convs.GetConversation(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeSentinelError(w, err)
		return
	}

	msgs, err := h.convs.ListMessages(r.Context(), conv.ID)
	if err != nil {
		h.logger.Printf("list messages failed for conversation %s: %v", conv.ID, err)
		writeSentinelError(w, err)
		return
	}
	if msgs == nil {
		msgs = []types.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation": conv,
		"messages":     msgs,
	})
}
