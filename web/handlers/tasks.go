package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/taskchat/internal/storage"
	"github.com/scrypster/taskchat/pkg/types"
)

// TasksHandler serves the REST task endpoints. Unlike the tool gateway these
// are id-addressed: they exist for UI clients that hold task IDs, not for
// the model.
type TasksHandler struct {
	store  storage.TaskStore
	logger *log.Logger
}

// NewTasksHandler creates a TasksHandler.
func NewTasksHandler(store storage.TaskStore) *TasksHandler {
	return &TasksHandler{
		store:  store,
		logger: log.New(os.Stderr, "[web] ", log.LstdFlags),
	}
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   *bool  `json:"completed"`
}

// HandleList implements GET /api/{user_id}/tasks.
func (h *TasksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if !authorizeUser(w, r, userID) {
		return
	}

	tasks, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Printf("list tasks failed for user %s: %v", userID, err)
		writeSentinelError(w, err)
		return
	}
	if tasks == nil {
		tasks = []types.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// HandleCreate implements POST /api/{user_id}/tasks.
func (h *TasksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if !authorizeUser(w, r, userID) {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "title is required")
		return
	}

	now := time.Now().UTC()
	task := &types.Task{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateTask(r.Context(), task); err != nil {
		h.logger.Printf("create task failed for user %s: %v", userID, err)
		writeSentinelError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// HandleUpdate implements PUT /api/{user_id}/tasks/{task_id}.
func (h *TasksHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if !authorizeUser(w, r, userID) {
		return
	}

	task, err := h.store.GetTask(r.Context(), r.PathValue("task_id"), userID)
	if err != nil {
		writeSentinelError(w, err)
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "request body must be valid JSON")
		return
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	task.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateTask(r.Context(), task); err != nil {
		h.logger.Printf("update task failed for user %s: %v", userID, err)
		writeSentinelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HandleDelete implements DELETE /api/{user_id}/tasks/{task_id}.
func (h *TasksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if !authorizeUser(w, r, userID) {
		return
	}

	if err := h.store.DeleteTask(r.Context(), r.PathValue("task_id"), userID); err != nil {
		writeSentinelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
