package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/scrypster/taskchat/internal/storage"
	"github.com/scrypster/taskchat/pkg/types"
)

// openTestDB connects to the database named by TASKCHAT_TEST_POSTGRES_DSN,
// or skips the test when the variable is unset.
func openTestDB(t *testing.T) *TaskStore {
	t.Helper()
	dsn := os.Getenv("TASKCHAT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TASKCHAT_TEST_POSTGRES_DSN not set; skipping PostgreSQL integration test")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	store := NewTaskStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresTaskStore_RoundTrip(t *testing.T) {
	store := openTestDB(t)
	ctx := context.Background()

	userID := "pg-test-" + uuid.New().String()
	task := &types.Task{
		ID:          uuid.New().String(),
		Title:       "Integration task",
		Description: "created by the postgres round-trip test",
		UserID:      userID,
	}
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteTask(ctx, task.ID, userID) })

	got, err := store.GetTask(ctx, task.ID, userID)
	if err != nil {
		t.Fatalf("GetTask() failed: %v", err)
	}
	if got.Title != task.Title {
		t.Errorf("Title: got %q, want %q", got.Title, task.Title)
	}

	got.Completed = true
	if err := store.UpdateTask(ctx, got); err != nil {
		t.Fatalf("UpdateTask() failed: %v", err)
	}

	tasks, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	if len(tasks) != 1 || !tasks[0].Completed {
		t.Errorf("ListByUser(): got %+v, want one completed task", tasks)
	}

	if err := store.DeleteTask(ctx, task.ID, userID); err != nil {
		t.Fatalf("DeleteTask() failed: %v", err)
	}
	if _, err := store.GetTask(ctx, task.ID, userID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetTask() after delete: got %v, want ErrNotFound", err)
	}
}

func TestPostgresConversationStore_RoundTrip(t *testing.T) {
	taskStore := openTestDB(t)
	store := NewConversationStore(taskStore.db)
	ctx := context.Background()

	userID := "pg-test-" + uuid.New().String()
	conv, err := store.GetOrCreateActive(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreateActive() failed: %v", err)
	}

	again, err := store.GetOrCreateActive(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreateActive() second call failed: %v", err)
	}
	if conv.ID != again.ID {
		t.Errorf("expected same conversation, got %q then %q", conv.ID, again.ID)
	}

	msg := &types.Message{
		ConversationID: conv.ID,
		Role:           types.RoleUser,
		Content:        "hello from the integration test",
	}
	if err := store.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("AppendMessage() failed: %v", err)
	}

	msgs, err := store.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages() failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != msg.Content {
		t.Errorf("ListMessages(): got %+v, want the appended message", msgs)
	}
}
