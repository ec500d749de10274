package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/taskchat/internal/storage/sqlite"
)

// newTestGateway builds a Gateway over an in-memory sqlite store.
func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	store := sqlite.NewTaskStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return NewGateway(store)
}

// addTask is a helper that creates a task through the gateway itself.
func addTask(t *testing.T, g *Gateway, userID, title string) TaskView {
	t.Helper()
	args, _ := json.Marshal(AddTaskArgs{Title: title, UserID: userID})
	env := g.Dispatch(context.Background(), ToolAddTask, args)
	require.True(t, env.Success, "add_task(%q) failed: %s", title, env.Error)
	require.NotNil(t, env.Task)
	return *env.Task
}

// listTasks is a helper that lists a user's tasks through the gateway.
func listTasks(t *testing.T, g *Gateway, userID string) Envelope {
	t.Helper()
	args, _ := json.Marshal(ListTasksArgs{UserID: userID})
	env := g.Dispatch(context.Background(), ToolListTasks, args)
	require.True(t, env.Success, "list_tasks failed: %s", env.Error)
	return env
}

func TestAddTask(t *testing.T) {
	g := newTestGateway(t)

	view := addTask(t, g, "alice", "Buy groceries")
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Buy groceries", view.Title)
	assert.Equal(t, "alice", view.UserID)
	assert.False(t, view.Completed)
}

func TestAddTask_BlankTitle(t *testing.T) {
	g := newTestGateway(t)

	args, _ := json.Marshal(AddTaskArgs{Title: "   ", UserID: "alice"})
	env := g.Dispatch(context.Background(), ToolAddTask, args)
	assert.False(t, env.Success)
	assert.Equal(t, "Title is required", env.Error)

	// Nothing was created.
	list := listTasks(t, g, "alice")
	assert.Equal(t, 0, list.Summary.Total)
}

func TestAddTask_MissingUser(t *testing.T) {
	g := newTestGateway(t)

	args, _ := json.Marshal(AddTaskArgs{Title: "orphan"})
	env := g.Dispatch(context.Background(), ToolAddTask, args)
	assert.False(t, env.Success)
	assert.Equal(t, "User ID is required", env.Error)
}

func TestListTasks_PositionsAndSummary(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	addTask(t, g, "alice", "first")
	addTask(t, g, "alice", "second")
	addTask(t, g, "alice", "third")

	// Complete the first task: it must drop behind the pending ones.
	args, _ := json.Marshal(CompleteTaskArgs{TaskPosition: 1, UserID: "alice"})
	env := g.Dispatch(ctx, ToolCompleteTask, args)
	require.True(t, env.Success, env.Error)

	list := listTasks(t, g, "alice")
	require.Len(t, list.Tasks, 3)
	assert.Equal(t, &Summary{Total: 3, Pending: 2, Completed: 1}, list.Summary)

	assert.Equal(t, "second", list.Tasks[0].Title)
	assert.Equal(t, "third", list.Tasks[1].Title)
	assert.Equal(t, "first", list.Tasks[2].Title)
	assert.True(t, list.Tasks[2].Completed)

	// Positions are unique and cover 1..total.
	seen := map[int]bool{}
	for _, v := range list.Tasks {
		assert.GreaterOrEqual(t, v.Position, 1)
		assert.LessOrEqual(t, v.Position, list.Summary.Total)
		assert.False(t, seen[v.Position], "duplicate position %d", v.Position)
		seen[v.Position] = true
	}

	require.Len(t, list.PendingTasks, 2)
	require.Len(t, list.CompletedTasks, 1)
	assert.Equal(t, "first", list.CompletedTasks[0].Title)
}

func TestPositionShiftAfterDelete(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	addTask(t, g, "alice", "one")
	addTask(t, g, "alice", "two")
	addTask(t, g, "alice", "three")

	args, _ := json.Marshal(DeleteTaskArgs{TaskPosition: 2, UserID: "alice"})
	env := g.Dispatch(ctx, ToolDeleteTask, args)
	require.True(t, env.Success, env.Error)
	assert.Equal(t, "Task at position 2 deleted successfully", env.Message)

	list := listTasks(t, g, "alice")
	require.Len(t, list.Tasks, 2)
	assert.Equal(t, "one", list.Tasks[0].Title)
	assert.Equal(t, 1, list.Tasks[0].Position)
	// "three" moved up from position 3 to position 2.
	assert.Equal(t, "three", list.Tasks[1].Title)
	assert.Equal(t, 2, list.Tasks[1].Position)
}

func TestPositionOutOfRange(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	addTask(t, g, "alice", "only")

	for _, pos := range []int{0, -1, 2, 99} {
		args, _ := json.Marshal(DeleteTaskArgs{TaskPosition: pos, UserID: "alice"})
		env := g.Dispatch(ctx, ToolDeleteTask, args)
		assert.False(t, env.Success, "position %d should be rejected", pos)
		assert.Equal(t, fmt.Sprintf("Task at position %d not found", pos), env.Error)
	}

	// The task survived every failed attempt.
	list := listTasks(t, g, "alice")
	assert.Equal(t, 1, list.Summary.Total)
}

func TestUpdateTask(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	addTask(t, g, "alice", "draft title")

	title := "final title"
	args, _ := json.Marshal(UpdateTaskArgs{TaskPosition: 1, UserID: "alice", Title: &title})
	env := g.Dispatch(ctx, ToolUpdateTask, args)
	require.True(t, env.Success, env.Error)
	require.NotNil(t, env.Task)
	assert.Equal(t, "final title", env.Task.Title)
	assert.Equal(t, 1, env.Task.Position)

	desc := "with details"
	args, _ = json.Marshal(UpdateTaskArgs{TaskPosition: 1, UserID: "alice", Description: &desc})
	env = g.Dispatch(ctx, ToolUpdateTask, args)
	require.True(t, env.Success, env.Error)
	assert.Equal(t, "final title", env.Task.Title)
	assert.Equal(t, "with details", env.Task.Description)
}

func TestUpdateTask_NoFields(t *testing.T) {
	g := newTestGateway(t)

	addTask(t, g, "alice", "untouched")

	args, _ := json.Marshal(UpdateTaskArgs{TaskPosition: 1, UserID: "alice"})
	env := g.Dispatch(context.Background(), ToolUpdateTask, args)
	assert.False(t, env.Success)
	assert.Equal(t, "At least one field (title or description) must be provided for update", env.Error)
}

func TestUpdateTask_BlankTitle(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	addTask(t, g, "alice", "keep me")

	blank := "  "
	args, _ := json.Marshal(UpdateTaskArgs{TaskPosition: 1, UserID: "alice", Title: &blank})
	env := g.Dispatch(ctx, ToolUpdateTask, args)
	assert.False(t, env.Success)

	list := listTasks(t, g, "alice")
	assert.Equal(t, "keep me", list.Tasks[0].Title)
}

func TestCompleteTask_DefaultAndIdempotent(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	addTask(t, g, "alice", "finish me")

	// Completed omitted defaults to true.
	args, _ := json.Marshal(CompleteTaskArgs{TaskPosition: 1, UserID: "alice"})
	env := g.Dispatch(ctx, ToolCompleteTask, args)
	require.True(t, env.Success, env.Error)
	assert.True(t, env.Task.Completed)

	// Completing an already-completed task succeeds and changes nothing.
	env = g.Dispatch(ctx, ToolCompleteTask, args)
	require.True(t, env.Success, env.Error)
	assert.True(t, env.Task.Completed)

	list := listTasks(t, g, "alice")
	assert.Equal(t, &Summary{Total: 1, Pending: 0, Completed: 1}, list.Summary)
}

func TestCompleteTask_ToggleBackReorders(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	addTask(t, g, "alice", "alpha")
	addTask(t, g, "alice", "beta")

	// Complete alpha: list becomes [beta, alpha].
	args, _ := json.Marshal(CompleteTaskArgs{TaskPosition: 1, UserID: "alice"})
	env := g.Dispatch(ctx, ToolCompleteTask, args)
	require.True(t, env.Success, env.Error)

	list := listTasks(t, g, "alice")
	assert.Equal(t, "beta", list.Tasks[0].Title)
	assert.Equal(t, "alpha", list.Tasks[1].Title)

	// Un-complete alpha at its NEW position 2: it moves back ahead of
	// nothing pending-wise but rejoins the pending group in insertion
	// order, so alpha is first again.
	f := false
	args, _ = json.Marshal(CompleteTaskArgs{TaskPosition: 2, UserID: "alice", Completed: &f})
	env = g.Dispatch(ctx, ToolCompleteTask, args)
	require.True(t, env.Success, env.Error)
	assert.False(t, env.Task.Completed)

	list = listTasks(t, g, "alice")
	assert.Equal(t, "alpha", list.Tasks[0].Title)
	assert.Equal(t, "beta", list.Tasks[1].Title)
	assert.Equal(t, &Summary{Total: 2, Pending: 2, Completed: 0}, list.Summary)
}

func TestOwnershipIsolation(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	addTask(t, g, "alice", "alice's secret")
	addTask(t, g, "bob", "bob's task")

	// Bob sees only his own task.
	list := listTasks(t, g, "bob")
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "bob's task", list.Tasks[0].Title)

	// Bob cannot delete past his own list length even though alice has
	// more tasks overall.
	args, _ := json.Marshal(DeleteTaskArgs{TaskPosition: 2, UserID: "bob"})
	env := g.Dispatch(ctx, ToolDeleteTask, args)
	assert.False(t, env.Success)

	// Alice's task is untouched.
	list = listTasks(t, g, "alice")
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "alice's secret", list.Tasks[0].Title)
}

func TestDispatch_UnknownTool(t *testing.T) {
	g := newTestGateway(t)

	env := g.Dispatch(context.Background(), ToolName("drop_table"), json.RawMessage("{}"))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "unknown tool")
}

func TestDispatch_MalformedArgs(t *testing.T) {
	g := newTestGateway(t)

	env := g.Dispatch(context.Background(), ToolAddTask, json.RawMessage(`{"title": 42}`))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "invalid add_task arguments")
}

func TestParseToolName(t *testing.T) {
	for _, name := range AllTools {
		parsed, err := ParseToolName(string(name))
		require.NoError(t, err)
		assert.Equal(t, name, parsed)
	}
	_, err := ParseToolName("rm_rf")
	assert.Error(t, err)
}

func TestMutationEnvelopesCarryFreshPosition(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	addTask(t, g, "alice", "alpha")
	addTask(t, g, "alice", "beta")

	// Completing alpha moves it behind the remaining pending task; the
	// envelope reports where it landed, not the position it was addressed by.
	args, _ := json.Marshal(CompleteTaskArgs{TaskPosition: 1, UserID: "alice"})
	env := g.Dispatch(ctx, ToolCompleteTask, args)
	require.True(t, env.Success, "complete_task failed: %s", env.Error)
	require.NotNil(t, env.Task)
	assert.Equal(t, "alpha", env.Task.Title)
	assert.Equal(t, 2, env.Task.Position)

	// A title update does not reorder; the reported position matches the
	// addressed one.
	title := "beta renamed"
	args, _ = json.Marshal(UpdateTaskArgs{TaskPosition: 1, UserID: "alice", Title: &title})
	env = g.Dispatch(ctx, ToolUpdateTask, args)
	require.True(t, env.Success, "update_task failed: %s", env.Error)
	require.NotNil(t, env.Task)
	assert.Equal(t, 1, env.Task.Position)
}
