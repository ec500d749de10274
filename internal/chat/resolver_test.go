package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/taskchat/internal/storage/sqlite"
	"github.com/scrypster/taskchat/internal/tools"
)

func TestResolver_AgreesWithListOrdering(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	store := sqlite.NewTaskStore(db)
	t.Cleanup(func() { _ = store.Close() })

	gateway := tools.NewGateway(store)
	resolver := NewResolver(gateway)
	ctx := context.Background()

	add := func(title string) tools.TaskView {
		args, _ := json.Marshal(tools.AddTaskArgs{Title: title, UserID: "alice"})
		env := gateway.Dispatch(ctx, tools.ToolAddTask, args)
		require.True(t, env.Success, env.Error)
		return *env.Task
	}

	a := add("alpha")
	b := add("beta")
	c := add("gamma")

	// Complete alpha so the projection reorders: [beta, gamma, alpha].
	compArgs, _ := json.Marshal(tools.CompleteTaskArgs{TaskPosition: 1, UserID: "alice"})
	env := gateway.Dispatch(ctx, tools.ToolCompleteTask, compArgs)
	require.True(t, env.Success, env.Error)

	// The resolver answers with each task's CURRENT position.
	pos, err := resolver.Resolve(ctx, "alice", b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = resolver.Resolve(ctx, "alice", c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	pos, err = resolver.Resolve(ctx, "alice", a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)
}

func TestResolver_NotFound(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	store := sqlite.NewTaskStore(db)
	t.Cleanup(func() { _ = store.Close() })

	resolver := NewResolver(tools.NewGateway(store))

	_, err = resolver.Resolve(context.Background(), "alice", "ghost-id")
	assert.ErrorIs(t, err, ErrTaskNotResolved)
}

func TestResolver_OwnershipScoped(t *testing.T) {
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	store := sqlite.NewTaskStore(db)
	t.Cleanup(func() { _ = store.Close() })

	gateway := tools.NewGateway(store)
	resolver := NewResolver(gateway)
	ctx := context.Background()

	args, _ := json.Marshal(tools.AddTaskArgs{Title: "alice's task", UserID: "alice"})
	env := gateway.Dispatch(ctx, tools.ToolAddTask, args)
	require.True(t, env.Success, env.Error)

	// Bob cannot resolve alice's task id.
	_, err = resolver.Resolve(ctx, "bob", env.Task.ID)
	assert.ErrorIs(t, err, ErrTaskNotResolved)
}
