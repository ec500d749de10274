package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scrypster/taskchat/internal/tools"
)

// ErrTaskNotResolved means a task ID could not be mapped to a position.
var ErrTaskNotResolved = errors.New("task id could not be resolved to a position")

// Resolver maps an opaque task ID to its current position. It exists only as
// a compatibility path for models that send task_id instead of
// task_position; it resolves through list_tasks so the answer always agrees
// with the ordering every position-based call uses.
type Resolver struct {
	invoker tools.Invoker
}

// NewResolver creates a Resolver over the given invoker.
func NewResolver(invoker tools.Invoker) *Resolver {
	return &Resolver{invoker: invoker}
}

// Resolve returns the 1-based position of the task with the given ID in the
// user's current list, or ErrTaskNotResolved.
func (r *Resolver) Resolve(ctx context.Context, userID, taskID string) (int, error) {
	args, err := json.Marshal(tools.ListTasksArgs{UserID: userID})
	if err != nil {
		return 0, fmt.Errorf("resolver: failed to encode list_tasks args: %w", err)
	}

	env, err := r.invoker.Invoke(ctx, tools.ToolListTasks, args)
	if err != nil {
		return 0, fmt.Errorf("resolver: list_tasks failed: %w", err)
	}
	if !env.Success {
		return 0, fmt.Errorf("resolver: list_tasks failed: %s", env.Error)
	}

	for _, t := range env.Tasks {
		if t.ID == taskID {
			return t.Position, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrTaskNotResolved, taskID)
}
