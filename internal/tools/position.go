package tools

import "github.com/scrypster/taskchat/pkg/types"

// projectPositions turns a task list in insertion order into the positioned
// view: pending tasks first (insertion order), then completed tasks
// (insertion order), with 1-based positions assigned across the combined
// list. This is the ONLY place positions come from; every position-addressed
// operation resolves against a fresh projection so a delete or toggle
// immediately renumbers everything after it.
func projectPositions(tasks []types.Task) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			views = append(views, toView(t))
		}
	}
	for _, t := range tasks {
		if t.Completed {
			views = append(views, toView(t))
		}
	}
	for i := range views {
		views[i].Position = i + 1
	}
	return views
}

func toView(t types.Task) TaskView {
	return TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
