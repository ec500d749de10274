package chat

import (
	"encoding/json"

	"github.com/scrypster/taskchat/internal/llm"
)

// toolSchema advertises the five task operations to the model. The user_id
// parameter is listed so OpenAI-compatible providers accept the schema, but
// whatever the model supplies is overwritten with the authenticated identity
// before dispatch.
func toolSchema() []llm.ToolDef {
	return []llm.ToolDef{
		{
			Name:        "add_task",
			Description: "Add a new task to the user's todo list. Extract the title (and optional description) from the user's message.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string", "description": "Short task title"},
					"description": {"type": "string", "description": "Optional details"},
					"user_id": {"type": "string", "description": "Owner of the task"}
				},
				"required": ["title", "user_id"]
			}`),
		},
		{
			Name:        "list_tasks",
			Description: "List all of the user's tasks with their position numbers, split into pending and completed, with summary counts.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"user_id": {"type": "string", "description": "Owner of the tasks"}
				},
				"required": ["user_id"]
			}`),
		},
		{
			Name:        "update_task",
			Description: "Update the title and/or description of a task, addressed by its position number in the current list.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"task_position": {"type": "integer", "description": "1-based position in the user's task list"},
					"title": {"type": "string", "description": "New title"},
					"description": {"type": "string", "description": "New description"},
					"user_id": {"type": "string", "description": "Owner of the task"}
				},
				"required": ["task_position", "user_id"]
			}`),
		},
		{
			Name:        "complete_task",
			Description: "Mark a task as complete (or incomplete with completed=false), addressed by its position number.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"task_position": {"type": "integer", "description": "1-based position in the user's task list"},
					"completed": {"type": "boolean", "description": "Completion state, defaults to true"},
					"user_id": {"type": "string", "description": "Owner of the task"}
				},
				"required": ["task_position", "user_id"]
			}`),
		},
		{
			Name:        "delete_task",
			Description: "Permanently delete a task, addressed by its position number in the current list.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"task_position": {"type": "integer", "description": "1-based position in the user's task list"},
					"user_id": {"type": "string", "description": "Owner of the task"}
				},
				"required": ["task_position", "user_id"]
			}`),
		},
	}
}
