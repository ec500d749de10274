package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/taskchat/pkg/types"
)

func createTaskViaAPI(t *testing.T, ts *testServer, userID, title string) types.Task {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/"+userID+"/tasks", `{"title":"`+title+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var task types.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func TestTasksCreateAndList(t *testing.T) {
	ts := newTestServer(t)

	task := createTaskViaAPI(t, ts, "alice", "Buy milk")
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "alice", task.UserID)
	assert.False(t, task.Completed)

	w := ts.do(t, http.MethodGet, "/api/alice/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Tasks []types.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Tasks, 1)
	assert.Equal(t, task.ID, listed.Tasks[0].ID)
}

func TestTasksCreateRequiresTitle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/alice/tasks", `{"title":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "title is required")
}

func TestTasksUpdate(t *testing.T) {
	ts := newTestServer(t)
	task := createTaskViaAPI(t, ts, "alice", "Buy milk")

	w := ts.do(t, http.MethodPut, "/api/alice/tasks/"+task.ID, `{"title":"Buy oat milk","completed":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var updated types.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Buy oat milk", updated.Title)
	assert.True(t, updated.Completed)
}

func TestTasksUpdateUnknownID(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/api/alice/tasks/no-such-task", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestTasksDelete(t *testing.T) {
	ts := newTestServer(t)
	task := createTaskViaAPI(t, ts, "alice", "Buy milk")

	w := ts.do(t, http.MethodDelete, "/api/alice/tasks/"+task.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":true`)

	w = ts.do(t, http.MethodDelete, "/api/alice/tasks/"+task.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTasksScopedToUser(t *testing.T) {
	ts := newTestServer(t)
	task := createTaskViaAPI(t, ts, "alice", "Buy milk")

	w := ts.do(t, http.MethodGet, "/api/bob/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Tasks []types.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Empty(t, listed.Tasks)

	w = ts.do(t, http.MethodDelete, "/api/bob/tasks/"+task.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code, "bob must not be able to delete alice's task")
}
