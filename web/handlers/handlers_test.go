package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scrypster/taskchat/internal/chat"
	"github.com/scrypster/taskchat/internal/llm"
	"github.com/scrypster/taskchat/internal/storage/sqlite"
	"github.com/scrypster/taskchat/internal/tools"
)

// scriptedCompleter returns canned responses in order. The handler tests
// exercise HTTP plumbing, not model behavior, so a fixed script is enough.
type scriptedCompleter struct {
	responses []*llm.Response
	calls     int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	if s.calls >= len(s.responses) {
		s.calls++
		return &llm.Response{Content: "(script exhausted)", FinishReason: "stop"}, nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

// testServer wires real sqlite stores, a real tool gateway, and a scripted
// completer behind the full route table used in production.
type testServer struct {
	db      *sql.DB
	mux     *http.ServeMux
	tasks   *sqlite.TaskStore
	convs   *sqlite.ConversationStore
	script  *scriptedCompleter
	gateway *tools.Gateway
}

func newTestServer(t *testing.T, responses ...*llm.Response) *testServer {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	taskStore := sqlite.NewTaskStore(db)
	convStore := sqlite.NewConversationStore(db)
	gateway := tools.NewGateway(taskStore)
	script := &scriptedCompleter{responses: responses}

	orch := chat.NewOrchestrator(convStore, script, gateway)
	chatHandler := NewChatHandler(orch, convStore)
	tasksHandler := NewTasksHandler(taskStore)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{user_id}/chat", chatHandler.HandleChat)
	mux.HandleFunc("GET /{user_id}/conversations", chatHandler.HandleListConversations)
	mux.HandleFunc("GET /{user_id}/conversations/{id}", chatHandler.HandleGetConversation)
	mux.HandleFunc("GET /api/{user_id}/tasks", tasksHandler.HandleList)
	mux.HandleFunc("POST /api/{user_id}/tasks", tasksHandler.HandleCreate)
	mux.HandleFunc("PUT /api/{user_id}/tasks/{task_id}", tasksHandler.HandleUpdate)
	mux.HandleFunc("DELETE /api/{user_id}/tasks/{task_id}", tasksHandler.HandleDelete)

	return &testServer{
		db:      db,
		mux:     mux,
		tasks:   taskStore,
		convs:   convStore,
		script:  script,
		gateway: gateway,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	ts.mux.ServeHTTP(w, req)
	return w
}
