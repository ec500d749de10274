// Package server provides HTTP server initialization and lifecycle
// management for the TaskChat web service.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/taskchat/internal/auth"
	"github.com/scrypster/taskchat/internal/chat"
	"github.com/scrypster/taskchat/internal/config"
	"github.com/scrypster/taskchat/internal/llm"
	"github.com/scrypster/taskchat/internal/storage"
	"github.com/scrypster/taskchat/internal/tools"
	"github.com/scrypster/taskchat/web/handlers"
)

// tokenTTL is how long issued bearer tokens stay valid.
const tokenTTL = 24 * time.Hour

// Deps carries the server's collaborators. Invoker is optional: when nil an
// in-process gateway over Tasks is used and its /tools routes are mounted on
// this server too.
type Deps struct {
	Config    *config.Config
	Tasks     storage.TaskStore
	Convs     storage.ConversationStore
	Completer llm.ChatCompleter
	Invoker   tools.Invoker
}

// Start builds the route table and starts the HTTP server. It returns the
// actual listen address (useful with port 0 in tests) and the events hub.
// The server shuts down gracefully when ctx is cancelled.
func Start(ctx context.Context, deps Deps) (string, *handlers.EventsHub, error) {
	cfg := deps.Config

	var gateway *tools.Gateway
	invoker := deps.Invoker
	if invoker == nil {
		gateway = tools.NewGateway(deps.Tasks)
		invoker = gateway
	}

	hub := handlers.NewEventsHub(
		fmt.Sprintf("localhost:%d", cfg.Server.Port),
		fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
	)
	go hub.Run()

	orch := chat.NewOrchestrator(deps.Convs, deps.Completer, invoker, chat.WithEventSink(hub))
	chatHandler := handlers.NewChatHandler(orch, deps.Convs)
	tasksHandler := handlers.NewTasksHandler(deps.Tasks)
	authenticator := handlers.NewAuthenticator(
		auth.NewIssuer(cfg.Security.TokenSecret, tokenTTL),
		cfg.Security.SecurityMode,
	)

	authed := http.NewServeMux()
	authed.HandleFunc("POST /{user_id}/chat", chatHandler.HandleChat)
	authed.HandleFunc("GET /{user_id}/conversations", chatHandler.HandleListConversations)
	authed.HandleFunc("GET /{user_id}/conversations/{id}", chatHandler.HandleGetConversation)
	authed.HandleFunc("GET /api/{user_id}/tasks", tasksHandler.HandleList)
	authed.HandleFunc("POST /api/{user_id}/tasks", tasksHandler.HandleCreate)
	authed.HandleFunc("PUT /api/{user_id}/tasks/{task_id}", tasksHandler.HandleUpdate)
	authed.HandleFunc("DELETE /api/{user_id}/tasks/{task_id}", tasksHandler.HandleDelete)
	if gateway != nil {
		authed.HandleFunc("POST /tools/{name}", tools.NewHTTPHandler(gateway).Routes().ServeHTTP)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})
	mux.Handle("GET /ws", hub)
	mux.Handle("/", authenticator.Middleware(authed))

	rateLimiter := handlers.NewRateLimiter(cfg.Tools.RateLimit, cfg.Tools.RateBurst)
	handler := rateLimiter.Middleware(mux)
	handler = handlers.SecurityHeaders(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
		hub.Stop()
	}()

	return actualAddr, hub, nil
}
