// Package chat implements the conversation orchestrator: the turn loop that
// takes one user message through persistence, model completion, tool
// execution, and the final narrated reply.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/scrypster/taskchat/internal/llm"
	"github.com/scrypster/taskchat/internal/storage"
	"github.com/scrypster/taskchat/internal/tools"
	"github.com/scrypster/taskchat/pkg/types"
)

// turnState tracks where a turn is in its lifecycle. Transitions only move
// forward; each state change builds a fresh message snapshot rather than
// mutating a shared buffer.
type turnState int

const (
	stateAwaitingModel turnState = iota
	stateToolsRequested
	stateToolsExecuted
	stateAwaitingFinalModel
	stateDone
)

// ToolCallFunction is the function part of a reported tool call, in the
// chat-completions wire shape.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCallSummary reports one executed tool call back to the API client. The
// id/type/function fields follow the chat-completions tool-call shape;
// success and error carry the execution outcome on top.
type ToolCallSummary struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
	Success  bool             `json:"success"`
	Error    string           `json:"error,omitempty"`
}

// TurnResult is the outcome of one completed turn.
type TurnResult struct {
	ConversationID string            `json:"conversation_id"`
	Message        string            `json:"message"`
	ToolCalls      []ToolCallSummary `json:"tool_calls,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// Event is a turn notification published to the event sink (the websocket
// hub in the web server).
type Event struct {
	Type           string    `json:"type"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content,omitempty"`
	ToolName       string    `json:"tool_name,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Event types.
const (
	EventUserMessage      = "user_message"
	EventToolInvoked      = "tool_invoked"
	EventAssistantMessage = "assistant_message"
)

// EventSink receives turn events. Publish must not block.
type EventSink interface {
	Publish(event Event)
}

// Orchestrator runs the turn loop.
type Orchestrator struct {
	convs     storage.ConversationStore
	completer llm.ChatCompleter
	invoker   tools.Invoker
	resolver  *Resolver
	locks     *userLocks
	events    EventSink
	logger    *log.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEventSink wires an event sink for turn notifications.
func WithEventSink(sink EventSink) Option {
	return func(o *Orchestrator) {
		o.events = sink
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an Orchestrator. The invoker may be the in-process
// gateway or the HTTP client; the orchestrator cannot tell them apart.
func NewOrchestrator(convs storage.ConversationStore, completer llm.ChatCompleter, invoker tools.Invoker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		convs:     convs,
		completer: completer,
		invoker:   invoker,
		resolver:  NewResolver(invoker),
		locks:     newUserLocks(),
		logger:    log.New(os.Stderr, "[chat] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleTurn runs one complete turn for the authenticated user. Same-user
// turns are serialized; turns for different users proceed concurrently.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID, text string) (*TurnResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", storage.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message is required", storage.ErrInvalidInput)
	}

	release := o.locks.acquire(userID)
	defer release()

	conv, err := o.convs.GetOrCreateActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to open conversation: %w", err)
	}

	// The incoming message is durable before any model call, so a failed
	// turn still leaves the user's words in the history.
	userMsg := &types.Message{
		ConversationID: conv.ID,
		Role:           types.RoleUser,
		Content:        text,
	}
	if err := o.convs.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("chat: failed to persist user message: %w", err)
	}
	o.publish(Event{
		Type:           EventUserMessage,
		UserID:         userID,
		ConversationID: conv.ID,
		Content:        text,
		Timestamp:      userMsg.Timestamp,
	})

	base, err := o.buildContext(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	state := stateAwaitingModel
	first, err := o.completer.Complete(ctx, llm.Request{Messages: base, Tools: toolSchema()})
	if err != nil {
		return nil, fmt.Errorf("chat: completion failed: %w", err)
	}

	var (
		reply     string
		summaries []ToolCallSummary
	)

	if len(first.ToolCalls) == 0 {
		reply = first.Content
		state = stateDone
	} else {
		state = stateToolsRequested
		followUp, execSummaries := o.executeToolCalls(ctx, conv, userID, base, first)
		summaries = execSummaries
		state = stateToolsExecuted

		state = stateAwaitingFinalModel
		final, err := o.completer.Complete(ctx, llm.Request{Messages: followUp})
		if err != nil {
			return nil, fmt.Errorf("chat: final completion failed: %w", err)
		}
		reply = final.Content
		state = stateDone
	}
	if state != stateDone {
		return nil, fmt.Errorf("chat: turn ended in unexpected state %d", state)
	}

	if strings.TrimSpace(reply) == "" && len(summaries) > 0 {
		reply = fallbackSummary(len(summaries))
	}

	assistantMsg := &types.Message{
		ConversationID: conv.ID,
		Role:           types.RoleAssistant,
		Content:        reply,
	}
	if err := o.convs.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("chat: failed to persist assistant message: %w", err)
	}
	o.publish(Event{
		Type:           EventAssistantMessage,
		UserID:         userID,
		ConversationID: conv.ID,
		Content:        reply,
		Timestamp:      assistantMsg.Timestamp,
	})

	return &TurnResult{
		ConversationID: conv.ID,
		Message:        reply,
		ToolCalls:      summaries,
		Timestamp:      assistantMsg.Timestamp,
	}, nil
}

// buildContext replays the persisted history (role and content only; tool
// invocations are audit records, not model context) behind the system
// prompt.
func (o *Orchestrator) buildContext(ctx context.Context, conversationID string) ([]llm.Message, error) {
	history, err := o.convs.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to load history: %w", err)
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		if m.Role == types.RoleTool {
			continue
		}
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	return msgs, nil
}

// executeToolCalls runs every call the model requested, in order, and
// returns the follow-up message snapshot for the final completion plus the
// per-call summaries. Domain failures are fed back to the model as failed
// envelopes; they never abort the turn.
func (o *Orchestrator) executeToolCalls(ctx context.Context, conv *types.Conversation, userID string, base []llm.Message, resp *llm.Response) ([]llm.Message, []ToolCallSummary) {
	assistant := llm.Message{Role: "assistant", Content: resp.Content}
	assistant.ToolCalls = append(assistant.ToolCalls, resp.ToolCalls...)

	followUp := make([]llm.Message, 0, len(base)+1+len(resp.ToolCalls))
	followUp = append(followUp, base...)
	followUp = append(followUp, assistant)

	summaries := make([]ToolCallSummary, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		args, env := o.executeOne(ctx, userID, call)

		resultJSON, err := json.Marshal(env)
		if err != nil {
			resultJSON = []byte(`{"success":false,"error":"failed to encode result"}`)
		}

		// The audit row is written no matter how the call went.
		inv := &types.ToolInvocation{
			ConversationID: conv.ID,
			ToolName:       call.Name,
			Parameters:     string(args),
			Result:         string(resultJSON),
		}
		if err := o.convs.AppendToolInvocation(ctx, inv); err != nil {
			o.logger.Printf("failed to record tool invocation %s: %v", call.Name, err)
		}
		o.publish(Event{
			Type:           EventToolInvoked,
			UserID:         userID,
			ConversationID: conv.ID,
			ToolName:       call.Name,
			Timestamp:      inv.ExecutedAt,
		})

		followUp = append(followUp, llm.Message{
			Role:       "tool",
			ToolCallID: call.ID,
			Content:    string(resultJSON),
		})
		summaries = append(summaries, ToolCallSummary{
			ID:   call.ID,
			Type: "function",
			Function: ToolCallFunction{
				Name:      call.Name,
				Arguments: string(args),
			},
			Success: env.Success,
			Error:   env.Error,
		})
	}
	return followUp, summaries
}

// executeOne prepares and dispatches a single requested call. The returned
// args are the arguments as actually dispatched (after identity injection
// and id resolution).
func (o *Orchestrator) executeOne(ctx context.Context, userID string, call llm.ToolCall) (json.RawMessage, tools.Envelope) {
	name, err := tools.ParseToolName(call.Name)
	if err != nil {
		return json.RawMessage(call.Arguments), tools.Envelope{Success: false, Error: err.Error()}
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return json.RawMessage(call.Arguments), tools.Envelope{
			Success: false,
			Error:   fmt.Sprintf("invalid arguments for %s: %v", call.Name, err),
		}
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	// The authenticated identity always wins over whatever the model sent.
	args["user_id"] = userID

	if needsPosition(name) {
		if _, ok := args["task_position"]; !ok {
			if rawID, ok := args["task_id"]; ok {
				taskID, _ := rawID.(string)
				pos, err := o.resolver.Resolve(ctx, userID, taskID)
				if err != nil {
					o.logger.Printf("id resolution failed for %s: %v", call.Name, err)
					encoded, _ := json.Marshal(args)
					return encoded, tools.Envelope{
						Success: false,
						Error:   fmt.Sprintf("Task with id %v not found", rawID),
					}
				}
				args["task_position"] = pos
				delete(args, "task_id")
			}
		}
	}

	encoded, err := json.Marshal(args)
	if err != nil {
		return json.RawMessage(call.Arguments), tools.Envelope{
			Success: false,
			Error:   fmt.Sprintf("failed to encode arguments: %v", err),
		}
	}

	env, err := o.invoker.Invoke(ctx, name, encoded)
	if err != nil {
		o.logger.Printf("tool %s failed: %v", name, err)
		return encoded, tools.Envelope{
			Success: false,
			Error:   fmt.Sprintf("tool execution failed: %v", err),
		}
	}
	return encoded, env
}

func needsPosition(name tools.ToolName) bool {
	switch name {
	case tools.ToolUpdateTask, tools.ToolCompleteTask, tools.ToolDeleteTask:
		return true
	default:
		return false
	}
}

func fallbackSummary(n int) string {
	if n == 1 {
		return "I've completed 1 operation for you."
	}
	return fmt.Sprintf("I've completed %d operations for you.", n)
}

func (o *Orchestrator) publish(event Event) {
	if o.events != nil {
		o.events.Publish(event)
	}
}
