// Package llm provides the chat-completion client the orchestrator talks to.
// The ChatCompleter interface hides the concrete provider; the shipped
// implementation speaks the OpenAI chat-completions protocol (OpenAI,
// OpenRouter, or Groq, selected by which API key is configured) behind a
// circuit breaker.
package llm

import (
	"context"
	"encoding/json"
)

// Message is one entry of the model conversation.
type Message struct {
	Role       string
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDef advertises one callable function to the model. Parameters is a
// JSON Schema object.
type ToolDef struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Request is one completion call.
type Request struct {
	Messages []Message
	Tools    []ToolDef
}

// Response is the model's reply: free text, requested tool calls, or both.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// ChatCompleter executes one chat completion.
type ChatCompleter interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
