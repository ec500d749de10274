package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Provider base URLs for the OpenAI-compatible services we support.
const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	groqBaseURL       = "https://api.groq.com/openai/v1"
)

// OpenAIClient implements ChatCompleter over the OpenAI chat-completions
// protocol via the go-openai SDK. A circuit breaker guards every call.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	breaker *CircuitBreaker
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	baseURL string
	timeout time.Duration
	breaker *CircuitBreaker
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(o *openAIOptions) {
		o.baseURL = url
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) OpenAIOption {
	return func(o *openAIOptions) {
		o.timeout = d
	}
}

// WithCircuitBreaker replaces the default circuit breaker.
func WithCircuitBreaker(cb *CircuitBreaker) OpenAIOption {
	return func(o *openAIOptions) {
		o.breaker = cb
	}
}

// NewOpenAIClient creates a client for the given API key and model.
func NewOpenAIClient(apiKey, model string, opts ...OpenAIOption) *OpenAIClient {
	options := &openAIOptions{
		timeout: 60 * time.Second,
		breaker: NewCircuitBreaker(),
	}
	for _, opt := range opts {
		opt(options)
	}

	cfg := openai.DefaultConfig(apiKey)
	if options.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(options.baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: options.timeout}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		breaker: options.breaker,
	}
}

// Complete executes one chat completion through the circuit breaker.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	sdkReq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: convertMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		sdkReq.Tools = convertTools(req.Tools)
		sdkReq.ToolChoice = "auto"
	}

	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		resp, err := c.client.CreateChatCompletion(ctx, sdkReq)
		if err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("llm: completion failed: %w", err)
	}

	resp := result.(*openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm: completion returned no choices")
	}

	choice := resp.Choices[0]
	out := &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func convertTools(tools []ToolDef) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// Compile-time assertion.
var _ ChatCompleter = (*OpenAIClient)(nil)
