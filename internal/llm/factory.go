package llm

import (
	"fmt"

	"github.com/scrypster/taskchat/internal/config"
)

// NewFromConfig builds the ChatCompleter for the configured provider.
// Provider selection follows key availability: OpenRouter, then Groq, then
// OpenAI direct.
func NewFromConfig(cfg config.LLMConfig) (ChatCompleter, error) {
	switch {
	case cfg.OpenRouterAPIKey != "":
		return NewOpenAIClient(cfg.OpenRouterAPIKey, cfg.Model,
			WithBaseURL(openRouterBaseURL),
			WithTimeout(cfg.Timeout),
		), nil
	case cfg.GroqAPIKey != "":
		return NewOpenAIClient(cfg.GroqAPIKey, cfg.Model,
			WithBaseURL(groqBaseURL),
			WithTimeout(cfg.Timeout),
		), nil
	case cfg.OpenAIAPIKey != "":
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Model,
			WithTimeout(cfg.Timeout),
		), nil
	default:
		return nil, fmt.Errorf("llm: no API key configured (set TASKCHAT_OPENROUTER_API_KEY, TASKCHAT_GROQ_API_KEY, or TASKCHAT_OPENAI_API_KEY)")
	}
}
