// Package llm provides pluggable text generation providers.
package llm

import (
	"context"
	"os"

	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/model"
)

// Message is one turn of generation input.
type Message struct {
	Role    model.Role
	Content string
}

// Generator produces a completion from an ordered message list.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// NewFromEnv creates a generator from environment variables.
// AGENT_RECALL_LLM_PROVIDER: "ollama" (default) | "openai" | "anthropic"
// AGENT_RECALL_LLM_MODEL: model name
// AGENT_RECALL_LLM_URL: base URL override
// OPENAI_API_KEY / ANTHROPIC_API_KEY: provider credentials
func NewFromEnv() (Generator, error) {
	provider := os.Getenv("AGENT_RECALL_LLM_PROVIDER")
	modelName := os.Getenv("AGENT_RECALL_LLM_MODEL")
	baseURL := os.Getenv("AGENT_RECALL_LLM_URL")

	switch provider {
	case "", "ollama":
		return NewOllamaGenerator(baseURL, modelName)
	case "openai":
		return NewOpenAIGenerator(baseURL, os.Getenv("OPENAI_API_KEY"), modelName)
	case "anthropic":
		return NewAnthropicGenerator(os.Getenv("ANTHROPIC_API_KEY"), modelName), nil
	default:
		return nil, errs.Newf(errs.Config, "unknown llm provider %q", provider)
	}
}
