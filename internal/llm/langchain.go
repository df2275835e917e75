package llm

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/model"
)

// DefaultOllamaModel is the generation model used when none is configured.
const DefaultOllamaModel = "qwen3:4b"

// LangchainGenerator adapts a langchaingo chat model to Generator.
type LangchainGenerator struct {
	client llms.Model
}

// NewOllamaGenerator creates a generator backed by a local Ollama
// instance. Empty serverURL falls back to OLLAMA_HOST, then localhost.
func NewOllamaGenerator(serverURL, modelName string) (*LangchainGenerator, error) {
	if serverURL == "" {
		serverURL = os.Getenv("OLLAMA_HOST")
	}
	if serverURL == "" {
		serverURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = DefaultOllamaModel
	}

	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(modelName),
	)
	if err != nil {
		return nil, errs.Wrap(errs.ExternalService, "create ollama client", err)
	}

	return &LangchainGenerator{client: client}, nil
}

// NewOpenAIGenerator creates a generator backed by an OpenAI-compatible
// chat API.
func NewOpenAIGenerator(baseURL, apiKey, modelName string) (*LangchainGenerator, error) {
	if apiKey == "" {
		return nil, errs.New(errs.Config, "OPENAI_API_KEY is not set")
	}

	opts := []openai.Option{openai.WithToken(apiKey)}
	if modelName != "" {
		opts = append(opts, openai.WithModel(modelName))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, errs.Wrap(errs.ExternalService, "create openai client", err)
	}

	return &LangchainGenerator{client: client}, nil
}

func (g *LangchainGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	resp, err := g.client.GenerateContent(ctx, toLangchainMessages(messages))
	if err != nil {
		return "", errs.Wrap(errs.ExternalService, "generate", err)
	}
	if len(resp.Choices) == 0 {
		return "", errs.New(errs.ExternalService, "model returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func toLangchainMessages(messages []Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		var role llms.ChatMessageType
		switch msg.Role {
		case model.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case model.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		result = append(result, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}
	return result
}
