package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/model"
)

// DefaultAnthropicModel is used when none is configured.
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

const anthropicMaxTokens = 4096

// AnthropicGenerator produces completions via the Anthropic Messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewAnthropicGenerator creates an Anthropic-backed generator. An empty
// apiKey defers to the ANTHROPIC_API_KEY environment variable.
func NewAnthropicGenerator(apiKey, modelName string) *AnthropicGenerator {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)

	if modelName == "" {
		modelName = DefaultAnthropicModel
	}

	return &AnthropicGenerator{
		client: &client,
		model:  anthropic.Model(modelName),
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	// The Messages API takes system prompts out of band.
	var system []anthropic.TextBlockParam
	var msgs []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case model.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: anthropicMaxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", errs.Wrap(errs.ExternalService, "anthropic generate", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
