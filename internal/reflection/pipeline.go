// Package reflection turns retrieved memories into injectable insights.
//
// The pipeline is linear: reflect over the retrieved memories, then
// extract at most three critical insights from the reflection. Either
// generation call failing degrades to "no insights"; a turn is never
// aborted because reflection failed.
package reflection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rcliao/agent-recall/internal/llm"
	"github.com/rcliao/agent-recall/internal/memory"
	"github.com/rcliao/agent-recall/internal/model"
)

// NoInsightsSentinel is the phrase the extraction prompt instructs the
// model to emit when nothing critical was found. Its presence suppresses
// context injection.
const NoInsightsSentinel = "No critical insights derived."

// Write-back importance weights for the memories a completed turn leaves
// behind.
const (
	TurnImportance       = 0.6
	CorrectionImportance = 0.95
	InsightImportance    = 0.8
)

// DefaultGenerateTimeout bounds each generation call in the pipeline.
const DefaultGenerateTimeout = 120 * time.Second

const reflectSystem = "You are a reflective AI. Analyze memories strictly for relevance to the current query. Be concise."

const extractSystem = "You extract critical, concise insights from reflections, strictly relevant to the current query."

// Result carries what a pipeline run derived from retrieved memories.
type Result struct {
	Reflection string
	Insights   string
}

// HasInsights reports whether the insights are usable for context
// injection. The sentinel phrase counts as no insights.
func (r Result) HasInsights() bool {
	if strings.TrimSpace(r.Insights) == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(r.Insights), strings.ToLower(NoInsightsSentinel))
}

// Options configures optional Pipeline behavior.
type Options struct {
	Policy  CorrectionPolicy // nil means NewLexicalPolicy()
	Timeout time.Duration    // 0 means DefaultGenerateTimeout
	Logger  *slog.Logger     // nil means slog.Default()
}

// Pipeline derives insights from retrieved memories via two chained
// generation calls.
type Pipeline struct {
	generator llm.Generator
	policy    CorrectionPolicy
	timeout   time.Duration
	logger    *slog.Logger
}

// NewPipeline creates a Pipeline over the given generator.
func NewPipeline(g llm.Generator, opts Options) *Pipeline {
	if opts.Policy == nil {
		opts.Policy = NewLexicalPolicy()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGenerateTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		generator: g,
		policy:    opts.Policy,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
	}
}

// Run executes the reflect-then-extract sequence. With no retrieved
// memories it returns an empty Result without calling the generator.
// Generation failures are logged and leave the corresponding field
// empty.
func (p *Pipeline) Run(ctx context.Context, query string, memories []memory.SearchResult) Result {
	var res Result
	if len(memories) == 0 {
		return res
	}

	reflection, err := p.generate(ctx, reflectSystem, reflectPrompt(query, memories))
	if err != nil {
		p.logger.Warn("reflection failed", "error", err)
		return res
	}
	res.Reflection = strings.TrimSpace(reflection)
	if res.Reflection == "" {
		return res
	}

	insights, err := p.generate(ctx, extractSystem, extractPrompt(query, res.Reflection))
	if err != nil {
		p.logger.Warn("insight extraction failed", "error", err)
		return res
	}
	res.Insights = strings.TrimSpace(insights)

	return res
}

// IsCorrection applies the pipeline's correction policy to a user
// message.
func (p *Pipeline) IsCorrection(message string) bool {
	return p.policy.IsCorrection(message)
}

func (p *Pipeline) generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.generator.Generate(ctx, []llm.Message{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: prompt},
	})
}

func reflectPrompt(query string, memories []memory.SearchResult) string {
	return fmt.Sprintf("USER_QUERY: %q\n\nRETRIEVED_MEMORIES:\n%s\n\n"+
		"Task: Analyze memories for relevance to USER_QUERY. Extract contradictions, corrections, or key facts. "+
		"Be concise. Conclude with 'Key takeaways for current query:'.",
		query, formatMemories(memories))
}

func extractPrompt(query, reflection string) string {
	return fmt.Sprintf("USER_QUERY: %q\n\nREFLECTION:\n%s\n\n"+
		"Task: Extract 1-3 most CRITICAL facts, corrections, or answers relevant to USER_QUERY from REFLECTION. "+
		"Numbered list. Concise. If none, state 'No critical insights derived.'.",
		query, reflection)
}

// formatMemories renders retrieved memories for the reflection prompt,
// one block per memory with a truncated id.
func formatMemories(memories []memory.SearchResult) string {
	blocks := make([]string, 0, len(memories))
	for i, m := range memories {
		id := m.ID
		if len(id) > 8 {
			id = id[:8]
		}
		blocks = append(blocks, fmt.Sprintf("Memory %d (ID: %s, Type: %s, Score: %.2f):\n%s",
			i+1, id, m.Type, m.RelevanceScore, m.Content))
	}
	return strings.Join(blocks, "\n\n")
}
