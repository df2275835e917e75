package simple

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/llm"
	"github.com/rcliao/agent-recall/internal/model"
)

// Integrated composes the three typed memories for one user over a
// single store. Each memory type lives in its own namespace under the
// user id; persistence is one JSON file per user.
type Integrated struct {
	userID string
	store  *Store

	Episodic   *Episodic
	Semantic   *Semantic
	Procedural *Procedural
}

// NewIntegrated opens the memory for userID. A non-empty dir makes it
// durable at <dir>/<userID>_memory.json.
func NewIntegrated(userID, dir string) (*Integrated, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errs.New(errs.InvalidArgument, "user id is empty")
	}

	path := ""
	if dir != "" {
		path = filepath.Join(dir, userID+"_memory.json")
	}
	store, err := NewStore(path)
	if err != nil {
		return nil, err
	}

	return &Integrated{
		userID:     userID,
		store:      store,
		Episodic:   NewEpisodic(store, []string{userID, "episodes"}),
		Semantic:   NewSemantic(store, []string{userID, "knowledge"}),
		Procedural: NewProcedural(store, []string{userID, "procedures"}),
	}, nil
}

// UserID returns the user this memory belongs to.
func (m *Integrated) UserID() string {
	return m.userID
}

// RememberInteraction records an experience in episodic memory.
func (m *Integrated) RememberInteraction(id string, content any) error {
	return m.Episodic.AddInteraction(id, content)
}

// LearnFact records knowledge about a concept in semantic memory.
func (m *Integrated) LearnFact(concept string, facts any) error {
	return m.Semantic.AddKnowledge(concept, facts)
}

// LearnProcedure records task instructions in procedural memory.
func (m *Integrated) LearnProcedure(name string, instructions any) error {
	return m.Procedural.AddProcedure(name, instructions)
}

// UpdateProcedure replaces an existing procedure's instructions.
func (m *Integrated) UpdateProcedure(name string, instructions any) error {
	return m.Procedural.UpdateProcedure(name, instructions)
}

// QueryResults groups one query's matches across all memory types.
type QueryResults struct {
	Episodic   []any       `json:"episodic"`
	Semantic   []Fact      `json:"semantic"`
	Procedural []Procedure `json:"procedural"`
}

// Empty reports whether the query matched nothing at all.
func (r QueryResults) Empty() bool {
	return len(r.Episodic) == 0 && len(r.Semantic) == 0 && len(r.Procedural) == 0
}

// QueryMemory searches all three memory types at once.
func (m *Integrated) QueryMemory(query string) QueryResults {
	return QueryResults{
		Episodic:   m.Episodic.SearchInteractions(query),
		Semantic:   m.Semantic.SearchKnowledge(query),
		Procedural: m.Procedural.SearchProcedures(query),
	}
}

// Assistant answers queries over an Integrated memory, feeding matched
// memories to the generation provider as context and recording each
// exchange back into episodic memory.
type Assistant struct {
	memory    *Integrated
	generator llm.Generator
	logger    *slog.Logger
}

func NewAssistant(memory *Integrated, gen llm.Generator, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{memory: memory, generator: gen, logger: logger}
}

// Memory exposes the underlying integrated memory for direct writes.
func (a *Assistant) Memory() *Integrated {
	return a.memory
}

const assistantPrompt = `You are an assistant with access to the user's memories.
Use the following memory context to answer the query:

%s

User query: %s`

// Answer responds to query with memory context. The exchange is
// written back as an episodic interaction on success.
func (a *Assistant) Answer(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", errs.New(errs.InvalidArgument, "query is empty")
	}

	results := a.memory.QueryMemory(query)
	prompt := fmt.Sprintf(assistantPrompt, formatMemoryContext(results), query)

	reply, err := a.generator.Generate(ctx, []llm.Message{
		{Role: model.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", errs.Wrap(errs.ExternalService, "generate answer", err)
	}

	if err := a.memory.RememberInteraction(interactionID(query), map[string]any{
		"query":     query,
		"response":  reply,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		a.logger.Warn("recording interaction failed", "error", err)
	}
	return reply, nil
}

// formatMemoryContext renders matches as the block the prompt embeds,
// at most three entries per memory type.
func formatMemoryContext(results QueryResults) string {
	lines := []string{"MEMORY CONTEXT:"}

	if len(results.Episodic) > 0 {
		lines = append(lines, "\nPast experiences:")
		for i, content := range results.Episodic {
			if i == maxContextHits {
				break
			}
			lines = append(lines, fmt.Sprintf("- %v", content))
		}
	}
	if len(results.Semantic) > 0 {
		lines = append(lines, "\nKnown facts:")
		for i, f := range results.Semantic {
			if i == maxContextHits {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s: %v", f.Concept, f.Facts))
		}
	}
	if len(results.Procedural) > 0 {
		lines = append(lines, "\nRelevant procedures:")
		for i, p := range results.Procedural {
			if i == maxContextHits {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s: %v", p.Name, p.Instructions))
		}
	}
	return strings.Join(lines, "\n")
}

const maxContextHits = 3

func interactionID(query string) string {
	h := fnv.New32a()
	h.Write([]byte(query))
	return fmt.Sprintf("query-%08x", h.Sum32())
}
