package reflection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/rcliao/agent-recall/internal/llm"
	"github.com/rcliao/agent-recall/internal/memory"
	"github.com/rcliao/agent-recall/internal/model"
)

// fakeGenerator replays canned replies in call order. A non-negative
// failOn makes that call index return an error.
type fakeGenerator struct {
	replies []string
	failOn  int
	calls   [][]llm.Message
}

func newFakeGenerator(replies ...string) *fakeGenerator {
	return &fakeGenerator{replies: replies, failOn: -1}
}

func (g *fakeGenerator) Generate(_ context.Context, msgs []llm.Message) (string, error) {
	call := len(g.calls)
	g.calls = append(g.calls, msgs)
	if g.failOn == call {
		return "", errors.New("generator offline")
	}
	if call >= len(g.replies) {
		return "", nil
	}
	return g.replies[call], nil
}

func testPipeline(g llm.Generator) *Pipeline {
	return NewPipeline(g, Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func retrieved() []memory.SearchResult {
	return []memory.SearchResult{
		{
			MemoryRecord: model.MemoryRecord{
				ID:      "0193e4a2-7c1b-4f6e-9d2a-111111111111",
				Content: "User prefers tabs over spaces.",
				Type:    model.TypeSemantic,
			},
			RelevanceScore: 0.8,
			Distance:       0.25,
		},
		{
			MemoryRecord: model.MemoryRecord{
				ID:      "0193e4a2-7c1b-4f6e-9d2a-222222222222",
				Content: "user: what indentation?\nassistant: tabs",
				Type:    model.TypeEpisodicTurn,
			},
			RelevanceScore: 0.6,
			Distance:       0.67,
		},
	}
}

func TestRunFullSequence(t *testing.T) {
	gen := newFakeGenerator(
		"The user consistently prefers tabs. Key takeaways for current query: tabs.",
		"1. The user prefers tabs over spaces.",
	)
	p := testPipeline(gen)

	res := p.Run(context.Background(), "what indentation do I like?", retrieved())

	if res.Reflection == "" || res.Insights != "1. The user prefers tabs over spaces." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !res.HasInsights() {
		t.Error("expected usable insights")
	}
	if len(gen.calls) != 2 {
		t.Fatalf("expected 2 generation calls, got %d", len(gen.calls))
	}

	// First call: reflection prompt over the retrieved memories.
	reflect := gen.calls[0]
	if len(reflect) != 2 || reflect[0].Role != model.RoleSystem || reflect[1].Role != model.RoleUser {
		t.Fatalf("unexpected reflect message shape: %+v", reflect)
	}
	prompt := reflect[1].Content
	for _, want := range []string{
		`USER_QUERY: "what indentation do I like?"`,
		"RETRIEVED_MEMORIES:",
		"Memory 1 (ID: 0193e4a2, Type: semantic, Score: 0.80):",
		"User prefers tabs over spaces.",
		"Memory 2 (ID: 0193e4a2, Type: episodic_turn, Score: 0.60):",
		"Key takeaways for current query:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("reflect prompt missing %q:\n%s", want, prompt)
		}
	}

	// Second call: extraction prompt over the reflection text.
	extract := gen.calls[1][1].Content
	for _, want := range []string{
		"REFLECTION:",
		"The user consistently prefers tabs.",
		"Extract 1-3 most CRITICAL facts",
		NoInsightsSentinel,
	} {
		if !strings.Contains(extract, want) {
			t.Errorf("extract prompt missing %q:\n%s", want, extract)
		}
	}
}

func TestRunSkipsWithoutMemories(t *testing.T) {
	gen := newFakeGenerator("should never be called")
	p := testPipeline(gen)

	res := p.Run(context.Background(), "anything", nil)

	if res.Reflection != "" || res.Insights != "" || res.HasInsights() {
		t.Errorf("expected empty result, got %+v", res)
	}
	if len(gen.calls) != 0 {
		t.Errorf("expected no generation calls, got %d", len(gen.calls))
	}
}

func TestRunSentinelSuppressesInjection(t *testing.T) {
	gen := newFakeGenerator("Some reflection text.", NoInsightsSentinel)
	p := testPipeline(gen)

	res := p.Run(context.Background(), "query", retrieved())

	if res.Insights != NoInsightsSentinel {
		t.Errorf("expected sentinel preserved in result, got %q", res.Insights)
	}
	if res.HasInsights() {
		t.Error("expected sentinel to suppress insights")
	}

	// The sentinel check is a case-insensitive substring match.
	lower := Result{Insights: "well, no critical insights derived. moving on"}
	if lower.HasInsights() {
		t.Error("expected lowercase sentinel to suppress insights")
	}
}

func TestRunDegradesOnReflectionFailure(t *testing.T) {
	gen := newFakeGenerator("unused")
	gen.failOn = 0
	p := testPipeline(gen)

	res := p.Run(context.Background(), "query", retrieved())

	if res.Reflection != "" || res.Insights != "" {
		t.Errorf("expected empty result on reflection failure, got %+v", res)
	}
	if len(gen.calls) != 1 {
		t.Errorf("expected pipeline to stop after failed reflection, got %d calls", len(gen.calls))
	}
}

func TestRunDegradesOnExtractionFailure(t *testing.T) {
	gen := newFakeGenerator("A reflection.", "unused")
	gen.failOn = 1
	p := testPipeline(gen)

	res := p.Run(context.Background(), "query", retrieved())

	if res.Reflection != "A reflection." {
		t.Errorf("expected reflection kept, got %q", res.Reflection)
	}
	if res.Insights != "" || res.HasInsights() {
		t.Errorf("expected no insights on extraction failure, got %+v", res)
	}
}

func TestRunBlankReflectionStopsPipeline(t *testing.T) {
	gen := newFakeGenerator("   ", "unused")
	p := testPipeline(gen)

	res := p.Run(context.Background(), "query", retrieved())

	if res.Reflection != "" || res.Insights != "" {
		t.Errorf("expected empty result for blank reflection, got %+v", res)
	}
	if len(gen.calls) != 1 {
		t.Errorf("expected no extraction call after blank reflection, got %d", len(gen.calls))
	}
}
