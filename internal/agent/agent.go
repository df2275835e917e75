// Package agent implements the conversational loop over the memory
// service and reflection pipeline: retrieve, reflect, generate, write
// back.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/llm"
	"github.com/rcliao/agent-recall/internal/memory"
	"github.com/rcliao/agent-recall/internal/model"
	"github.com/rcliao/agent-recall/internal/reflection"
)

// DefaultSystemPrompt frames every generation call.
const DefaultSystemPrompt = "You are a helpful AI assistant. Please keep your responses concise. " +
	"If you use information learned from previous interactions (provided as 'IMPORTANT CONTEXT UPDATE'), " +
	"briefly acknowledge this."

// DefaultSessionTitle names sessions started without one.
const DefaultSessionTitle = "Interactive Session"

// ErrorReply is the user-visible reply when the final generation call
// fails. The turn is still recorded and written back.
const ErrorReply = "Error processing request."

// TurnResult reports what one turn did.
type TurnResult struct {
	Reply             string
	MemoriesRetrieved int
	Insights          string
	InsightsApplied   bool
	CorrectionSaved   bool
}

// Options configures optional Agent behavior.
type Options struct {
	SearchLimit     int           // 0 means memory.DefaultSearchLimit
	MaxDistance     float64       // 0 means memory.DefaultMaxDistance
	GenerateTimeout time.Duration // 0 means reflection.DefaultGenerateTimeout
	SystemPrompt    string        // "" means DefaultSystemPrompt
	Logger          *slog.Logger  // nil means slog.Default()
}

// Agent ties the memory service, reflection pipeline, and generator
// into per-session conversational turns.
type Agent struct {
	memory          *memory.Service
	generator       llm.Generator
	pipeline        *reflection.Pipeline
	searchLimit     int
	maxDistance     float64
	generateTimeout time.Duration
	systemPrompt    string
	logger          *slog.Logger
}

// New creates an Agent.
func New(svc *memory.Service, gen llm.Generator, pipe *reflection.Pipeline, opts Options) *Agent {
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = memory.DefaultSearchLimit
	}
	if opts.MaxDistance <= 0 {
		opts.MaxDistance = memory.DefaultMaxDistance
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = reflection.DefaultGenerateTimeout
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Agent{
		memory:          svc,
		generator:       gen,
		pipeline:        pipe,
		searchLimit:     opts.SearchLimit,
		maxDistance:     opts.MaxDistance,
		generateTimeout: opts.GenerateTimeout,
		systemPrompt:    opts.SystemPrompt,
		logger:          opts.Logger,
	}
}

// StartSession creates a new conversation and a session over it. An
// empty title becomes DefaultSessionTitle.
func (a *Agent) StartSession(ctx context.Context, title string) (*Session, error) {
	if title == "" {
		title = DefaultSessionTitle
	}
	conv, err := a.memory.StartConversation(ctx, title)
	if err != nil {
		return nil, err
	}
	return &Session{conv: conv}, nil
}

// ResumeSession loads an existing conversation and rebuilds its message
// log as the session context.
func (a *Agent) ResumeSession(ctx context.Context, conversationID string) (*Session, error) {
	conv, msgs, err := a.memory.Conversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	sess := &Session{conv: conv, history: make([]llm.Message, 0, len(msgs))}
	for _, m := range msgs {
		sess.history = append(sess.history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return sess, nil
}

// Turn runs one full conversational turn: record the user message,
// search memory, reflect, generate a reply with any derived insights
// injected, record the reply, and write the turn back into memory.
// Generation failure degrades to ErrorReply rather than aborting; only
// a failure to record the user message aborts the turn.
func (a *Agent) Turn(ctx context.Context, sess *Session, message string) (*TurnResult, error) {
	if sess == nil {
		return nil, errs.New(errs.InvalidArgument, "session is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, errs.New(errs.InvalidArgument, "message is empty")
	}

	if _, err := a.memory.AppendMessage(ctx, sess.conv.ID, model.RoleUser, message); err != nil {
		return nil, err
	}
	sess.history = append(sess.history, llm.Message{Role: model.RoleUser, Content: message})

	retrieved, err := a.memory.Search(ctx, memory.SearchParams{
		Query:       message,
		Limit:       a.searchLimit,
		MaxDistance: a.maxDistance,
	})
	if err != nil {
		a.logger.Warn("memory search failed", "error", err)
	}

	derived := a.pipeline.Run(ctx, message, retrieved)
	useInsights := derived.HasInsights()

	messages := make([]llm.Message, 0, len(sess.history)+2)
	messages = append(messages, llm.Message{Role: model.RoleSystem, Content: a.systemPrompt})
	if useInsights {
		messages = append(messages, llm.Message{
			Role:    model.RoleSystem,
			Content: insightDirective(derived.Insights, message),
		})
	}
	messages = append(messages, sess.history...)

	reply, err := a.generate(ctx, messages)
	if err != nil {
		a.logger.Warn("generation failed", "error", err)
		reply = ErrorReply
	}

	if _, err := a.memory.AppendMessage(ctx, sess.conv.ID, model.RoleAssistant, reply); err != nil {
		a.logger.Warn("recording assistant reply failed", "error", err)
	}
	sess.history = append(sess.history, llm.Message{Role: model.RoleAssistant, Content: reply})

	result := &TurnResult{
		Reply:             reply,
		MemoriesRetrieved: len(retrieved),
		Insights:          derived.Insights,
		InsightsApplied:   useInsights,
	}
	a.writeBack(ctx, sess.conv.ID, message, reply, derived.Insights, useInsights, result)

	return result, nil
}

// writeBack persists what the turn produced: always the user+assistant
// pair as an episodic turn, plus a high-importance correction when the
// user message was one, plus the insights when they were injected.
// Failures are logged and absorbed.
func (a *Agent) writeBack(ctx context.Context, convID, message, reply, insights string, useInsights bool, result *TurnResult) {
	turn := fmt.Sprintf("user: %s\nassistant: %s", message, reply)
	if _, err := a.memory.Add(ctx, memory.AddParams{
		Content:    turn,
		Type:       model.TypeEpisodicTurn,
		Importance: reflection.TurnImportance,
		Metadata:   map[string]any{"conversation_id": convID},
	}); err != nil {
		a.logger.Warn("persisting turn failed", "error", err)
	}

	if a.pipeline.IsCorrection(message) {
		if _, err := a.memory.Add(ctx, memory.AddParams{
			Content:    message,
			Type:       model.TypeSemanticCorrection,
			Importance: reflection.CorrectionImportance,
			Metadata:   map[string]any{"source": "user_correction", "conversation_id": convID},
		}); err != nil {
			a.logger.Warn("persisting correction failed", "error", err)
		} else {
			result.CorrectionSaved = true
		}
	}

	if useInsights {
		if _, err := a.memory.Add(ctx, memory.AddParams{
			Content:    insights,
			Type:       model.TypeSemanticInsight,
			Importance: reflection.InsightImportance,
			Metadata:   map[string]any{"source": "ai_extracted_insight", "conversation_id": convID},
		}); err != nil {
			a.logger.Warn("persisting insight failed", "error", err)
		}
	}
}

func (a *Agent) generate(ctx context.Context, messages []llm.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.generateTimeout)
	defer cancel()
	return a.generator.Generate(ctx, messages)
}

func insightDirective(insights, message string) string {
	return fmt.Sprintf("IMPORTANT CONTEXT UPDATE:\n%s\nAddress user query: '%s' using this.", insights, message)
}
