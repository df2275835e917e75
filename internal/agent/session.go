package agent

import (
	"github.com/rcliao/agent-recall/internal/llm"
	"github.com/rcliao/agent-recall/internal/model"
)

// Session owns the in-memory message log for one conversation. It is
// the short-term context window: every turn appends to it, and it rides
// along into the generation call. Sessions are not safe for concurrent
// turns; run one interactive loop per session.
type Session struct {
	conv    *model.Conversation
	history []llm.Message
}

// Conversation returns the backing conversation.
func (s *Session) Conversation() *model.Conversation {
	return s.conv
}

// History returns a copy of the in-memory message log.
func (s *Session) History() []llm.Message {
	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Reset clears the in-memory log. Persisted conversation messages are
// untouched; only the context window forgets.
func (s *Session) Reset() {
	s.history = s.history[:0]
}
