// Package model defines the core memory and conversation data types.
package model

import "time"

// MemoryType classifies a memory record. The well-known types below cover
// the common cases; custom type strings are accepted and stored verbatim.
type MemoryType string

const (
	TypeEpisodic           MemoryType = "episodic"
	TypeSemantic           MemoryType = "semantic"
	TypeProcedural         MemoryType = "procedural"
	TypeEpisodicTurn       MemoryType = "episodic_turn"
	TypeSemanticCorrection MemoryType = "semantic_correction"
	TypeSemanticInsight    MemoryType = "semantic_insight"
)

// WellKnown reports whether t is one of the predefined memory types.
func (t MemoryType) WellKnown() bool {
	switch t {
	case TypeEpisodic, TypeSemantic, TypeProcedural,
		TypeEpisodicTurn, TypeSemanticCorrection, TypeSemanticInsight:
		return true
	}
	return false
}

// MemoryRecord is a single long-term memory entry. The SQLite row is the
// source of truth; the vector index holds a best-effort projection of it.
type MemoryRecord struct {
	ID           string         `json:"id"`
	Content      string         `json:"content"`
	Type         MemoryType     `json:"memory_type"`
	Importance   float64        `json:"importance"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastAccessed time.Time      `json:"last_accessed"`
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Conversation groups an ordered sequence of messages under a title.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Message is a single turn within a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
