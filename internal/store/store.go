// Package store provides the record storage interface and SQLite implementation.
package store

import (
	"context"

	"github.com/rcliao/agent-recall/internal/model"
)

// ListParams holds filters for listing memory records.
type ListParams struct {
	Type  model.MemoryType // empty means all types
	Limit int              // 0 means default
}

// Store defines the record storage interface. It is the source of truth
// for memory records; the vector index only mirrors it.
type Store interface {
	// InsertMemory writes a fully-formed record. The caller owns identity
	// and timestamps; the store never rewrites them.
	InsertMemory(ctx context.Context, rec *model.MemoryRecord) error

	// GetMemory retrieves a record by id and bumps its last_accessed time.
	GetMemory(ctx context.Context, id string) (*model.MemoryRecord, error)

	// ListMemories lists records matching the given filters, newest first.
	ListMemories(ctx context.Context, p ListParams) ([]model.MemoryRecord, error)

	// AllMemories returns every record, oldest first.
	AllMemories(ctx context.Context) ([]model.MemoryRecord, error)

	// CreateConversation starts a new conversation with the given title.
	CreateConversation(ctx context.Context, title string) (*model.Conversation, error)

	// GetConversation returns a conversation and its messages in
	// chronological order.
	GetConversation(ctx context.Context, id string) (*model.Conversation, []model.Message, error)

	// ListConversations lists conversations, most recently updated first.
	ListConversations(ctx context.Context, limit int) ([]model.Conversation, error)

	// AppendMessage adds a message to a conversation and bumps the
	// conversation's last_updated time.
	AppendMessage(ctx context.Context, conversationID string, role model.Role, content string) (*model.Message, error)

	// DeleteConversation removes a conversation and all its messages.
	DeleteConversation(ctx context.Context, id string) error

	// Close closes the store.
	Close() error
}
