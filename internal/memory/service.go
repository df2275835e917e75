// Package memory orchestrates the record store and the vector index
// behind a single service facade.
//
// The record store is the source of truth. The vector index is a
// best-effort accelerator: a record whose embedding or index write fails
// stays durable and readable by id, it just never surfaces in similarity
// search until reindexed. A successful record insert is never rolled
// back because indexing failed.
package memory

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/agent-recall/internal/embedding"
	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/index"
	"github.com/rcliao/agent-recall/internal/model"
	"github.com/rcliao/agent-recall/internal/store"
)

const (
	// DefaultSearchLimit caps similarity search results when the caller
	// does not ask for a specific limit.
	DefaultSearchLimit = 5

	// DefaultMaxDistance drops hits whose vector distance exceeds it.
	DefaultMaxDistance = 1.5

	// DefaultEmbedTimeout bounds every embedding provider call.
	DefaultEmbedTimeout = 30 * time.Second
)

// AddParams holds parameters for storing a new memory.
type AddParams struct {
	Content    string
	Type       model.MemoryType // empty means episodic
	Importance float64          // clamped to [0, 1]
	Metadata   map[string]any
}

// SearchParams holds parameters for similarity search.
type SearchParams struct {
	Query       string
	Limit       int     // 0 means DefaultSearchLimit
	MaxDistance float64 // 0 means DefaultMaxDistance
}

// SearchResult is a hydrated record with its retrieval scores attached.
type SearchResult struct {
	model.MemoryRecord
	RelevanceScore float64 `json:"relevance_score"`
	Distance       float64 `json:"distance"`
}

// Options configures optional Service behavior.
type Options struct {
	EmbedTimeout time.Duration // 0 means DefaultEmbedTimeout
	Logger       *slog.Logger  // nil means slog.Default()
}

// Service coordinates writes and reads across both memory backends.
type Service struct {
	store        store.Store
	index        index.Index
	embedder     embedding.Embedder // nil means embeddings disabled
	embedTimeout time.Duration
	logger       *slog.Logger
}

// NewService creates a Service over the given backends. A nil embedder
// disables indexing and similarity search; records still persist. The
// index must be non-nil.
func NewService(st store.Store, ix index.Index, emb embedding.Embedder, opts Options) *Service {
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = DefaultEmbedTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:        st,
		index:        ix,
		embedder:     emb,
		embedTimeout: opts.EmbedTimeout,
		logger:       opts.Logger,
	}
}

// Add persists a new memory and indexes it when possible. On record
// store failure nothing is written and no id is returned. On embedding
// or index failure the id is still returned; the record is durable but
// unreachable via search until the next reindex.
func (s *Service) Add(ctx context.Context, p AddParams) (string, error) {
	if strings.TrimSpace(p.Content) == "" {
		return "", errs.New(errs.InvalidArgument, "memory content is empty")
	}

	typ := p.Type
	if typ == "" {
		typ = model.TypeEpisodic
	}

	imp := p.Importance
	if imp < 0 {
		imp = 0
	} else if imp > 1 {
		imp = 1
	}

	now := time.Now().UTC()
	rec := &model.MemoryRecord{
		ID:           uuid.NewString(),
		Content:      p.Content,
		Type:         typ,
		Importance:   imp,
		Metadata:     p.Metadata,
		CreatedAt:    now,
		LastAccessed: now,
	}

	if err := s.store.InsertMemory(ctx, rec); err != nil {
		return "", err
	}

	s.indexRecord(ctx, rec)

	return rec.ID, nil
}

// Search embeds the query, asks the index for nearest neighbors, and
// hydrates each hit from the record store. Hits beyond maxDistance are
// dropped; hits whose record has vanished are skipped. Results come back
// nearest first, so relevance scores are non-increasing. Backend
// failures degrade to an empty result, never an error.
func (s *Service) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	if strings.TrimSpace(p.Query) == "" || s.embedder == nil {
		return nil, nil
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	maxDistance := p.MaxDistance
	if maxDistance == 0 {
		maxDistance = DefaultMaxDistance
	}

	vec, err := s.embed(ctx, p.Query)
	if err != nil {
		s.logger.Warn("query embedding failed", "error", err)
		return nil, nil
	}
	if len(vec) == 0 {
		return nil, nil
	}

	hits, err := s.index.Query(ctx, vec, limit)
	if err != nil {
		s.logger.Warn("index query failed", "error", err)
		return nil, nil
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Distance > maxDistance {
			continue
		}
		rec, err := s.store.GetMemory(ctx, hit.ID)
		if err != nil {
			// An index entry without a backing record is expected
			// divergence, not an error.
			if !errs.IsNotFound(err) {
				s.logger.Warn("hydrating search hit failed", "id", hit.ID, "error", err)
			}
			continue
		}
		results = append(results, SearchResult{
			MemoryRecord:   *rec,
			RelevanceScore: 1 / (1 + hit.Distance),
			Distance:       hit.Distance,
		})
	}

	return results, nil
}

// Get retrieves a single record by id, bumping its access time.
func (s *Service) Get(ctx context.Context, id string) (*model.MemoryRecord, error) {
	return s.store.GetMemory(ctx, id)
}

// List returns records matching the given filters, newest first.
func (s *Service) List(ctx context.Context, p store.ListParams) ([]model.MemoryRecord, error) {
	return s.store.ListMemories(ctx, p)
}

// Export returns every record, oldest first.
func (s *Service) Export(ctx context.Context) ([]model.MemoryRecord, error) {
	return s.store.AllMemories(ctx)
}

// Reindex re-embeds every record and rebuilds its index entry,
// reconciling the two backends out of band. Per-record failures are
// logged and counted as skipped, never fatal.
func (s *Service) Reindex(ctx context.Context) (indexed, skipped int, err error) {
	if s.embedder == nil {
		return 0, 0, errs.New(errs.Config, "embeddings are disabled")
	}

	recs, err := s.store.AllMemories(ctx)
	if err != nil {
		return 0, 0, err
	}

	for i := range recs {
		if s.indexRecord(ctx, &recs[i]) {
			indexed++
		} else {
			skipped++
		}
	}
	return indexed, skipped, nil
}

// StartConversation creates a new conversation.
func (s *Service) StartConversation(ctx context.Context, title string) (*model.Conversation, error) {
	return s.store.CreateConversation(ctx, title)
}

// Conversation returns a conversation and its messages in order.
func (s *Service) Conversation(ctx context.Context, id string) (*model.Conversation, []model.Message, error) {
	return s.store.GetConversation(ctx, id)
}

// Conversations lists conversations, most recently updated first.
func (s *Service) Conversations(ctx context.Context, limit int) ([]model.Conversation, error) {
	return s.store.ListConversations(ctx, limit)
}

// AppendMessage records a message on a conversation.
func (s *Service) AppendMessage(ctx context.Context, conversationID string, role model.Role, content string) (*model.Message, error) {
	return s.store.AppendMessage(ctx, conversationID, role, content)
}

// DeleteConversation removes a conversation and its messages.
func (s *Service) DeleteConversation(ctx context.Context, id string) error {
	return s.store.DeleteConversation(ctx, id)
}

// Close releases the underlying record store.
func (s *Service) Close() error {
	return s.store.Close()
}

// indexRecord embeds and upserts one record, reporting success. Failures
// are logged and absorbed.
func (s *Service) indexRecord(ctx context.Context, rec *model.MemoryRecord) bool {
	if s.embedder == nil {
		return false
	}

	vec, err := s.embed(ctx, rec.Content)
	if err != nil {
		s.logger.Warn("embedding failed, record left unindexed", "id", rec.ID, "error", err)
		return false
	}
	if len(vec) == 0 {
		s.logger.Warn("embedder returned no vector, record left unindexed", "id", rec.ID)
		return false
	}

	if err := s.index.Upsert(ctx, rec.ID, rec.Content, vec, indexMetadata(rec)); err != nil {
		s.logger.Warn("index upsert failed, record left unindexed", "id", rec.ID, "error", err)
		return false
	}
	return true
}

func (s *Service) embed(ctx context.Context, text string) (embedding.Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()
	return s.embedder.Embed(ctx, text)
}

// indexMetadata mirrors a record's filterable fields into the index.
// Only scalar caller metadata is carried over; reserved keys win on
// collision.
func indexMetadata(rec *model.MemoryRecord) map[string]string {
	meta := make(map[string]string, len(rec.Metadata)+3)
	for k, v := range rec.Metadata {
		switch val := v.(type) {
		case string:
			meta[k] = val
		case bool:
			meta[k] = strconv.FormatBool(val)
		case int:
			meta[k] = strconv.Itoa(val)
		case float64:
			meta[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	meta["memory_type"] = string(rec.Type)
	meta["importance"] = strconv.FormatFloat(rec.Importance, 'f', -1, 64)
	meta["created_at_ts"] = strconv.FormatInt(rec.CreatedAt.Unix(), 10)
	return meta
}
