package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(content string, typ model.MemoryType) *model.MemoryRecord {
	now := time.Now().UTC()
	return &model.MemoryRecord{
		ID:           uuid.NewString(),
		Content:      content,
		Type:         typ,
		Importance:   0.5,
		CreatedAt:    now,
		LastAccessed: now,
	}
}

func TestInsertAndGetMemory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := testRecord("the sky is blue", model.TypeSemantic)
	rec.Importance = 0.8
	rec.Metadata = map[string]any{"source": "user", "verified": true}

	if err := s.InsertMemory(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetMemory(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "the sky is blue" {
		t.Errorf("expected content preserved, got %q", got.Content)
	}
	if got.Type != model.TypeSemantic {
		t.Errorf("expected type semantic, got %q", got.Type)
	}
	if got.Importance != 0.8 {
		t.Errorf("expected importance 0.8, got %v", got.Importance)
	}
	if got.Metadata["source"] != "user" {
		t.Errorf("expected metadata source=user, got %v", got.Metadata)
	}
	if got.LastAccessed.Before(got.CreatedAt) {
		t.Error("expected last_accessed >= created_at")
	}
}

func TestGetMemoryBumpsLastAccessed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := testRecord("old memory", model.TypeEpisodic)
	rec.CreatedAt = time.Now().UTC().Add(-time.Hour)
	rec.LastAccessed = rec.CreatedAt
	s.InsertMemory(ctx, rec)

	// First read returns the stored access time, then bumps it.
	first, err := s.GetMemory(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := s.GetMemory(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !second.LastAccessed.After(first.LastAccessed) {
		t.Errorf("expected access bump, got %v then %v", first.LastAccessed, second.LastAccessed)
	}
}

func TestGetMemoryNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetMemory(ctx, uuid.NewString())
	if err == nil {
		t.Fatal("expected error for missing id")
	}
	if !errs.IsNotFound(err) {
		t.Errorf("expected NotFound code, got %v", err)
	}
}

func TestMetadataRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := testRecord("with metadata", model.TypeSemantic)
	rec.Metadata = map[string]any{"topic": "go", "confidence": 0.9}
	s.InsertMemory(ctx, rec)

	got, err := s.GetMemory(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Metadata["topic"] != "go" {
		t.Errorf("expected topic=go, got %v", got.Metadata["topic"])
	}
	// Numbers come back as float64 through JSON.
	if got.Metadata["confidence"] != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", got.Metadata["confidence"])
	}
}

func TestListMemories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.InsertMemory(ctx, testRecord("a", model.TypeSemantic))
	s.InsertMemory(ctx, testRecord("b", model.TypeSemantic))
	s.InsertMemory(ctx, testRecord("c", model.TypeEpisodic))

	all, err := s.ListMemories(ctx, ListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3, got %d", len(all))
	}

	semantic, _ := s.ListMemories(ctx, ListParams{Type: model.TypeSemantic})
	if len(semantic) != 2 {
		t.Errorf("expected 2 semantic, got %d", len(semantic))
	}

	limited, _ := s.ListMemories(ctx, ListParams{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected 1 with limit, got %d", len(limited))
	}
}

func TestAllMemoriesOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := testRecord("first", model.TypeSemantic)
	first.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	second := testRecord("second", model.TypeSemantic)
	second.CreatedAt = time.Now().UTC().Add(-time.Hour)
	s.InsertMemory(ctx, second)
	s.InsertMemory(ctx, first)

	all, err := s.AllMemories(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2, got %d", len(all))
	}
	if all[0].Content != "first" || all[1].Content != "second" {
		t.Errorf("expected chronological order, got %q then %q", all[0].Content, all[1].Content)
	}
}

func TestConversationFlow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv, err := s.CreateConversation(ctx, "Test Session")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if conv.ID == "" {
		t.Fatal("expected non-empty conversation id")
	}

	s.AppendMessage(ctx, conv.ID, model.RoleUser, "hello")
	s.AppendMessage(ctx, conv.ID, model.RoleAssistant, "hi there")
	s.AppendMessage(ctx, conv.ID, model.RoleUser, "how are you")

	got, msgs, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.Title != "Test Session" {
		t.Errorf("expected title preserved, got %q", got.Title)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "hello" || msgs[1].Content != "hi there" || msgs[2].Content != "how are you" {
		t.Error("expected messages in append order")
	}
	if msgs[0].Role != model.RoleUser || msgs[1].Role != model.RoleAssistant {
		t.Error("expected roles preserved")
	}
	if !got.LastUpdated.Before(time.Now().Add(time.Second)) || got.LastUpdated.Before(got.CreatedAt) {
		t.Errorf("expected last_updated >= created_at, got %v / %v", got.LastUpdated, got.CreatedAt)
	}
}

func TestAppendMessageMissingConversation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.AppendMessage(ctx, uuid.NewString(), model.RoleUser, "hello")
	if err == nil {
		t.Fatal("expected error for missing conversation")
	}
	if !errs.IsNotFound(err) {
		t.Errorf("expected NotFound code, got %v", err)
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	conv, _ := s.CreateConversation(ctx, "doomed")
	s.AppendMessage(ctx, conv.ID, model.RoleUser, "one")
	s.AppendMessage(ctx, conv.ID, model.RoleAssistant, "two")

	if err := s.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, _, err := s.GetConversation(ctx, conv.ID)
	if !errs.IsNotFound(err) {
		t.Errorf("expected NotFound after delete, got %v", err)
	}

	var orphans int
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conv.ID).Scan(&orphans)
	if orphans != 0 {
		t.Errorf("expected cascade delete of messages, found %d", orphans)
	}

	if err := s.DeleteConversation(ctx, conv.ID); !errs.IsNotFound(err) {
		t.Errorf("expected NotFound on double delete, got %v", err)
	}
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, _ := s.CreateConversation(ctx, "first")
	b, _ := s.CreateConversation(ctx, "second")

	convs, err := s.ListConversations(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	seen := map[string]bool{}
	for _, c := range convs {
		seen[c.ID] = true
	}
	if !seen[a.ID] || !seen[b.ID] {
		t.Error("expected both conversations listed")
	}
}

func TestImportSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	existing := testRecord("already here", model.TypeSemantic)
	s.InsertMemory(ctx, existing)

	fresh := testRecord("new arrival", model.TypeEpisodic)
	n, err := s.ImportMemories(ctx, []model.MemoryRecord{*existing, *fresh})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 imported, got %d", n)
	}

	all, _ := s.AllMemories(ctx)
	if len(all) != 2 {
		t.Errorf("expected 2 total records, got %d", len(all))
	}
}

func TestIdempotentMigrate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	rec := testRecord("survives reopen", model.TypeSemantic)
	s.InsertMemory(ctx, rec)
	s.Close()

	// Reopening runs migrate again against the existing schema.
	s2, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetMemory(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Content != "survives reopen" {
		t.Errorf("expected data to survive reopen, got %q", got.Content)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()

	s.InsertMemory(ctx, testRecord("a", model.TypeSemantic))
	s.InsertMemory(ctx, testRecord("b", model.TypeSemantic))
	s.InsertMemory(ctx, testRecord("c", model.TypeEpisodicTurn))
	conv, _ := s.CreateConversation(ctx, "stats")
	s.AppendMessage(ctx, conv.ID, model.RoleUser, "hi")

	st, err := s.Stats(ctx, dbPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalMemories != 3 {
		t.Errorf("expected 3 memories, got %d", st.TotalMemories)
	}
	if st.Conversations != 1 || st.Messages != 1 {
		t.Errorf("expected 1 conversation and 1 message, got %d/%d", st.Conversations, st.Messages)
	}
	if len(st.Types) == 0 || st.Types[0].Type != "semantic" || st.Types[0].Count != 2 {
		t.Errorf("expected semantic as top type with count 2, got %+v", st.Types)
	}
	if st.DBSizeBytes == 0 {
		t.Error("expected non-zero db size")
	}
}
