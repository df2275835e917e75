package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.Persistence, "create db dir", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "open db", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.Persistence, "migrate", err)
	}

	return s, nil
}

// newMessageID returns a ULID. Message ids sort chronologically, which
// keeps message order stable when two rows share a created_at second.
func (s *SQLiteStore) newMessageID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id            TEXT PRIMARY KEY,
		content       TEXT NOT NULL,
		memory_type   TEXT NOT NULL DEFAULT 'episodic',
		importance    REAL NOT NULL DEFAULT 0.5,
		metadata      TEXT,
		created_at    TEXT NOT NULL,
		last_accessed TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(memory_type);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at DESC);

	CREATE TABLE IF NOT EXISTS conversations (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		last_updated TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(last_updated DESC);

	CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role            TEXT NOT NULL,
		content         TEXT NOT NULL,
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) InsertMemory(ctx context.Context, rec *model.MemoryRecord) error {
	var metaJSON *string
	if len(rec.Metadata) > 0 {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return errs.Wrap(errs.InvalidArgument, "encode metadata", err)
		}
		j := string(b)
		metaJSON = &j
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, content, memory_type, importance, metadata, created_at, last_accessed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Content, string(rec.Type), rec.Importance, metaJSON,
		rec.CreatedAt.UTC().Format(time.RFC3339),
		rec.LastAccessed.UTC().Format(time.RFC3339))
	if err != nil {
		return errs.Wrap(errs.Persistence, "insert memory", err)
	}
	return nil
}

func (s *SQLiteStore) GetMemory(ctx context.Context, id string) (*model.MemoryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, memory_type, importance, metadata, created_at, last_accessed
		 FROM memories WHERE id = ?`, id)

	rec, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Newf(errs.NotFound, "memory not found: %s", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "get memory", err)
	}

	// The returned record carries the pre-bump access time.
	now := time.Now().UTC().Format(time.RFC3339)
	s.db.ExecContext(ctx,
		`UPDATE memories SET last_accessed = ? WHERE id = ?`, now, rec.ID)

	return &rec, nil
}

func (s *SQLiteStore) ListMemories(ctx context.Context, p ListParams) ([]model.MemoryRecord, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, content, memory_type, importance, metadata, created_at, last_accessed
	          FROM memories`
	args := []interface{}{}
	if p.Type != "" {
		query += ` WHERE memory_type = ?`
		args = append(args, string(p.Type))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "list memories", err)
	}
	defer rows.Close()

	var recs []model.MemoryRecord
	for rows.Next() {
		rec, err := scanMemory(rows)
		if err != nil {
			return nil, errs.Wrap(errs.Persistence, "scan memory", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (s *SQLiteStore) AllMemories(ctx context.Context) ([]model.MemoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, memory_type, importance, metadata, created_at, last_accessed
		 FROM memories ORDER BY created_at, rowid`)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "list memories", err)
	}
	defer rows.Close()

	var recs []model.MemoryRecord
	for rows.Next() {
		rec, err := scanMemory(rows)
		if err != nil {
			return nil, errs.Wrap(errs.Persistence, "scan memory", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (s *SQLiteStore) CreateConversation(ctx context.Context, title string) (*model.Conversation, error) {
	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:          uuid.NewString(),
		Title:       title,
		CreatedAt:   now,
		LastUpdated: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at, last_updated) VALUES (?, ?, ?, ?)`,
		conv.ID, conv.Title, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "insert conversation", err)
	}

	return conv, nil
}

func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*model.Conversation, []model.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, last_updated FROM conversations WHERE id = ?`, id)

	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, errs.Newf(errs.NotFound, "conversation not found: %s", id)
	}
	if err != nil {
		return nil, nil, errs.Wrap(errs.Persistence, "get conversation", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, nil, errs.Wrap(errs.Persistence, "list messages", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var role, createdAt string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &createdAt); err != nil {
			return nil, nil, errs.Wrap(errs.Persistence, "scan message", err)
		}
		m.Role = model.Role(role)
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		msgs = append(msgs, m)
	}

	return &conv, msgs, rows.Err()
}

func (s *SQLiteStore) ListConversations(ctx context.Context, limit int) ([]model.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, last_updated FROM conversations
		 ORDER BY last_updated DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "list conversations", err)
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, errs.Wrap(errs.Persistence, "scan conversation", err)
		}
		convs = append(convs, conv)
	}

	return convs, rows.Err()
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, conversationID string, role model.Role, content string) (*model.Message, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "begin tx", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM conversations WHERE id = ?`, conversationID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Newf(errs.NotFound, "conversation not found: %s", conversationID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "lookup conversation", err)
	}

	msg := &model.Message{
		ID:             s.newMessageID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, now.Format(time.RFC3339))
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "insert message", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET last_updated = ? WHERE id = ?`,
		now.Format(time.RFC3339), conversationID)
	if err != nil {
		return nil, errs.Wrap(errs.Persistence, "touch conversation", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(errs.Persistence, "commit", err)
	}

	return msg, nil
}

func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	// Messages go with it via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(errs.Persistence, "delete conversation", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.Newf(errs.NotFound, "conversation not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (model.MemoryRecord, error) {
	var m model.MemoryRecord
	var typ string
	var metaJSON sql.NullString
	var createdAt, lastAccessed string

	err := row.Scan(&m.ID, &m.Content, &typ, &m.Importance, &metaJSON, &createdAt, &lastAccessed)
	if err != nil {
		return m, err
	}

	m.Type = model.MemoryType(typ)
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	m.LastAccessed, _ = time.Parse(time.RFC3339, lastAccessed)
	if metaJSON.Valid {
		json.Unmarshal([]byte(metaJSON.String), &m.Metadata)
	}

	return m, nil
}

func scanConversation(row scanner) (model.Conversation, error) {
	var c model.Conversation
	var createdAt, lastUpdated string

	err := row.Scan(&c.ID, &c.Title, &createdAt, &lastUpdated)
	if err != nil {
		return c, err
	}

	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)

	return c, nil
}
