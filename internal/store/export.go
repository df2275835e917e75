package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/model"
)

// ImportMemories inserts records from an export, preserving their ids and
// timestamps. Records whose id already exists are skipped. Returns the
// number of records actually written.
func (s *SQLiteStore) ImportMemories(ctx context.Context, recs []model.MemoryRecord) (int, error) {
	imported := 0
	for _, rec := range recs {
		var metaJSON *string
		if len(rec.Metadata) > 0 {
			b, err := json.Marshal(rec.Metadata)
			if err != nil {
				return imported, errs.Wrap(errs.InvalidArgument, "encode metadata", err)
			}
			j := string(b)
			metaJSON = &j
		}

		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO memories (id, content, memory_type, importance, metadata, created_at, last_accessed)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Content, string(rec.Type), rec.Importance, metaJSON,
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.LastAccessed.UTC().Format(time.RFC3339))
		if err != nil {
			return imported, errs.Wrap(errs.Persistence, "import memory", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			imported++
		}
	}
	return imported, nil
}
