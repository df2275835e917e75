package index

import (
	"context"
	"sort"

	"github.com/philippgille/chromem-go"

	"github.com/rcliao/agent-recall/internal/errs"
)

const collectionName = "semantic_memories"

// ChromemIndex implements Index on an embedded chromem-go database.
type ChromemIndex struct {
	db  *chromem.DB
	col *chromem.Collection
}

// NewChromemIndex opens a persistent index under dir. An empty dir keeps
// the index in memory only, which is useful for tests and for running
// without a data directory.
func NewChromemIndex(dir string, compress bool) (*ChromemIndex, error) {
	var (
		db  *chromem.DB
		err error
	)
	if dir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dir, compress)
		if err != nil {
			return nil, errs.Wrap(errs.Index, "open index", err)
		}
	}

	// Documents always arrive with explicit embeddings, so no embedding
	// function is registered on the collection.
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Index, "open collection", err)
	}

	return &ChromemIndex{db: db, col: col}, nil
}

func (ix *ChromemIndex) Upsert(ctx context.Context, id, content string, embedding []float32, meta map[string]string) error {
	if id == "" || len(embedding) == 0 {
		return errs.New(errs.InvalidArgument, "id and embedding are required")
	}

	doc := chromem.Document{
		ID:        id,
		Content:   content,
		Embedding: embedding,
		Metadata:  meta,
	}
	if err := ix.col.AddDocument(ctx, doc); err != nil {
		return errs.Wrap(errs.Index, "upsert document", err)
	}
	return nil
}

func (ix *ChromemIndex) Query(ctx context.Context, embedding []float32, k int) ([]Hit, error) {
	if len(embedding) == 0 || k <= 0 {
		return nil, nil
	}

	// chromem rejects nResults larger than the collection, so clamp.
	if n := ix.col.Count(); k > n {
		k = n
	}
	if k == 0 {
		return nil, nil
	}

	results, err := ix.col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Index, "query", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{ID: r.ID, Distance: 1 - float64(r.Similarity)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	return hits, nil
}

func (ix *ChromemIndex) Count() int {
	return ix.col.Count()
}
