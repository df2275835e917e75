// Package simple is the no-embedding fallback memory: an ordered,
// namespace-partitioned key/value store with whole-store JSON
// persistence and naive substring search. Typed views (episodic,
// semantic, procedural) and a per-user composition sit on top of it.
package simple

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rcliao/agent-recall/internal/errs"
)

// Value is one stored payload.
type Value map[string]any

// Hit is one search result: the local key and its payload.
type Hit struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// namespace keeps insertion order alongside the lookup map so search
// results and the persisted file stay deterministic.
type namespace struct {
	keys  []string
	items map[string]Value
}

// Store partitions keys by an ordered sequence of namespace segments.
// A non-empty path makes it durable: loaded on open, flushed as one
// JSON document on every Put.
type Store struct {
	mu    sync.RWMutex
	path  string
	order []string
	nss   map[string]*namespace
}

// persistedEntry is the on-disk shape. The file is an ordered array of
// these so insertion order survives a reload.
type persistedEntry struct {
	Namespace []string `json:"namespace"`
	Key       string   `json:"key"`
	Value     Value    `json:"value"`
}

// NewStore opens a store backed by the given file, loading any
// existing contents. An empty path yields an in-memory store.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, nss: make(map[string]*namespace)}
	if path == "" {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path reports the backing file, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

func nsKey(ns []string) string {
	return strings.Join(ns, "/")
}

// Put writes value under (ns, key) with last-write-wins semantics. An
// overwritten key keeps its original position in the namespace.
func (s *Store) Put(ns []string, key string, value Value) error {
	if key == "" {
		return errs.New(errs.InvalidArgument, "key is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nk := nsKey(ns)
	part, ok := s.nss[nk]
	if !ok {
		part = &namespace{items: make(map[string]Value)}
		s.nss[nk] = part
		s.order = append(s.order, nk)
	}
	if _, exists := part.items[key]; !exists {
		part.keys = append(part.keys, key)
	}
	part.items[key] = value

	if s.path == "" {
		return nil
	}
	return s.flush()
}

// Get returns the payload under (ns, key), or NotFound.
func (s *Store) Get(ns []string, key string) (Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part, ok := s.nss[nsKey(ns)]
	if !ok {
		return nil, errs.Newf(errs.NotFound, "namespace %q has no entries", nsKey(ns))
	}
	v, ok := part.items[key]
	if !ok {
		return nil, errs.Newf(errs.NotFound, "key %q not found in namespace %q", key, nsKey(ns))
	}
	return v, nil
}

// Search returns entries whose key or JSON-serialized value contains
// query, case-insensitively, in insertion order. A nil predicate
// accepts every match; otherwise the predicate filters further
// (typed views use it to match their type tag). No ranking.
func (s *Store) Search(ns []string, query string, pred func(Hit) bool) []Hit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	part, ok := s.nss[nsKey(ns)]
	if !ok {
		return nil
	}

	q := strings.ToLower(query)
	var hits []Hit
	for _, key := range part.keys {
		value := part.items[key]
		if !strings.Contains(strings.ToLower(key), q) && !valueContains(value, q) {
			continue
		}
		hit := Hit{Key: key, Value: value}
		if pred != nil && !pred(hit) {
			continue
		}
		hits = append(hits, hit)
	}
	return hits
}

func valueContains(v Value, q string) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(raw)), q)
}

// flush serializes the whole store. Callers hold the write lock.
func (s *Store) flush() error {
	var entries []persistedEntry
	for _, nk := range s.order {
		part := s.nss[nk]
		segments := strings.Split(nk, "/")
		for _, key := range part.keys {
			entries = append(entries, persistedEntry{
				Namespace: segments,
				Key:       key,
				Value:     part.items[key],
			})
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Persistence, "serialize store", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.Persistence, "create store directory", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errs.Wrap(errs.Persistence, "write store file", err)
	}
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errs.Wrap(errs.Persistence, "read store file", err)
	}

	var entries []persistedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return errs.Wrap(errs.Persistence, "parse store file", err)
	}
	for _, e := range entries {
		nk := nsKey(e.Namespace)
		part, ok := s.nss[nk]
		if !ok {
			part = &namespace{items: make(map[string]Value)}
			s.nss[nk] = part
			s.order = append(s.order, nk)
		}
		if _, exists := part.items[e.Key]; !exists {
			part.keys = append(part.keys, e.Key)
		}
		part.items[e.Key] = e.Value
	}
	return nil
}
