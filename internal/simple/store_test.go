package simple

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rcliao/agent-recall/internal/errs"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := NewStore("")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ns := []string{"alice", "knowledge"}
	if err := s.Put(ns, "concept:go", Value{"facts": "compiled language"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	v, err := s.Get(ns, "concept:go")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v["facts"] != "compiled language" {
		t.Errorf("unexpected value %v", v)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	s, _ := NewStore("")

	if err := s.Put([]string{"alice"}, "k", Value{"v": "a"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Get([]string{"bob"}, "k"); !errs.IsNotFound(err) {
		t.Errorf("expected NotFound across namespaces, got %v", err)
	}
	if _, err := s.Get([]string{"alice", "sub"}, "k"); !errs.IsNotFound(err) {
		t.Errorf("expected NotFound for sub-namespace, got %v", err)
	}
}

func TestGetMissingKey(t *testing.T) {
	s, _ := NewStore("")
	s.Put([]string{"ns"}, "present", Value{})

	if _, err := s.Get([]string{"ns"}, "absent"); !errs.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestPutRejectsEmptyKey(t *testing.T) {
	s, _ := NewStore("")
	if err := s.Put([]string{"ns"}, "", Value{}); !errs.IsInvalidArgument(err) {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestOverwriteKeepsPosition(t *testing.T) {
	s, _ := NewStore("")
	ns := []string{"ns"}

	s.Put(ns, "first", Value{"v": "1"})
	s.Put(ns, "second", Value{"v": "2"})
	s.Put(ns, "first", Value{"v": "updated"})

	hits := s.Search(ns, "", nil)
	if len(hits) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(hits))
	}
	if hits[0].Key != "first" || hits[1].Key != "second" {
		t.Errorf("expected insertion order preserved, got %v, %v", hits[0].Key, hits[1].Key)
	}
	if hits[0].Value["v"] != "updated" {
		t.Errorf("expected last write to win, got %v", hits[0].Value)
	}
}

func TestSearchMatchesKeyAndValue(t *testing.T) {
	s, _ := NewStore("")
	ns := []string{"ns"}

	s.Put(ns, "concept:golang", Value{"facts": "Compiled, garbage-collected"})
	s.Put(ns, "concept:python", Value{"facts": "Interpreted"})

	if hits := s.Search(ns, "GOLANG", nil); len(hits) != 1 || hits[0].Key != "concept:golang" {
		t.Errorf("expected case-insensitive key match, got %v", hits)
	}
	if hits := s.Search(ns, "garbage", nil); len(hits) != 1 || hits[0].Key != "concept:golang" {
		t.Errorf("expected value match, got %v", hits)
	}
	if hits := s.Search(ns, "rust", nil); len(hits) != 0 {
		t.Errorf("expected no match, got %v", hits)
	}
	if hits := s.Search([]string{"other"}, "golang", nil); len(hits) != 0 {
		t.Errorf("expected empty namespace to match nothing, got %v", hits)
	}
}

func TestSearchPredicate(t *testing.T) {
	s, _ := NewStore("")
	ns := []string{"ns"}

	s.Put(ns, "a", Value{"type": "episodic", "content": "shared term"})
	s.Put(ns, "b", Value{"type": "semantic", "facts": "shared term"})

	hits := s.Search(ns, "shared", func(h Hit) bool {
		return h.Value["type"] == "semantic"
	})
	if len(hits) != 1 || hits[0].Key != "b" {
		t.Errorf("expected predicate to filter, got %v", hits)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memories", "store.json")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.Put([]string{"alice", "knowledge"}, "concept:go", Value{"facts": "fast builds"})
	s.Put([]string{"alice", "episodes"}, "interaction:1", Value{"content": "first chat"})
	s.Put([]string{"alice", "knowledge"}, "concept:sql", Value{"facts": "declarative"})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected store file on disk: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, err := reopened.Get([]string{"alice", "episodes"}, "interaction:1")
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if v["content"] != "first chat" {
		t.Errorf("unexpected reloaded value %v", v)
	}

	hits := reopened.Search([]string{"alice", "knowledge"}, "", nil)
	if len(hits) != 2 || hits[0].Key != "concept:go" || hits[1].Key != "concept:sql" {
		t.Errorf("expected insertion order to survive reload, got %v", hits)
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if hits := s.Search([]string{"any"}, "", nil); len(hits) != 0 {
		t.Errorf("expected empty store, got %v", hits)
	}
}
