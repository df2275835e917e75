package simple

import (
	"strings"
	"time"

	"github.com/rcliao/agent-recall/internal/errs"
	"github.com/rcliao/agent-recall/internal/model"
)

// The typed memories are pure projections over one Store: they fix a
// key prefix and a type tag, nothing else. All three can share a
// namespace without colliding.
const (
	interactionPrefix = "interaction:"
	conceptPrefix     = "concept:"
	procedurePrefix   = "procedure:"
)

// Fact pairs a concept name with what is known about it.
type Fact struct {
	Concept string `json:"concept"`
	Facts   any    `json:"facts"`
}

// Procedure pairs a procedure name with its instructions.
type Procedure struct {
	Name         string `json:"name"`
	Instructions any    `json:"instructions"`
}

func typeTag(want model.MemoryType) func(Hit) bool {
	return func(h Hit) bool {
		tag, _ := h.Value["type"].(string)
		return tag == string(want)
	}
}

// Episodic stores specific experiences and events.
type Episodic struct {
	store *Store
	ns    []string
}

func NewEpisodic(store *Store, ns []string) *Episodic {
	return &Episodic{store: store, ns: ns}
}

// AddInteraction records one interaction under its id, timestamped.
func (m *Episodic) AddInteraction(id string, content any) error {
	return m.store.Put(m.ns, interactionPrefix+id, Value{
		"content":   content,
		"type":      string(model.TypeEpisodic),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Interaction returns the content recorded under id.
func (m *Episodic) Interaction(id string) (any, error) {
	v, err := m.store.Get(m.ns, interactionPrefix+id)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.Newf(errs.NotFound, "no memory of interaction %s", id)
		}
		return nil, err
	}
	return v["content"], nil
}

// SearchInteractions returns the contents of interactions matching
// query, in the order they were recorded.
func (m *Episodic) SearchInteractions(query string) []any {
	hits := m.store.Search(m.ns, query, typeTag(model.TypeEpisodic))
	contents := make([]any, 0, len(hits))
	for _, h := range hits {
		contents = append(contents, h.Value["content"])
	}
	return contents
}

// Semantic stores factual knowledge about concepts.
type Semantic struct {
	store *Store
	ns    []string
}

func NewSemantic(store *Store, ns []string) *Semantic {
	return &Semantic{store: store, ns: ns}
}

// AddKnowledge records facts about a concept, overwriting any prior
// knowledge of it.
func (m *Semantic) AddKnowledge(concept string, facts any) error {
	return m.store.Put(m.ns, conceptPrefix+concept, Value{
		"facts": facts,
		"type":  string(model.TypeSemantic),
	})
}

// Knowledge returns the facts recorded for a concept.
func (m *Semantic) Knowledge(concept string) (any, error) {
	v, err := m.store.Get(m.ns, conceptPrefix+concept)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.Newf(errs.NotFound, "no knowledge about %s", concept)
		}
		return nil, err
	}
	return v["facts"], nil
}

// SearchKnowledge returns concept/facts pairs matching query.
func (m *Semantic) SearchKnowledge(query string) []Fact {
	hits := m.store.Search(m.ns, query, typeTag(model.TypeSemantic))
	facts := make([]Fact, 0, len(hits))
	for _, h := range hits {
		facts = append(facts, Fact{
			Concept: strings.TrimPrefix(h.Key, conceptPrefix),
			Facts:   h.Value["facts"],
		})
	}
	return facts
}

// Procedural stores instructions for performing tasks.
type Procedural struct {
	store *Store
	ns    []string
}

func NewProcedural(store *Store, ns []string) *Procedural {
	return &Procedural{store: store, ns: ns}
}

// AddProcedure records instructions under a name.
func (m *Procedural) AddProcedure(name string, instructions any) error {
	return m.store.Put(m.ns, procedurePrefix+name, Value{
		"instructions": instructions,
		"type":         string(model.TypeProcedural),
	})
}

// Procedure returns the instructions recorded under name.
func (m *Procedural) Procedure(name string) (any, error) {
	v, err := m.store.Get(m.ns, procedurePrefix+name)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.Newf(errs.NotFound, "no procedure named %s", name)
		}
		return nil, err
	}
	return v["instructions"], nil
}

// UpdateProcedure overwrites an existing procedure in place. Unlike
// AddProcedure it requires the name to exist already; no history of
// prior instructions is kept.
func (m *Procedural) UpdateProcedure(name string, instructions any) error {
	if _, err := m.store.Get(m.ns, procedurePrefix+name); err != nil {
		if errs.IsNotFound(err) {
			return errs.Newf(errs.NotFound, "no procedure named %s", name)
		}
		return err
	}
	return m.AddProcedure(name, instructions)
}

// SearchProcedures returns name/instructions pairs matching query.
func (m *Procedural) SearchProcedures(query string) []Procedure {
	hits := m.store.Search(m.ns, query, typeTag(model.TypeProcedural))
	procs := make([]Procedure, 0, len(hits))
	for _, h := range hits {
		procs = append(procs, Procedure{
			Name:         strings.TrimPrefix(h.Key, procedurePrefix),
			Instructions: h.Value["instructions"],
		})
	}
	return procs
}
