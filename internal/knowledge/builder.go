// Package knowledge turns a structural hierarchy into a graph of learning
// nodes, scores each node with content heuristics, and tracks how learners
// progress through it.
package knowledge

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/coursemap/internal/structure"
)

// StatusMode selects how a new node's initial status is chosen.
type StatusMode int

const (
	// ModeWeighted draws from StatusWeightsFor using the builder's rng.
	ModeWeighted StatusMode = iota
	// ModeObjective starts every node as an objective.
	ModeObjective
)

// Builder creates nodes from a hierarchy. Safe for concurrent use.
type Builder struct {
	mu    sync.Mutex
	rng   *rand.Rand
	mode  StatusMode
	now   func() time.Time
	vocab Vocabulary
}

type BuilderOption func(*Builder)

// WithRand sets the source for weighted status draws.
func WithRand(r *rand.Rand) BuilderOption {
	return func(b *Builder) { b.rng = r }
}

func WithStatusMode(m StatusMode) BuilderOption {
	return func(b *Builder) { b.mode = m }
}

func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

func WithVocabulary(v Vocabulary) BuilderOption {
	return func(b *Builder) { b.vocab = v }
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		mode:  ModeWeighted,
		now:   time.Now,
		vocab: DefaultVocabulary(),
	}
	for _, o := range opts {
		o(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return b
}

// Build emits nodes depth-first in document order: each unit, then its
// direct classes, then its modules with their classes. A nil or empty
// hierarchy yields a single unit named after the document. Orphaned
// elements are not materialized.
func (b *Builder) Build(h *structure.Hierarchy, doc DocRef) []Node {
	bs := &buildState{b: b, doc: doc, at: b.now()}

	var units []structure.UnitNode
	if h != nil {
		units = h.Units
	}
	if len(units) == 0 {
		units = []structure.UnitNode{{Title: doc.Name}}
	}

	for i, u := range units {
		unitID := fmt.Sprintf("unit-%d", i)
		unit := bs.add(nodeSpec{
			id:      unitID,
			typ:     NodeUnit,
			title:   orDefault(u.Title, fmt.Sprintf("Unit %d", i+1)),
			preview: u.ContentPreview,
			source:  u.ID,
		}, nil)

		for k, c := range u.Classes {
			bs.add(nodeSpec{
				id:      fmt.Sprintf("%s-class-%d", unitID, k),
				typ:     NodeClass,
				title:   orDefault(c.Title, fmt.Sprintf("Class %d", k+1)),
				preview: c.ContentPreview,
				source:  c.ID,
			}, &unit)
		}

		for j, m := range u.Modules {
			moduleID := fmt.Sprintf("%s-module-%d", unitID, j)
			module := bs.add(nodeSpec{
				id:      moduleID,
				typ:     NodeModule,
				title:   orDefault(m.Title, fmt.Sprintf("Module %d", j+1)),
				preview: m.ContentPreview,
				source:  m.ID,
			}, &unit)

			for k, c := range m.Classes {
				bs.add(nodeSpec{
					id:      fmt.Sprintf("%s-class-%d", moduleID, k),
					typ:     NodeClass,
					title:   orDefault(c.Title, fmt.Sprintf("Class %d", k+1)),
					preview: c.ContentPreview,
					source:  c.ID,
				}, &module)
			}
		}
	}
	return bs.nodes
}

type nodeSpec struct {
	id, title, preview, source string
	typ                        NodeType
}

type buildState struct {
	b     *Builder
	doc   DocRef
	at    time.Time
	nodes []Node
}

func (bs *buildState) add(ns nodeSpec, parent *Node) Node {
	desc := strings.TrimSpace(ns.preview)
	if desc == "" {
		desc = defaultDescription(ns.typ, ns.title)
	}

	var parentID string
	var parentImp Importance
	if parent != nil {
		parentID = parent.ID
		parentImp = parent.Importance
	}

	v := bs.b.vocab
	factors := ComputeDifficultyFactors(v, ns.title, desc)
	difficulty := ClassifyDifficulty(ns.typ, factors)
	importance := ImportanceFor(ns.typ, parentImp)
	status := bs.b.initialStatus(difficulty, importance)

	n := Node{
		ID:               ns.id,
		DocumentID:       bs.doc.ID,
		ParentID:         parentID,
		Position:         len(bs.nodes),
		Title:            ns.title,
		Type:             ns.typ,
		Status:           status,
		Progress:         InitialProgress(status, difficulty),
		Difficulty:       difficulty,
		Importance:       importance,
		Description:      desc,
		TimeSpentMinutes: EstimateTimeSpent(ns.typ, difficulty),
		SourceElementID:  ns.source,
		Metadata: Metadata{
			CreatedFromStructure: true,
			AnalysisTimestamp:    bs.at,
			ContentAnalysis: ContentAnalysis{
				DifficultyFactors:   factors,
				ImportanceFactors:   ComputeImportanceFactors(ns.typ, parentImp),
				EstimatedComplexity: EstimateComplexity(v, ns.title, desc),
			},
		},
	}
	bs.nodes = append(bs.nodes, n)
	return n
}

func (b *Builder) initialStatus(d Difficulty, i Importance) Status {
	if b.mode == ModeObjective {
		return StatusObjective
	}
	b.mu.Lock()
	u := b.rng.Float64()
	b.mu.Unlock()
	return PickStatus(StatusWeightsFor(d, i), u)
}

func defaultDescription(t NodeType, title string) string {
	switch t {
	case NodeUnit:
		return "Learning unit about " + title
	case NodeModule:
		return "Learning module: " + title
	case NodeClass:
		return "Specific class: " + title
	}
	return title
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
