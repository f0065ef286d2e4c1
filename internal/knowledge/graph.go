package knowledge

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/coursemap/internal/apperrors"
)

// Graph is an in-memory arena of one document's nodes, indexed by id.
// Methods are safe for concurrent use.
type Graph struct {
	mu       sync.RWMutex
	nodes    []Node
	index    map[string]int
	sessions []Session
}

// NewGraph copies nodes into a new arena. Later duplicates of an id are ignored.
func NewGraph(nodes []Node) *Graph {
	g := &Graph{index: make(map[string]int, len(nodes))}
	for _, n := range nodes {
		if _, dup := g.index[n.ID]; dup {
			continue
		}
		g.index[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}
	return g
}

func notFound(id string) error {
	return fmt.Errorf("node %q: %w", id, apperrors.ErrNotFound)
}

func (g *Graph) Node(id string) (Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i, ok := g.index[id]
	if !ok {
		return Node{}, notFound(id)
	}
	return g.nodes[i], nil
}

// Nodes returns a snapshot in build order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Children returns the nodes whose parent is id, in build order.
func (g *Graph) Children(id string) ([]Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.index[id]; !ok {
		return nil, notFound(id)
	}
	var out []Node
	for _, n := range g.nodes {
		if n.ParentID == id && n.ID != id {
			out = append(out, n)
		}
	}
	return out, nil
}

func (g *Graph) SetStatus(id string, s Status, progress *int) (Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i, ok := g.index[id]
	if !ok {
		return Node{}, notFound(id)
	}
	n, err := ApplyStatus(g.nodes[i], s, progress)
	if err != nil {
		return Node{}, err
	}
	g.nodes[i] = n
	return n, nil
}

func (g *Graph) RecordSession(id string, in SessionInput, now time.Time) (Node, Session, error) {
	if err := in.Validate(); err != nil {
		return Node{}, Session{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	i, ok := g.index[id]
	if !ok {
		return Node{}, Session{}, notFound(id)
	}
	n, s := ApplySession(g.nodes[i], in, now)
	g.nodes[i] = n
	g.sessions = append(g.sessions, s)
	return n, s, nil
}

// Sessions returns every session recorded through the graph.
func (g *Graph) Sessions() []Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Session, len(g.sessions))
	copy(out, g.sessions)
	return out
}
