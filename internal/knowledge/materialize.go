package knowledge

import (
	"math"
	"sort"
	"time"
)

// MapNode is a node in the materialized tree.
type MapNode struct {
	ID           string     `json:"id" yaml:"id"`
	Title        string     `json:"title" yaml:"title"`
	Type         NodeType   `json:"type" yaml:"type"`
	Status       Status     `json:"status" yaml:"status"`
	Progress     int        `json:"progress" yaml:"progress"`
	Description  string     `json:"description" yaml:"description"`
	TimeSpent    int        `json:"timeSpent" yaml:"timeSpent"`
	LastReviewed *time.Time `json:"lastReviewed" yaml:"lastReviewed"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty"`
	Importance   Importance `json:"importance" yaml:"importance"`
	Children     []*MapNode `json:"children" yaml:"children"`
}

type StatusCounts struct {
	Objective          int `json:"objective" yaml:"objective"`
	WellLearned        int `json:"well_learned" yaml:"well_learned"`
	NeedsReinforcement int `json:"needs_reinforcement" yaml:"needs_reinforcement"`
	NotLearned         int `json:"not_learned" yaml:"not_learned"`
}

func (c *StatusCounts) add(s Status) {
	switch s {
	case StatusObjective:
		c.Objective++
	case StatusWellLearned:
		c.WellLearned++
	case StatusNeedsReinforcement:
		c.NeedsReinforcement++
	case StatusNotLearned:
		c.NotLearned++
	}
}

type Statistics struct {
	TotalNodes      int          `json:"totalNodes" yaml:"totalNodes"`
	StatusCounts    StatusCounts `json:"statusCounts" yaml:"statusCounts"`
	OverallProgress float64      `json:"overallProgress" yaml:"overallProgress"`
}

// KnowledgeMap is the tree view of a document's nodes.
type KnowledgeMap struct {
	Nodes      []*MapNode `json:"nodes" yaml:"nodes"`
	Statistics Statistics `json:"statistics" yaml:"statistics"`
	Document   DocRef     `json:"document" yaml:"document"`
}

// Materialize arranges nodes into a forest ordered by Position. A node
// whose parent is missing, itself, or part of a parent cycle becomes a
// root, so every node appears exactly once.
func Materialize(nodes []Node, doc DocRef) KnowledgeMap {
	ordered := make([]Node, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		ordered = append(ordered, n)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	byID := make(map[string]*MapNode, len(ordered))
	for _, n := range ordered {
		byID[n.ID] = &MapNode{
			ID:           n.ID,
			Title:        n.Title,
			Type:         n.Type,
			Status:       n.Status,
			Progress:     n.Progress,
			Description:  n.Description,
			TimeSpent:    n.TimeSpentMinutes,
			LastReviewed: n.LastReviewedAt,
			Difficulty:   n.Difficulty,
			Importance:   n.Importance,
			Children:     []*MapNode{},
		}
	}

	children := make(map[string][]string)
	var roots []string
	for _, n := range ordered {
		if _, ok := byID[n.ParentID]; ok && n.ParentID != n.ID {
			children[n.ParentID] = append(children[n.ParentID], n.ID)
			continue
		}
		roots = append(roots, n.ID)
	}

	visited := make(map[string]bool, len(ordered))
	var attach func(id string) *MapNode
	attach = func(id string) *MapNode {
		visited[id] = true
		mn := byID[id]
		for _, c := range children[id] {
			if !visited[c] {
				mn.Children = append(mn.Children, attach(c))
			}
		}
		return mn
	}

	km := KnowledgeMap{Nodes: []*MapNode{}, Document: doc}
	for _, id := range roots {
		km.Nodes = append(km.Nodes, attach(id))
	}
	// Nodes unreachable from a root sit on a parent cycle.
	for _, n := range ordered {
		if !visited[n.ID] {
			km.Nodes = append(km.Nodes, attach(n.ID))
		}
	}

	var total int
	for _, n := range ordered {
		km.Statistics.StatusCounts.add(n.Status)
		total += n.Progress
	}
	km.Statistics.TotalNodes = len(ordered)
	if len(ordered) > 0 {
		km.Statistics.OverallProgress = round1(float64(total) / float64(len(ordered)))
	}
	return km
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
