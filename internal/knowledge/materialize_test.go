package knowledge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialize_Empty(t *testing.T) {
	km := Materialize(nil, testDoc)

	assert.Equal(t, 0.0, km.Statistics.OverallProgress)
	assert.Equal(t, StatusCounts{}, km.Statistics.StatusCounts)
	assert.Zero(t, km.Statistics.TotalNodes)
	assert.Equal(t, testDoc, km.Document)

	raw, err := json.Marshal(km)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"nodes":[]`)
	assert.Contains(t, string(raw), `"well_learned":0`)
}

func TestMaterialize_TreeAndStatistics(t *testing.T) {
	nodes := []Node{
		{ID: "unit-0-class-0", ParentID: "unit-0", Position: 1, Progress: 20, Status: StatusNotLearned},
		{ID: "unit-0", Position: 0, Progress: 10, Status: StatusObjective},
		{ID: "unit-1", Position: 2, Progress: 25, Status: StatusNotLearned},
		{ID: "stray", ParentID: "gone", Position: 3, Progress: 0, Status: StatusWellLearned},
	}

	km := Materialize(nodes, testDoc)

	require.Len(t, km.Nodes, 3)
	assert.Equal(t, "unit-0", km.Nodes[0].ID)
	require.Len(t, km.Nodes[0].Children, 1)
	assert.Equal(t, "unit-0-class-0", km.Nodes[0].Children[0].ID)
	assert.Equal(t, "unit-1", km.Nodes[1].ID)
	// Missing parent makes a root.
	assert.Equal(t, "stray", km.Nodes[2].ID)

	assert.Equal(t, 4, km.Statistics.TotalNodes)
	assert.Equal(t, StatusCounts{Objective: 1, WellLearned: 1, NotLearned: 2}, km.Statistics.StatusCounts)
	// 55/4 = 13.75
	assert.Equal(t, 13.8, km.Statistics.OverallProgress)
}

func TestMaterialize_CyclesAndSelfParentsStayAForest(t *testing.T) {
	nodes := []Node{
		{ID: "a", ParentID: "b", Position: 0},
		{ID: "b", ParentID: "a", Position: 1},
		{ID: "c", ParentID: "c", Position: 2},
		{ID: "d", ParentID: "a", Position: 3},
		{ID: "d", ParentID: "c", Position: 4},
	}

	km := Materialize(nodes, testDoc)

	seen := map[string]int{}
	var walk func([]*MapNode)
	walk = func(ms []*MapNode) {
		for _, m := range ms {
			seen[m.ID]++
			walk(m.Children)
		}
	}
	walk(km.Nodes)

	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1, "d": 1}, seen)
	assert.Equal(t, 4, km.Statistics.TotalNodes)
}

func TestMaterialize_Idempotent(t *testing.T) {
	h := testBuilder(9).Build(nil, testDoc)
	first := Materialize(h, testDoc)
	second := Materialize(h, testDoc)
	assert.Equal(t, first.Statistics, second.Statistics)
	assert.Equal(t, first, second)
}
