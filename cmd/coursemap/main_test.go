package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/coursemap/internal/knowledge"
	"github.com/dgallion1/coursemap/internal/pipeline"
	"github.com/dgallion1/coursemap/internal/structure"
)

const syllabus = "UNIDAD 1: Fracciones\nClase 1: Numerador y Denominador\nUNIDAD 2: Geometría\n"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSyllabus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "curso.txt")
	require.NoError(t, os.WriteFile(path, []byte(syllabus), 0o600))
	return path
}

func TestAnalyze(t *testing.T) {
	out, err := run(t, "analyze", writeSyllabus(t))
	require.NoError(t, err)

	var res structure.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Metadata.UnitsFound)
	assert.Equal(t, 1, res.Metadata.ClassesFound)

	_, err = run(t, "analyze", "slides.pptx")
	assert.Error(t, err)
}

func TestMap_SeededYAMLIsReproducible(t *testing.T) {
	path := writeSyllabus(t)
	first, err := run(t, "map", path, "--seed", "11", "--format", "yaml")
	require.NoError(t, err)
	second, err := run(t, "map", path, "--seed", "11", "--format", "yaml")
	require.NoError(t, err)

	// uploadedAt differs between runs; compare the nodes only.
	var a, b struct {
		Nodes      []map[string]any `yaml:"nodes"`
		Statistics map[string]any   `yaml:"statistics"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(first), &a))
	require.NoError(t, yaml.Unmarshal([]byte(second), &b))
	require.Len(t, a.Nodes, 2)
	assert.Equal(t, a.Nodes, b.Nodes)
	assert.Equal(t, 3, a.Statistics["totalNodes"])
	assert.Equal(t, "Fracciones", a.Nodes[0]["title"])
}

func TestMap_RejectsUnknownStatusMode(t *testing.T) {
	_, err := run(t, "map", writeSyllabus(t), "--status-mode", "random")
	assert.Error(t, err)
}

func TestStoredWorkflow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	path := writeSyllabus(t)
	common := []string{"--db", db, "--status-mode", "objective"}

	out, err := run(t, append([]string{"ingest", path, "--title", "Matemáticas"}, common...)...)
	require.NoError(t, err)
	var job pipeline.JobSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &job))
	require.Equal(t, pipeline.StatusCompleted, job.Status)
	assert.Equal(t, 3, job.Progress.NodesBuilt)

	out, err = run(t, append([]string{"list"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, job.DocID)
	assert.Contains(t, out, "Matemáticas")

	out, err = run(t, append([]string{"status", job.DocID, "unit-0", "needs_reinforcement", "--progress", "70"}, common...)...)
	require.NoError(t, err)
	var n knowledge.Node
	require.NoError(t, json.Unmarshal([]byte(out), &n))
	assert.Equal(t, 70, n.Progress)

	out, err = run(t, append([]string{"session", job.DocID, "unit-0", "--type", "quiz", "--duration", "15", "--score", "100", "--user", "ana"}, common...)...)
	require.NoError(t, err)
	var recorded struct {
		Node knowledge.Node `json:"node"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &recorded))
	assert.Equal(t, 90, recorded.Node.Progress)
	assert.Equal(t, knowledge.StatusWellLearned, recorded.Node.Status)

	_, err = run(t, append([]string{"session", job.DocID, "unit-0", "--type", "nap"}, common...)...)
	assert.Error(t, err)

	out, err = run(t, append([]string{"analytics", job.DocID}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"totalSessions": 1`)

	out, err = run(t, append([]string{"export", job.DocID}, common...)...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "nodes:"), out)
	var km struct {
		Nodes []map[string]any `yaml:"nodes"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &km))
	require.Len(t, km.Nodes, 2)
	assert.Equal(t, "well_learned", km.Nodes[0]["status"])

	_, err = run(t, append([]string{"export", "missing"}, common...)...)
	assert.Error(t, err)
}

func TestWriteOutput_UnknownFormat(t *testing.T) {
	assert.Error(t, writeOutput(&bytes.Buffer{}, "xml", map[string]int{"a": 1}))
}
