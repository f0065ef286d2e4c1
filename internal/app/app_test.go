package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dgallion1/coursemap/internal/config"
	"github.com/dgallion1/coursemap/internal/knowledge"
	"github.com/dgallion1/coursemap/internal/structure"
)

const patternsYAML = `unit:
  - '^capitolo\s+(?P<ord>\d+):\s*(?P<title>.+)$'
`

func TestNewAnalyzer_PatternsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(patternsYAML), 0o600))

	an, err := NewAnalyzer(config.Config{PatternsFile: path})
	require.NoError(t, err)
	res := an.Detect([]string{"Capitolo 3: Frazioni"})
	require.Len(t, res.Elements, 1)
	assert.Equal(t, structure.TypeUnit, res.Elements[0].Type)

	_, err = NewAnalyzer(config.Config{PatternsFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestNewBuilder_SeedIsReproducible(t *testing.T) {
	cfg := config.Config{InitialStatusMode: config.StatusModeWeighted, RandomSeed: 7}
	h := &structure.Hierarchy{Units: []structure.UnitNode{{Title: "Fracciones"}, {Title: "Geometría"}, {Title: "Álgebra"}}}
	doc := knowledge.DocRef{ID: "d", Name: "d"}

	a := NewBuilder(cfg).Build(h, doc)
	b := NewBuilder(cfg).Build(h, doc)
	for i := range a {
		assert.Equal(t, a[i].Status, b[i].Status)
	}

	obj := NewBuilder(config.Config{InitialStatusMode: config.StatusModeObjective}).Build(h, doc)
	for _, n := range obj {
		assert.Equal(t, knowledge.StatusObjective, n.Status)
	}
}

func TestOpen(t *testing.T) {
	svc, err := Open(config.Config{DBPath: filepath.Join(t.TempDir(), "app.db")}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, svc.Close())
}
