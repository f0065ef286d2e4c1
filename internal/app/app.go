// Package app assembles the analyzer, graph builder, store and learning
// service from configuration. Both binaries share it.
package app

import (
	"fmt"
	"math/rand/v2"
	"os"

	"go.uber.org/zap"

	"github.com/dgallion1/coursemap/internal/config"
	"github.com/dgallion1/coursemap/internal/knowledge"
	"github.com/dgallion1/coursemap/internal/learning"
	"github.com/dgallion1/coursemap/internal/store"
	"github.com/dgallion1/coursemap/internal/structure"
)

// NewAnalyzer uses cfg.PatternsFile when set, the built-in tables otherwise.
func NewAnalyzer(cfg config.Config) (*structure.Analyzer, error) {
	if cfg.PatternsFile == "" {
		return structure.NewAnalyzer(), nil
	}
	f, err := os.Open(cfg.PatternsFile)
	if err != nil {
		return nil, fmt.Errorf("open patterns: %w", err)
	}
	defer f.Close()
	ps, err := structure.LoadPatterns(f)
	if err != nil {
		return nil, fmt.Errorf("load patterns %s: %w", cfg.PatternsFile, err)
	}
	return structure.NewAnalyzer(structure.WithPatterns(ps)), nil
}

// NewBuilder seeds initial statuses from cfg.RandomSeed when it is non-zero.
func NewBuilder(cfg config.Config) *knowledge.Builder {
	opts := []knowledge.BuilderOption{}
	if cfg.InitialStatusMode == config.StatusModeObjective {
		opts = append(opts, knowledge.WithStatusMode(knowledge.ModeObjective))
	}
	if cfg.RandomSeed != 0 {
		opts = append(opts, knowledge.WithRand(rand.New(rand.NewPCG(cfg.RandomSeed, cfg.RandomSeed))))
	}
	return knowledge.NewBuilder(opts...)
}

// Services is everything that needs the database.
type Services struct {
	Store    *store.Store
	Analyzer *structure.Analyzer
	Learning *learning.Service
}

func Open(cfg config.Config, log *zap.Logger) (*Services, error) {
	an, err := NewAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	return &Services{
		Store:    st,
		Analyzer: an,
		Learning: learning.New(st, NewBuilder(cfg), log),
	}, nil
}

func (s *Services) Close() error {
	return s.Store.Close()
}
