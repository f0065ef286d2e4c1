// Package learning coordinates knowledge-graph builds and learner updates
// on top of the store.
package learning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dgallion1/coursemap/internal/apperrors"
	"github.com/dgallion1/coursemap/internal/knowledge"
	"github.com/dgallion1/coursemap/internal/store"
	"github.com/dgallion1/coursemap/internal/structure"
)

// Service builds each document's graph at most once and serializes
// read-modify-write updates per document.
type Service struct {
	store   *store.Store
	builder *knowledge.Builder
	log     *zap.Logger
	now     func() time.Time

	builds singleflight.Group

	locksMu sync.Mutex
	locks   map[string]*docLock
}

// docLock is dropped from Service.locks once no goroutine holds or waits on it.
type docLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st *store.Store, b *knowledge.Builder, log *zap.Logger, opts ...Option) *Service {
	s := &Service{store: st, builder: b, log: log, now: time.Now, locks: make(map[string]*docLock)}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) lock(docID string) func() {
	s.locksMu.Lock()
	l := s.locks[docID]
	if l == nil {
		l = &docLock{}
		s.locks[docID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, docID)
		}
		s.locksMu.Unlock()
	}
}

// EnsureGraph returns the document's nodes, building and storing them
// first when none exist. Concurrent callers share a single build, which
// runs detached from any one caller's cancellation; a cancelled caller
// stops waiting but the build still completes for the others.
func (s *Service) EnsureGraph(ctx context.Context, docID string) ([]knowledge.Node, error) {
	buildCtx := context.WithoutCancel(ctx)
	ch := s.builds.DoChan(docID, func() (any, error) {
		return s.buildGraph(buildCtx, docID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]knowledge.Node), nil
	}
}

func (s *Service) buildGraph(ctx context.Context, docID string) ([]knowledge.Node, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.store.Nodes(ctx, docID)
	if err != nil {
		return nil, err
	}
	if len(nodes) > 0 {
		return nodes, nil
	}

	var h *structure.Hierarchy
	res, err := s.store.GetStructure(ctx, docID)
	switch {
	case err == nil:
		h = &res.Hierarchy
	case errors.Is(err, apperrors.ErrNotFound):
		s.log.Warn("no structure stored, building from document name", zap.String("document_id", docID))
	default:
		return nil, err
	}

	created, err := s.store.CreateGraphIfAbsent(ctx, docID, func() []knowledge.Node {
		return s.builder.Build(h, doc.Ref())
	})
	if err != nil {
		return nil, fmt.Errorf("create graph: %w", err)
	}
	nodes, err = s.store.Nodes(ctx, docID)
	if err != nil {
		return nil, err
	}
	if created {
		s.log.Info("knowledge graph built",
			zap.String("document_id", docID),
			zap.Int("nodes", len(nodes)))
	}
	return nodes, nil
}

// KnowledgeMap returns the document's materialized map, building the graph
// on first access.
func (s *Service) KnowledgeMap(ctx context.Context, docID string) (knowledge.KnowledgeMap, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return knowledge.KnowledgeMap{}, err
	}
	nodes, err := s.EnsureGraph(ctx, docID)
	if err != nil {
		return knowledge.KnowledgeMap{}, err
	}
	return knowledge.Materialize(nodes, doc.Ref()), nil
}

// SetStatus overrides a node's status and optionally its progress.
func (s *Service) SetStatus(ctx context.Context, docID, nodeID string, status knowledge.Status, progress *int) (knowledge.Node, error) {
	unlock := s.lock(docID)
	defer unlock()

	n, err := s.store.UpdateNode(ctx, docID, nodeID, func(_ *store.Tx, n knowledge.Node) (knowledge.Node, error) {
		return knowledge.ApplyStatus(n, status, progress)
	})
	if err != nil {
		return knowledge.Node{}, err
	}
	s.log.Info("node status set",
		zap.String("document_id", docID),
		zap.String("node_id", nodeID),
		zap.String("status", string(n.Status)),
		zap.Int("progress", n.Progress))
	return n, nil
}

// RecordSession applies a completed session to a node and stores it. With
// a user id, that user's practice record on the node is updated as well.
func (s *Service) RecordSession(ctx context.Context, docID, nodeID string, in knowledge.SessionInput) (knowledge.Node, knowledge.Session, error) {
	if err := in.Validate(); err != nil {
		return knowledge.Node{}, knowledge.Session{}, err
	}
	unlock := s.lock(docID)
	defer unlock()

	now := s.now()
	var sess knowledge.Session
	n, err := s.store.UpdateNode(ctx, docID, nodeID, func(tx *store.Tx, n knowledge.Node) (knowledge.Node, error) {
		next, rec := knowledge.ApplySession(n, in, now)
		if err := tx.InsertSession(ctx, rec); err != nil {
			return n, err
		}
		if in.UserID != "" {
			p, _, err := tx.Progress(ctx, in.UserID, docID, nodeID)
			if err != nil {
				return n, err
			}
			p, err = p.Apply(knowledge.ProgressDelta{TimeSpentMinutes: in.DurationMinutes, Attempts: 1}, now)
			if err != nil {
				return n, err
			}
			if err := tx.UpsertProgress(ctx, p); err != nil {
				return n, err
			}
		}
		sess = rec
		return next, nil
	})
	if err != nil {
		return knowledge.Node{}, knowledge.Session{}, err
	}

	fields := []zap.Field{
		zap.String("document_id", docID),
		zap.String("node_id", nodeID),
		zap.String("session_type", string(in.Type)),
		zap.Int("progress", n.Progress),
		zap.String("status", string(n.Status)),
	}
	if sess.Score != nil {
		fields = append(fields, zap.Float64("score", *sess.Score))
	}
	s.log.Info("learning session recorded", fields...)
	return n, sess, nil
}

// Sessions lists a node's recorded sessions in start order. An empty
// nodeID lists the whole document's.
func (s *Service) Sessions(ctx context.Context, docID, nodeID string) ([]knowledge.Session, error) {
	if _, err := s.store.GetDocument(ctx, docID); err != nil {
		return nil, err
	}
	return s.store.Sessions(ctx, docID, nodeID)
}

// UpdateProgress adds delta to a user's practice record on a node.
func (s *Service) UpdateProgress(ctx context.Context, userID, docID, nodeID string, delta knowledge.ProgressDelta) (knowledge.Progress, error) {
	if userID == "" {
		return knowledge.Progress{}, fmt.Errorf("user id required: %w", apperrors.ErrInvalidInput)
	}
	now := s.now()
	return s.store.UpdateProgress(ctx, userID, docID, nodeID, func(p knowledge.Progress) (knowledge.Progress, error) {
		return p.Apply(delta, now)
	})
}

func (s *Service) Progress(ctx context.Context, userID, docID, nodeID string) (knowledge.Progress, error) {
	return s.store.GetProgress(ctx, userID, docID, nodeID)
}

// DocumentAnalytics is Analytics tagged with its document.
type DocumentAnalytics struct {
	Document knowledge.DocRef `json:"document"`
	knowledge.Analytics
}

// Analytics summarises stored nodes and sessions. It does not build a graph.
func (s *Service) Analytics(ctx context.Context, docID string) (DocumentAnalytics, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return DocumentAnalytics{}, err
	}
	nodes, err := s.store.Nodes(ctx, docID)
	if err != nil {
		return DocumentAnalytics{}, err
	}
	sessions, err := s.store.Sessions(ctx, docID, "")
	if err != nil {
		return DocumentAnalytics{}, err
	}
	return DocumentAnalytics{Document: doc.Ref(), Analytics: knowledge.Analyze(nodes, sessions)}, nil
}
