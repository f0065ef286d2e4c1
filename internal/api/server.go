// Package api exposes document analysis and learning progress over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dgallion1/coursemap/internal/config"
	"github.com/dgallion1/coursemap/internal/learning"
	"github.com/dgallion1/coursemap/internal/pipeline"
	"github.com/dgallion1/coursemap/internal/store"
	"github.com/dgallion1/coursemap/internal/structure"
)

// Server is the HTTP API server for coursemap.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	learning     *learning.Service
	store        *store.Store
	analyzer     *structure.Analyzer
	log          *zap.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, ls *learning.Service, st *store.Store, an *structure.Analyzer, log *zap.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		learning:     ls,
		store:        st,
		analyzer:     an,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents", s.handleUpload)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Post("/api/structure/analyze", s.handleAnalyze)
		r.Get("/api/stats/analysis", s.handleAnalysisStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Route("/api/documents/{docID}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Delete("/", s.handleDeleteDocument)
			r.Get("/structure", s.handleGetStructure)
			r.Get("/knowledge-map", s.handleKnowledgeMap)
			r.Get("/analytics", s.handleAnalytics)

			r.Route("/nodes/{nodeID}", func(r chi.Router) {
				r.Post("/status", s.handleSetStatus)
				r.Post("/sessions", s.handleRecordSession)
				r.Get("/sessions", s.handleListSessions)
				r.Put("/progress/{userID}", s.handleUpdateProgress)
				r.Get("/progress/{userID}", s.handleGetProgress)
			})
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
