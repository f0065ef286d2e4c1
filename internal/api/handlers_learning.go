package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/coursemap/internal/knowledge"
)

// handleKnowledgeMap returns the document's map, building the graph on
// first access.
func (s *Server) handleKnowledgeMap(w http.ResponseWriter, r *http.Request) {
	km, err := s.learning.KnowledgeMap(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, km)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.learning.Analytics(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type statusRequest struct {
	Status   string `json:"status"`
	Progress *int   `json:"progress,omitempty"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	status, err := knowledge.ParseStatus(req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	n, err := s.learning.SetStatus(r.Context(), chi.URLParam(r, "docID"), chi.URLParam(r, "nodeID"), status, req.Progress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleRecordSession(w http.ResponseWriter, r *http.Request) {
	var in knowledge.SessionInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	n, sess, err := s.learning.RecordSession(r.Context(), chi.URLParam(r, "docID"), chi.URLParam(r, "nodeID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"node": n, "session": sess})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.learning.Sessions(r.Context(), chi.URLParam(r, "docID"), chi.URLParam(r, "nodeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var delta knowledge.ProgressDelta
	if err := decodeJSON(r, &delta); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.learning.UpdateProgress(r.Context(),
		chi.URLParam(r, "userID"), chi.URLParam(r, "docID"), chi.URLParam(r, "nodeID"), delta)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.learning.Progress(r.Context(),
		chi.URLParam(r, "userID"), chi.URLParam(r, "docID"), chi.URLParam(r, "nodeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
