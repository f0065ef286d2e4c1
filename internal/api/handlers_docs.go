package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// handleListDocuments lists analysed documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument deletes a document with its structure, graph and
// learning history.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.store.DeleteDocument(r.Context(), docID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("document deleted", zap.String("document_id", docID))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": docID})
}

func (s *Server) handleGetStructure(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.GetStructure(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
