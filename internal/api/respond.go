package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dgallion1/coursemap/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps sentinel errors to status codes. Anything unrecognised is
// logged and reported as a 500 without its detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperrors.ErrInvalidInput):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrConflict):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// decodeJSON reads a single JSON value from the body, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %v: %w", err, apperrors.ErrInvalidInput)
	}
	return nil
}
