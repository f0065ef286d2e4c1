package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dgallion1/coursemap/internal/config"
	"github.com/dgallion1/coursemap/internal/knowledge"
	"github.com/dgallion1/coursemap/internal/learning"
	"github.com/dgallion1/coursemap/internal/pipeline"
	"github.com/dgallion1/coursemap/internal/store"
	"github.com/dgallion1/coursemap/internal/structure"
)

const testKey = "test-key"

const syllabus = "UNIDAD 1: Fracciones\nClase 1: Numerador y Denominador\nMÓDULO 1: Operaciones\nClase 2: Suma de fracciones\n"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := zaptest.NewLogger(t)
	cfg := config.Config{
		APIKey:         testKey,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
		StatsWindow:    time.Hour,
	}
	an := structure.NewAnalyzer()
	ls := learning.New(st, knowledge.NewBuilder(knowledge.WithStatusMode(knowledge.ModeObjective)), log)
	orch := pipeline.NewOrchestrator(cfg, st, an, ls, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, ls, st, an, log, cfg)
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func upload(t *testing.T, srv http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("title", "Matemáticas"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func waitForJob(t *testing.T, srv http.Handler, jobID string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		rec := do(t, srv, http.MethodGet, "/api/jobs/"+jobID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		snap := decode[pipeline.JobSnapshot](t, rec)
		if snap.Status.Terminal() {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in %q", jobID, snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealthAndAuth(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid api key", decode[map[string]string](t, rec)["error"])
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/structure/analyze", map[string]any{"content": syllabus})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[structure.Result](t, rec)
	assert.Equal(t, 1, res.Metadata.UnitsFound)
	assert.Equal(t, 1, res.Metadata.ModulesFound)
	assert.Equal(t, 2, res.Metadata.ClassesFound)
	require.Len(t, res.Hierarchy.Units, 1)
	assert.Equal(t, "Fracciones", res.Hierarchy.Units[0].Title)

	rec = do(t, srv, http.MethodPost, "/api/structure/analyze", map[string]any{"pages": []string{"Unidad 2: Geometría"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[structure.Result](t, rec).Metadata.TotalPages)

	for name, body := range map[string]any{
		"both":    map[string]any{"content": "x", "pages": []string{"y"}},
		"empty":   map[string]any{},
		"unknown": map[string]any{"text": syllabus},
	} {
		rec := do(t, srv, http.MethodPost, "/api/structure/analyze", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	srv := newTestServer(t)
	rec := upload(t, srv, "slides.pptx", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := upload(t, srv, "curso.txt", syllabus)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	accepted := decode[map[string]string](t, rec)
	snap := waitForJob(t, srv, accepted["job_id"])
	require.Equal(t, pipeline.StatusCompleted, snap.Status, snap.Progress.Errors)
	docID := snap.DocID
	assert.Equal(t, accepted["doc_id"], docID)
	assert.Equal(t, 4, snap.Progress.NodesBuilt)

	// Same bytes again are skipped.
	rec = upload(t, srv, "copia.txt", syllabus)
	require.Equal(t, http.StatusAccepted, rec.Code)
	dup := waitForJob(t, srv, decode[map[string]string](t, rec)["job_id"])
	assert.Equal(t, pipeline.StatusDupSkipped, dup.Status)
	assert.Equal(t, docID, dup.DuplicateOf)

	base := "/api/documents/" + docID

	rec = do(t, srv, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]store.Document](t, rec)["documents"], 1)

	rec = do(t, srv, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Matemáticas", decode[store.Document](t, rec).Name)

	rec = do(t, srv, http.MethodGet, base+"/structure", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[structure.Result](t, rec).Metadata.TotalElements)

	rec = do(t, srv, http.MethodGet, base+"/knowledge-map", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	km := decode[knowledge.KnowledgeMap](t, rec)
	require.Len(t, km.Nodes, 1)
	assert.Equal(t, "Fracciones", km.Nodes[0].Title)
	assert.Equal(t, 4, km.Statistics.TotalNodes)

	rec = do(t, srv, http.MethodPost, base+"/nodes/unit-0/status", map[string]any{"status": "needs_reinforcement", "progress": 70})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, knowledge.StatusNeedsReinforcement, decode[knowledge.Node](t, rec).Status)

	rec = do(t, srv, http.MethodPost, base+"/nodes/unit-0/status", map[string]any{"status": "mastered"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, base+"/nodes/unit-0/sessions",
		map[string]any{"sessionType": "quiz", "duration": 10, "score": 100, "userId": "ana"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var recorded struct {
		Node    knowledge.Node    `json:"node"`
		Session knowledge.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recorded))
	assert.Equal(t, 90, recorded.Node.Progress)
	assert.Equal(t, knowledge.StatusWellLearned, recorded.Node.Status)
	assert.NotEmpty(t, recorded.Session.ID)

	rec = do(t, srv, http.MethodPost, base+"/nodes/ghost/sessions", map[string]any{"sessionType": "study", "duration": 5})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, base+"/nodes/unit-0/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]knowledge.Session](t, rec)["sessions"], 1)

	rec = do(t, srv, http.MethodPut, base+"/nodes/unit-0/progress/ana",
		map[string]any{"correctAnswers": 3, "totalQuestions": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, base+"/nodes/unit-0/progress/ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prog := decode[map[string]any](t, rec)
	assert.Equal(t, 75.0, prog["accuracyRate"])
	assert.Equal(t, 1.0, prog["attempts"])

	rec = do(t, srv, http.MethodPut, base+"/nodes/unit-0/progress/ana",
		map[string]any{"correctAnswers": 5, "totalQuestions": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, base+"/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	a := decode[learning.DocumentAnalytics](t, rec)
	assert.Equal(t, 4, a.Overview.TotalNodes)
	assert.Equal(t, 1, a.Sessions.TotalSessions)

	rec = do(t, srv, http.MethodGet, "/api/stats/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Stats pipeline.StatsSnapshot `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Stats.Count)

	rec = do(t, srv, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, srv, http.MethodGet, base+"/knowledge-map", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, srv, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "notes.md", sanitizeFilename("../../etc/notes.md"))
	assert.Equal(t, "unnamed", sanitizeFilename(""))
	assert.False(t, strings.Contains(sanitizeFilename(`..\..\x.txt`), ".."))
}
