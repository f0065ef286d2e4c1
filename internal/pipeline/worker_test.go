package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/dgallion1/coursemap/internal/apperrors"
	"github.com/dgallion1/coursemap/internal/config"
	"github.com/dgallion1/coursemap/internal/knowledge"
	"github.com/dgallion1/coursemap/internal/learning"
	"github.com/dgallion1/coursemap/internal/store"
	"github.com/dgallion1/coursemap/internal/structure"
)

const syllabus = "UNIDAD 1: Fracciones\nClase 1: Numerador y Denominador\n"

type fixture struct {
	dbPath   string
	store    *store.Store
	learning *learning.Service
	worker   *Worker
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	log := zaptest.NewLogger(t)
	ls := learning.New(st, knowledge.NewBuilder(knowledge.WithStatusMode(knowledge.ModeObjective)), log)
	return fixture{
		dbPath:   path,
		store:    st,
		learning: ls,
		worker:   NewWorker(st, structure.NewAnalyzer(), ls, NewAnalysisStats(time.Hour), log),
	}
}

func TestWorker_Process(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := NewJob("curso.txt", "Matemáticas", []byte(syllabus))
	f.worker.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalPages != 1 || snap.Progress.ElementsFound != 2 || snap.Progress.NodesBuilt != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if snap.ContentHash != ContentHashHex([]byte(syllabus)) {
		t.Errorf("unexpected content hash %q", snap.ContentHash)
	}

	doc, err := f.store.GetDocument(ctx, job.DocID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc.Name != "Matemáticas" || doc.FileType != "txt" || doc.PageCount != 1 {
		t.Errorf("unexpected document %+v", doc)
	}

	res, err := f.store.GetStructure(ctx, job.DocID)
	if err != nil {
		t.Fatalf("get structure: %v", err)
	}
	if len(res.Hierarchy.Units) != 1 || res.Hierarchy.Units[0].Title != "Fracciones" {
		t.Errorf("unexpected hierarchy %+v", res.Hierarchy)
	}

	nodes, err := f.store.Nodes(ctx, job.DocID)
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	if len(nodes) != 2 || nodes[0].Title != "Fracciones" {
		t.Errorf("unexpected nodes %+v", nodes)
	}

	if f.worker.stats.Snapshot().Count != 1 {
		t.Error("expected one latency sample")
	}
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := NewJob("curso.txt", "", []byte(syllabus))
	f.worker.Process(ctx, first)

	second := NewJob("copia.txt", "", []byte(syllabus))
	f.worker.Process(ctx, second)

	snap := second.Snapshot()
	if snap.Status != StatusDupSkipped {
		t.Fatalf("expected status %q, got %q", StatusDupSkipped, snap.Status)
	}
	if snap.DocID != first.DocID || snap.DuplicateOf != first.DocID {
		t.Errorf("expected duplicate of %q, got doc=%q dup=%q", first.DocID, snap.DocID, snap.DuplicateOf)
	}

	docs, err := f.store.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("expected a single stored document, got %d", len(docs))
	}
}

// exec runs a statement on a second connection to the fixture database.
func (f fixture) exec(t *testing.T, stmt string) {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+f.dbPath+"?_pragma=busy_timeout(10000)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(stmt); err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}

func TestWorker_FailedStructureWriteLeavesNoDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.exec(t, `CREATE TRIGGER reject_structures BEFORE INSERT ON structures
		BEGIN SELECT RAISE(ABORT, 'structures rejected'); END`)

	first := NewJob("curso.txt", "", []byte(syllabus))
	f.worker.Process(ctx, first)
	if got := first.Snapshot().Status; got != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, got)
	}
	if _, err := f.store.GetDocument(ctx, first.DocID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected no stored document, got %v", err)
	}

	f.exec(t, `DROP TRIGGER reject_structures`)

	// The failed upload must not make a retry look like a duplicate.
	retry := NewJob("curso.txt", "", []byte(syllabus))
	f.worker.Process(ctx, retry)
	snap := retry.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if _, err := f.store.GetStructure(ctx, retry.DocID); err != nil {
		t.Errorf("get structure: %v", err)
	}
}

func TestWorker_UnreadableFileUsesFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := NewJob("roto.pdf", "", []byte("this is not a pdf"))
	f.worker.Process(ctx, job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q", StatusCompleted, snap.Status)
	}
	if !snap.Progress.FallbackUsed {
		t.Error("expected fallback structure")
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected the parse error to be recorded, got %v", snap.Progress.Errors)
	}

	res, err := f.store.GetStructure(ctx, job.DocID)
	if err != nil {
		t.Fatalf("get structure: %v", err)
	}
	if !res.Metadata.FallbackUsed || res.Metadata.FallbackReason == "" {
		t.Errorf("expected stored fallback metadata, got %+v", res.Metadata)
	}

	nodes, err := f.store.Nodes(ctx, job.DocID)
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Title != "Full Document" {
		t.Errorf("unexpected nodes %+v", nodes)
	}
}

func TestOrchestrator_SubmitAndStop(t *testing.T) {
	f := newFixture(t)
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour, StatsWindow: time.Hour}
	orch := NewOrchestrator(cfg, f.store, structure.NewAnalyzer(), f.learning, zaptest.NewLogger(t))
	orch.Start(context.Background())

	job := NewJob("curso.txt", "", []byte(syllabus))
	if err := orch.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if orch.GetJob(job.ID) != job {
		t.Fatal("expected submitted job to be tracked")
	}

	deadline := time.Now().Add(10 * time.Second)
	for !job.Snapshot().Status.Terminal() {
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, status %q", job.Snapshot().Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("expected status %q, got %q", StatusCompleted, got)
	}
	if orch.Stats().Snapshot().Count != 1 {
		t.Error("expected one latency sample")
	}

	orch.Stop()
	orch.Stop()

	late := NewJob("tarde.txt", "", []byte("x"))
	if err := orch.Submit(late); err == nil {
		t.Fatal("expected submit after stop to fail")
	}
	if late.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", late.Snapshot().Status)
	}
}
