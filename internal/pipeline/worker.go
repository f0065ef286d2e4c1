package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgallion1/coursemap/internal/apperrors"
	"github.com/dgallion1/coursemap/internal/learning"
	"github.com/dgallion1/coursemap/internal/parser"
	"github.com/dgallion1/coursemap/internal/store"
	"github.com/dgallion1/coursemap/internal/structure"
)

// Worker processes a single document job.
type Worker struct {
	store    *store.Store
	analyzer *structure.Analyzer
	learning *learning.Service
	stats    *AnalysisStats
	log      *zap.Logger

	parserOpts []parser.Option
}

func NewWorker(st *store.Store, an *structure.Analyzer, ls *learning.Service, stats *AnalysisStats, log *zap.Logger, opts ...parser.Option) *Worker {
	return &Worker{
		store:      st,
		analyzer:   an,
		learning:   ls,
		stats:      stats,
		log:        log,
		parserOpts: opts,
	}
}

// Process runs parse, structure detection and graph build for a job.
// Unreadable content degrades to the fallback structure; only storage
// errors fail the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With(zap.String("job_id", job.ID), zap.String("filename", job.Filename))
	data := job.FileData()

	// Phase 0: Dedup check on the raw bytes.
	hash := ContentHashHex(data)
	job.SetContentHash(hash)
	existing, err := w.store.FindDocumentByHash(ctx, hash)
	switch {
	case err == nil:
		log.Info("duplicate document, skipping", zap.String("existing_doc_id", existing.ID))
		job.MarkDuplicate(existing.ID)
		return
	case !errors.Is(err, apperrors.ErrNotFound):
		log.Warn("dedup check failed, proceeding", zap.Error(err))
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	start := time.Now()
	src := &parser.Source{Filename: job.Filename, Data: data, Options: w.parserOpts}
	pages, parseErr := src.Pages()
	if parseErr != nil {
		log.Warn("parse failed, using fallback structure", zap.Error(parseErr))
		job.AddError(fmt.Sprintf("parse: %s", parseErr))
	}
	job.SetPages(len(pages))

	// Phase 2: Detect structure
	job.SetStatus(StatusAnalyzing, "analyzing")
	var res structure.Result
	if parseErr != nil {
		res = structure.Fallback(parseErr.Error())
	} else {
		res = w.analyzer.Detect(pages)
	}
	w.stats.Record(time.Since(start))
	job.SetAnalysis(res)
	log.Info("structure detected",
		zap.Int("pages", len(pages)),
		zap.Int("elements", res.Metadata.TotalElements),
		zap.Bool("fallback", res.Metadata.FallbackUsed))

	doc := store.Document{
		ID:          job.DocID,
		Name:        job.DocumentName(),
		FileType:    fileType(job.Filename),
		ContentHash: hash,
		PageCount:   len(pages),
		UploadedAt:  job.CreatedAt,
	}
	if err := w.store.SaveAnalysis(ctx, doc, res, time.Now()); err != nil {
		w.fail(log, job, "storing", fmt.Errorf("save analysis: %w", err))
		return
	}

	// Phase 3: Build the knowledge graph
	job.SetStatus(StatusBuilding, "building")
	nodes, err := w.learning.EnsureGraph(ctx, doc.ID)
	if err != nil {
		w.fail(log, job, "building", fmt.Errorf("build graph: %w", err))
		return
	}
	job.SetNodesBuilt(len(nodes))

	log.Info("document analysed", zap.String("document_id", doc.ID), zap.Int("nodes", len(nodes)))
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) fail(log *zap.Logger, job *Job, phase string, err error) {
	log.Error("job failed", zap.String("phase", phase), zap.Error(err))
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}

func fileType(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
