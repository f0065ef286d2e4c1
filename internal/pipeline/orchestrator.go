// Package pipeline runs uploaded documents through parsing, structure
// detection and knowledge-graph construction on a bounded worker pool.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgallion1/coursemap/internal/config"
	"github.com/dgallion1/coursemap/internal/learning"
	"github.com/dgallion1/coursemap/internal/parser"
	"github.com/dgallion1/coursemap/internal/store"
	"github.com/dgallion1/coursemap/internal/structure"
)

// Orchestrator manages the document analysis pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	stats *AnalysisStats
	log   *zap.Logger
	cfg   config.Config

	newWorker func() *Worker

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, st *store.Store, an *structure.Analyzer, ls *learning.Service, log *zap.Logger) *Orchestrator {
	o := &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		stats: NewAnalysisStats(cfg.StatsWindow),
		log:   log,
		cfg:   cfg,
	}
	o.newWorker = func() *Worker {
		return NewWorker(st, an, ls, o.stats, log, parser.WithPdftotext(cfg.PDFFallbackPdftotext))
	}
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := o.newWorker()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()

	o.log.Info("pipeline started", zap.Int("workers", o.cfg.WorkerCount), zap.Int("queue_size", o.cfg.MaxQueueSize))
}

// Stop cancels in-flight work and waits for workers to exit. Jobs still
// queued are abandoned.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.SetStatus(StatusFailed, "shutdown")
		return fmt.Errorf("pipeline is stopped")
	}
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the rolling analysis latency window.
func (o *Orchestrator) Stats() *AnalysisStats {
	return o.stats
}
