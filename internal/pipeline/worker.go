package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/rxflow/internal/domain"
)

// FileJobStatus represents the state of a single file processing job
type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
)

// FileJob tracks the ingest of a single file
type FileJob struct {
	Path     string
	Family   domain.Family
	Status   FileJobStatus
	Outcome  *domain.IngestOutcome
	Err      error
	Duration time.Duration
}

// Handler ingests one file end to end (transform, merge, persist).
type Handler func(ctx context.Context, job *FileJob) (*domain.IngestOutcome, error)

// WorkerConfig holds configuration for a worker pool
type WorkerConfig struct {
	WorkerCount int
}

// DefaultWorkerConfig returns sensible defaults
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{WorkerCount: 4}
}

// Worker runs a Handler over many files with bounded concurrency. Writers to
// the same collection are serialized by the store, not by the pool.
type Worker struct {
	config WorkerConfig
	handle Handler
}

// NewWorker creates a new pipeline worker
func NewWorker(config WorkerConfig, handle Handler) *Worker {
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	return &Worker{config: config, handle: handle}
}

// ProcessBatch processes every job, continuing past failures. It returns the
// first error once all jobs are done; each job carries its own status.
func (w *Worker) ProcessBatch(ctx context.Context, jobs []*FileJob) error {
	log.Info().Int("files", len(jobs)).Int("workers", w.config.WorkerCount).Msg("starting ingest batch")

	var g errgroup.Group
	g.SetLimit(w.config.WorkerCount)
	for _, job := range jobs {
		job.Status = FileStatusQueued
		if err := ctx.Err(); err != nil {
			job.Status = FileStatusFailed
			job.Err = err
			continue
		}
		g.Go(func() error {
			return w.processFile(ctx, job)
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	failed := 0
	for _, job := range jobs {
		if job.Status == FileStatusFailed {
			failed++
		}
	}
	log.Info().Int("files", len(jobs)).Int("failed", failed).Msg("ingest batch completed")
	return err
}

func (w *Worker) processFile(ctx context.Context, job *FileJob) error {
	start := time.Now()
	job.Status = FileStatusProcessing
	log.Debug().Str("file", job.Path).Str("family", job.Family.String()).Msg("processing file")

	outcome, err := w.handle(ctx, job)
	job.Duration = time.Since(start)
	if err != nil {
		job.Status = FileStatusFailed
		job.Err = err
		log.Error().Err(err).Str("file", job.Path).Str("family", job.Family.String()).Msg("failed to ingest file")
		return fmt.Errorf("ingest %s: %w", job.Path, err)
	}

	job.Status = FileStatusCompleted
	job.Outcome = outcome
	log.Info().
		Str("file", job.Path).
		Str("family", job.Family.String()).
		Int("added", outcome.Results.Added).
		Int("updated", outcome.Results.Updated).
		Dur("duration", job.Duration).
		Msg("file ingested")
	return nil
}
