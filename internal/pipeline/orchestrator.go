package pipeline

import (
	"context"
	"fmt"

	"github.com/andresuchdata/rxflow/internal/domain"
)

// Orchestrator turns a list of local files into jobs and runs them on a Worker.
type Orchestrator struct {
	cfg   WorkerConfig
	makeW func(cfg WorkerConfig, handle Handler) *Worker
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(cfg WorkerConfig) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		makeW: NewWorker,
	}
}

// Plan builds one job per file. With an empty family every file's family is
// inferred from its name; a name that matches no family fails the whole plan.
func (o *Orchestrator) Plan(family domain.Family, files []string) ([]*FileJob, error) {
	jobs := make([]*FileJob, 0, len(files))
	for _, f := range files {
		fam := family
		if fam == "" {
			inferred, err := InferFamily(f)
			if err != nil {
				return nil, err
			}
			fam = inferred
		} else if _, err := New(fam, Options{}); err != nil {
			return nil, err
		}
		jobs = append(jobs, &FileJob{Path: f, Family: fam, Status: FileStatusQueued})
	}
	return jobs, nil
}

// Run plans the files and ingests them concurrently with handle.
func (o *Orchestrator) Run(ctx context.Context, family domain.Family, files []string, handle Handler) ([]*FileJob, error) {
	if len(files) == 0 {
		return nil, nil
	}
	jobs, err := o.Plan(family, files)
	if err != nil {
		return nil, fmt.Errorf("failed to plan ingest: %w", err)
	}
	return jobs, o.makeW(o.cfg, handle).ProcessBatch(ctx, jobs)
}
