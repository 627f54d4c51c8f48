package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/andresuchdata/rxflow/internal/domain"
)

func TestOrchestratorRunsEveryFile(t *testing.T) {
	var calls atomic.Int32
	handle := func(ctx context.Context, job *FileJob) (*domain.IngestOutcome, error) {
		calls.Add(1)
		if job.Path == "bad_production.csv" {
			return nil, errors.New("boom")
		}
		return &domain.IngestOutcome{Success: true, Family: job.Family}, nil
	}

	o := NewOrchestrator(WorkerConfig{WorkerCount: 2})
	files := []string{"production_1.csv", "bad_production.csv", "bypass.xlsx"}
	jobs, err := o.Run(context.Background(), "", files, handle)
	if err == nil {
		t.Fatal("expected the failing file to surface an error")
	}
	if calls.Load() != 3 {
		t.Fatalf("handler called %d times, want 3", calls.Load())
	}
	if jobs[0].Status != FileStatusCompleted || jobs[1].Status != FileStatusFailed || jobs[2].Status != FileStatusCompleted {
		t.Fatalf("unexpected statuses %s %s %s", jobs[0].Status, jobs[1].Status, jobs[2].Status)
	}
	if jobs[2].Family != domain.FamilyBypass {
		t.Fatalf("family = %s, want bypass", jobs[2].Family)
	}
}

func TestOrchestratorPlan(t *testing.T) {
	o := NewOrchestrator(DefaultWorkerConfig())
	jobs, err := o.Plan(domain.FamilyUsage, []string{"a.csv", "b.csv"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, j := range jobs {
		if j.Family != domain.FamilyUsage || j.Status != FileStatusQueued {
			t.Fatalf("unexpected job %+v", j)
		}
	}
	if _, err := o.Plan("", []string{"readme.csv"}); !errors.Is(err, ErrUnknownFamily) {
		t.Fatalf("expected ErrUnknownFamily, got %v", err)
	}
	if _, err := o.Plan("inventory", []string{"a.csv"}); !errors.Is(err, ErrUnknownFamily) {
		t.Fatalf("expected ErrUnknownFamily for forced family, got %v", err)
	}
}
