package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rxflow/internal/cache"
	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/metrics"
	"github.com/andresuchdata/rxflow/internal/pipeline"
	"github.com/andresuchdata/rxflow/internal/repository"
	"github.com/andresuchdata/rxflow/internal/storage"
)

// ErrArchiveDisabled is returned by archive operations when no archive is configured.
var ErrArchiveDisabled = errors.New("upload archive is not configured")

// IngestService folds report exports into the store.
type IngestService struct {
	store     *repository.Store
	cache     cache.RollupCache
	archive   *storage.Archive
	metrics   *metrics.Metrics
	opts      pipeline.Options
	uploadDir string
}

// IngestDeps bundles the optional collaborators of an IngestService.
type IngestDeps struct {
	Cache     cache.RollupCache
	Archive   *storage.Archive
	Metrics   *metrics.Metrics
	Options   pipeline.Options
	UploadDir string
}

func NewIngestService(store *repository.Store, deps IngestDeps) *IngestService {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopRollupCache()
	}
	if deps.UploadDir == "" {
		deps.UploadDir = os.TempDir()
	}
	svc := &IngestService{
		store:     store,
		cache:     deps.Cache,
		archive:   deps.Archive,
		metrics:   deps.Metrics,
		opts:      deps.Options,
		uploadDir: deps.UploadDir,
	}
	svc.publishRecordCounts()
	return svc
}

// IngestUpload spools an uploaded body to a temp file under the upload dir,
// ingests it and always removes the temp file.
func (s *IngestService) IngestUpload(ctx context.Context, family domain.Family, filename string, body io.Reader) (*domain.IngestOutcome, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	tmp, err := os.CreateTemp(s.uploadDir, "upload-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn().Err(rmErr).Str("path", tmpPath).Msg("failed to remove upload temp file")
		}
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	return s.IngestFile(ctx, family, filename, tmpPath)
}

// IngestFile archives the source (when configured), folds it and applies the
// batch to the family's collection or document.
func (s *IngestService) IngestFile(ctx context.Context, family domain.Family, filename, path string) (*domain.IngestOutcome, error) {
	return s.ingestFile(ctx, family, filename, path, s.archive != nil)
}

func (s *IngestService) ingestFile(ctx context.Context, family domain.Family, filename, path string, archive bool) (*domain.IngestOutcome, error) {
	start := time.Now()
	outcome, err := s.ingest(ctx, family, filename, path, archive)
	s.metrics.ObserveIngest(family, outcome, time.Since(start), err)
	if err != nil {
		log.Error().Err(err).Str("family", family.String()).Str("file", filename).Msg("ingest failed")
		return nil, err
	}
	log.Info().
		Str("family", family.String()).
		Str("file", filename).
		Int("added", outcome.Results.Added).
		Int("updated", outcome.Results.Updated).
		Int("rows_read", outcome.Results.RowsRead).
		Int("warnings", len(outcome.Warnings)).
		Dur("duration", time.Since(start)).
		Msg("ingest completed")
	return outcome, nil
}

func (s *IngestService) ingest(ctx context.Context, family domain.Family, filename, path string, archive bool) (*domain.IngestOutcome, error) {
	if filename == "" {
		filename = filepath.Base(path)
	}

	batch, err := pipeline.TransformFile(ctx, family, s.opts, path)
	if err != nil {
		return nil, err
	}

	var archiveKey string
	if archive {
		// The archive is best effort; a failed copy does not block the ingest.
		archiveKey, err = s.archive.Store(ctx, family, filename, path)
		if err != nil {
			log.Warn().Err(err).Str("file", filename).Msg("failed to archive upload")
			archiveKey = ""
		}
	}

	results := batch.Results()
	if err := s.apply(ctx, batch, &results); err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateFamily(ctx, family); err != nil {
		log.Warn().Err(err).Str("family", family.String()).Msg("failed to invalidate rollup cache")
	}

	warnings := batch.Stats.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &domain.IngestOutcome{
		Success:    true,
		Family:     family,
		Filename:   filename,
		Results:    results,
		Warnings:   warnings,
		DatingMode: batch.Stats.DatingMode,
		ArchiveKey: archiveKey,
	}, nil
}

// apply writes the batch and fills the added/updated counters.
func (s *IngestService) apply(ctx context.Context, batch *pipeline.Batch, res *domain.IngestResults) error {
	var (
		merged repository.MergeResult
		err    error
	)
	switch batch.Family {
	case domain.FamilyProduction:
		merged, err = s.store.Production.Upsert(ctx, batch.Production)
		res.TotalRecords = s.store.Production.Len()
	case domain.FamilyTurnaround:
		merged, err = s.store.Turnaround.Upsert(ctx, batch.Turnaround)
		res.TotalRecords = s.store.Turnaround.Len()
	case domain.FamilyBypass:
		merged, err = s.store.Bypass.Upsert(ctx, batch.Bypass)
		res.TotalRecords = s.store.Bypass.Len()
	case domain.FamilyUsage:
		merged, err = s.store.Usage.Upsert(ctx, batch.Usage)
		res.TotalRecords = s.store.Usage.Len()
	case domain.FamilyProductUsage:
		merged, err = replaceDocument(ctx, s.store.ProductUsage, batch.ProductUsage)
	case domain.FamilyProductWastage:
		merged, err = replaceDocument(ctx, s.store.ProductWastage, batch.ProductWastage)
	case domain.FamilyDetailedWastage:
		merged, err = replaceDocument(ctx, s.store.DetailedWastage, batch.DetailedWastage)
	case domain.FamilyStockDoses:
		merged, err = replaceDocument(ctx, s.store.StockDoses, batch.StockDoses)
	default:
		return fmt.Errorf("%w: %s", pipeline.ErrUnknownFamily, batch.Family)
	}
	if err != nil {
		return fmt.Errorf("store %s: %w", batch.Family, err)
	}
	res.Added = merged.Added
	res.Updated = merged.Updated
	s.metrics.SetRecords(batch.Family, res.TotalRecords)
	return nil
}

// replaceDocument counts the first snapshot as added and later ones as updated.
func replaceDocument[T any](ctx context.Context, doc *repository.Document[T], next *T) (repository.MergeResult, error) {
	if next == nil {
		return repository.MergeResult{}, nil
	}
	existed := doc.Get() != nil
	if err := doc.Replace(ctx, next); err != nil {
		return repository.MergeResult{}, err
	}
	if existed {
		return repository.MergeResult{Updated: 1}, nil
	}
	return repository.MergeResult{Added: 1}, nil
}

// IngestFiles ingests several local files concurrently. An empty family is
// inferred per file from its name.
func (s *IngestService) IngestFiles(ctx context.Context, family domain.Family, paths []string, workers int) ([]*pipeline.FileJob, error) {
	cfg := pipeline.DefaultWorkerConfig()
	if workers > 0 {
		cfg.WorkerCount = workers
	}
	orch := pipeline.NewOrchestrator(cfg)
	return orch.Run(ctx, family, paths, func(ctx context.Context, job *pipeline.FileJob) (*domain.IngestOutcome, error) {
		return s.IngestFile(ctx, job.Family, filepath.Base(job.Path), job.Path)
	})
}

// ReplayArchive downloads an archived upload and ingests it again. An empty
// family is read from the key.
func (s *IngestService) ReplayArchive(ctx context.Context, key string, family domain.Family) (*domain.IngestOutcome, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if family == "" {
		f, ok := s.archive.FamilyOfKey(key)
		if !ok {
			return nil, fmt.Errorf("%w: cannot infer family from key %s", pipeline.ErrUnknownFamily, key)
		}
		family = f
	}

	dir, err := os.MkdirTemp(s.uploadDir, "replay-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create replay dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path, err := s.archive.Fetch(ctx, key, dir)
	if err != nil {
		return nil, err
	}

	// Replays do not archive the same file a second time.
	outcome, err := s.ingestFile(ctx, family, filepath.Base(path), path, false)
	if err != nil {
		return nil, err
	}
	outcome.ArchiveKey = key
	return outcome, nil
}

// ListArchive lists archived uploads, optionally for one family.
func (s *IngestService) ListArchive(ctx context.Context, family domain.Family) ([]storage.ObjectInfo, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.List(ctx, family)
}

// ClearHistory empties the keyed collections. Snapshot documents are kept.
func (s *IngestService) ClearHistory(ctx context.Context) error {
	if err := s.store.ClearHistory(ctx); err != nil {
		return err
	}
	for _, f := range domain.HistoryFamilies {
		if err := s.cache.InvalidateFamily(ctx, f); err != nil {
			log.Warn().Err(err).Str("family", f.String()).Msg("failed to invalidate rollup cache")
		}
	}
	s.metrics.ObserveClear()
	s.publishRecordCounts()
	log.Info().Msg("history collections cleared")
	return nil
}

func (s *IngestService) publishRecordCounts() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetRecords(domain.FamilyProduction, s.store.Production.Len())
	s.metrics.SetRecords(domain.FamilyTurnaround, s.store.Turnaround.Len())
	s.metrics.SetRecords(domain.FamilyBypass, s.store.Bypass.Len())
	s.metrics.SetRecords(domain.FamilyUsage, s.store.Usage.Len())
}
