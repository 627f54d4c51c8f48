package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/rxflow/internal/cache"
	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/pipeline"
	"github.com/andresuchdata/rxflow/internal/repository"
	"github.com/andresuchdata/rxflow/internal/rollup"
	"github.com/andresuchdata/rxflow/internal/storage"
)

const (
	productionCSV   = "EntryDate,8:00,9:00\n45000,5,7\n"
	productUsageCSV = "Product,Location,Doses,Total Volume,Waste Volume\nA,ICU,3,30,3\n"
)

var fixedNow = time.Date(2023, 3, 20, 10, 0, 0, 0, time.UTC)

// memoryCache is a RollupCache over a map.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) key(k cache.Key) string {
	return fmt.Sprintf("%s|%s|%s|%d|%+v", k.Family, k.Endpoint, k.Day, k.Generation, k.Query)
}

func (m *memoryCache) Get(ctx context.Context, key cache.Key, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[m.key(key)]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key cache.Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.key(key)] = raw
	return nil
}

func (m *memoryCache) InvalidateFamily(ctx context.Context, family domain.Family) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, string(family)+"|") {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *memoryCache) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]byte)
	return nil
}

// dirObjects is an ObjectStorage over a local directory.
type dirObjects struct{ root string }

func (d *dirObjects) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	err := filepath.Walk(d.root, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		key, _ := filepath.Rel(d.root, p)
		key = filepath.ToSlash(key)
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: info.Size()})
		}
		return nil
	})
	return out, err
}

func (d *dirObjects) DownloadObject(ctx context.Context, key, destPath string) error {
	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(key)))
	if err != nil {
		return err
	}
	return os.WriteFile(destPath, data, 0o644)
}

func (d *dirObjects) UploadFile(ctx context.Context, key, srcPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	dest := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

type fixture struct {
	backend   repository.Backend
	store     *repository.Store
	ingest    *IngestService
	reports   *ReportService
	cache     *memoryCache
	uploadDir string
}

func newFixture(t *testing.T, archive *storage.Archive) *fixture {
	t.Helper()
	backend, err := repository.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	store := repository.NewStore(backend)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c := newMemoryCache()
	uploadDir := t.TempDir()
	return &fixture{
		backend: backend,
		store:   store,
		ingest: NewIngestService(store, IngestDeps{
			Cache:     c,
			Archive:   archive,
			Options:   pipeline.Options{Now: func() time.Time { return fixedNow }},
			UploadDir: uploadDir,
		}),
		reports:   NewReportService(store, c, nil).WithClock(func() time.Time { return fixedNow }),
		cache:     c,
		uploadDir: uploadDir,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestIngestUploadIsIdempotentAndCleansUp(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.ingest.IngestUpload(ctx, domain.FamilyProduction, "production.csv", strings.NewReader(productionCSV))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if first.Results.Added != 1 || first.Results.Updated != 0 || first.Results.TotalDoses != 12 {
		t.Fatalf("unexpected first results %+v", first.Results)
	}
	if first.Warnings == nil {
		t.Fatal("warnings must be an empty list, not nil")
	}

	second, err := f.ingest.IngestUpload(ctx, domain.FamilyProduction, "production.csv", strings.NewReader(productionCSV))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if second.Results.Added != 0 || second.Results.Updated != 1 || second.Results.TotalRecords != 1 {
		t.Fatalf("unexpected second results %+v", second.Results)
	}

	entries, _ := os.ReadDir(f.uploadDir)
	if len(entries) != 0 {
		t.Fatalf("expected upload dir to be empty, found %d entries", len(entries))
	}
}

func TestIngestUploadRemovesTempFileOnFailure(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.ingest.IngestUpload(context.Background(), domain.FamilyProduction, "production.csv", strings.NewReader("Date,Count\n1,2\n"))
	if err == nil {
		t.Fatal("expected schema error")
	}
	entries, _ := os.ReadDir(f.uploadDir)
	if len(entries) != 0 {
		t.Fatalf("expected upload dir to be empty, found %d entries", len(entries))
	}
}

func TestSnapshotIngestCountsAddedThenUpdated(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for i, want := range []repository.MergeResult{{Added: 1}, {Updated: 1}} {
		out, err := f.ingest.IngestUpload(ctx, domain.FamilyProductUsage, "product_usage.csv", strings.NewReader(productUsageCSV))
		if err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
		if out.Results.Added != want.Added || out.Results.Updated != want.Updated {
			t.Fatalf("upload %d: got %+v", i, out.Results)
		}
	}
}

func TestClearHistoryKeepsSnapshots(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.ingest.IngestUpload(ctx, domain.FamilyProduction, "p.csv", strings.NewReader(productionCSV)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.ingest.IngestUpload(ctx, domain.FamilyProductUsage, "u.csv", strings.NewReader(productUsageCSV)); err != nil {
		t.Fatal(err)
	}

	q := domain.ReportQuery{Days: 30}
	daily, err := f.reports.ProductionDaily(ctx, q)
	if err != nil || len(daily) != 1 {
		t.Fatalf("expected one production point, got %v (%v)", daily, err)
	}
	before := f.reports.ProductUsageSummary(ctx)

	if err := f.ingest.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}

	daily, err = f.reports.ProductionDaily(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if daily == nil || len(daily) != 0 {
		t.Fatalf("expected empty production series after clear, got %v", daily)
	}
	if after := f.reports.ProductUsageSummary(ctx); after != before {
		t.Fatalf("product usage summary changed: %+v -> %+v", before, after)
	}
}

func TestReportServiceReadsThroughCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.ingest.IngestUpload(ctx, domain.FamilyProduction, "p.csv", strings.NewReader(productionCSV)); err != nil {
		t.Fatal(err)
	}
	q := domain.ReportQuery{Days: 30}

	first, err := f.reports.ProductionSummary(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.reports.ProductionSummary(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if f.cache.hits != 1 || first != second || first.TotalDoses != 12 {
		t.Fatalf("expected a cache hit with equal results, hits=%d %+v %+v", f.cache.hits, first, second)
	}

	// A new ingest invalidates the family.
	if _, err := f.ingest.IngestUpload(ctx, domain.FamilyProduction, "p.csv", strings.NewReader("EntryDate,8:00\n45001,3\n")); err != nil {
		t.Fatal(err)
	}
	third, err := f.reports.ProductionSummary(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if third.TotalDoses != 15 {
		t.Fatalf("expected fresh summary after ingest, got %+v", third)
	}
}

// ingestOnSet runs one ingest between a rollup's compute and its cache
// write, the window in which a concurrent upload can land.
type ingestOnSet struct {
	*memoryCache
	once   sync.Once
	ingest func(ctx context.Context)
}

func (c *ingestOnSet) Set(ctx context.Context, key cache.Key, value any) error {
	c.once.Do(func() { c.ingest(ctx) })
	return c.memoryCache.Set(ctx, key, value)
}

func TestReportServiceDropsRollupComputedBeforeIngest(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.ingest.IngestUpload(ctx, domain.FamilyProduction, "p.csv", strings.NewReader(productionCSV)); err != nil {
		t.Fatal(err)
	}

	racing := &ingestOnSet{memoryCache: f.cache}
	racing.ingest = func(ctx context.Context) {
		if _, err := f.ingest.IngestUpload(ctx, domain.FamilyProduction, "late.csv", strings.NewReader("EntryDate,8:00\n45001,3\n")); err != nil {
			t.Errorf("ingest during cache write: %v", err)
		}
	}
	reports := NewReportService(f.store, racing, nil).WithClock(func() time.Time { return fixedNow })
	q := domain.ReportQuery{Days: 30}

	stale, err := reports.ProductionSummary(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if stale.TotalDoses != 12 {
		t.Fatalf("first summary computed before ingest, got %+v", stale)
	}
	fresh, err := reports.ProductionSummary(ctx, q)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.TotalDoses != 15 {
		t.Fatalf("stale rollup served after ingest: %+v", fresh)
	}
}

func TestRollupCacheKeyFollowsServiceClock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.ingest.IngestUpload(ctx, domain.FamilyProduction, "p.csv", strings.NewReader(productionCSV)); err != nil {
		t.Fatal(err)
	}
	now := fixedNow
	reports := NewReportService(f.store, f.cache, nil).WithClock(func() time.Time { return now })
	q := domain.ReportQuery{Days: 7}

	if _, err := reports.ProductionSummary(ctx, q); err != nil {
		t.Fatal(err)
	}
	for k := range f.cache.entries {
		if !strings.Contains(k, "|2023-03-20|") {
			t.Fatalf("cache key %q not anchored to the window day", k)
		}
	}

	now = fixedNow.Add(24 * time.Hour)
	if _, err := reports.ProductionSummary(ctx, q); err != nil {
		t.Fatal(err)
	}
	if f.cache.hits != 0 {
		t.Fatalf("rollup from the previous day was served, hits=%d", f.cache.hits)
	}
	if len(f.cache.entries) != 2 {
		t.Fatalf("expected one entry per window day, got %d", len(f.cache.entries))
	}
}

func TestConcurrentIngestsPersistEveryDate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	dir := t.TempDir()

	const files = 16
	var wg sync.WaitGroup
	errs := make(chan error, files)
	for i := 0; i < files; i++ {
		path := writeFile(t, dir, fmt.Sprintf("production-%02d.csv", i), fmt.Sprintf("EntryDate,8:00\n%d,1\n", 44990+i))
		wg.Add(1)
		go func(name, path string) {
			defer wg.Done()
			_, err := f.ingest.IngestFile(ctx, domain.FamilyProduction, name, path)
			errs <- err
		}(filepath.Base(path), path)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("IngestFile: %v", err)
		}
	}

	if got := f.store.Production.Len(); got != files {
		t.Fatalf("in-memory store has %d dates, want %d", got, files)
	}
	reloaded := repository.NewStore(f.backend)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := reloaded.Production.Len(); got != files {
		t.Fatalf("reloaded store has %d dates, want %d", got, files)
	}
}

func TestReportServiceInvalidDimension(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.reports.TurnaroundBreakdown(context.Background(), domain.ReportQuery{SortBy: "colour"})
	if !errors.Is(err, rollup.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestReplayArchive(t *testing.T) {
	archive := storage.NewArchive(&dirObjects{root: t.TempDir()}, "uploads")
	f := newFixture(t, archive)
	ctx := context.Background()

	out, err := f.ingest.IngestUpload(ctx, domain.FamilyProduction, "production.csv", strings.NewReader(productionCSV))
	if err != nil {
		t.Fatal(err)
	}
	if out.ArchiveKey == "" {
		t.Fatal("expected upload to be archived")
	}

	if err := f.ingest.ClearHistory(ctx); err != nil {
		t.Fatal(err)
	}
	replayed, err := f.ingest.ReplayArchive(ctx, out.ArchiveKey, "")
	if err != nil {
		t.Fatalf("ReplayArchive: %v", err)
	}
	if replayed.Family != domain.FamilyProduction || replayed.Results.Added != 1 {
		t.Fatalf("unexpected replay outcome %+v", replayed)
	}

	objects, err := f.ingest.ListArchive(ctx, domain.FamilyProduction)
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 1 {
		t.Fatalf("replay must not archive again, found %d objects", len(objects))
	}
}

func TestReplayArchiveDisabled(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.ingest.ReplayArchive(context.Background(), "uploads/production/x.csv", ""); !errors.Is(err, ErrArchiveDisabled) {
		t.Fatalf("expected ErrArchiveDisabled, got %v", err)
	}
}

func TestIngestFilesInfersFamilies(t *testing.T) {
	f := newFixture(t, nil)
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "production_march.csv", productionCSV),
		writeFile(t, dir, "product_usage.csv", productUsageCSV),
	}
	jobs, err := f.ingest.IngestFiles(context.Background(), "", paths, 2)
	if err != nil {
		t.Fatalf("IngestFiles: %v", err)
	}
	for _, job := range jobs {
		if job.Status != pipeline.FileStatusCompleted {
			t.Fatalf("job %s: status %s (%v)", job.Path, job.Status, job.Err)
		}
	}
	if f.store.Production.Len() != 1 || f.store.ProductUsage.Get() == nil {
		t.Fatal("expected both families to be stored")
	}
}
