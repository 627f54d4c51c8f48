package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrNotFound is returned by a Backend for a bucket that was never saved.
var ErrNotFound = errors.New("bucket not found")

// Backend persists one opaque JSON payload per bucket. Collections and
// documents each own a bucket and serialize their own writes.
type Backend interface {
	Load(ctx context.Context, bucket string) ([]byte, error)
	Save(ctx context.Context, bucket string, payload []byte) error
	Close() error
}

// BatchSaver is implemented by backends that can write several buckets as
// one unit.
type BatchSaver interface {
	SaveBatch(ctx context.Context, payloads map[string][]byte) error
}

// saveAll writes payloads through SaveBatch when the backend has it, and
// bucket by bucket otherwise.
func saveAll(ctx context.Context, backend Backend, payloads map[string][]byte) error {
	if batch, ok := backend.(BatchSaver); ok {
		return batch.SaveBatch(ctx, payloads)
	}
	for _, bucket := range sortedBuckets(payloads) {
		if err := backend.Save(ctx, bucket, payloads[bucket]); err != nil {
			return err
		}
	}
	return nil
}

func sortedBuckets(payloads map[string][]byte) []string {
	buckets := make([]string, 0, len(payloads))
	for bucket := range payloads {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)
	return buckets
}

// FileBackend keeps each bucket as <dir>/<bucket>.json.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// NewFileBackend creates the data directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(bucket string) string {
	return filepath.Join(b.dir, bucket+".json")
}

func (b *FileBackend) Load(ctx context.Context, bucket string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path(bucket))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", bucket, err)
	}
	return data, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target so readers never observe a partial document.
func (b *FileBackend) Save(ctx context.Context, bucket string, payload []byte) error {
	return b.SaveBatch(ctx, map[string][]byte{bucket: payload})
}

// SaveBatch writes every payload to a temp file before renaming any of them,
// so a write error leaves all buckets untouched.
func (b *FileBackend) SaveBatch(ctx context.Context, payloads map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	temps := make(map[string]string, len(payloads))
	defer func() {
		for _, tmpName := range temps {
			_ = os.Remove(tmpName)
		}
	}()
	for _, bucket := range sortedBuckets(payloads) {
		tmpName, err := b.writeTemp(bucket, payloads[bucket])
		if err != nil {
			return err
		}
		temps[bucket] = tmpName
	}
	for _, bucket := range sortedBuckets(payloads) {
		if err := os.Rename(temps[bucket], b.path(bucket)); err != nil {
			return fmt.Errorf("replace %s: %w", bucket, err)
		}
		delete(temps, bucket)
	}
	return nil
}

func (b *FileBackend) writeTemp(bucket string, payload []byte) (string, error) {
	tmp, err := os.CreateTemp(b.dir, bucket+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", bucket, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", bucket, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("sync %s: %w", bucket, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w", bucket, err)
	}
	return tmpName, nil
}

func (b *FileBackend) Close() error { return nil }
