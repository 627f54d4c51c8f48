package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Document is a persisted snapshot replaced whole on every write.
type Document[T any] struct {
	kind    string
	backend Backend
	now     func() time.Time

	mu  sync.RWMutex
	doc *T
	gen atomic.Uint64
}

func NewDocument[T any](kind string, backend Backend) *Document[T] {
	return &Document[T]{kind: kind, backend: backend, now: time.Now}
}

func (d *Document[T]) Kind() string { return d.kind }

// Load reads the persisted snapshot; a missing bucket leaves it empty.
func (d *Document[T]) Load(ctx context.Context) error {
	payload, err := d.backend.Load(ctx, d.kind)
	if errors.Is(err, ErrNotFound) {
		d.mu.Lock()
		d.doc = nil
		d.gen.Add(1)
		d.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", d.kind, err)
	}
	data, err := decodeEnvelope(d.kind, payload)
	if err != nil {
		return err
	}
	var doc *T
	if len(data) > 0 {
		doc = new(T)
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("decode %s document: %w", d.kind, err)
		}
	}
	d.mu.Lock()
	d.doc = doc
	d.gen.Add(1)
	d.mu.Unlock()
	return nil
}

// Generation changes whenever a new snapshot is published.
func (d *Document[T]) Generation() uint64 { return d.gen.Load() }

// Get returns the current snapshot, or nil when nothing was uploaded yet.
func (d *Document[T]) Get() *T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc
}

// Replace persists doc and then publishes it.
func (d *Document[T]) Replace(ctx context.Context, doc *T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	payload, err := encodeEnvelope(d.kind, doc, d.now())
	if err != nil {
		return err
	}
	if err := d.backend.Save(ctx, d.kind, payload); err != nil {
		return fmt.Errorf("persist %s: %w", d.kind, err)
	}
	d.doc = doc
	d.gen.Add(1)
	return nil
}
