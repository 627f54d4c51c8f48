package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Ordering decides how a collection is sorted after a merge.
type Ordering int

const (
	// KeyDescending keeps date-keyed collections newest first.
	KeyDescending Ordering = iota
	// InsertionOrder keeps records where they were first added.
	InsertionOrder
)

// Collection is a persisted list of records with unique natural keys. Writes
// are serialized; the in-memory list is replaced only after the backend
// accepted the new state.
type Collection[T Keyed] struct {
	kind     string
	backend  Backend
	strategy MergeStrategy[T]
	ordering Ordering
	now      func() time.Time
	newID    func() string

	mu      sync.RWMutex
	records []T
	// gen advances on every published change
	gen atomic.Uint64
}

// NewCollection builds an empty collection persisted under kind.
func NewCollection[T Keyed](kind string, backend Backend, ordering Ordering, strategy MergeStrategy[T]) *Collection[T] {
	if strategy == nil {
		strategy = ReplaceOnKeyMatch[T]{}
	}
	return &Collection[T]{
		kind:     kind,
		backend:  backend,
		strategy: strategy,
		ordering: ordering,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Kind returns the bucket name.
func (c *Collection[T]) Kind() string { return c.kind }

// Strategy returns the merge strategy name.
func (c *Collection[T]) Strategy() string { return c.strategy.Name() }

// Load replaces the in-memory list with the persisted one. A missing bucket is
// an empty collection.
func (c *Collection[T]) Load(ctx context.Context) error {
	payload, err := c.backend.Load(ctx, c.kind)
	if errors.Is(err, ErrNotFound) {
		c.mu.Lock()
		c.records = nil
		c.gen.Add(1)
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", c.kind, err)
	}
	data, err := decodeEnvelope(c.kind, payload)
	if err != nil {
		return err
	}
	var records []T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("decode %s records: %w", c.kind, err)
		}
	}
	c.mu.Lock()
	c.records = records
	c.gen.Add(1)
	c.mu.Unlock()
	return nil
}

// Generation changes whenever the published records change.
func (c *Collection[T]) Generation() uint64 { return c.gen.Load() }

// All returns a copy of the list. Records are replaced, never mutated, so the
// pointers can be shared with readers.
func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Upsert merges incoming records, persists the result and then publishes it.
// On a persistence error nothing changes.
func (c *Collection[T]) Upsert(ctx context.Context, incoming []T) (MergeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged, res := c.strategy.Merge(c.records, incoming, c.newID)
	if c.ordering == KeyDescending {
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].Key() > merged[j].Key()
		})
	}
	if err := c.persistLocked(ctx, merged); err != nil {
		return MergeResult{}, err
	}
	c.records = merged
	c.gen.Add(1)
	return res, nil
}

// Clear persists an empty collection and then drops the in-memory records.
func (c *Collection[T]) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.persistLocked(ctx, []T{}); err != nil {
		return err
	}
	c.resetLocked()
	return nil
}

func (c *Collection[T]) lock()   { c.mu.Lock() }
func (c *Collection[T]) unlock() { c.mu.Unlock() }

// emptyPayload renders the bucket of an empty collection.
func (c *Collection[T]) emptyPayload() ([]byte, error) {
	return encodeEnvelope(c.kind, []T{}, c.now())
}

func (c *Collection[T]) resetLocked() {
	c.records = nil
	c.gen.Add(1)
}

func (c *Collection[T]) persistLocked(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	payload, err := encodeEnvelope(c.kind, records, c.now())
	if err != nil {
		return err
	}
	if err := c.backend.Save(ctx, c.kind, payload); err != nil {
		return fmt.Errorf("persist %s: %w", c.kind, err)
	}
	return nil
}
