package repository

import (
	"context"
	"fmt"

	"github.com/andresuchdata/rxflow/internal/domain"
)

// Bucket names, one per collection or document.
const (
	BucketProduction      = "production"
	BucketTurnaround      = "turnaround"
	BucketBypass          = "bypass"
	BucketUsage           = "usage"
	BucketProductUsage    = "product_usage"
	BucketProductWastage  = "product_wastage"
	BucketDetailedWastage = "detailed_wastage"
	BucketStockDoses      = "stock_doses"
)

// Store holds every report collection and snapshot document over one Backend.
type Store struct {
	backend Backend

	Production *Collection[*domain.ProductionRecord]
	Turnaround *Collection[*domain.TurnaroundRecord]
	Bypass     *Collection[*domain.BypassRecord]
	Usage      *Collection[*domain.UsageRecord]

	ProductUsage    *Document[domain.ProductUsageDoc]
	ProductWastage  *Document[domain.ProductWastageDoc]
	DetailedWastage *Document[domain.DetailedWastageDoc]
	StockDoses      *Document[domain.StockDosesDoc]
}

// NewStore wires every collection to backend. Call Load before serving reads.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,

		Production: NewCollection[*domain.ProductionRecord](BucketProduction, backend, KeyDescending, ReplaceOnKeyMatch[*domain.ProductionRecord]{}),
		Turnaround: NewCollection[*domain.TurnaroundRecord](BucketTurnaround, backend, KeyDescending, ReplaceOnKeyMatch[*domain.TurnaroundRecord]{}),
		Bypass:     NewCollection[*domain.BypassRecord](BucketBypass, backend, InsertionOrder, ReplaceOnKeyMatch[*domain.BypassRecord]{}),
		Usage:      NewCollection[*domain.UsageRecord](BucketUsage, backend, KeyDescending, ReplaceOnKeyMatch[*domain.UsageRecord]{}),

		ProductUsage:    NewDocument[domain.ProductUsageDoc](BucketProductUsage, backend),
		ProductWastage:  NewDocument[domain.ProductWastageDoc](BucketProductWastage, backend),
		DetailedWastage: NewDocument[domain.DetailedWastageDoc](BucketDetailedWastage, backend),
		StockDoses:      NewDocument[domain.StockDosesDoc](BucketStockDoses, backend),
	}
}

type loader interface {
	Load(ctx context.Context) error
}

// Load reads every bucket once at startup.
func (s *Store) Load(ctx context.Context) error {
	for _, l := range []loader{
		s.Production, s.Turnaround, s.Bypass, s.Usage,
		s.ProductUsage, s.ProductWastage, s.DetailedWastage, s.StockDoses,
	} {
		if err := l.Load(ctx); err != nil {
			return err
		}
	}
	return nil
}

type historyBucket interface {
	Kind() string
	lock()
	unlock()
	emptyPayload() ([]byte, error)
	resetLocked()
}

// ClearHistory empties the four keyed collections as one write: every
// collection is locked, all empty buckets are saved together, and only then
// is memory reset. Snapshot documents are kept.
func (s *Store) ClearHistory(ctx context.Context) error {
	buckets := []historyBucket{s.Production, s.Turnaround, s.Bypass, s.Usage}
	for _, b := range buckets {
		b.lock()
		defer b.unlock()
	}

	payloads := make(map[string][]byte, len(buckets))
	for _, b := range buckets {
		payload, err := b.emptyPayload()
		if err != nil {
			return fmt.Errorf("clear %s: %w", b.Kind(), err)
		}
		payloads[b.Kind()] = payload
	}
	if err := saveAll(ctx, s.backend, payloads); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	for _, b := range buckets {
		b.resetLocked()
	}
	return nil
}

// Generation reports the data version of a family. It changes after every
// published upsert, replace, clear or load.
func (s *Store) Generation(family domain.Family) uint64 {
	switch family {
	case domain.FamilyProduction:
		return s.Production.Generation()
	case domain.FamilyTurnaround:
		return s.Turnaround.Generation()
	case domain.FamilyBypass:
		return s.Bypass.Generation()
	case domain.FamilyUsage:
		return s.Usage.Generation()
	case domain.FamilyProductUsage:
		return s.ProductUsage.Generation()
	case domain.FamilyProductWastage:
		return s.ProductWastage.Generation()
	case domain.FamilyDetailedWastage:
		return s.DetailedWastage.Generation()
	case domain.FamilyStockDoses:
		return s.StockDoses.Generation()
	default:
		return 0
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
