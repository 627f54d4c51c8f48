package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rxflow/internal/cache"
	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/metrics"
	"github.com/andresuchdata/rxflow/internal/repository"
	"github.com/andresuchdata/rxflow/internal/rollup"
)

// ReportService answers the rollup queries, reading through the rollup cache.
type ReportService struct {
	store   *repository.Store
	cache   cache.RollupCache
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewReportService(store *repository.Store, cacheImpl cache.RollupCache, m *metrics.Metrics) *ReportService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRollupCache()
	}
	return &ReportService{store: store, cache: cacheImpl, metrics: m, now: time.Now}
}

// WithClock replaces the clock used to anchor query windows.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

func (s *ReportService) window(q domain.ReportQuery) rollup.Window {
	return rollup.NewWindow(q.Days, s.now())
}

// cached serves a rollup from cache, computing and storing it on a miss.
// The key carries the window's day and the family generation read before
// compute, so a result computed before a concurrent ingest lands under a key
// no later query asks for. Cache errors are logged and never fail the query.
func cached[T any](ctx context.Context, s *ReportService, family domain.Family, endpoint string, q domain.ReportQuery, compute func(w rollup.Window) (T, error)) (T, error) {
	w := s.window(q)
	key := cache.Key{
		Family:     family,
		Endpoint:   endpoint,
		Query:      q,
		Day:        w.Today.Format("2006-01-02"),
		Generation: s.store.Generation(family),
	}

	var out T
	ok, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		log.Warn().Err(err).Str("family", family.String()).Str("endpoint", endpoint).Msg("rollup cache get failed")
	}
	s.metrics.ObserveCache(family, ok)
	if ok {
		return out, nil
	}

	out, err = compute(w)
	if err != nil {
		return out, err
	}
	if err := s.cache.Set(ctx, key, out); err != nil {
		log.Warn().Err(err).Str("family", family.String()).Str("endpoint", endpoint).Msg("rollup cache set failed")
	}
	return out, nil
}

func (s *ReportService) ProductionDaily(ctx context.Context, q domain.ReportQuery) ([]domain.ProductionPoint, error) {
	return cached(ctx, s, domain.FamilyProduction, "daily", q, func(w rollup.Window) ([]domain.ProductionPoint, error) {
		return rollup.ProductionDaily(s.store.Production.All(), w, q.Grouping), nil
	})
}

func (s *ReportService) ProductionHourly(ctx context.Context, q domain.ReportQuery) ([]domain.HourBucket, error) {
	return cached(ctx, s, domain.FamilyProduction, "hourly", q, func(w rollup.Window) ([]domain.HourBucket, error) {
		return rollup.ProductionHourly(s.store.Production.All(), w), nil
	})
}

func (s *ReportService) ProductionSummary(ctx context.Context, q domain.ReportQuery) (domain.ProductionSummary, error) {
	return cached(ctx, s, domain.FamilyProduction, "summary", q, func(w rollup.Window) (domain.ProductionSummary, error) {
		return rollup.ProductionSummaryOf(s.store.Production.All(), w), nil
	})
}

func (s *ReportService) TurnaroundDaily(ctx context.Context, q domain.ReportQuery) ([]domain.TurnaroundPoint, error) {
	return cached(ctx, s, domain.FamilyTurnaround, "daily", q, func(w rollup.Window) ([]domain.TurnaroundPoint, error) {
		return rollup.TurnaroundDaily(s.store.Turnaround.All(), w), nil
	})
}

// TurnaroundBreakdown groups by q.SortBy (priority, workstation or drug).
func (s *ReportService) TurnaroundBreakdown(ctx context.Context, q domain.ReportQuery) ([]domain.TimingRollup, error) {
	return cached(ctx, s, domain.FamilyTurnaround, "breakdown", q, func(w rollup.Window) ([]domain.TimingRollup, error) {
		return rollup.TurnaroundBreakdown(s.store.Turnaround.All(), w, q.SortBy, q.Limit)
	})
}

func (s *ReportService) TurnaroundSummary(ctx context.Context, q domain.ReportQuery) (domain.TurnaroundSummary, error) {
	return cached(ctx, s, domain.FamilyTurnaround, "summary", q, func(w rollup.Window) (domain.TurnaroundSummary, error) {
		return rollup.TurnaroundSummaryOf(s.store.Turnaround.All(), w), nil
	})
}

func (s *ReportService) BypassLocations(ctx context.Context, q domain.ReportQuery) ([]domain.BypassRecord, error) {
	return cached(ctx, s, domain.FamilyBypass, "locations", q, func(w rollup.Window) ([]domain.BypassRecord, error) {
		return rollup.BypassLocations(s.store.Bypass.All(), q.Limit), nil
	})
}

func (s *ReportService) BypassHourly(ctx context.Context, q domain.ReportQuery) ([]domain.HourBucket, error) {
	return cached(ctx, s, domain.FamilyBypass, "hourly", q, func(w rollup.Window) ([]domain.HourBucket, error) {
		return rollup.BypassHourly(s.store.Bypass.All()), nil
	})
}

func (s *ReportService) BypassSummary(ctx context.Context, q domain.ReportQuery) (domain.BypassSummary, error) {
	return cached(ctx, s, domain.FamilyBypass, "summary", q, func(w rollup.Window) (domain.BypassSummary, error) {
		return rollup.BypassSummaryOf(s.store.Bypass.All()), nil
	})
}

func (s *ReportService) UsageDaily(ctx context.Context, q domain.ReportQuery) ([]domain.UsagePoint, error) {
	return cached(ctx, s, domain.FamilyUsage, "daily", q, func(w rollup.Window) ([]domain.UsagePoint, error) {
		return rollup.UsageDaily(s.store.Usage.All(), w), nil
	})
}

// UsageBreakdown groups by q.SortBy (product or location).
func (s *ReportService) UsageBreakdown(ctx context.Context, q domain.ReportQuery) ([]domain.VolumeRollup, error) {
	return cached(ctx, s, domain.FamilyUsage, "breakdown", q, func(w rollup.Window) ([]domain.VolumeRollup, error) {
		return rollup.UsageBreakdown(s.store.Usage.All(), w, q.SortBy, q.Limit)
	})
}

func (s *ReportService) UsageSummary(ctx context.Context, q domain.ReportQuery) (domain.UsageSummary, error) {
	return cached(ctx, s, domain.FamilyUsage, "summary", q, func(w rollup.Window) (domain.UsageSummary, error) {
		return rollup.UsageSummaryOf(s.store.Usage.All(), w), nil
	})
}

// Snapshot queries read a single small document, so they skip the cache.

func (s *ReportService) ProductUsageSummary(ctx context.Context) domain.ProductUsageSummary {
	return rollup.ProductUsageSummaryOf(s.store.ProductUsage.Get())
}

func (s *ReportService) ProductUsageProducts(ctx context.Context, q domain.ReportQuery) []domain.ProductUsageRollup {
	return rollup.ProductUsageProducts(s.store.ProductUsage.Get(), q.Limit)
}

func (s *ReportService) ProductUsageLocations(ctx context.Context, q domain.ReportQuery) []domain.ProductUsageRollup {
	return rollup.ProductUsageLocations(s.store.ProductUsage.Get(), q.Limit)
}

func (s *ReportService) WastageProducts(ctx context.Context, q domain.ReportQuery) []domain.WastedProduct {
	return rollup.WastageProducts(s.store.ProductWastage.Get(), q.Type, q.Limit)
}

func (s *ReportService) WastageTypes(ctx context.Context) []domain.WastageTypeRollup {
	return rollup.WastageTypes(s.store.ProductWastage.Get())
}

func (s *ReportService) WastageSummary(ctx context.Context) domain.ProductWastageSummary {
	return rollup.WastageSummaryOf(s.store.ProductWastage.Get())
}

func (s *ReportService) DetailedWastageDaily(ctx context.Context) []domain.DailyWastagePoint {
	return rollup.DetailedDaily(s.store.DetailedWastage.Get())
}

func (s *ReportService) DetailedWastageBreakdown(ctx context.Context, q domain.ReportQuery) ([]domain.VolumeRollup, error) {
	return rollup.DetailedBreakdown(s.store.DetailedWastage.Get(), q.SortBy, q.Limit)
}

func (s *ReportService) DetailedWastageSummary(ctx context.Context) domain.DetailedWastageSummary {
	return rollup.DetailedSummaryOf(s.store.DetailedWastage.Get())
}

func (s *ReportService) StockDoses(ctx context.Context, q domain.ReportQuery) ([]domain.StockDose, error) {
	return rollup.StockDoseList(s.store.StockDoses.Get(), q.Type, q.Limit)
}

func (s *ReportService) StockDosesSummary(ctx context.Context) domain.StockDosesSummary {
	return rollup.StockDoseSummaryOf(s.store.StockDoses.Get())
}
