package rollup

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/rxflow/internal/domain"
)

// Usage and wastage breakdown dimensions.
const (
	DimensionProduct  = "product"
	DimensionLocation = "location"
)

func UsageDaily(records []*domain.UsageRecord, w Window) []domain.UsagePoint {
	in := ascending(Filter(records, w))
	points := make([]domain.UsagePoint, 0, len(in))
	for _, r := range in {
		points = append(points, domain.UsagePoint{
			Date:         r.Date,
			TotalVolume:  r.TotalVolume,
			UsedVolume:   r.UsedVolume,
			WasteVolume:  r.WasteVolume,
			WastePercent: domain.WastePercent(r.WasteVolume, r.TotalVolume),
			ProductCount: r.ProductCount,
		})
	}
	return points
}

// UsageBreakdown folds products or locations across the window, largest
// total volume first.
func UsageBreakdown(records []*domain.UsageRecord, w Window, dimension string, limit int) ([]domain.VolumeRollup, error) {
	if dimension == "" {
		dimension = DimensionProduct
	}
	if dimension != DimensionProduct && dimension != DimensionLocation {
		return nil, fmt.Errorf("%w: usage dimension %q", ErrInvalidQuery, dimension)
	}
	folded := make(domain.VolumeBreakdown)
	for _, r := range Filter(records, w) {
		src := r.ByProduct
		if dimension == DimensionLocation {
			src = r.ByLocation
		}
		for label, stat := range src {
			folded.Add(label, stat)
		}
	}
	return volumeRollups(folded, limit), nil
}

func volumeRollups(folded domain.VolumeBreakdown, limit int) []domain.VolumeRollup {
	out := make([]domain.VolumeRollup, 0, len(folded))
	for label, stat := range folded {
		out = append(out, domain.VolumeRollup{
			Name:         label,
			Count:        stat.Count,
			TotalVolume:  domain.Round2(stat.Total),
			UsedVolume:   domain.Round2(stat.Used),
			WasteVolume:  domain.Round2(stat.Waste),
			WastePercent: domain.WastePercent(stat.Waste, stat.Total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalVolume != out[j].TotalVolume {
			return out[i].TotalVolume > out[j].TotalVolume
		}
		return out[i].Name < out[j].Name
	})
	return truncate(out, limit)
}

// UsageSummaryOf totals the window; ProductCount is distinct products across it.
func UsageSummaryOf(records []*domain.UsageRecord, w Window) domain.UsageSummary {
	in := Filter(records, w)
	var s domain.UsageSummary
	products := make(map[string]struct{})
	for _, r := range in {
		s.TotalVolume += r.TotalVolume
		s.UsedVolume += r.UsedVolume
		s.WasteVolume += r.WasteVolume
		for p := range r.ByProduct {
			products[p] = struct{}{}
		}
	}
	s.TotalVolume = domain.Round2(s.TotalVolume)
	s.UsedVolume = domain.Round2(s.UsedVolume)
	s.WasteVolume = domain.Round2(s.WasteVolume)
	s.WastePercent = domain.WastePercent(s.WasteVolume, s.TotalVolume)
	s.DaysCount = len(in)
	s.ProductCount = len(products)
	return s
}
