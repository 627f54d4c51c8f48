package rollup

import (
	"sort"

	"github.com/andresuchdata/rxflow/internal/domain"
)

// Bypass records carry no date, so these queries ignore the window.

// BypassLocations returns locations by total bypasses descending.
func BypassLocations(records []*domain.BypassRecord, limit int) []domain.BypassRecord {
	out := make([]domain.BypassRecord, 0, len(records))
	for _, r := range records {
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalBypasses > out[j].TotalBypasses
	})
	return truncate(out, limit)
}

// BypassHourly sums each hour across locations; Average is per location.
func BypassHourly(records []*domain.BypassRecord) []domain.HourBucket {
	totals := make(domain.HourlyCounts)
	for _, r := range records {
		totals.Merge(r.Hourly)
	}
	return hourBuckets(totals, len(records))
}

func BypassSummaryOf(records []*domain.BypassRecord) domain.BypassSummary {
	var s domain.BypassSummary
	totals := make(domain.HourlyCounts)
	top := 0
	for _, r := range records {
		s.TotalBypasses += r.TotalBypasses
		if r.TotalBypasses > top || s.TopLocation == "" {
			s.TopLocation = r.Location
			top = r.TotalBypasses
		}
		totals.Merge(r.Hourly)
	}
	s.LocationCount = len(records)
	s.PeakHour = peakHour(totals)
	return s
}
