package rollup

import (
	"github.com/andresuchdata/rxflow/internal/domain"
)

// ProductionDaily returns the window as a time series, oldest first. With
// weekly grouping records are bucketed by ISO week.
func ProductionDaily(records []*domain.ProductionRecord, w Window, grouping string) []domain.ProductionPoint {
	in := ascending(Filter(records, w))
	if grouping == domain.GroupingWeekly {
		return productionWeekly(in)
	}
	points := make([]domain.ProductionPoint, 0, len(in))
	for _, r := range in {
		hourly := make(domain.HourlyCounts, len(r.Hourly))
		hourly.Merge(r.Hourly)
		points = append(points, domain.ProductionPoint{
			Date:       r.Date,
			TotalDoses: r.TotalDoses,
			Hourly:     hourly,
		})
	}
	return points
}

func productionWeekly(in []*domain.ProductionRecord) []domain.ProductionPoint {
	points := []domain.ProductionPoint{}
	index := make(map[string]int)
	for _, r := range in {
		monday, ok := WeekStart(r.Date)
		if !ok {
			continue
		}
		key := monday.Format(dateLayout)
		i, seen := index[key]
		if !seen {
			i = len(points)
			index[key] = i
			points = append(points, domain.ProductionPoint{
				Date:      WeekLabel(monday),
				WeekStart: key,
				Hourly:    make(domain.HourlyCounts),
			})
		}
		points[i].TotalDoses += r.TotalDoses
		points[i].Hourly.Merge(r.Hourly)
		points[i].Days++
	}
	return points
}

// ProductionHourly sums each hour across the window. Average is per day in the window.
func ProductionHourly(records []*domain.ProductionRecord, w Window) []domain.HourBucket {
	in := Filter(records, w)
	totals := make(domain.HourlyCounts)
	for _, r := range in {
		totals.Merge(r.Hourly)
	}
	return hourBuckets(totals, len(in))
}

// ProductionSummaryOf reports totals, the busiest day and the busiest hour.
func ProductionSummaryOf(records []*domain.ProductionRecord, w Window) domain.ProductionSummary {
	in := ascending(Filter(records, w))
	var s domain.ProductionSummary
	totals := make(domain.HourlyCounts)
	for _, r := range in {
		s.TotalDoses += r.TotalDoses
		if r.TotalDoses > s.PeakDoses || s.PeakDay == "" {
			s.PeakDay = r.Date
			s.PeakDoses = r.TotalDoses
		}
		totals.Merge(r.Hourly)
	}
	s.DaysCount = len(in)
	s.AvgDaily = domain.Average(float64(s.TotalDoses), s.DaysCount)
	s.PeakHour = peakHour(totals)
	return s
}

func hourBuckets(totals domain.HourlyCounts, divisor int) []domain.HourBucket {
	buckets := make([]domain.HourBucket, 24)
	for h := 0; h < 24; h++ {
		buckets[h] = domain.HourBucket{
			Hour:    h,
			Total:   totals[h],
			Average: domain.Average(float64(totals[h]), divisor),
		}
	}
	return buckets
}

// peakHour returns the hour with the highest total, lowest hour on ties.
func peakHour(totals domain.HourlyCounts) int {
	peak, best := 0, 0
	for h := 0; h < 24; h++ {
		if totals[h] > best {
			peak, best = h, totals[h]
		}
	}
	return peak
}
