package rollup

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/rxflow/internal/domain"
)

// Turnaround breakdown dimensions.
const (
	DimensionPriority    = "priority"
	DimensionWorkstation = "workstation"
	DimensionDrug        = "drug"
)

func TurnaroundDaily(records []*domain.TurnaroundRecord, w Window) []domain.TurnaroundPoint {
	in := ascending(Filter(records, w))
	points := make([]domain.TurnaroundPoint, 0, len(in))
	for _, r := range in {
		points = append(points, domain.TurnaroundPoint{
			Date:          r.Date,
			TotalDoses:    r.TotalDoses,
			AvgTurnaround: domain.Average(r.TotalTime, r.TotalDoses),
		})
	}
	return points
}

// TurnaroundBreakdown folds one dimension across the window. Priorities sort
// by label, numeric first; workstations and drugs by count descending.
func TurnaroundBreakdown(records []*domain.TurnaroundRecord, w Window, dimension string, limit int) ([]domain.TimingRollup, error) {
	if dimension == "" {
		dimension = DimensionPriority
	}
	pick, ok := map[string]func(*domain.TurnaroundRecord) domain.TimingBreakdown{
		DimensionPriority:    func(r *domain.TurnaroundRecord) domain.TimingBreakdown { return r.ByPriority },
		DimensionWorkstation: func(r *domain.TurnaroundRecord) domain.TimingBreakdown { return r.ByWorkstation },
		DimensionDrug:        func(r *domain.TurnaroundRecord) domain.TimingBreakdown { return r.ByDrug },
	}[dimension]
	if !ok {
		return nil, fmt.Errorf("%w: turnaround dimension %q", ErrInvalidQuery, dimension)
	}

	folded := make(domain.TimingBreakdown)
	for _, r := range Filter(records, w) {
		for label, stat := range pick(r) {
			folded.Add(label, stat.Count, stat.TotalTime)
		}
	}

	out := make([]domain.TimingRollup, 0, len(folded))
	for label, stat := range folded {
		out = append(out, domain.TimingRollup{
			Name:          label,
			Count:         stat.Count,
			TotalTime:     domain.Round2(stat.TotalTime),
			AvgTurnaround: domain.Average(stat.TotalTime, stat.Count),
		})
	}
	if dimension == DimensionPriority {
		sort.Slice(out, func(i, j int) bool { return lessPriority(out[i].Name, out[j].Name) })
	} else {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Count != out[j].Count {
				return out[i].Count > out[j].Count
			}
			return out[i].Name < out[j].Name
		})
	}
	return truncate(out, limit), nil
}

func TurnaroundSummaryOf(records []*domain.TurnaroundRecord, w Window) domain.TurnaroundSummary {
	in := Filter(records, w)
	var (
		s         domain.TurnaroundSummary
		totalTime float64
	)
	for _, r := range in {
		s.TotalDoses += r.TotalDoses
		totalTime += r.TotalTime
	}
	s.DaysCount = len(in)
	s.AvgTurnaround = domain.Average(totalTime, s.TotalDoses)
	return s
}
