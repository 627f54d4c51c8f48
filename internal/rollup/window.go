// Package rollup re-aggregates persisted report history into rolling-window
// views. Every function is pure over the records it is given; absent data
// yields zeroed results, never errors.
package rollup

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultDays is the window used when a query does not specify one.
const DefaultDays = 30

const dateLayout = "2006-01-02"

// ErrInvalidQuery is returned for an unknown dimension or list type.
var ErrInvalidQuery = errors.New("invalid query")

// Window selects records dated on or after Today minus Days.
type Window struct {
	Days  int
	Today time.Time
}

// NewWindow normalizes days (<= 0 means DefaultDays) and truncates now to a UTC day.
func NewWindow(days int, now time.Time) Window {
	if days <= 0 {
		days = DefaultDays
	}
	y, m, d := now.UTC().Date()
	return Window{Days: days, Today: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Start is the first included date.
func (w Window) Start() string {
	return w.Today.AddDate(0, 0, -w.Days).Format(dateLayout)
}

// Contains reports whether a YYYY-MM-DD date falls in the window.
func (w Window) Contains(date string) bool {
	return date >= w.Start()
}

// Dated is a record keyed by calendar date.
type Dated interface {
	RecordDate() string
}

// Filter keeps the records inside the window, preserving order.
func Filter[T Dated](records []T, w Window) []T {
	start := w.Start()
	out := make([]T, 0, len(records))
	for _, r := range records {
		if r.RecordDate() >= start {
			out = append(out, r)
		}
	}
	return out
}

// ascending returns the records ordered oldest first.
func ascending[T Dated](records []T) []T {
	out := make([]T, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordDate() < out[j].RecordDate()
	})
	return out
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// lessPriority orders numeric labels ascending, then non-numeric labels
// alphabetically.
func lessPriority(a, b string) bool {
	an, aErr := strconv.ParseFloat(strings.TrimSpace(a), 64)
	bn, bErr := strconv.ParseFloat(strings.TrimSpace(b), 64)
	switch {
	case aErr == nil && bErr == nil:
		if an != bn {
			return an < bn
		}
		return a < b
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}

// WeekStart returns the ISO Monday of a YYYY-MM-DD date.
func WeekStart(date string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset), true
}

// WeekLabel renders the display label of a week bucket.
func WeekLabel(monday time.Time) string {
	return "Week of " + monday.Format("Jan 2")
}
