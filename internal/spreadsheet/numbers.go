package spreadsheet

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxWarnings caps the per-file warning list.
const MaxWarnings = 50

var (
	spaceCleaner = strings.NewReplacer(" ", "", "\u00a0", "")

	// Commas are accepted only as thousands separators in 1,234,567.89 form.
	thousandsGrouped = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// ParseNumber parses a numeric cell leniently. Empty cells are 0 and valid;
// anything unparsable is 0 and not valid. A comma that is not a thousands
// separator, such as the decimal comma in "1,5", makes the cell invalid.
func ParseNumber(raw string) (float64, bool) {
	raw = spaceCleaner.Replace(strings.TrimSpace(raw))
	if raw == "" {
		return 0, true
	}
	if strings.Contains(raw, ",") {
		if !thousandsGrouped.MatchString(raw) {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, ",", "")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Warnings collects per-file diagnostics for cells that were coerced to zero.
type Warnings struct {
	items   []string
	dropped int
}

// Addf records a warning, dropping it once MaxWarnings is reached.
func (w *Warnings) Addf(format string, args ...any) {
	if len(w.items) >= MaxWarnings {
		w.dropped++
		return
	}
	w.items = append(w.items, fmt.Sprintf(format, args...))
}

// Count returns the number of warnings raised, including dropped ones.
func (w *Warnings) Count() int {
	return len(w.items) + w.dropped
}

// List returns the recorded warnings, with a trailing note when some were dropped.
func (w *Warnings) List() []string {
	out := make([]string, 0, len(w.items)+1)
	out = append(out, w.items...)
	if w.dropped > 0 {
		out = append(out, fmt.Sprintf("... and %d more", w.dropped))
	}
	return out
}

// Float parses a numeric cell, coercing bad values to 0 with a warning naming
// the sheet row and column.
func (w *Warnings) Float(row int, column, raw string) float64 {
	v, ok := ParseNumber(raw)
	if !ok {
		w.Addf("row %d: %s value %q is not numeric, treated as 0", row, column, strings.TrimSpace(raw))
	}
	return v
}

// Int is Float rounded to the nearest integer.
func (w *Warnings) Int(row int, column, raw string) int {
	return int(math.Round(w.Float(row, column, raw)))
}
