package spreadsheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// HourColumn is a header cell recognized as an hour-of-day bucket.
type HourColumn struct {
	Index int
	Hour  int
	Label string
}

var hourLabelPattern = regexp.MustCompile(`^\s*(\d{1,2})\s*:`)

// HourColumns validates the sentinel in column 0 and returns every other header
// cell shaped like "H:MM" as an hour bucket keyed by the integer before the colon.
func HourColumns(header []string, sentinel string) ([]HourColumn, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: sheet is empty, expected header starting with %q", ErrSchemaMismatch, sentinel)
	}
	if got := strings.TrimSpace(header[0]); got != sentinel {
		return nil, fmt.Errorf("%w: expected first header cell %q, found %q", ErrSchemaMismatch, sentinel, got)
	}

	var cols []HourColumn
	for i := 1; i < len(header); i++ {
		m := hourLabelPattern.FindStringSubmatch(header[i])
		if m == nil {
			continue
		}
		hour, err := strconv.Atoi(m[1])
		if err != nil || hour < 0 || hour > 23 {
			continue
		}
		cols = append(cols, HourColumn{Index: i, Hour: hour, Label: strings.TrimSpace(header[i])})
	}
	return cols, nil
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// ColumnIndex finds the first header cell matching one of labels. Exact matches
// win over normalized ones (case, spacing and punctuation ignored). It returns -1
// when no label is present; callers treat that as "value unavailable".
func ColumnIndex(header []string, labels ...string) int {
	for _, label := range labels {
		for i, h := range header {
			if strings.TrimSpace(h) == label {
				return i
			}
		}
	}
	targets := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		targets[normalizeColumnName(label)] = struct{}{}
	}
	for i, h := range header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

// Record is a data row keyed by header label.
type Record struct {
	Row    int
	values map[string]string
	norm   map[string]string
}

// Get returns the first non-empty value among aliases. Exact labels are tried
// before normalized ones.
func (r Record) Get(aliases ...string) string {
	for _, a := range aliases {
		if v := strings.TrimSpace(r.values[a]); v != "" {
			return v
		}
	}
	for _, a := range aliases {
		if v := strings.TrimSpace(r.norm[normalizeColumnName(a)]); v != "" {
			return v
		}
	}
	return ""
}

// Has reports whether any alias is a column of the record, empty or not.
func (r Record) Has(aliases ...string) bool {
	for _, a := range aliases {
		if _, ok := r.values[a]; ok {
			return true
		}
		if _, ok := r.norm[normalizeColumnName(a)]; ok {
			return true
		}
	}
	return false
}

// Records turns the sheet into label-keyed rows, skipping blank ones. Row is the
// 1-based sheet row number.
func (s *Sheet) Records() []Record {
	header := s.Header()
	if len(header) == 0 {
		return nil
	}
	records := make([]Record, 0, len(s.Rows)-1)
	for i, row := range s.DataRows() {
		if IsBlank(row) {
			continue
		}
		rec := Record{
			Row:    i + 2,
			values: make(map[string]string, len(header)),
			norm:   make(map[string]string, len(header)),
		}
		for col, label := range header {
			label = strings.TrimSpace(label)
			if label == "" {
				continue
			}
			v := Cell(row, col)
			if _, dup := rec.values[label]; !dup {
				rec.values[label] = v
			}
			key := normalizeColumnName(label)
			if _, dup := rec.norm[key]; !dup {
				rec.norm[key] = v
			}
		}
		records = append(records, rec)
	}
	return records
}
