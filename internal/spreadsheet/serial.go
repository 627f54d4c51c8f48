package spreadsheet

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// unixEpochSerial is the serial number of 1970-01-01 in the 1899-12-30 epoch.
const unixEpochSerial = 25569

const dateLayout = "2006-01-02"

var textDateLayouts = []string{
	dateLayout,
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
}

// SerialToDate converts a spreadsheet serial date to YYYY-MM-DD (UTC).
// The time-of-day fraction is dropped.
func SerialToDate(serial float64) string {
	days := int64(math.Floor(serial)) - unixEpochSerial
	return time.Unix(days*86400, 0).UTC().Format(dateLayout)
}

// ParseDateCell normalizes a date cell. Numeric cells are treated as serial
// dates; text cells in a handful of common layouts are accepted as well.
// ok is false for empty or unrecognized cells and the caller should skip the row.
func ParseDateCell(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial <= 0 {
			return "", false
		}
		return SerialToDate(serial), true
	}
	// Text exports sometimes carry a time component after a space or a T.
	datePart := raw
	if i := strings.IndexAny(raw, " T"); i > 0 {
		datePart = raw[:i]
	}
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, datePart); err == nil {
			return t.Format(dateLayout), true
		}
	}
	return "", false
}
