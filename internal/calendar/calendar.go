// Package calendar maps snapshot dates onto a dense day index.
//
// Dates are month-first strings ("MM-DD" or "MM-DD-YYYY"). Only the January to
// March observation window is indexed; other months map to 0.
package calendar

import (
	"path/filepath"
	"strconv"
	"strings"
)

// monthOffsets maps a month to the day index of its day zero.
// Day 1 is January 22, the first snapshot of the source data.
var monthOffsets = map[string]int{
	"01": -21,
	"02": 10,
	"03": 39,
}

// DayIndex returns the day index of a month-first date.
func DayIndex(date string) int {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) < 2 {
		return 0
	}
	offset, ok := monthOffsets[parts[0]]
	if !ok {
		return 0
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0
	}
	return offset + day
}

// DayDifference returns DayIndex(a) - DayIndex(b).
func DayDifference(a, b string) int {
	return DayIndex(a) - DayIndex(b)
}

// DateFromFilename isolates the date label of a snapshot file: the text from
// the first digit up to the extension dot.
func DateFromFilename(path string) (string, bool) {
	name := filepath.Base(path)
	start := strings.IndexAny(name, "0123456789")
	if start < 0 {
		return "", false
	}
	rest := name[start:]
	if end := strings.Index(rest, "."); end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}
