// Package timeline decides how a region's per-date series is presented.
package timeline

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/epitrack/internal/model"
)

// DefaultWindow is the span in days above which a timeline is shown as its
// first and last halves only.
const DefaultWindow = 14

// Entry is one line of a timeline.
type Entry struct {
	Date  string
	Day   int
	Value int64
}

// View is a timeline ready for display. When Truncated is false, Head holds
// every entry and Tail is empty.
type View struct {
	Metric    model.Metric
	Head      []Entry
	Tail      []Entry
	Truncated bool
	// Elided counts the entries hidden between Head and Tail.
	Elided int
}

// Len returns the number of entries shown.
func (v View) Len() int {
	return len(v.Head) + len(v.Tail)
}

// Window builds the view for entries whose first date lies spanDays before the
// current date. Spans longer than window with more than window entries keep only
// the first and last window/2 entries. A window of zero or less disables truncation.
func Window(metric model.Metric, entries []Entry, spanDays, window int) View {
	v := View{Metric: metric}
	if window <= 0 || spanDays <= window || len(entries) <= window {
		v.Head = append([]Entry(nil), entries...)
		return v
	}
	head := window / 2
	tail := window - head
	v.Head = append([]Entry(nil), entries[:head]...)
	v.Tail = append([]Entry(nil), entries[len(entries)-tail:]...)
	v.Truncated = true
	v.Elided = len(entries) - head - tail
	return v
}

// Format writes the view, one "date (day N): value" line per entry, with an
// elision marker between head and tail.
func Format(w io.Writer, v View) error {
	if _, err := fmt.Fprintf(w, "%s:\n", v.Metric); err != nil {
		return err
	}
	if err := writeEntries(w, v.Head); err != nil {
		return err
	}
	if !v.Truncated {
		return nil
	}
	for i := 0; i < 3; i++ {
		if _, err := fmt.Fprintln(w, " ."); err != nil {
			return err
		}
	}
	return writeEntries(w, v.Tail)
}

func writeEntries(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s (day %d): %s\n", e.Date, e.Day, humanize.Comma(e.Value)); err != nil {
			return err
		}
	}
	return nil
}
