// Package query provides read-only views over a finalized aggregate store.
package query

import (
	"sort"

	"github.com/verte-zerg/epitrack/internal/aggregate"
	"github.com/verte-zerg/epitrack/internal/calendar"
	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/timeline"
)

// Engine answers queries against a store. It never mutates the store.
type Engine struct {
	store *aggregate.Store
}

// New returns an Engine over st.
func New(st *aggregate.Store) *Engine {
	return &Engine{store: st}
}

// CurrentDate returns the latest ingested snapshot date.
func (e *Engine) CurrentDate() string {
	return e.store.CurrentDate()
}

// RegionCount returns the number of regions in the store.
func (e *Engine) RegionCount() int {
	return e.store.Len()
}

// HasRegion reports whether name is a known region.
func (e *Engine) HasRegion(name string) bool {
	_, ok := e.store.Region(name)
	return ok
}

// Totals sums every region's record at date. Regions with no record on that
// date contribute zero.
func (e *Engine) Totals(date string) model.Totals {
	t := model.Totals{Date: date}
	for _, name := range e.store.Names() {
		r, _ := e.store.Region(name)
		rec, _ := r.Series.Get(date)
		t.Confirmed += rec.Confirmed
		t.Deaths += rec.Deaths
		t.Recovered += rec.Recovered
	}
	if t.Confirmed > 0 {
		t.DeathPct = float64(t.Deaths) * 100 / float64(t.Confirmed)
		t.RecoveredPct = float64(t.Recovered) * 100 / float64(t.Confirmed)
		t.RatesDefined = true
	}
	return t
}

// ListRegions returns every region's counts at date in name order.
func (e *Engine) ListRegions(date string) []model.RegionCounts {
	names := e.store.Names()
	out := make([]model.RegionCounts, 0, len(names))
	for _, name := range names {
		r, _ := e.store.Region(name)
		rec, _ := r.Series.Get(date)
		out = append(out, model.RegionCounts{Name: name, DailyRecord: rec})
	}
	return out
}

// TopN returns up to n regions ordered by confirmed count at date, highest
// first. Equal counts are ordered by name.
func (e *Engine) TopN(date string, n int) []model.RegionCounts {
	if n <= 0 {
		return nil
	}
	all := e.ListRegions(date)
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Confirmed == all[j].Confirmed {
			return all[i].Name < all[j].Name
		}
		return all[i].Confirmed > all[j].Confirmed
	})
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// RegionView is a copy of a region's entry for display.
type RegionView struct {
	Name  string
	Facts model.Facts

	FirstConfirmed string
	FirstDeath     string
	FirstRecovery  string

	// Current is the record at the queried date; HasCurrent is false when the
	// region has no record on that date.
	Current    model.DailyRecord
	HasCurrent bool

	// Latest is the record at the region's own most recent date.
	LatestDate string
	Latest     model.DailyRecord

	Days int
}

// Region returns the view of a region at date.
func (e *Engine) Region(name, date string) (RegionView, bool) {
	r, ok := e.store.Region(name)
	if !ok {
		return RegionView{}, false
	}
	v := RegionView{
		Name:           r.Name,
		Facts:          r.Facts,
		FirstConfirmed: r.FirstConfirmed,
		FirstDeath:     r.FirstDeath,
		FirstRecovery:  r.FirstRecovery,
		Days:           r.Series.Len(),
	}
	v.Current, v.HasCurrent = r.Series.Get(date)
	v.LatestDate, v.Latest, _ = r.Series.Last()
	return v, true
}

// Series returns a region's (date, record) pairs in date order.
func (e *Engine) Series(name string) ([]string, []model.DailyRecord, bool) {
	r, ok := e.store.Region(name)
	if !ok {
		return nil, nil, false
	}
	dates := r.Series.Dates()
	recs := make([]model.DailyRecord, len(dates))
	for i, d := range dates {
		recs[i], _ = r.Series.Get(d)
	}
	return dates, recs, true
}

// Timeline extracts a metric's series for a region from the metric's first
// occurrence up to currentDate and windows it. Day numbers count from the
// region's first confirmed case, day 1 being that date. The view is empty when
// the metric never became positive.
func (e *Engine) Timeline(name string, metric model.Metric, currentDate string, window int) (timeline.View, bool) {
	r, ok := e.store.Region(name)
	if !ok {
		return timeline.View{Metric: metric}, false
	}
	first := r.FirstDate(metric)
	if first == "" {
		return timeline.View{Metric: metric}, true
	}
	base := r.FirstConfirmed
	if base == "" {
		base = first
	}
	var entries []timeline.Entry
	for _, date := range r.Series.Dates() {
		if date < first || date > currentDate {
			continue
		}
		rec, _ := r.Series.Get(date)
		entries = append(entries, timeline.Entry{
			Date:  date,
			Day:   calendar.DayDifference(date, base) + 1,
			Value: rec.Value(metric),
		})
	}
	span := calendar.DayDifference(currentDate, first)
	return timeline.Window(metric, entries, span, window), true
}
