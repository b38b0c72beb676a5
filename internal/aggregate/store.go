// Package aggregate holds the per-region time series built from daily snapshots.
package aggregate

import (
	"sort"

	"github.com/verte-zerg/epitrack/internal/model"
)

// Series is a date-ordered mapping of date to DailyRecord.
//
// Dates are kept sorted by their string key; snapshot labels are month-first
// within a single year, so key order is chronological order.
type Series struct {
	dates   []string
	records map[string]*model.DailyRecord
}

// Len returns the number of dates with a record.
func (s *Series) Len() int {
	return len(s.dates)
}

// Dates returns a copy of the ordered date keys.
func (s *Series) Dates() []string {
	return append([]string(nil), s.dates...)
}

// Get returns the record stored for date.
func (s *Series) Get(date string) (model.DailyRecord, bool) {
	rec, ok := s.records[date]
	if !ok {
		return model.DailyRecord{}, false
	}
	return *rec, true
}

// Last returns the most recent date and its record.
func (s *Series) Last() (string, model.DailyRecord, bool) {
	if len(s.dates) == 0 {
		return "", model.DailyRecord{}, false
	}
	date := s.dates[len(s.dates)-1]
	return date, *s.records[date], true
}

// add accumulates counts into the slot for date and returns the new value.
func (s *Series) add(date string, counts model.DailyRecord) model.DailyRecord {
	if s.records == nil {
		s.records = map[string]*model.DailyRecord{}
	}
	rec, ok := s.records[date]
	if !ok {
		rec = &model.DailyRecord{}
		s.records[date] = rec
		idx := sort.SearchStrings(s.dates, date)
		s.dates = append(s.dates, "")
		copy(s.dates[idx+1:], s.dates[idx:])
		s.dates[idx] = date
	}
	rec.Add(counts)
	return *rec
}

// Region is the aggregate entry for one region.
type Region struct {
	Name   string
	Series Series

	// First dates are empty until the metric is first strictly positive.
	FirstConfirmed string
	FirstDeath     string
	FirstRecovery  string

	Facts model.Facts
}

// FirstDate returns the first-occurrence date for a metric.
func (r *Region) FirstDate(m model.Metric) string {
	switch m {
	case model.Deaths:
		return r.FirstDeath
	case model.Recovered:
		return r.FirstRecovery
	default:
		return r.FirstConfirmed
	}
}

func (r *Region) markFirst(date string, rec model.DailyRecord) {
	if r.FirstConfirmed == "" && rec.Confirmed > 0 {
		r.FirstConfirmed = date
	}
	if r.FirstDeath == "" && rec.Deaths > 0 {
		r.FirstDeath = date
	}
	if r.FirstRecovery == "" && rec.Recovered > 0 {
		r.FirstRecovery = date
	}
}

// Store maps region names to their entries. It is built by a Builder and is
// read-only once finalized.
type Store struct {
	regions map[string]*Region
	names   []string
	dates   []string
}

func newStore() *Store {
	return &Store{regions: map[string]*Region{}}
}

// Len returns the number of regions.
func (s *Store) Len() int {
	return len(s.regions)
}

// Names returns the region names in lexicographic order.
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

// Region looks up a region by exact name. Callers must not modify the result.
func (s *Store) Region(name string) (*Region, bool) {
	r, ok := s.regions[name]
	return r, ok
}

// Dates returns the ingested snapshot dates in ingestion order.
func (s *Store) Dates() []string {
	return append([]string(nil), s.dates...)
}

// CurrentDate returns the most recently ingested snapshot date.
func (s *Store) CurrentDate() string {
	if len(s.dates) == 0 {
		return ""
	}
	return s.dates[len(s.dates)-1]
}

func (s *Store) accumulate(date string, row model.Row) {
	r, ok := s.regions[row.Region]
	if !ok {
		r = &Region{Name: row.Region}
		s.regions[row.Region] = r
		idx := sort.SearchStrings(s.names, row.Region)
		s.names = append(s.names, "")
		copy(s.names[idx+1:], s.names[idx:])
		s.names[idx] = row.Region
	}
	rec := r.Series.add(date, row.Counts)
	r.markFirst(date, rec)
}
