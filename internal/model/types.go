// Package model defines shared data structures.
package model

import "strings"

// DailyRecord holds the counts for one region on one day.
type DailyRecord struct {
	Confirmed int64
	Deaths    int64
	Recovered int64
}

// Add accumulates other into r.
func (r *DailyRecord) Add(other DailyRecord) {
	r.Confirmed += other.Confirmed
	r.Deaths += other.Deaths
	r.Recovered += other.Recovered
}

// Value returns the count for a metric.
func (r DailyRecord) Value(m Metric) int64 {
	switch m {
	case Deaths:
		return r.Deaths
	case Recovered:
		return r.Recovered
	default:
		return r.Confirmed
	}
}

// Row is one parsed snapshot row after alias normalization.
type Row struct {
	Region string
	Counts DailyRecord
}

// Sample is the world confirmed total for one ingested day.
type Sample struct {
	Day       int
	Date      string
	Confirmed int64
}

// Metric selects one of the three tracked counts.
type Metric int

// Tracked metrics.
const (
	Confirmed Metric = iota
	Deaths
	Recovered
)

// Metrics lists all metrics in display order.
var Metrics = []Metric{Confirmed, Deaths, Recovered}

// String returns the display label.
func (m Metric) String() string {
	switch m {
	case Deaths:
		return "Deaths"
	case Recovered:
		return "Recovered"
	default:
		return "Confirmed"
	}
}

// ParseMetric maps the single-letter timeline options c/d/r to a metric.
func ParseMetric(s string) (Metric, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "confirmed":
		return Confirmed, true
	case "d", "deaths":
		return Deaths, true
	case "r", "recovered":
		return Recovered, true
	default:
		return Confirmed, false
	}
}

// RegionCounts is a region's counts on a given date.
type RegionCounts struct {
	Name string
	DailyRecord
}

// Totals summarizes world-wide counts on a date.
type Totals struct {
	Date         string
	Confirmed    int64
	Deaths       int64
	Recovered    int64
	DeathPct     float64
	RecoveredPct float64
	// RatesDefined is false when Confirmed is zero and the percentages are meaningless.
	RatesDefined bool
}

// Facts holds static demographic facts for a region.
type Facts struct {
	Population     int64
	LifeExpectancy float64
}

// AnalysisConfig defines query settings.
type AnalysisConfig struct {
	TopN            int
	TimelineWindow  int
	WorldPopulation float64
}
