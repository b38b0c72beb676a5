// Package trend fits an exponential growth model to world confirmed totals.
//
// The model is y = a·e^(b·x), fitted as ln(y) = A + b·x by ordinary least
// squares over (day index, ln(confirmed)) points.
package trend

import (
	"errors"
	"math"

	"github.com/verte-zerg/epitrack/internal/model"
)

// DefaultWorldPopulation is the world population at 12:00 CDT 03/29/2020
// according to the US Census Bureau population clock.
const DefaultWorldPopulation = 7639708031

var (
	// ErrInsufficientData is returned when fewer than two usable samples exist.
	ErrInsufficientData = errors.New("trend: at least two days with confirmed cases are required")
	// ErrDegenerate is returned when all usable samples share one day index.
	ErrDegenerate = errors.New("trend: samples do not span more than one day")
)

// Model is a fitted exponential model.
type Model struct {
	// A is the fitted intercept of ln(y); Alpha is e^A.
	A     float64
	Alpha float64
	B     float64
	// N counts the samples used; Skipped counts samples dropped for a zero total.
	N       int
	Skipped int
}

// Point is one (x, ln y) observation.
type Point struct {
	X float64
	Y float64
}

// Fit fits the model to samples. Days whose confirmed total is zero have no
// logarithm and are skipped.
func Fit(samples []model.Sample) (Model, error) {
	points := make([]Point, 0, len(samples))
	skipped := 0
	for _, s := range samples {
		if s.Confirmed <= 0 {
			skipped++
			continue
		}
		points = append(points, Point{X: float64(s.Day), Y: math.Log(float64(s.Confirmed))})
	}
	m, err := FitPoints(points)
	m.Skipped = skipped
	return m, err
}

// FitPoints fits ln(y) = A + b·x to already log-transformed points.
func FitPoints(points []Point) (Model, error) {
	m := Model{N: len(points)}
	if m.N < 2 {
		return m, ErrInsufficientData
	}
	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
		sumXY += p.X * p.Y
		sumX2 += p.X * p.X
	}
	n := float64(m.N)
	den := n*sumX2 - sumX*sumX
	if math.Abs(den) < 1e-9 {
		return m, ErrDegenerate
	}
	m.A = (sumX2*sumY - sumX*sumXY) / den
	m.B = (n*sumXY - sumX*sumY) / den
	m.Alpha = math.Exp(m.A)
	return m, nil
}

// Predict returns the modelled confirmed count at day index x.
func (m Model) Predict(x int) float64 {
	return m.Alpha * math.Exp(m.B*float64(x))
}

// DayReaching returns the (fractional) day index at which the model reaches target.
func (m Model) DayReaching(target float64) (float64, bool) {
	if m.B <= 0 || target <= 0 {
		return 0, false
	}
	day := (math.Log(target) - m.A) / m.B
	if math.IsNaN(day) || math.IsInf(day, 0) {
		return 0, false
	}
	return day, true
}

// DaysUntil returns the whole number of days after currentDay until the model
// reaches target. It reports false when the model is not growing.
func (m Model) DaysUntil(target float64, currentDay int) (int, bool) {
	day, ok := m.DayReaching(target)
	if !ok {
		return 0, false
	}
	days := math.Trunc(day) - float64(currentDay)
	if days > math.MaxInt32 {
		return 0, false
	}
	return int(days), true
}

// Curve evaluates the model at every sample's day index.
func (m Model) Curve(samples []model.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = m.Predict(s.Day)
	}
	return out
}
