package report

import (
	"fmt"
	"io"

	"github.com/verte-zerg/epitrack/internal/calendar"
	"github.com/verte-zerg/epitrack/internal/trend"
)

// ModelReport is a fitted model evaluated against the world population.
type ModelReport struct {
	Model           trend.Model
	CurrentDate     string
	WorldPopulation float64
	// Days is the number of days after CurrentDate until the model reaches
	// WorldPopulation. Reachable is false when the model is not growing.
	Days      int
	Reachable bool
}

// NewModelReport evaluates m at the current date.
func NewModelReport(m trend.Model, currentDate string, worldPopulation float64) ModelReport {
	days, ok := m.DaysUntil(worldPopulation, calendar.DayIndex(currentDate))
	return ModelReport{
		Model:           m,
		CurrentDate:     currentDate,
		WorldPopulation: worldPopulation,
		Days:            days,
		Reachable:       ok,
	}
}

var disclaimer = []string{
	"The above model is only a simple attempt of extrapolating data....",
	"The spread of a real epidemic depends on a lot more factors and cannot be modeled by an exponential curve",
	"",
	"Follow social distancing measures and prevent the spread of the disease.",
	"Happy Quarantining!",
	"",
}

// Model writes the fitted equation, the saturation horizon and the disclaimer.
func Model(w io.Writer, r ModelReport) error {
	if _, err := fmt.Fprintf(w, "Data is modeled by: y = %se^%.4fX\n", Decimal(r.Model.Alpha), r.Model.B); err != nil {
		return err
	}
	if r.Model.Skipped > 0 {
		if _, err := fmt.Fprintf(w, "(%d days without confirmed cases were left out)\n", r.Model.Skipped); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nAt current rate of infection (as of %s):\n", r.CurrentDate); err != nil {
		return err
	}
	days := "never, the model is not growing"
	if r.Reachable {
		days = Count(int64(r.Days))
	}
	if _, err := fmt.Fprintf(w, "Number of days required to infect the whole world: %s\n\n", days); err != nil {
		return err
	}
	for _, line := range disclaimer {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
