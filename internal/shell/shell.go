// Package shell interprets the interactive command language shared by the
// explorer and the plain line prompt.
package shell

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/query"
	"github.com/verte-zerg/epitrack/internal/report"
	"github.com/verte-zerg/epitrack/internal/timeline"
	"github.com/verte-zerg/epitrack/internal/trend"
)

// QuitCommand ends the session.
const QuitCommand = "#"

const (
	firstPrompt    = "Enter command (help for list, # to quit)> "
	commandPrompt  = "Enter command> "
	timelinePrompt = "Do you want to see a timeline? Enter c/d/r/n> "
	notFound       = "country or command not found..."
)

// Shell holds the state of one interactive session. It is not safe for
// concurrent use.
type Shell struct {
	engine  *query.Engine
	samples []model.Sample
	cfg     model.AnalysisConfig
	plot    report.PlotOptions

	started bool
	// pending is the region whose timeline question awaits an answer.
	pending string
}

// New returns a Shell over engine. samples feed the model and plot commands.
func New(engine *query.Engine, samples []model.Sample, cfg model.AnalysisConfig) *Shell {
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	if cfg.WorldPopulation <= 0 {
		cfg.WorldPopulation = trend.DefaultWorldPopulation
	}
	return &Shell{engine: engine, samples: samples, cfg: cfg}
}

// SetPlotOptions sets the size and colouring used by the plot command.
func (s *Shell) SetPlotOptions(opts report.PlotOptions) {
	s.plot = opts
}

// Prompt returns the text to show before reading the next line.
func (s *Shell) Prompt() string {
	switch {
	case s.pending != "":
		return timelinePrompt
	case !s.started:
		return firstPrompt
	default:
		return commandPrompt
	}
}

// Pending reports whether the shell is waiting for a timeline answer.
func (s *Shell) Pending() bool {
	return s.pending != ""
}

// Execute runs one line of input and writes its output to w. quit is true
// once the user asked to leave.
func (s *Shell) Execute(input string, w io.Writer) (quit bool, err error) {
	s.started = true
	input = strings.TrimSpace(input)

	if s.pending != "" {
		name := s.pending
		s.pending = ""
		return false, s.answerTimeline(w, name, input)
	}

	date := s.engine.CurrentDate()
	switch {
	case input == "":
		return false, nil
	case input == QuitCommand:
		return true, nil
	case input == "help":
		return false, report.Help(w, s.cfg.TopN)
	case input == "totals":
		return false, report.Totals(w, s.engine.Totals(date))
	case input == "countries":
		return false, report.Countries(w, date, s.engine.ListRegions(date))
	case input == "model":
		return false, s.model(w)
	case input == "plot":
		return false, s.worldPlot(w)
	}
	if n, ok := topCommand(input, s.cfg.TopN); ok {
		return false, report.Top(w, s.engine.TopN(date, n))
	}
	if view, ok := s.engine.Region(input, date); ok {
		if err := report.Region(w, view); err != nil {
			return false, err
		}
		s.pending = view.Name
		return false, nil
	}
	_, err = fmt.Fprintf(w, "%s\n\n", notFound)
	return false, err
}

// topCommand accepts "top", "top<N>" and "top10".
func topCommand(input string, fallback int) (int, bool) {
	rest, ok := strings.CutPrefix(input, "top")
	if !ok {
		return 0, false
	}
	if rest == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (s *Shell) answerTimeline(w io.Writer, name, answer string) error {
	if len(answer) == 1 {
		if metric, ok := model.ParseMetric(answer); ok {
			if err := WriteTimeline(w, s.engine, name, metric, s.cfg.TimelineWindow); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteTimeline writes a region's timeline for metric up to the current date.
func WriteTimeline(w io.Writer, engine *query.Engine, name string, metric model.Metric, window int) error {
	view, ok := engine.Timeline(name, metric, engine.CurrentDate(), window)
	if !ok {
		return fmt.Errorf("unknown region %q", name)
	}
	return timeline.Format(w, view)
}

func (s *Shell) model(w io.Writer) error {
	m, err := trend.Fit(s.samples)
	if err != nil {
		return noModel(w, err)
	}
	return report.Model(w, report.NewModelReport(m, s.engine.CurrentDate(), s.cfg.WorldPopulation))
}

func (s *Shell) worldPlot(w io.Writer) error {
	return WorldPlot(w, s.samples, s.plot)
}

// WorldPlot draws world confirmed totals and, when it can be fitted, the
// exponential model.
func WorldPlot(w io.Writer, samples []model.Sample, opts report.PlotOptions) error {
	observed := make([]float64, len(samples))
	for i, smp := range samples {
		observed[i] = float64(smp.Confirmed)
	}
	series := []report.Series{{Name: "confirmed", Values: observed}}
	if m, err := trend.Fit(samples); err == nil {
		series = append(series, report.Series{Name: "model", Values: m.Curve(samples)})
	}
	heading := "World-wide confirmed cases"
	if len(samples) > 0 {
		heading = fmt.Sprintf("%s, %s to %s", heading, samples[0].Date, samples[len(samples)-1].Date)
	}
	return report.Plot(w, heading, series, opts)
}

func noModel(w io.Writer, err error) error {
	reason := "not enough data"
	if errors.Is(err, trend.ErrDegenerate) {
		reason = "all reports fall on the same day"
	}
	_, werr := fmt.Fprintf(w, "Cannot build a model: %s.\n\n", reason)
	return werr
}
