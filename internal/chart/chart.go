// Package chart exports interactive HTML charts of the aggregated data.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/query"
	"github.com/verte-zerg/epitrack/internal/trend"
)

const (
	chartWidth  = "100%"
	chartHeight = "520px"
	pageTitle   = "epitrack"
)

var metricColors = map[model.Metric]string{
	model.Confirmed: "#5470c6",
	model.Deaths:    "#ee6666",
	model.Recovered: "#91cc75",
}

// World builds a line chart of world-wide confirmed totals. When the samples
// can be fitted, the exponential model is drawn as a dashed series.
func World(samples []model.Sample) *charts.Line {
	line := newLine("World-wide confirmed cases", subtitle(samples))
	line.SetGlobalOptions(charts.WithYAxisOpts(opts.YAxis{Name: "cases", Type: "log"}))

	labels := make([]string, len(samples))
	observed := make([]opts.LineData, len(samples))
	for i, s := range samples {
		labels[i] = s.Date
		observed[i] = opts.LineData{Value: s.Confirmed}
	}
	line.SetXAxis(labels)
	line.AddSeries("confirmed", observed,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: metricColors[model.Confirmed]}),
	)

	m, err := trend.Fit(samples)
	if err != nil {
		return line
	}
	fitted := make([]opts.LineData, len(samples))
	for i, v := range m.Curve(samples) {
		fitted[i] = opts.LineData{Value: v}
	}
	line.AddSeries(fmt.Sprintf("y = %.2fe^%.4fx", m.Alpha, m.B), fitted,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Width: 2}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#fac858"}),
	)
	return line
}

// Region builds a line chart of a region's three metrics over every date it
// was reported.
func Region(engine *query.Engine, name string) (*charts.Line, bool) {
	dates, records, ok := engine.Series(name)
	if !ok {
		return nil, false
	}
	sub := ""
	if len(dates) > 0 {
		sub = fmt.Sprintf("%s to %s", dates[0], dates[len(dates)-1])
	}
	line := newLine(name, sub)
	line.SetGlobalOptions(charts.WithYAxisOpts(opts.YAxis{Name: "cases"}))
	line.SetXAxis(dates)
	for _, metric := range model.Metrics {
		data := make([]opts.LineData, len(records))
		for i, rec := range records {
			data[i] = opts.LineData{Value: rec.Value(metric)}
		}
		line.AddSeries(metric.String(), data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: metricColors[metric]}),
		)
	}
	return line, true
}

// Write renders lines as one HTML page.
func Write(w io.Writer, lines ...*charts.Line) error {
	page := components.NewPage()
	page.PageTitle = pageTitle
	for _, line := range lines {
		page.AddCharts(line)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart page: %w", err)
	}
	return nil
}

func newLine(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "8%"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}, opts.DataZoom{Type: "inside"}),
		charts.WithGridOpts(opts.Grid{Top: "20%", Bottom: "15%", ContainLabel: opts.Bool(true)}),
	)
	return line
}

func subtitle(samples []model.Sample) string {
	if len(samples) == 0 {
		return "no reports"
	}
	return fmt.Sprintf("%d daily reports, %s to %s", len(samples), samples[0].Date, samples[len(samples)-1].Date)
}
