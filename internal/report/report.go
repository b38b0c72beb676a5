// Package report renders query results as text.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/query"
)

const (
	title      = "** COVID-19 Data Analysis **"
	attributed = "Based on data made available by John Hopkins University"
	sourceURL  = "https://github.com/CSSEGISandData/COVID-19"
)

// Intro writes the program title and data attribution.
func Intro(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n\n%s\n%s\n\n", title, attributed, sourceURL)
	return err
}

// Banner writes the ingestion counters.
func Banner(w io.Writer, reports, factFiles, regions int) error {
	if _, err := fmt.Fprintf(w, ">> Processed %d daily reports\n", reports); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, ">> Processed %d files of world facts\n", factFiles); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, ">> Current data on %d countries\n\n", regions); err != nil {
		return err
	}
	return nil
}

// Help writes the command menu.
func Help(w io.Writer, topN int) error {
	lines := []string{
		"Available commands:",
		"<name>: enter a country name such as US or China",
		"countries: list all countries and most recent report",
		fmt.Sprintf("top%d: list of top %d countries based on most recent # of confirmed cases", topN, topN),
		"totals: world-wide totals of confirmed, deaths, recovered",
		"model: generate exponential model for the number of confirmed cases worldwide",
		"plot: draw world-wide confirmed cases against the model",
		"#: quit",
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Totals writes world-wide totals with death and recovery rates.
func Totals(w io.Writer, t model.Totals) error {
	if _, err := fmt.Fprintf(w, "As of %s, the world-wide totals are:\n", t.Date); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, " confirmed: %s\n", Count(t.Confirmed)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, " deaths: %s (%s)\n", Count(t.Deaths), rate(t.DeathPct, t.RatesDefined)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, " recovered: %s (%s)\n\n", Count(t.Recovered), rate(t.RecoveredPct, t.RatesDefined)); err != nil {
		return err
	}
	return nil
}

// Countries writes every region's counts as a table.
func Countries(w io.Writer, date string, rows []model.RegionCounts) error {
	tbl := newTable()
	tbl.SetTitle("As of " + date)
	tbl.AppendHeader(table.Row{"Country", "Confirmed", "Deaths", "Recovered"})
	var total model.DailyRecord
	for _, r := range rows {
		tbl.AppendRow(table.Row{r.Name, Count(r.Confirmed), Count(r.Deaths), Count(r.Recovered)})
		total.Add(r.DailyRecord)
	}
	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d countries", len(rows)),
		Count(total.Confirmed), Count(total.Deaths), Count(total.Recovered),
	})
	tbl.SetColumnConfigs(rightAligned(2, 3, 4))
	_, err := fmt.Fprintf(w, "%s\n\n", tbl.Render())
	return err
}

// Top writes a ranked list of regions by confirmed cases.
func Top(w io.Writer, rows []model.RegionCounts) error {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Country", "Confirmed"})
	for i, r := range rows {
		tbl.AppendRow(table.Row{strconv.Itoa(i+1) + ".", r.Name, Count(r.Confirmed)})
	}
	tbl.SetColumnConfigs(rightAligned(1, 3))
	_, err := fmt.Fprintf(w, "%s\n\n", tbl.Render())
	return err
}

// Region writes the detail view of one region.
func Region(w io.Writer, v query.RegionView) error {
	if _, err := fmt.Fprintf(w, "Population: %s\n", Count(v.Facts.Population)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Life Expectancy: %s years\n", Decimal(v.Facts.LifeExpectancy)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Latest Data: %s\n", v.LatestDate); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, " confirmed: %s\n deaths: %s\n recovered: %s\n",
		Count(v.Latest.Confirmed), Count(v.Latest.Deaths), Count(v.Latest.Recovered)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "First confirmed case: %s\n", orNone(v.FirstConfirmed)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "First recorded death: %s\n", orNone(v.FirstDeath)); err != nil {
		return err
	}
	return nil
}

// Count formats an integer with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}

// Decimal formats a float with thousands separators and two decimals.
func Decimal(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func rate(pct float64, defined bool) string {
	if !defined {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

func orNone(date string) string {
	if date == "" {
		return "none"
	}
	return date
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	return tbl
}

func rightAligned(cols ...int) []table.ColumnConfig {
	out := make([]table.ColumnConfig, 0, len(cols))
	for _, n := range cols {
		out = append(out, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	return out
}
