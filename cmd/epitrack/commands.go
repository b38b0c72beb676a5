package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/epitrack/internal/chart"
	"github.com/verte-zerg/epitrack/internal/config"
	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/report"
	"github.com/verte-zerg/epitrack/internal/shell"
	"github.com/verte-zerg/epitrack/internal/store"
	"github.com/verte-zerg/epitrack/internal/timeline"
	"github.com/verte-zerg/epitrack/internal/trend"
)

const defaultChartPath = "epitrack.html"

var (
	regionTimeline string
	modelPlot      bool
	chartOut       string
	chartRegion    string
	exportDB       string
)

func newTotalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "World-wide totals of confirmed, deaths, recovered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			engine := s.data.Engine
			return report.Totals(cmd.OutOrStdout(), engine.Totals(engine.CurrentDate()))
		},
	}
}

func newCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List all countries and their most recent report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			date := s.data.Engine.CurrentDate()
			return report.Countries(cmd.OutOrStdout(), date, s.data.Engine.ListRegions(date))
		},
	}
}

func newTopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "top [N]",
		Short: "Countries with the most confirmed cases",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			n := s.analysis.TopN
			if len(args) == 1 {
				n, err = strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("N must be a positive integer, got %q", args[0])
				}
			}
			engine := s.data.Engine
			return report.Top(cmd.OutOrStdout(), engine.TopN(engine.CurrentDate(), n))
		},
	}
}

func newRegionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "region NAME",
		Short: "Details and timeline for one country",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRegionCmd,
	}
	cmd.Flags().StringVar(&regionTimeline, "timeline", "", "show a timeline: c (confirmed), d (deaths) or r (recovered)")
	return cmd
}

func runRegionCmd(cmd *cobra.Command, args []string) error {
	var metric model.Metric
	if regionTimeline != "" {
		m, ok := model.ParseMetric(regionTimeline)
		if !ok {
			return fmt.Errorf("--timeline must be one of c, d, r")
		}
		metric = m
	}
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	name := strings.Join(args, " ")
	engine := s.data.Engine
	view, ok := engine.Region(name, engine.CurrentDate())
	if !ok {
		return fmt.Errorf("country not found: %s", name)
	}
	out := cmd.OutOrStdout()
	if err := report.Region(out, view); err != nil {
		return err
	}
	if regionTimeline == "" {
		return nil
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	return shell.WriteTimeline(out, engine, view.Name, metric, s.analysis.TimelineWindow)
}

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Exponential model of world-wide confirmed cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			m, err := trend.Fit(s.data.Samples)
			if err != nil {
				return fmt.Errorf("failed to fit model: %w", err)
			}
			out := cmd.OutOrStdout()
			r := report.NewModelReport(m, s.data.Engine.CurrentDate(), s.analysis.WorldPopulation)
			if err := report.Model(out, r); err != nil {
				return err
			}
			if !modelPlot {
				return nil
			}
			return shell.WorldPlot(out, s.data.Samples, report.PlotOptions{Color: report.ColorFor(out)})
		},
	}
	cmd.Flags().BoolVar(&modelPlot, "plot", false, "draw the data and the model in the terminal")
	return cmd
}

func newChartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Write an HTML chart of the data",
		Args:  cobra.NoArgs,
		RunE:  runChartCmd,
	}
	cmd.Flags().StringVarP(&chartOut, "out", "o", defaultChartPath, "output HTML file")
	cmd.Flags().StringVar(&chartRegion, "region", "", "also chart this country")
	return cmd
}

func runChartCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	lines := []*charts.Line{chart.World(s.data.Samples)}
	if chartRegion != "" {
		line, ok := chart.Region(s.data.Engine, chartRegion)
		if !ok {
			return fmt.Errorf("country not found: %s", chartRegion)
		}
		lines = append(lines, line)
	}

	if err := os.MkdirAll(filepath.Dir(chartOut), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(chartOut)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	if err := chart.Write(f, lines...); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	s.logger.Info("wrote chart", "path", chartOut, "charts", len(lines))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", chartOut)
	return err
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the aggregated data to SQLite",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportDB, "db", config.DefaultExportPath(), "SQLite database file")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(exportDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	id, err := st.Export(context.Background(), store.Export{
		Store:   s.data.Store,
		Samples: s.data.Samples,
		Source:  dataReports,
	})
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	s.logger.Info("exported run", "id", id, "db", exportDB)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported run %s (%d countries, %d daily reports) to %s\n",
		id, s.data.Store.Len(), s.data.Reports, exportDB)
	return err
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# epitrack configuration
# Uncomment a value to enable it. CLI flags override config values.

[data]
# reports-dir = %q              # Daily report CSV files
# facts-dir = %q                # World fact tables
# population-file = %q          # Missing file is skipped
# life-expectancy-file = %q     # Required

[analysis]
# top-n = %d                    # Countries in rankings
# timeline-window = %d          # Longer timelines show first and last %d days
# world-population = %d         # Target of the model horizon

[aliases]
# "Iran (Islamic Republic of)" = "Iran"
`,
		defaultReportsDir,
		defaultFactsDir,
		defaultPopulationFile,
		defaultLifeExpectancyFile,
		defaultTopN,
		timeline.DefaultWindow,
		timeline.DefaultWindow/2,
		int64(trend.DefaultWorldPopulation),
	)
}
