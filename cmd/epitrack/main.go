// Package main provides the CLI entrypoint for epitrack.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/epitrack/internal/config"
	"github.com/verte-zerg/epitrack/internal/explore"
	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/record"
	"github.com/verte-zerg/epitrack/internal/report"
	"github.com/verte-zerg/epitrack/internal/shell"
	"github.com/verte-zerg/epitrack/internal/source"
	"github.com/verte-zerg/epitrack/internal/timeline"
	"github.com/verte-zerg/epitrack/internal/trend"
)

const (
	defaultReportsDir         = "./daily_reports"
	defaultFactsDir           = "./worldfacts"
	defaultPopulationFile     = "populations.csv"
	defaultLifeExpectancyFile = "life_expectancies.csv"
	defaultTopN               = 10
)

var (
	dataReports        string
	dataFacts          string
	dataPopulation     string
	dataLifeExpectancy string
	configPath         string
	verbose            bool

	analysisTop      int
	analysisWindow   int
	analysisWorldPop float64

	forceLineMode bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "epitrack",
		Short:         "Explore daily epidemic reports",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runExploreCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dataReports, "reports", defaultReportsDir, "directory of daily report CSV files")
	flags.StringVar(&dataFacts, "facts", defaultFactsDir, "directory of world fact tables")
	flags.StringVar(&dataPopulation, "population-file", defaultPopulationFile, "population table inside --facts")
	flags.StringVar(&dataLifeExpectancy, "life-expectancy-file", defaultLifeExpectancyFile, "life expectancy table inside --facts")
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log ingestion progress")
	flags.IntVar(&analysisTop, "top-n", defaultTopN, "number of countries in rankings")
	flags.IntVar(&analysisWindow, "timeline-window", timeline.DefaultWindow, "days above which timelines are shortened (0 disables)")
	flags.Float64Var(&analysisWorldPop, "world-population", trend.DefaultWorldPopulation, "population used for the model horizon")

	rootCmd.Flags().BoolVar(&forceLineMode, "plain", false, "use the line prompt even on a terminal")

	rootCmd.AddCommand(newTotalsCmd())
	rootCmd.AddCommand(newCountriesCmd())
	rootCmd.AddCommand(newTopCmd())
	rootCmd.AddCommand(newRegionCmd())
	rootCmd.AddCommand(newModelCmd())
	rootCmd.AddCommand(newChartCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// session is a loaded dataset plus the settings it was loaded with.
type session struct {
	data     *source.Dataset
	analysis model.AnalysisConfig
	logger   *slog.Logger
}

func loadSession(cmd *cobra.Command) (*session, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "reports", &dataReports, fileCfg.Data.ReportsDir)
	applyStringConfig(cmd, "facts", &dataFacts, fileCfg.Data.FactsDir)
	applyStringConfig(cmd, "population-file", &dataPopulation, fileCfg.Data.PopulationFile)
	applyStringConfig(cmd, "life-expectancy-file", &dataLifeExpectancy, fileCfg.Data.LifeExpectancyFile)
	applyIntConfig(cmd, "top-n", &analysisTop, fileCfg.Analysis.TopN)
	applyIntConfig(cmd, "timeline-window", &analysisWindow, fileCfg.Analysis.TimelineWindow)
	applyFloatConfig(cmd, "world-population", &analysisWorldPop, fileCfg.Analysis.WorldPopulation)

	analysis := model.AnalysisConfig{
		TopN:            analysisTop,
		TimelineWindow:  analysisWindow,
		WorldPopulation: analysisWorldPop,
	}
	if err := validateAnalysis(analysis); err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), verbose)
	data, err := source.Load(source.Config{
		ReportsDir:         dataReports,
		FactsDir:           dataFacts,
		PopulationFile:     dataPopulation,
		LifeExpectancyFile: dataLifeExpectancy,
	}, record.NewParser(fileCfg.Aliases), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return &session{data: data, analysis: analysis, logger: logger}, nil
}

func runExploreCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	var intro bytes.Buffer
	if err := report.Intro(&intro); err != nil {
		return err
	}
	if err := report.Banner(&intro, s.data.Reports, s.data.FactFiles, s.data.Engine.RegionCount()); err != nil {
		return err
	}
	sh := shell.New(s.data.Engine, s.data.Samples, s.analysis)

	if !forceLineMode && isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		m := explore.NewModel(sh, s.data.Engine, s.data.Samples, intro.String())
		program := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run explorer: %w", err)
		}
		return nil
	}

	out := cmd.OutOrStdout()
	if _, err := out.Write(intro.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	sh.SetPlotOptions(report.PlotOptions{Color: report.ColorFor(out)})
	return runLineLoop(cmd.InOrStdin(), out, sh)
}

// runLineLoop reads commands line by line until the quit command or EOF.
func runLineLoop(in io.Reader, out io.Writer, sh *shell.Shell) error {
	scanner := bufio.NewScanner(in)
	for {
		if _, err := fmt.Fprint(out, sh.Prompt()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if !scanner.Scan() {
			if _, err := fmt.Fprintln(out); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return scanner.Err()
		}
		quit, err := sh.Execute(scanner.Text(), out)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if quit {
			return nil
		}
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func validateAnalysis(cfg model.AnalysisConfig) error {
	if cfg.TopN <= 0 {
		return fmt.Errorf("--top-n must be > 0")
	}
	if cfg.TimelineWindow < 0 {
		return fmt.Errorf("--timeline-window must be >= 0")
	}
	if cfg.WorldPopulation <= 0 {
		return fmt.Errorf("--world-population must be > 0")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
