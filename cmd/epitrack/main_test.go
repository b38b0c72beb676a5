package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/epitrack/internal/config"
)

const reportHeader = "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered\n"

type fixture struct {
	reports string
	facts   string
	config  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		reports: filepath.Join(root, "daily_reports"),
		facts:   filepath.Join(root, "worldfacts"),
		config:  filepath.Join(root, "config.toml"),
	}
	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	write(filepath.Join(f.reports, "03-01-2020.csv"), reportHeader+
		"Hubei,Mainland China,t,66907,2761,31536\nGuangdong,Mainland China,t,1349,7,1016\n,Italy,t,1694,34,83\n")
	write(filepath.Join(f.reports, "03-02-2020.csv"), reportHeader+
		",China,t,80174,2915,44765\n,Italy,t,2036,52,149\n,\"Korea, South\",t,4335,28,30\n")
	write(filepath.Join(f.facts, "populations.csv"), "Rank,Country,Population\n1,China,1439323776\n23,Italy,60461826\n")
	write(filepath.Join(f.facts, "life_expectancies.csv"), "Rank,Country,Life Expectancy\n6,Italy,83.51\n")
	return f
}

func (f fixture) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--reports", f.reports, "--facts", f.facts, "--config", f.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTotalsCmd(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "", "totals")
	require.NoError(t, err)
	assert.Contains(t, out, "As of 03-02-2020, the world-wide totals are:")
	assert.Contains(t, out, " confirmed: 86,545\n")
}

func TestTopCmd(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "", "top", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "China")
	assert.Contains(t, out, "Korea South")
	assert.NotContains(t, out, "Italy")

	_, err = f.run(t, "", "top", "zero")
	assert.Error(t, err)
}

func TestRegionCmdWithTimeline(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "", "region", "Italy", "--timeline", "d")
	require.NoError(t, err)
	assert.Contains(t, out, "Population: 60,461,826")
	assert.Contains(t, out, "Life Expectancy: 83.51 years")
	assert.Contains(t, out, "Deaths:\n03-01-2020 (day 1): 34\n03-02-2020 (day 2): 52\n")

	_, err = f.run(t, "", "region", "Atlantis")
	assert.Error(t, err)
	_, err = f.run(t, "", "region", "Italy", "--timeline", "x")
	assert.Error(t, err)
}

func TestModelCmd(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "", "model")
	require.NoError(t, err)
	assert.Contains(t, out, "Data is modeled by: y = ")
	assert.Contains(t, out, "Happy Quarantining!")
}

func TestLineLoop(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "totals\nItaly\nc\nnowhere\n#\n", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, ">> Processed 2 daily reports\n>> Processed 2 files of world facts\n>> Current data on 3 countries\n")
	assert.Contains(t, out, "Enter command (help for list, # to quit)> ")
	assert.Contains(t, out, "Do you want to see a timeline? Enter c/d/r/n> Confirmed:\n")
	assert.Contains(t, out, "country or command not found...")
}

func TestLineLoopStopsAtEOF(t *testing.T) {
	f := newFixture(t)
	out, err := f.run(t, "help\n", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "Available commands:")
}

func TestMissingLifeExpectancyIsFatal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.facts, "life_expectancies.csv")))
	_, err := f.run(t, "", "totals")
	assert.Error(t, err)
}

func TestConfigFileApplies(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.config, []byte("[analysis]\ntop-n = 1\n\n[aliases]\n\"Korea South\" = \"South Korea\"\n"), 0o644))
	out, err := f.run(t, "", "top")
	require.NoError(t, err)
	assert.Contains(t, out, "China")
	assert.NotContains(t, out, "Korea")

	out, err = f.run(t, "", "top", "--top-n", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "South Korea")
}

func TestChartCmd(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "out", "chart.html")
	out, err := f.run(t, "", "chart", "--out", path, "--region", "Italy")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "World-wide confirmed cases")
}

func TestExportCmd(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "epitrack.db")
	out, err := f.run(t, "", "export", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(3 countries, 2 daily reports)")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	lines := strings.Split(defaultConfigTemplate(), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			lines[i] = strings.TrimPrefix(line, "# ")
		}
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Data.ReportsDir)
	assert.Equal(t, defaultReportsDir, *cfg.Data.ReportsDir)
	require.NotNil(t, cfg.Analysis.TopN)
	assert.Equal(t, defaultTopN, *cfg.Analysis.TopN)
	require.NotNil(t, cfg.Analysis.WorldPopulation)
	assert.InDelta(t, 7639708031, *cfg.Analysis.WorldPopulation, 0.5)
	assert.Equal(t, "Iran", cfg.Aliases["Iran (Islamic Republic of)"])
}
