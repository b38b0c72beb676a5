package explore

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/epitrack/internal/aggregate"
	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/query"
	"github.com/verte-zerg/epitrack/internal/record"
	"github.com/verte-zerg/epitrack/internal/shell"
)

func newModel(t *testing.T) *Model {
	t.Helper()
	body := "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered\n" +
		",Italy,t,1694,34,83\n,Mainland China,t,79968,2873,42717\n"
	st, samples, err := aggregate.Ingest(record.NewParser(nil), nil, []aggregate.Snapshot{{
		Date: "03-01-2020",
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}})
	require.NoError(t, err)
	engine := query.New(st)
	sh := shell.New(engine, samples, model.AnalysisConfig{TopN: 10, TimelineWindow: 14})
	m := NewModel(sh, engine, samples, ">> Current data on 2 countries\n")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func typeLine(m *Model, line string) tea.Cmd {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(line)})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestSubmitAppendsOutput(t *testing.T) {
	m := newModel(t)
	typeLine(m, "totals")
	out := m.transcript.String()
	assert.Contains(t, out, ">> Current data on 2 countries")
	assert.Contains(t, out, "totals")
	assert.Contains(t, out, "As of 03-01-2020, the world-wide totals are:")
	assert.Empty(t, m.input.Value())
}

func TestRegionSwitchesPrompt(t *testing.T) {
	m := newModel(t)
	typeLine(m, "Italy")
	assert.Contains(t, m.input.Prompt, "timeline")
	typeLine(m, "c")
	assert.Contains(t, m.transcript.String(), "03-01-2020 (day 1): 1,694")
	assert.Contains(t, m.input.Prompt, "Enter command")
}

func TestQuitCommandEndsProgram(t *testing.T) {
	m := newModel(t)
	cmd := typeLine(m, "#")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTabsCycle(t *testing.T) {
	m := newModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabRanking, m.activeTab)
	assert.Contains(t, m.View(), "China")

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabTrend, m.activeTab)
	assert.Contains(t, m.View(), "World-wide confirmed cases")

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, tabConsole, m.activeTab)
}

func TestViewFitsWindow(t *testing.T) {
	m := newModel(t)
	lines := strings.Split(m.View(), "\n")
	assert.Len(t, lines, 30)
}

func TestTruncateLine(t *testing.T) {
	assert.Equal(t, "abc", truncateLine("abc", 5))
	assert.Equal(t, "ab...", truncateLine("abcdefgh", 5))
}
