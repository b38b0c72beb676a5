// Package explore provides the Bubble Tea interactive explorer.
package explore

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/epitrack/internal/model"
	"github.com/verte-zerg/epitrack/internal/query"
	"github.com/verte-zerg/epitrack/internal/report"
	"github.com/verte-zerg/epitrack/internal/shell"
)

const (
	tabConsole = iota
	tabRanking
	tabTrend
)

const nameColumnWidth = 28

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C8553A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C8553A")).Bold(true)
	echoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Model implements the Bubble Tea explorer.
type Model struct {
	shell   *shell.Shell
	engine  *query.Engine
	samples []model.Sample

	tabs      []string
	activeTab int

	input      textinput.Model
	transcript strings.Builder
	console    viewport.Model
	trend      viewport.Model
	ranking    table.Model

	errMsg string
	width  int
	height int
}

// NewModel constructs an explorer over sh. intro is shown at the top of the
// console transcript.
func NewModel(sh *shell.Shell, engine *query.Engine, samples []model.Sample, intro string) *Model {
	m := &Model{
		shell:   sh,
		engine:  engine,
		samples: samples,
		tabs:    []string{"Console", "Ranking", "Trend"},
		console: viewport.New(0, 0),
		trend:   viewport.New(0, 0),
	}
	m.transcript.WriteString(intro)
	m.input = textinput.New()
	m.input.Prompt = promptStyle.Render(sh.Prompt())
	m.input.Focus()
	m.ranking = buildRanking(engine)
	m.console.SetContent(m.transcript.String())
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyTab:
			m.moveTab(1)
			return m, tea.ClearScreen
		case tea.KeyShiftTab:
			m.moveTab(-1)
			return m, tea.ClearScreen
		}
		switch m.activeTab {
		case tabRanking:
			var cmd tea.Cmd
			m.ranking, cmd = m.ranking.Update(msg)
			return m, cmd
		case tabTrend:
			var cmd tea.Cmd
			m.trend, cmd = m.trend.Update(msg)
			return m, cmd
		}
		return m.updateConsole(msg)
	}
	return m, nil
}

func (m *Model) updateConsole(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		line := m.input.Value()
		m.input.SetValue("")
		if m.submit(line) {
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.console, cmd = m.console.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs one line through the shell and appends its output to the
// transcript. It reports whether the session should end.
func (m *Model) submit(line string) bool {
	m.transcript.WriteString(echoStyle.Render(m.shell.Prompt()+line) + "\n")
	var out bytes.Buffer
	quit, err := m.shell.Execute(line, &out)
	m.transcript.Write(out.Bytes())
	m.errMsg = ""
	if err != nil {
		m.errMsg = err.Error()
	}
	m.input.Prompt = promptStyle.Render(m.shell.Prompt())
	m.console.SetContent(m.transcript.String())
	m.console.GotoBottom()
	return quit
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.activeTab == tabConsole {
		footerHeight++
	}
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for _, vp := range []*viewport.Model{&m.console, &m.trend} {
		vp.Width = m.width
		vp.Height = bodyHeight
	}
	m.console.GotoBottom()
	m.ranking.SetWidth(m.width)
	m.ranking.SetHeight(max(bodyHeight-1, 1))
	m.input.Width = max(10, m.width-lipgloss.Width(m.input.Prompt)-1)
	m.trend.SetContent(m.renderTrend(bodyHeight))
}

func (m *Model) moveTab(delta int) {
	n := len(m.tabs)
	m.activeTab = (m.activeTab + delta + n) % n
	if m.activeTab == tabRanking {
		m.ranking.Focus()
	} else {
		m.ranking.Blur()
	}
	if m.activeTab == tabConsole {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.updateLayout()
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	status := fmt.Sprintf("Current date: %s  Countries: %d  Reports: %d",
		m.engine.CurrentDate(), m.engine.RegionCount(), len(m.samples))
	return tabs + "\n" + statusStyle.Render(truncateLine(status, m.width))
}

func (m *Model) renderBody() string {
	switch m.activeTab {
	case tabRanking:
		return m.ranking.View()
	case tabTrend:
		return m.trend.View()
	default:
		return m.console.View()
	}
}

func (m *Model) renderFooter() string {
	var help string
	switch m.activeTab {
	case tabRanking:
		help = "Nav: tab/shift+tab  Scroll: up/down/pgup/pgdn  Quit: ctrl+c"
	case tabTrend:
		help = "Nav: tab/shift+tab  Scroll: up/down  Quit: ctrl+c"
	default:
		help = "Nav: tab/shift+tab  Scroll: pgup/pgdn  Commands: help  Quit: # or ctrl+c"
	}
	lines := []string{}
	if m.activeTab == tabConsole {
		lines = append(lines, m.input.View())
	}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(truncateLine(m.errMsg, m.width)))
	}
	lines = append(lines, statusStyle.Render(truncateLine(help, m.width)))
	return strings.Join(lines, "\n")
}

func (m *Model) renderTrend(height int) string {
	var buf bytes.Buffer
	opts := report.PlotOptions{Width: max(m.width-16, 10), Height: max(height-4, 4), Color: true}
	if err := shell.WorldPlot(&buf, m.samples, opts); err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	if buf.Len() == 0 {
		return "No reports loaded."
	}
	return strings.TrimRight(buf.String(), "\n")
}

func buildRanking(engine *query.Engine) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Country", Width: nameColumnWidth},
		{Title: "Confirmed", Width: 12},
		{Title: "Deaths", Width: 10},
		{Title: "Recovered", Width: 12},
	}
	ranked := engine.TopN(engine.CurrentDate(), engine.RegionCount())
	rows := make([]table.Row, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			runewidth.Truncate(r.Name, nameColumnWidth, "…"),
			report.Count(r.Confirmed),
			report.Count(r.Deaths),
			report.Count(r.Recovered),
		})
	}
	t := table.New(table.WithColumns(columns), table.WithRows(rows))
	t.SetStyles(rankingStyles())
	return t
}

func rankingStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
