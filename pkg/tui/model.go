package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"github.com/dd0wney/opinion-diffusion/pkg/network"
	"github.com/dd0wney/opinion-diffusion/pkg/report"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

// StepMsg carries a committed step
type StepMsg diffusion.StepSummary

// StopMsg carries the final result
type StopMsg struct {
	Result *diffusion.Result
}

// ErrMsg reports a failed run
type ErrMsg struct {
	Err error
}

type keyMap struct {
	Quit key.Binding
	Up   key.Binding
	Down key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Quit}}
}

// Model renders a running simulation: a progress bar while steps arrive,
// then the per-agent table and the opinion histogram once the run stops.
type Model struct {
	graph    *network.Graph
	budget   int
	bins     int
	last     diffusion.StepSummary
	result   *diffusion.Result
	err      error
	progress progress.Model
	results  table.Model
	hist     string
	help     help.Model
	keys     keyMap
	width    int
}

// NewModel creates a model for a run over g with the given step budget
func NewModel(g *network.Graph, budget, bins int) Model {
	columns := []table.Column{
		{Title: "Agent", Width: 12},
		{Title: "Degree", Width: 8},
		{Title: "Seeded", Width: 8},
		{Title: "Final opinion", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		graph:    g,
		budget:   budget,
		bins:     bins,
		progress: progress.New(progress.WithDefaultGradient()),
		results:  t,
		help:     help.New(),
		keys:     keys,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(msg.Width-8, 10)
		m.help.Width = msg.Width
		return m, nil

	case StepMsg:
		m.last = diffusion.StepSummary(msg)
		return m, nil

	case StopMsg:
		m.result = msg.Result
		m.last = msg.Result.Final
		if err := m.fillResults(); err != nil {
			m.err = err
		}
		return m, nil

	case ErrMsg:
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m *Model) fillResults() error {
	rows, err := report.Rows(m.result, m.graph)
	if err != nil {
		return err
	}

	tableRows := make([]table.Row, len(rows))
	for i, r := range rows {
		seeded := ""
		if r.Seeded {
			seeded = "yes"
		}
		tableRows[i] = table.Row{r.Name, strconv.Itoa(r.Degree), seeded, strconv.FormatFloat(r.Opinion, 'f', 6, 64)}
	}
	m.results.SetRows(tableRows)

	h, err := report.NewHistogram(m.result.FinalOpinions, m.bins)
	if err != nil {
		return err
	}
	var b strings.Builder
	if err := report.RenderHistogram(&b, h, 30); err != nil {
		return err
	}
	m.hist = b.String()
	return nil
}

// Done reports whether the run has stopped
func (m Model) Done() bool {
	return m.result != nil
}

func (m Model) fraction() float64 {
	if m.budget <= 0 {
		return 0
	}
	if m.result != nil {
		return 1
	}
	return min(float64(m.last.Step)/float64(m.budget), 1)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Opinion diffusion"))
	b.WriteString("\n")

	stats := fmt.Sprintf("Step %d / %d\nInfluenced %d\nMean %.6f  Min %.6f  Max %.6f",
		m.last.Step, m.budget, m.last.Influenced, m.last.Mean, m.last.Min, m.last.Max)

	body := []string{m.progress.ViewAs(m.fraction()), statsBoxStyle.Render(stats)}

	switch {
	case m.err != nil:
		body = append(body, errorStyle.Render("Error: "+m.err.Error()))
	case m.result != nil:
		body = append(body,
			successStyle.Render(fmt.Sprintf("Stopped by %s after %d steps", m.result.StopReason, m.result.Steps)),
			m.results.View(),
			m.hist,
		)
	}

	b.WriteString(contentStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body...)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}
