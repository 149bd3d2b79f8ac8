package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dd0wney/opinion-diffusion/pkg/agents"
	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"github.com/dd0wney/opinion-diffusion/pkg/network"
)

var (
	ErrNoResult  = errors.New("no result to report")
	ErrNoValues  = errors.New("no values to summarize")
	ErrGraphSize = errors.New("graph does not match result")
	ErrNonFinite = errors.New("cannot bin non-finite values")
)

// Row is one agent's line in the final results table
type Row struct {
	Name    string
	Agent   agents.AgentID
	Node    network.NodeID
	Degree  int
	Seeded  bool
	Opinion float64
}

// Rows builds one row per agent in agent index order. Agent i is bound to the
// i-th node in ascending node order.
func Rows(result *diffusion.Result, g *network.Graph) ([]Row, error) {
	if result == nil {
		return nil, ErrNoResult
	}
	if g == nil || g.Order() != len(result.FinalOpinions) {
		return nil, ErrGraphSize
	}

	nodes := g.Nodes()
	rows := make([]Row, len(result.FinalOpinions))
	for i, v := range result.FinalOpinions {
		id := agents.AgentID(i)
		degree, err := g.Degree(nodes[i])
		if err != nil {
			return nil, err
		}
		rows[i] = Row{
			Name:    AgentName(id),
			Agent:   id,
			Node:    nodes[i],
			Degree:  degree,
			Seeded:  result.IsSeed(id),
			Opinion: v,
		}
	}
	return rows, nil
}

// AgentName is the display name of an agent
func AgentName(id agents.AgentID) string {
	return "Agent " + strconv.Itoa(int(id))
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	seedStyle   = cellStyle.Foreground(lipgloss.Color("#FF00FF"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// RenderTable writes rows as a bordered table
func RenderTable(w io.Writer, rows []Row) error {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		seeded := ""
		if r.Seeded {
			seeded = "yes"
		}
		cells[i] = []string{
			r.Name,
			strconv.FormatInt(int64(r.Node), 10),
			strconv.Itoa(r.Degree),
			seeded,
			strconv.FormatFloat(r.Opinion, 'f', 6, 64),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("Agent", "Node", "Degree", "Seeded", "Final opinion").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case rows[row].Seeded:
				return seedStyle
			default:
				return cellStyle
			}
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
