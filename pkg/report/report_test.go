package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dd0wney/opinion-diffusion/pkg/agents"
	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"github.com/dd0wney/opinion-diffusion/pkg/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func starResult(t *testing.T) (*diffusion.Result, *network.Graph) {
	t.Helper()

	g, err := network.NewGraph(4, []network.Edge{{From: 0, To: 1}, {From: 0, To: 2}, {From: 0, To: 3}})
	require.NoError(t, err)

	return &diffusion.Result{
		Seeds:         []agents.AgentID{2},
		FinalOpinions: []float64{0.25, 0.125, 0.5, 0.125},
	}, g
}

func TestRows(t *testing.T) {
	result, g := starResult(t)

	rows, err := Rows(result, g)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, Row{Name: "Agent 0", Agent: 0, Node: 0, Degree: 3, Seeded: false, Opinion: 0.25}, rows[0])
	assert.Equal(t, Row{Name: "Agent 2", Agent: 2, Node: 2, Degree: 1, Seeded: true, Opinion: 0.5}, rows[2])
}

func TestRows_Mismatch(t *testing.T) {
	result, _ := starResult(t)
	other, err := network.NewGraph(2, nil)
	require.NoError(t, err)

	_, err = Rows(result, other)
	assert.ErrorIs(t, err, ErrGraphSize)

	_, err = Rows(nil, other)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestRenderTable(t *testing.T) {
	result, g := starResult(t)
	rows, err := Rows(result, g)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, rows))

	out := buf.String()
	for _, want := range []string{"Agent", "Final opinion", "Agent 3", "0.500000", "yes"} {
		assert.Contains(t, out, want)
	}
}

func TestNewHistogram(t *testing.T) {
	values := []float64{0, 0.1, 0.2, 0.25, 0.5, 0.75, 0.9, 1}

	h, err := NewHistogram(values, 4)
	require.NoError(t, err)

	assert.Equal(t, 0.0, h.Min)
	assert.Equal(t, 1.0, h.Max)
	// [0,.25) [.25,.5) [.5,.75) [.75,1]
	assert.Equal(t, []int{3, 1, 1, 3}, h.Counts)
	assert.Equal(t, len(values), h.Total())

	lo, hi := h.Edges(3)
	assert.Equal(t, 0.75, lo)
	assert.Equal(t, 1.0, hi)
}

func TestNewHistogram_EdgeCases(t *testing.T) {
	h, err := NewHistogram([]float64{0.3, 0.3, 0.3}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, h.Counts)

	h, err = NewHistogram([]float64{0, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBins, h.Bins())
	assert.Equal(t, 1, h.Counts[0])
	assert.Equal(t, 1, h.Counts[DefaultBins-1])

	_, err = NewHistogram(nil, 10)
	assert.ErrorIs(t, err, ErrNoValues)
}

func TestRenderHistogram(t *testing.T) {
	h := Histogram{Min: 0, Max: 1, Counts: []int{4, 2}}

	var buf bytes.Buffer
	require.NoError(t, RenderHistogram(&buf, h, 8))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[0.0000, 0.5000) ████████ 4", lines[0])
	assert.Equal(t, "[0.5000, 1.0000] ████ 2", lines[1])
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{1, 0, 1, 0})
	require.NoError(t, err)

	assert.Equal(t, Summary{Count: 4, Mean: 0.5, Min: 0, Max: 1, StdDev: 0.5, Influenced: 2}, s)

	_, err = Summarize(nil)
	assert.ErrorIs(t, err, ErrNoValues)
}
