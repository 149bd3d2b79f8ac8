package network

import (
	"errors"
	"math"
	"testing"
)

func TestNewGraph_RejectsInvalidEdges(t *testing.T) {
	tests := []struct {
		name  string
		order int
		edges []Edge
	}{
		{"negative order", -1, nil},
		{"self loop", 3, []Edge{{0, 0}}},
		{"duplicate", 3, []Edge{{0, 1}, {1, 0}}},
		{"out of range", 3, []Edge{{0, 3}}},
		{"negative endpoint", 3, []Edge{{-1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGraph(tt.order, tt.edges); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("NewGraph error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestGraph_NeighborsSortedAndSymmetric(t *testing.T) {
	g, err := NewGraph(5, []Edge{{3, 0}, {0, 1}, {4, 0}, {1, 2}})
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	adj, err := g.Neighbors(0)
	if err != nil {
		t.Fatalf("Neighbors failed: %v", err)
	}
	want := []NodeID{1, 3, 4}
	if len(adj) != len(want) {
		t.Fatalf("Neighbors(0) = %v, want %v", adj, want)
	}
	for i := range want {
		if adj[i] != want[i] {
			t.Fatalf("Neighbors(0) = %v, want %v", adj, want)
		}
	}

	for _, e := range g.Edges() {
		if !g.HasEdge(e.From, e.To) || !g.HasEdge(e.To, e.From) {
			t.Errorf("edge %v is not symmetric", e)
		}
	}

	if g.HasEdge(2, 4) {
		t.Error("HasEdge(2, 4) = true for non-adjacent nodes")
	}
	if g.HasEdge(0, 99) {
		t.Error("HasEdge with unknown node should be false")
	}
}

func TestGraph_UnknownNode(t *testing.T) {
	g, _ := NewGraph(2, []Edge{{0, 1}})

	if _, err := g.Neighbors(2); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Neighbors(2) error = %v, want ErrNodeNotFound", err)
	}
	if _, err := g.Degree(-1); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Degree(-1) error = %v, want ErrNodeNotFound", err)
	}
}

func TestGraph_IsolatedNodes(t *testing.T) {
	g, err := NewGraph(4, []Edge{{0, 1}})
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	stats := ComputeStats(g)
	if stats.Isolated != 2 {
		t.Errorf("Isolated = %d, want 2", stats.Isolated)
	}
	if stats.Components != 3 {
		t.Errorf("Components = %d, want 3", stats.Components)
	}
	if stats.MinDegree != 0 || stats.MaxDegree != 1 {
		t.Errorf("degree range = [%d,%d], want [0,1]", stats.MinDegree, stats.MaxDegree)
	}
}

func TestCountTriangles(t *testing.T) {
	// Two triangles sharing edge 1-2, plus a pendant node
	g, err := NewGraph(5, []Edge{{0, 1}, {0, 2}, {1, 2}, {1, 3}, {2, 3}, {3, 4}})
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	perNode, global := CountTriangles(g)
	if global != 2 {
		t.Errorf("global triangles = %d, want 2", global)
	}
	wantPerNode := []int{1, 2, 2, 1, 0}
	for i, want := range wantPerNode {
		if perNode[i] != want {
			t.Errorf("perNode[%d] = %d, want %d", i, perNode[i], want)
		}
	}

	stats := ComputeStats(g)
	// local clustering: 1, 2/3, 2/3, 1/3, 0
	want := (1.0 + 2.0/3 + 2.0/3 + 1.0/3 + 0) / 5
	if math.Abs(stats.AverageClustering-want) > 1e-12 {
		t.Errorf("AverageClustering = %f, want %f", stats.AverageClustering, want)
	}
}

func TestComputeStats_EmptyGraph(t *testing.T) {
	g, err := NewGraph(0, nil)
	if err != nil {
		t.Fatalf("NewGraph failed: %v", err)
	}

	stats := ComputeStats(g)
	if stats.Order != 0 || stats.Edges != 0 || stats.Components != 0 {
		t.Errorf("unexpected stats for empty graph: %+v", stats)
	}
}
