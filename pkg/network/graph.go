package network

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// NodeID identifies a node. IDs are dense: 0..Order()-1 in creation order.
type NodeID int64

// Edge is an undirected connection between two nodes
type Edge struct {
	From NodeID
	To   NodeID
}

// Graph is an undirected, static social network.
// It is immutable once built; all accessors are safe for concurrent readers.
type Graph struct {
	g         *simple.UndirectedGraph
	neighbors [][]NodeID
	edges     int
}

// builder accumulates nodes and edges before the graph is frozen
type builder struct {
	g     *simple.UndirectedGraph
	order int
	edges int
}

func newBuilder(order int) *builder {
	g := simple.NewUndirectedGraph()
	for i := 0; i < order; i++ {
		g.AddNode(simple.Node(i))
	}
	return &builder{g: g, order: order}
}

func (b *builder) contains(id NodeID) bool {
	return id >= 0 && int(id) < b.order
}

func (b *builder) addEdge(from, to NodeID) error {
	if !b.contains(from) || !b.contains(to) {
		return fmt.Errorf("%w: edge %d-%d references a node outside [0,%d)", ErrInvalidParameter, from, to, b.order)
	}
	if from == to {
		return fmt.Errorf("%w: self-loop on node %d", ErrInvalidParameter, from)
	}
	if b.g.HasEdgeBetween(int64(from), int64(to)) {
		return fmt.Errorf("%w: duplicate edge %d-%d", ErrInvalidParameter, from, to)
	}
	b.g.SetEdge(b.g.NewEdge(simple.Node(from), simple.Node(to)))
	b.edges++
	return nil
}

// freeze precomputes sorted adjacency so neighbour iteration order, and
// therefore floating-point summation order, never depends on map layout.
func (b *builder) freeze() *Graph {
	neighbors := make([][]NodeID, b.order)
	for i := 0; i < b.order; i++ {
		it := b.g.From(int64(i))
		adj := make([]NodeID, 0, it.Len())
		for it.Next() {
			adj = append(adj, NodeID(it.Node().ID()))
		}
		slices.Sort(adj)
		neighbors[i] = adj
	}

	return &Graph{
		g:         b.g,
		neighbors: neighbors,
		edges:     b.edges,
	}
}

// NewGraph builds a graph with the given number of nodes from an explicit edge list.
// Self-loops, duplicate edges and endpoints outside [0,order) are rejected.
func NewGraph(order int, edges []Edge) (*Graph, error) {
	if order < 0 {
		return nil, fmt.Errorf("%w: order %d must not be negative", ErrInvalidParameter, order)
	}

	b := newBuilder(order)
	for _, e := range edges {
		if err := b.addEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}
	return b.freeze(), nil
}

// Order returns the number of nodes
func (g *Graph) Order() int {
	return len(g.neighbors)
}

// Size returns the number of undirected edges
func (g *Graph) Size() int {
	return g.edges
}

// Contains reports whether id is a node of the graph
func (g *Graph) Contains(id NodeID) bool {
	return id >= 0 && int(id) < len(g.neighbors)
}

// Nodes returns all node IDs in ascending order
func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, len(g.neighbors))
	for i := range ids {
		ids[i] = NodeID(i)
	}
	return ids
}

// Neighbors returns the neighbours of id in ascending order.
// The returned slice is shared and must not be modified.
func (g *Graph) Neighbors(id NodeID) ([]NodeID, error) {
	if !g.Contains(id) {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return g.neighbors[id], nil
}

// Degree returns the number of neighbours of id
func (g *Graph) Degree(id NodeID) (int, error) {
	adj, err := g.Neighbors(id)
	if err != nil {
		return 0, err
	}
	return len(adj), nil
}

// HasEdge reports whether a and b are adjacent
func (g *Graph) HasEdge(a, b NodeID) bool {
	if !g.Contains(a) || !g.Contains(b) {
		return false
	}
	_, found := slices.BinarySearch(g.neighbors[a], b)
	return found
}

// Edges returns every edge once, with From < To, ordered by From then To
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for i, adj := range g.neighbors {
		for _, n := range adj {
			if NodeID(i) < n {
				edges = append(edges, Edge{From: NodeID(i), To: n})
			}
		}
	}
	return edges
}

// Adjacency exposes the frozen adjacency lists indexed by node ID.
// Callers must treat it as read-only.
func (g *Graph) Adjacency() [][]NodeID {
	return g.neighbors
}

// Underlying returns a read-only gonum view of the graph for use with
// gonum's graph algorithms.
func (g *Graph) Underlying() graph.Undirected {
	return g.g
}
