package network

import (
	"gonum.org/v1/gonum/graph/topo"
)

// Stats summarises the topology of a graph
type Stats struct {
	Order             int         `json:"order"`
	Edges             int         `json:"edges"`
	MinDegree         int         `json:"min_degree"`
	MaxDegree         int         `json:"max_degree"`
	MeanDegree        float64     `json:"mean_degree"`
	DegreeHistogram   map[int]int `json:"degree_histogram"`
	Isolated          int         `json:"isolated"`
	Components        int         `json:"components"`
	Triangles         int         `json:"triangles"`
	AverageClustering float64     `json:"average_clustering"`
}

// ComputeStats collects degree, connectivity and clustering statistics
func ComputeStats(g *Graph) Stats {
	stats := Stats{
		Order:           g.Order(),
		Edges:           g.Size(),
		DegreeHistogram: make(map[int]int),
	}
	if g.Order() == 0 {
		return stats
	}

	stats.MinDegree = len(g.neighbors[0])
	total := 0
	for _, adj := range g.neighbors {
		d := len(adj)
		total += d
		stats.DegreeHistogram[d]++
		if d < stats.MinDegree {
			stats.MinDegree = d
		}
		if d > stats.MaxDegree {
			stats.MaxDegree = d
		}
		if d == 0 {
			stats.Isolated++
		}
	}
	stats.MeanDegree = float64(total) / float64(g.Order())
	stats.Components = len(topo.ConnectedComponents(g.Underlying()))

	perNode, global := CountTriangles(g)
	stats.Triangles = global

	var clustering float64
	for id, adj := range g.neighbors {
		k := len(adj)
		if k < 2 {
			continue
		}
		clustering += 2 * float64(perNode[id]) / float64(k*(k-1))
	}
	stats.AverageClustering = clustering / float64(g.Order())

	return stats
}

// CountTriangles counts triangles in the graph. For each node u it checks
// every pair (v,w) of u's neighbours for adjacency, so each triangle is
// counted once per participating node and global = sum(perNode) / 3.
func CountTriangles(g *Graph) (perNode []int, global int) {
	perNode = make([]int, g.Order())
	total := 0
	for u, adj := range g.neighbors {
		count := 0
		for i := 0; i < len(adj); i++ {
			for j := i + 1; j < len(adj); j++ {
				if g.HasEdge(adj[i], adj[j]) {
					count++
				}
			}
		}
		perNode[u] = count
		total += count
	}
	return perNode, total / 3
}
