package network

import (
	"fmt"
	"math/rand/v2"
)

// ValidateParameters checks that a preferential-attachment graph of the given
// size can be grown with avgDegree edges per new node.
func ValidateParameters(size, avgDegree int) error {
	if size < 1 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidParameter, size)
	}
	if avgDegree < 1 {
		return fmt.Errorf("%w: avg_degree %d must be positive", ErrInvalidParameter, avgDegree)
	}
	if avgDegree >= size {
		return fmt.Errorf("%w: avg_degree %d must be less than size %d", ErrInvalidParameter, avgDegree, size)
	}
	return nil
}

// Generate grows a Barabási–Albert preferential-attachment graph.
//
// Growth starts from a star on nodes 0..m with node 0 as the hub. Every later
// node attaches to m distinct existing nodes, each drawn with probability
// proportional to its current degree. Nodes created after the initial star
// therefore have degree >= m; the star's leaves may have less.
//
// No graph is returned when parameters are invalid.
func Generate(size, avgDegree int, rng *rand.Rand) (*Graph, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrInvalidParameter)
	}
	if err := ValidateParameters(size, avgDegree); err != nil {
		return nil, err
	}

	m := avgDegree
	b := newBuilder(size)

	// Each node appears once per incident edge, so a uniform draw from this
	// list is a degree-proportional draw over nodes.
	repeated := make([]NodeID, 0, 2*m*(size-m))
	for leaf := 1; leaf <= m; leaf++ {
		if err := b.addEdge(0, NodeID(leaf)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < m; i++ {
		repeated = append(repeated, 0)
	}
	for leaf := 1; leaf <= m; leaf++ {
		repeated = append(repeated, NodeID(leaf))
	}

	targets := make([]NodeID, 0, m)
	chosen := make(map[NodeID]struct{}, m)
	for source := m + 1; source < size; source++ {
		targets = targets[:0]
		clear(chosen)
		for len(targets) < m {
			t := repeated[rng.IntN(len(repeated))]
			if _, dup := chosen[t]; dup {
				continue
			}
			chosen[t] = struct{}{}
			targets = append(targets, t)
		}

		for _, t := range targets {
			if err := b.addEdge(NodeID(source), t); err != nil {
				return nil, err
			}
		}
		repeated = append(repeated, targets...)
		for i := 0; i < m; i++ {
			repeated = append(repeated, NodeID(source))
		}
	}

	return b.freeze(), nil
}
