package agents

import (
	"errors"
	"fmt"

	"github.com/dd0wney/opinion-diffusion/pkg/network"
)

var (
	// ErrUnknownNode is returned when a node has no bound agent
	ErrUnknownNode = errors.New("node has no agent")
	// ErrUnknownAgent is returned for agent IDs outside the population
	ErrUnknownAgent = errors.New("agent not found")
)

// AgentID indexes an agent in the population arena
type AgentID int

// Agent is bound to exactly one node for its lifetime
type Agent struct {
	ID   AgentID
	Node network.NodeID
}

// Population holds one agent per node and the opinion vector.
//
// Opinions are double-buffered: Current is the committed vector that every
// reader sees during a step, Next is a scratch vector the update writes into,
// and Commit swaps the two at the step boundary.
type Population struct {
	graph       *network.Graph
	agents      []Agent
	nodeToAgent []AgentID
	current     []float64
	next        []float64
}

// NewPopulation creates one agent per graph node, in ascending node order,
// each holding initialOpinion.
func NewPopulation(g *network.Graph, initialOpinion float64) (*Population, error) {
	if g == nil {
		return nil, errors.New("graph cannot be nil")
	}

	n := g.Order()
	p := &Population{
		graph:       g,
		agents:      make([]Agent, n),
		nodeToAgent: make([]AgentID, n),
		current:     make([]float64, n),
		next:        make([]float64, n),
	}

	for i, node := range g.Nodes() {
		id := AgentID(i)
		p.agents[i] = Agent{ID: id, Node: node}
		p.nodeToAgent[node] = id
		p.current[i] = initialOpinion
	}

	if err := p.checkBijection(); err != nil {
		return nil, err
	}
	return p, nil
}

// checkBijection verifies that agent->node->agent round-trips for every agent
func (p *Population) checkBijection() error {
	for _, a := range p.agents {
		if p.nodeToAgent[a.Node] != a.ID {
			return fmt.Errorf("agent %d and node %d are not mutually bound", a.ID, a.Node)
		}
	}
	return nil
}

// Graph returns the graph the population is bound to
func (p *Population) Graph() *network.Graph {
	return p.graph
}

// Len returns the number of agents
func (p *Population) Len() int {
	return len(p.agents)
}

// Agents returns all agents in index order. The slice must not be modified.
func (p *Population) Agents() []Agent {
	return p.agents
}

// AgentOf returns the agent bound to node
func (p *Population) AgentOf(node network.NodeID) (AgentID, error) {
	if !p.graph.Contains(node) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownNode, node)
	}
	return p.nodeToAgent[node], nil
}

// NodeOf returns the node bound to agent
func (p *Population) NodeOf(agent AgentID) (network.NodeID, error) {
	if agent < 0 || int(agent) >= len(p.agents) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownAgent, agent)
	}
	return p.agents[agent].Node, nil
}

// Opinion returns the committed opinion of agent
func (p *Population) Opinion(agent AgentID) (float64, error) {
	if agent < 0 || int(agent) >= len(p.agents) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownAgent, agent)
	}
	return p.current[agent], nil
}

// SetAgentOpinion overwrites the committed opinion of agent
func (p *Population) SetAgentOpinion(agent AgentID, value float64) error {
	if agent < 0 || int(agent) >= len(p.agents) {
		return fmt.Errorf("%w: %d", ErrUnknownAgent, agent)
	}
	p.current[agent] = value
	return nil
}

// OpinionOf returns the committed opinion of the agent bound to node
func (p *Population) OpinionOf(node network.NodeID) (float64, error) {
	agent, err := p.AgentOf(node)
	if err != nil {
		return 0, err
	}
	return p.current[agent], nil
}

// SetOpinion overwrites the committed opinion of the agent bound to node
func (p *Population) SetOpinion(node network.NodeID, value float64) error {
	agent, err := p.AgentOf(node)
	if err != nil {
		return err
	}
	p.current[agent] = value
	return nil
}

// NeighborsOpinions returns the committed opinions of node's neighbours,
// in ascending neighbour order.
func (p *Population) NeighborsOpinions(node network.NodeID) ([]float64, error) {
	adj, err := p.graph.Neighbors(node)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, node)
	}

	opinions := make([]float64, len(adj))
	for i, n := range adj {
		opinions[i] = p.current[p.nodeToAgent[n]]
	}
	return opinions, nil
}

// Current returns the committed opinion vector in agent order.
// It is shared and must be treated as read-only.
func (p *Population) Current() []float64 {
	return p.current
}

// Next returns the scratch vector for the step being computed.
// Its contents are undefined until written.
func (p *Population) Next() []float64 {
	return p.next
}

// Commit publishes the scratch vector as the new committed vector
func (p *Population) Commit() {
	p.current, p.next = p.next, p.current
}

// Snapshot returns a copy of the committed opinion vector in agent order
func (p *Population) Snapshot() []float64 {
	out := make([]float64, len(p.current))
	copy(out, p.current)
	return out
}

// CountEqual returns the number of agents whose opinion is exactly value
func (p *Population) CountEqual(value float64) int {
	count := 0
	for _, v := range p.current {
		if v == value {
			count++
		}
	}
	return count
}

// NeighborAgents returns, for every agent, the agent IDs of its neighbours.
// The update loop uses it to index opinion vectors without going through nodes.
func (p *Population) NeighborAgents() [][]AgentID {
	adj := p.graph.Adjacency()
	out := make([][]AgentID, len(p.agents))
	for i, a := range p.agents {
		neighbors := adj[a.Node]
		ids := make([]AgentID, len(neighbors))
		for j, n := range neighbors {
			ids[j] = p.nodeToAgent[n]
		}
		out[i] = ids
	}
	return out
}
