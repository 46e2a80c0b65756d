package graph

import (
	"fmt"
	"math"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// Numeric guard rails. Rates outside the band or weights past the magnitude
// cap are treated as corrupted upstream data and the edge is skipped.
const (
	MinRate   = 1e-6
	MaxRate   = 1e6
	MaxWeight = 10.0
)

// TransferBand bounds the post-fee rate of any notionally 1:1 transfer of
// the same token between venues or representations. Rates outside it mean
// the upstream quote is wrong, and the edge must be discarded.
const (
	TransferRateMin = 0.8
	TransferRateMax = 1.1
)

// Node is a token listed on a particular venue.
type Node struct {
	Token string
	Venue string
	Kind  domain.VenueKind
}

// Key renders the node identity as "TOKEN@venue".
func (n Node) Key() string {
	return n.Token + "@" + n.Venue
}

// Edge is one directed conversion between two nodes. Weight is the negative
// natural log of the fee-adjusted rate, so cycle weights sum in log-space.
// Parallel edges between the same node pair are distinguished by Strategy.
type Edge struct {
	From       string
	To         string
	Weight     float64
	Rate       float64
	Fee        float64
	Slippage   float64
	Strategy   string
	Action     domain.HopAction
	Pair       string
	BuyVenue   string
	SellVenue  string
	GasUSD     float64
	Confidence float64
}

type edgeKey struct {
	from, to, strategy string
}

// Graph is a directed multigraph over token-at-venue nodes. One scan owns
// one instance; injectors mutate it sequentially and the detector reads it.
type Graph struct {
	nodes map[string]Node
	edges map[edgeKey]*Edge
	out   map[string][]*Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		edges: make(map[edgeKey]*Edge),
		out:   make(map[string][]*Edge),
	}
}

// AddNode registers a node, keeping the first definition on duplicates.
func (g *Graph) AddNode(n Node) {
	key := n.Key()
	if _, ok := g.nodes[key]; !ok {
		g.nodes[key] = n
	}
}

// Node looks up a node by its "TOKEN@venue" key.
func (g *Graph) Node(key string) (Node, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// NodeKeys returns all node keys in map order.
func (g *Graph) NodeKeys() []string {
	keys := make([]string, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	return keys
}

// AddEdge inserts the edge, replacing any previous edge with the same
// (from, to, strategy) identity. Both endpoints must already exist.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return fmt.Errorf("add edge: unknown node %q", e.From)
	}
	if _, ok := g.nodes[e.To]; !ok {
		return fmt.Errorf("add edge: unknown node %q", e.To)
	}
	key := edgeKey{from: e.From, to: e.To, strategy: e.Strategy}
	if existing, ok := g.edges[key]; ok {
		*existing = e
		return nil
	}
	stored := e
	g.edges[key] = &stored
	g.out[e.From] = append(g.out[e.From], &stored)
	return nil
}

// OutEdges returns the edges leaving the given node key.
func (g *Graph) OutEdges(from string) []*Edge {
	return g.out[from]
}

// EdgesBetween returns all parallel edges from one node to another.
func (g *Graph) EdgesBetween(from, to string) []*Edge {
	var found []*Edge
	for _, e := range g.out[from] {
		if e.To == to {
			found = append(found, e)
		}
	}
	return found
}

// BestEdge returns the lowest-weight edge between two nodes, which is the
// record cycle extraction selects when parallel edges exist.
func (g *Graph) BestEdge(from, to string) (*Edge, bool) {
	var best *Edge
	for _, e := range g.out[from] {
		if e.To != to {
			continue
		}
		if best == nil || e.Weight < best.Weight {
			best = e
		}
	}
	return best, best != nil
}

// Edges returns every edge in the graph.
func (g *Graph) Edges() []*Edge {
	all := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		all = append(all, e)
	}
	return all
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Statistics summarizes the graph for scan diagnostics.
type Statistics struct {
	Nodes   int     `json:"nodes"`
	Edges   int     `json:"edges"`
	Tokens  int     `json:"tokens"`
	Venues  int     `json:"venues"`
	Density float64 `json:"density"`
}

// Statistics computes node, edge, distinct token and venue counts plus edge
// density. Diagnostic only.
func (g *Graph) Statistics() Statistics {
	tokens := make(map[string]bool)
	venues := make(map[string]bool)
	for _, n := range g.nodes {
		tokens[n.Token] = true
		venues[n.Venue] = true
	}
	s := Statistics{
		Nodes:  len(g.nodes),
		Edges:  len(g.edges),
		Tokens: len(tokens),
		Venues: len(venues),
	}
	if s.Nodes > 1 {
		s.Density = float64(s.Edges) / float64(s.Nodes*(s.Nodes-1))
	}
	return s
}

// EdgeWeight computes -ln(rate*(1-fee)) after applying the numeric guards.
// An error means the edge must be skipped, not that the scan failed.
func EdgeWeight(rate, fee float64) (float64, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("rate %v is not finite", rate)
	}
	if rate < MinRate || rate > MaxRate {
		return 0, fmt.Errorf("rate %g outside [%g, %g]", rate, MinRate, MaxRate)
	}
	effective := rate * (1 - fee)
	if effective <= 0 {
		return 0, fmt.Errorf("non-positive effective rate %g", effective)
	}
	w := -math.Log(effective)
	if math.Abs(w) > MaxWeight {
		return 0, fmt.Errorf("weight %g exceeds magnitude cap %g", w, MaxWeight)
	}
	return w, nil
}

// InTransferBand reports whether a post-fee 1:1 transfer rate is sane.
func InTransferBand(rate float64) bool {
	return rate >= TransferRateMin && rate <= TransferRateMax
}
