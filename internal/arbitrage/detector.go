package arbitrage

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
)

// Cycle strategy classifications when no single injector dominates.
const (
	ClassCEX    = "cex"
	ClassDEX    = "dex"
	ClassDEXCEX = "dex_cex"
)

// Strategy tags that carry no mechanism of their own. They never dominate a
// cycle's classification.
var neutralStrategies = map[string]bool{
	"market":   true,
	"transfer": true,
}

// DetectorConfig bounds the negative-cycle search.
type DetectorConfig struct {
	MinProfitPct   float64 // validity floor for profit_estimate, percent
	MaxCycleLength int     // validity cap on hop count
	MaxCycles      int     // hard cap on returned cycles
	Logger         *slog.Logger
}

// Detector finds profitable cycles with a multi-source Bellman-Ford
// relaxation. Every node starts at distance zero, which is equivalent to a
// virtual source wired to all nodes with zero-weight edges: any negative
// cycle is reachable regardless of where it sits.
type Detector struct {
	minProfitPct   float64
	maxCycleLength int
	maxCycles      int
	logger         *slog.Logger
}

// NewDetector creates a detector.
func NewDetector(cfg DetectorConfig) *Detector {
	if cfg.MinProfitPct == 0 {
		cfg.MinProfitPct = 0.1
	}
	if cfg.MaxCycleLength <= 0 {
		cfg.MaxCycleLength = 6
	}
	if cfg.MaxCycles <= 0 {
		cfg.MaxCycles = 50
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		minProfitPct:   cfg.MinProfitPct,
		maxCycleLength: cfg.MaxCycleLength,
		maxCycles:      cfg.MaxCycles,
		logger:         logger.With(slog.String("component", "cycle_detector")),
	}
}

// DetectAllCycles returns every distinct valid profitable cycle in the
// graph, deduplicated by node set and capped at the configured maximum.
// The result is unranked; ranking belongs to the caller. Invalid cycles are
// dropped silently.
func (d *Detector) DetectAllCycles(g *graph.Graph) []domain.Cycle {
	if g == nil || g.NodeCount() < 2 {
		return nil
	}

	nodes := g.NodeKeys()
	sort.Strings(nodes)
	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Strategy < edges[j].Strategy
	})

	dist := make(map[string]float64, len(nodes))
	pred := make(map[string]string, len(nodes))
	for _, n := range nodes {
		dist[n] = 0
	}

	for round := 0; round < len(nodes)-1; round++ {
		relaxed := false
		for _, e := range edges {
			if dist[e.From]+e.Weight < dist[e.To]-1e-12 {
				dist[e.To] = dist[e.From] + e.Weight
				pred[e.To] = e.From
				relaxed = true
			}
		}
		if !relaxed {
			break
		}
	}

	// One extra pass: anything that still relaxes sits on or downstream of
	// a negative cycle.
	var candidates []string
	seenCandidate := make(map[string]bool)
	for _, e := range edges {
		if dist[e.From]+e.Weight < dist[e.To]-1e-12 {
			pred[e.To] = e.From
			if !seenCandidate[e.To] {
				seenCandidate[e.To] = true
				candidates = append(candidates, e.To)
			}
		}
	}

	var cycles []domain.Cycle
	seenSet := make(map[string]bool)
	for _, start := range candidates {
		cycle, ok := d.ExtractCycle(g, pred, start)
		if !ok {
			continue
		}
		if !d.IsValidCycle(cycle) {
			continue
		}
		key := nodeSetKey(cycle.Path)
		if seenSet[key] {
			continue
		}
		seenSet[key] = true
		cycles = append(cycles, cycle)
		if len(cycles) >= d.maxCycles {
			break
		}
	}
	return cycles
}

// ExtractCycle walks predecessor links from startNode until a node repeats,
// then assembles the cycle between the two occurrences. Traversal is capped
// at |V|+1 steps so a corrupted predecessor chain cannot loop forever. The
// boolean is false when no cycle could be recovered.
func (d *Detector) ExtractCycle(g *graph.Graph, pred map[string]string, startNode string) (domain.Cycle, bool) {
	limit := g.NodeCount() + 1
	seenAt := map[string]int{}
	var walk []string

	node := startNode
	for step := 0; step <= limit; step++ {
		if at, ok := seenAt[node]; ok {
			// walk[at:] is the cycle in reverse edge order.
			reversed := walk[at:]
			path := make([]string, 0, len(reversed)+1)
			for i := len(reversed) - 1; i >= 0; i-- {
				path = append(path, reversed[i])
			}
			path = append(path, path[0])
			return d.assemble(g, path)
		}
		seenAt[node] = len(walk)
		walk = append(walk, node)
		next, ok := pred[node]
		if !ok || next == "" {
			return domain.Cycle{}, false
		}
		node = next
	}
	return domain.Cycle{}, false
}

// assemble selects the lowest-weight edge for every hop and computes the
// cycle's aggregate fields. Hops with no surviving edge invalidate the
// whole cycle.
func (d *Detector) assemble(g *graph.Graph, path []string) (domain.Cycle, bool) {
	if len(path) < 3 {
		return domain.Cycle{}, false
	}
	edgeData := make(map[string]domain.EdgeData, len(path)-1)
	var totalWeight float64
	venueSet := map[string]bool{}
	strategyCount := map[string]int{}
	kinds := map[domain.VenueKind]bool{}

	for i := 0; i+1 < len(path); i++ {
		from, to := path[i], path[i+1]
		e, ok := g.BestEdge(from, to)
		if !ok {
			return domain.Cycle{}, false
		}
		totalWeight += e.Weight
		edgeData[domain.HopKey(from, to)] = domain.EdgeData{
			Rate:     e.Rate,
			Fee:      e.Fee,
			Slippage: e.Slippage,
			Weight:   e.Weight,
			Pair:     e.Pair,
			Action:   e.Action,
			Strategy: e.Strategy,
		}
		switch {
		case e.Confidence > 0:
			strategyCount["statistical"]++
		case !neutralStrategies[e.Strategy]:
			strategyCount[e.Strategy]++
		}
		if n, ok := g.Node(from); ok {
			venueSet[n.Venue] = true
			kinds[n.Kind] = true
		}
	}

	venues := make([]string, 0, len(venueSet))
	for v := range venueSet {
		venues = append(venues, v)
	}
	sort.Strings(venues)

	hops := len(path) - 1
	profit := (math.Exp(-totalWeight) - 1) * 100
	if math.IsNaN(profit) || math.IsInf(profit, 0) {
		return domain.Cycle{}, false
	}
	return domain.Cycle{
		Path:           path,
		EdgeData:       edgeData,
		TotalWeight:    totalWeight,
		ProfitEstimate: profit,
		Hops:           hops,
		Venues:         venues,
		StrategyType:   classify(strategyCount, kinds, hops),
	}, true
}

// classify names the cycle after the injector that supplied the majority of
// its hops, falling back to the venue-kind mix.
func classify(strategyCount map[string]int, kinds map[domain.VenueKind]bool, hops int) string {
	best, bestCount := "", 0
	for s, c := range strategyCount {
		if c > bestCount || (c == bestCount && s < best) {
			best, bestCount = s, c
		}
	}
	if bestCount*2 > hops {
		return best
	}
	switch {
	case kinds[domain.VenueCentralized] && kinds[domain.VenueDecentralized]:
		return ClassDEXCEX
	case kinds[domain.VenueDecentralized]:
		return ClassDEX
	default:
		return ClassCEX
	}
}

// MeetsProfitFloor reports whether the estimate clears the minimum.
func (d *Detector) MeetsProfitFloor(c domain.Cycle) bool {
	return c.ProfitEstimate > d.minProfitPct
}

// WithinHopLimit reports whether the hop count is acceptable.
func (d *Detector) WithinHopLimit(c domain.Cycle) bool {
	return c.Hops <= d.maxCycleLength
}

// IsValidCycle requires both the profit floor and the hop limit.
func (d *Detector) IsValidCycle(c domain.Cycle) bool {
	return d.MeetsProfitFloor(c) && d.WithinHopLimit(c)
}

// nodeSetKey canonicalizes a path so rotations of one cycle collide.
func nodeSetKey(path []string) string {
	uniq := make(map[string]bool, len(path))
	for _, n := range path {
		uniq[n] = true
	}
	keys := make([]string, 0, len(uniq))
	for n := range uniq {
		keys = append(keys, n)
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}
