package arbitrage

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
	"github.com/HonzaHezina/AIarbi/internal/strategy"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDetector() *Detector {
	return NewDetector(DetectorConfig{Logger: testLogger()})
}

// threeNodeGraph builds A@binance -> B@uniswap_v3 -> C@kraken -> A@binance
// where the post-fee rate product is the given factor.
func threeNodeGraph(t *testing.T, product float64) *graph.Graph {
	t.Helper()
	g := graph.New()
	nodes := []graph.Node{
		{Token: "A", Venue: "binance", Kind: domain.VenueCentralized},
		{Token: "B", Venue: "uniswap_v3", Kind: domain.VenueDecentralized},
		{Token: "C", Venue: "kraken", Kind: domain.VenueCentralized},
	}
	for _, n := range nodes {
		g.AddNode(n)
	}
	r := math.Pow(product, 1.0/3.0)
	hops := [][2]string{
		{"A@binance", "B@uniswap_v3"},
		{"B@uniswap_v3", "C@kraken"},
		{"C@kraken", "A@binance"},
	}
	for _, h := range hops {
		err := g.AddEdge(graph.Edge{
			From:     h[0],
			To:       h[1],
			Weight:   -math.Log(r),
			Rate:     r,
			Strategy: "market",
			Action:   domain.ActionSellBase,
			Pair:     "A/B",
		})
		if err != nil {
			t.Fatalf("add edge: %v", err)
		}
	}
	return g
}

func TestDetectAllCyclesFindsProfitableCycle(t *testing.T) {
	g := threeNodeGraph(t, 1.05)
	cycles := newTestDetector().DetectAllCycles(g)
	if len(cycles) == 0 {
		t.Fatal("expected at least one cycle for 5% product")
	}
	c := cycles[0]
	if c.ProfitEstimate <= 0.1 {
		t.Errorf("profit estimate = %v%%, want > 0.1%%", c.ProfitEstimate)
	}
	if math.Abs(c.ProfitEstimate-5.0) > 0.01 {
		t.Errorf("profit estimate = %v%%, want about 5%%", c.ProfitEstimate)
	}
	if c.Hops != 3 {
		t.Errorf("hops = %d, want 3", c.Hops)
	}
	if len(c.EdgeData) != 3 {
		t.Errorf("edge data entries = %d, want 3", len(c.EdgeData))
	}
}

func TestDetectAllCyclesIgnoresBreakEven(t *testing.T) {
	g := threeNodeGraph(t, 1.0)
	if cycles := newTestDetector().DetectAllCycles(g); len(cycles) != 0 {
		t.Errorf("break-even product should yield no cycles, got %d", len(cycles))
	}
}

func TestDetectAllCyclesIgnoresBelowFloor(t *testing.T) {
	// 0.05% profit sits under the 0.1% floor.
	g := threeNodeGraph(t, 1.0005)
	if cycles := newTestDetector().DetectAllCycles(g); len(cycles) != 0 {
		t.Errorf("sub-floor cycle should be dropped, got %d", len(cycles))
	}
}

func TestDetectAllCyclesEmptyAndTrivialGraphs(t *testing.T) {
	d := newTestDetector()
	if got := d.DetectAllCycles(graph.New()); got != nil {
		t.Errorf("empty graph should return nil, got %v", got)
	}
	g := graph.New()
	g.AddNode(graph.Node{Token: "A", Venue: "binance", Kind: domain.VenueCentralized})
	if got := d.DetectAllCycles(g); got != nil {
		t.Errorf("single-node graph should return nil, got %v", got)
	}
}

func TestDetectAllCyclesDeduplicatesRotations(t *testing.T) {
	g := threeNodeGraph(t, 1.05)
	cycles := newTestDetector().DetectAllCycles(g)
	if len(cycles) != 1 {
		t.Fatalf("rotations of one cycle should collapse to one result, got %d", len(cycles))
	}
}

func TestDetectAllCyclesRespectsCap(t *testing.T) {
	d := NewDetector(DetectorConfig{MaxCycles: 1, Logger: testLogger()})
	// Two disjoint profitable 2-cycles.
	g := graph.New()
	for _, n := range []graph.Node{
		{Token: "X", Venue: "a", Kind: domain.VenueCentralized},
		{Token: "X", Venue: "b", Kind: domain.VenueCentralized},
		{Token: "Y", Venue: "a", Kind: domain.VenueCentralized},
		{Token: "Y", Venue: "b", Kind: domain.VenueCentralized},
	} {
		g.AddNode(n)
	}
	for _, pair := range [][2]string{{"X@a", "X@b"}, {"Y@a", "Y@b"}} {
		r := 1.02
		for _, dir := range [][2]string{{pair[0], pair[1]}, {pair[1], pair[0]}} {
			if err := g.AddEdge(graph.Edge{
				From: dir[0], To: dir[1],
				Weight: -math.Log(r), Rate: r,
				Strategy: "cross_exchange", Action: domain.ActionSellBase,
			}); err != nil {
				t.Fatalf("add edge: %v", err)
			}
		}
	}
	if cycles := d.DetectAllCycles(g); len(cycles) > 1 {
		t.Errorf("cap of 1 exceeded: %d cycles", len(cycles))
	}
}

func TestExtractCycleAndClassification(t *testing.T) {
	g := threeNodeGraph(t, 1.05)
	pred := map[string]string{
		"B@uniswap_v3": "A@binance",
		"C@kraken":     "B@uniswap_v3",
		"A@binance":    "C@kraken",
	}
	c, ok := newTestDetector().ExtractCycle(g, pred, "A@binance")
	if !ok {
		t.Fatal("expected a cycle from a well-formed predecessor map")
	}
	if c.Hops != 3 {
		t.Errorf("hops = %d, want 3", c.Hops)
	}
	// Mixed CEX and DEX venues with no dominant injector classify as dex_cex.
	if c.StrategyType != ClassDEXCEX {
		t.Errorf("strategy type = %q, want %q", c.StrategyType, ClassDEXCEX)
	}
	if c.Path[0] != c.Path[len(c.Path)-1] {
		t.Error("path must close on its first node")
	}
}

func TestExtractCycleCorruptedChain(t *testing.T) {
	g := threeNodeGraph(t, 1.05)
	// Chain that dead-ends without repeating.
	pred := map[string]string{
		"A@binance":    "B@uniswap_v3",
		"B@uniswap_v3": "",
	}
	if _, ok := newTestDetector().ExtractCycle(g, pred, "A@binance"); ok {
		t.Error("dead-end predecessor chain should not yield a cycle")
	}
}

func TestExtractCycleDominantStrategy(t *testing.T) {
	g := graph.New()
	for _, n := range []graph.Node{
		{Token: "BTC", Venue: "binance", Kind: domain.VenueCentralized},
		{Token: "BTC", Venue: "kraken", Kind: domain.VenueCentralized},
	} {
		g.AddNode(n)
	}
	r := 1.02
	for _, dir := range [][2]string{{"BTC@binance", "BTC@kraken"}, {"BTC@kraken", "BTC@binance"}} {
		if err := g.AddEdge(graph.Edge{
			From: dir[0], To: dir[1],
			Weight: -math.Log(r), Rate: r,
			Strategy: strategy.StrategyCrossExchange, Action: domain.ActionSellBase,
		}); err != nil {
			t.Fatalf("add edge: %v", err)
		}
	}
	cycles := newTestDetector().DetectAllCycles(g)
	if len(cycles) == 0 {
		t.Fatal("expected a cycle")
	}
	if cycles[0].StrategyType != strategy.StrategyCrossExchange {
		t.Errorf("strategy type = %q, want %q", cycles[0].StrategyType, strategy.StrategyCrossExchange)
	}
}

func TestValidityPredicatesAreIndependent(t *testing.T) {
	d := newTestDetector()

	lowProfit := domain.Cycle{ProfitEstimate: 0.05, Hops: 2}
	if d.MeetsProfitFloor(lowProfit) {
		t.Error("0.05% should not clear the 0.1% floor")
	}
	if !d.WithinHopLimit(lowProfit) {
		t.Error("2 hops should be within the limit")
	}
	if d.IsValidCycle(lowProfit) {
		t.Error("low-profit cycle must be invalid")
	}

	tooLong := domain.Cycle{ProfitEstimate: 10.0, Hops: 10}
	if !d.MeetsProfitFloor(tooLong) {
		t.Error("10% clears the floor regardless of length")
	}
	if d.WithinHopLimit(tooLong) {
		t.Error("10 hops exceeds the limit regardless of profit")
	}
	if d.IsValidCycle(tooLong) {
		t.Error("over-long cycle must be invalid")
	}

	good := domain.Cycle{ProfitEstimate: 1.0, Hops: 3}
	if !d.IsValidCycle(good) {
		t.Error("profitable short cycle must be valid")
	}
}

func TestDetectorLowestWeightParallelEdge(t *testing.T) {
	g := graph.New()
	for _, n := range []graph.Node{
		{Token: "ETH", Venue: "binance", Kind: domain.VenueCentralized},
		{Token: "ETH", Venue: "kraken", Kind: domain.VenueCentralized},
	} {
		g.AddNode(n)
	}
	for _, e := range []graph.Edge{
		{From: "ETH@binance", To: "ETH@kraken", Weight: -math.Log(1.03), Rate: 1.03, Strategy: "cross_exchange", Action: domain.ActionSellBase},
		{From: "ETH@binance", To: "ETH@kraken", Weight: -math.Log(1.01), Rate: 1.01, Strategy: "transfer", Action: domain.ActionSellBase},
		{From: "ETH@kraken", To: "ETH@binance", Weight: -math.Log(0.999), Rate: 0.999, Strategy: "transfer", Action: domain.ActionSellBase},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("add edge: %v", err)
		}
	}
	cycles := newTestDetector().DetectAllCycles(g)
	if len(cycles) == 0 {
		t.Fatal("expected a cycle")
	}
	ed, ok := cycles[0].EdgeData["ETH@binance->ETH@kraken"]
	if !ok {
		t.Fatal("missing edge data for forward hop")
	}
	if ed.Rate != 1.03 {
		t.Errorf("edge data should carry the lowest-weight parallel edge, rate = %v", ed.Rate)
	}
}
