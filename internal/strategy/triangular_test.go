package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
)

func triangleSnapshot(ethUSDTBid, ethUSDTAsk float64) *domain.PriceSnapshot {
	return &domain.PriceSnapshot{
		Prices: map[domain.VenueKind]map[string]domain.VenuePrices{
			domain.VenueCentralized: {
				"binance": {
					"BTC/USDT": {Bid: 50000, Ask: 50010},
					"ETH/BTC":  {Bid: 0.0615, Ask: 0.0616},
					"ETH/USDT": {Bid: ethUSDTBid, Ask: ethUSDTAsk},
				},
			},
		},
		Tokens:     []string{"BTC", "ETH", "USDT"},
		Pairs:      []string{"BTC/USDT", "ETH/BTC", "ETH/USDT"},
		CapturedAt: time.Now(),
	}
}

func triangularEdge(t *testing.T, g *graph.Graph, from, to string) *graph.Edge {
	t.Helper()
	for _, e := range g.EdgesBetween(from, to) {
		if e.Strategy == StrategyTriangular {
			return e
		}
	}
	return nil
}

func TestTriangularActionsFollowLiteralPairs(t *testing.T) {
	// ETH is rich against USDT relative to the ETH/BTC cross, so the
	// BTC -> ETH -> USDT -> BTC loop clears its fees.
	snap := triangleSnapshot(3100, 3101)
	g := buildBase(t, snap)

	inj := NewTriangularInjector(TriangularConfig{}, testLogger())
	added, err := inj.AddEdges(context.Background(), g, snap)
	if err != nil {
		t.Fatalf("add edges: %v", err)
	}
	if added == 0 {
		t.Fatal("expected triangle edges")
	}

	// BTC -> ETH only trades as the inverted ETH/BTC listing.
	e := triangularEdge(t, g, "BTC@binance", "ETH@binance")
	if e == nil {
		t.Fatal("missing BTC -> ETH edge")
	}
	if e.Action != domain.ActionBuyBase || e.Pair != "ETH/BTC" {
		t.Errorf("BTC->ETH action/pair = %q/%q, want buy_base via ETH/BTC", e.Action, e.Pair)
	}

	// ETH -> USDT matches the literal ETH/USDT listing.
	e = triangularEdge(t, g, "ETH@binance", "USDT@binance")
	if e == nil {
		t.Fatal("missing ETH -> USDT edge")
	}
	if e.Action != domain.ActionSellBase || e.Pair != "ETH/USDT" {
		t.Errorf("ETH->USDT action/pair = %q/%q, want sell_base via ETH/USDT", e.Action, e.Pair)
	}

	// USDT -> BTC only trades as the inverted BTC/USDT listing.
	e = triangularEdge(t, g, "USDT@binance", "BTC@binance")
	if e == nil {
		t.Fatal("missing USDT -> BTC edge")
	}
	if e.Action != domain.ActionBuyBase || e.Pair != "BTC/USDT" {
		t.Errorf("USDT->BTC action/pair = %q/%q, want buy_base via BTC/USDT", e.Action, e.Pair)
	}
}

func TestTriangularSkipsConsistentPrices(t *testing.T) {
	// Cross rates agree with each other, so no orientation survives fees.
	snap := triangleSnapshot(3075, 3075.6)
	snap.Prices[domain.VenueCentralized]["binance"]["ETH/BTC"] = domain.PriceInfo{Bid: 0.0615, Ask: 0.06153}
	g := buildBase(t, snap)

	inj := NewTriangularInjector(TriangularConfig{}, testLogger())
	added, err := inj.AddEdges(context.Background(), g, snap)
	if err != nil {
		t.Fatalf("add edges: %v", err)
	}
	if added != 0 {
		t.Errorf("consistent prices should yield no triangle edges, got %d", added)
	}
}

func TestTriangularRequiresAllThreePairs(t *testing.T) {
	snap := triangleSnapshot(3100, 3101)
	delete(snap.Prices[domain.VenueCentralized]["binance"], "ETH/BTC")
	g := buildBase(t, snap)

	inj := NewTriangularInjector(TriangularConfig{}, testLogger())
	added, err := inj.AddEdges(context.Background(), g, snap)
	if err != nil {
		t.Fatalf("add edges: %v", err)
	}
	if added != 0 {
		t.Errorf("incomplete triangle should add nothing, got %d", added)
	}
}
