package graph

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func snapshotWith(kind domain.VenueKind, venue, pair string, info domain.PriceInfo) *domain.PriceSnapshot {
	return &domain.PriceSnapshot{
		Prices: map[domain.VenueKind]map[string]domain.VenuePrices{
			kind: {venue: {pair: info}},
		},
		CapturedAt: time.Now(),
	}
}

func TestBuildEmitsSellAndBuyEdges(t *testing.T) {
	snap := snapshotWith(domain.VenueCentralized, "binance", "BTC/USDT",
		domain.PriceInfo{Bid: 48000, Ask: 48100})

	g := NewBuilder(DefaultBuilderConfig(), testLogger()).Build(snap)

	if g.NodeCount() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.NodeCount())
	}
	sell, ok := g.BestEdge("BTC@binance", "USDT@binance")
	if !ok {
		t.Fatal("expected sell edge BTC@binance -> USDT@binance")
	}
	if sell.Rate != 48000 {
		t.Errorf("sell rate should be the bid, got %v", sell.Rate)
	}
	if sell.Action != domain.ActionSellBase {
		t.Errorf("sell edge action = %q, want %q", sell.Action, domain.ActionSellBase)
	}
	buy, ok := g.BestEdge("USDT@binance", "BTC@binance")
	if !ok {
		t.Fatal("expected buy edge USDT@binance -> BTC@binance")
	}
	if got, want := buy.Rate, 1.0/48100; math.Abs(got-want) > 1e-15 {
		t.Errorf("buy rate = %v, want 1/ask = %v", got, want)
	}
	if buy.Action != domain.ActionBuyBase {
		t.Errorf("buy edge action = %q, want %q", buy.Action, domain.ActionBuyBase)
	}
}

func TestBuildWeightIdentity(t *testing.T) {
	snap := snapshotWith(domain.VenueCentralized, "kraken", "ETH/USDT",
		domain.PriceInfo{Bid: 3000, Ask: 3001})

	g := NewBuilder(DefaultBuilderConfig(), testLogger()).Build(snap)

	for _, e := range g.Edges() {
		want := -math.Log(e.Rate * (1 - e.Fee))
		if math.Abs(e.Weight-want) > 1e-12 {
			t.Errorf("edge %s->%s weight = %v, want -ln(rate*(1-fee)) = %v",
				e.From, e.To, e.Weight, want)
		}
		if e.Rate < MinRate || e.Rate > MaxRate {
			t.Errorf("edge %s->%s rate %v outside sane band", e.From, e.To, e.Rate)
		}
	}
}

func TestBuildFeeDefaults(t *testing.T) {
	cases := []struct {
		name    string
		kind    domain.VenueKind
		info    domain.PriceInfo
		wantFee float64
	}{
		{"cex default", domain.VenueCentralized, domain.PriceInfo{Bid: 100, Ask: 101}, 0.001},
		{"cex ignores pair fee", domain.VenueCentralized, domain.PriceInfo{Bid: 100, Ask: 101, Fee: 0.01}, 0.001},
		{"dex default", domain.VenueDecentralized, domain.PriceInfo{Bid: 100, Ask: 101}, 0.003},
		{"dex pair fee", domain.VenueDecentralized, domain.PriceInfo{Bid: 100, Ask: 101, Fee: 0.0005}, 0.0005},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := snapshotWith(tc.kind, "venue1", "AAA/BBB", tc.info)
			g := NewBuilder(DefaultBuilderConfig(), testLogger()).Build(snap)
			e, ok := g.BestEdge("AAA@venue1", "BBB@venue1")
			if !ok {
				t.Fatal("expected sell edge")
			}
			if e.Fee != tc.wantFee {
				t.Errorf("fee = %v, want %v", e.Fee, tc.wantFee)
			}
		})
	}
}

func TestBuildRejectsOutOfBandRates(t *testing.T) {
	cases := []struct {
		name string
		info domain.PriceInfo
	}{
		{"rate too large", domain.PriceInfo{Bid: 2e6, Ask: 2e6 + 1}},
		{"rate too small", domain.PriceInfo{Bid: 1e-7, Ask: 1e-7}},
		{"nan bid", domain.PriceInfo{Bid: math.NaN(), Ask: 100}},
		{"negative ask", domain.PriceInfo{Bid: 100, Ask: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := snapshotWith(domain.VenueCentralized, "venue1", "AAA/BBB", tc.info)
			g := NewBuilder(DefaultBuilderConfig(), testLogger()).Build(snap)
			if _, ok := g.BestEdge("AAA@venue1", "BBB@venue1"); ok {
				t.Error("out-of-band sell edge should have been dropped")
			}
		})
	}
}

func TestBuildRejectsWeightOverMagnitudeCap(t *testing.T) {
	// Rate 1e5 is inside the rate band but |ln| > 10, so both directions
	// must be dropped.
	snap := snapshotWith(domain.VenueCentralized, "venue1", "AAA/BBB",
		domain.PriceInfo{Bid: 1e5, Ask: 1e5 + 1})
	g := NewBuilder(DefaultBuilderConfig(), testLogger()).Build(snap)
	if g.EdgeCount() != 0 {
		t.Fatalf("expected all edges dropped, got %d", g.EdgeCount())
	}
}

func TestBuildNormalizesInvertedQuote(t *testing.T) {
	snap := snapshotWith(domain.VenueCentralized, "venue1", "ETH/USDT",
		domain.PriceInfo{Bid: 3010, Ask: 3000})
	g := NewBuilder(DefaultBuilderConfig(), testLogger()).Build(snap)
	e, ok := g.BestEdge("ETH@venue1", "USDT@venue1")
	if !ok {
		t.Fatal("expected sell edge")
	}
	if e.Rate != 3000 {
		t.Errorf("sell rate after swap = %v, want 3000", e.Rate)
	}
}

func TestBuildEmptySnapshot(t *testing.T) {
	b := NewBuilder(DefaultBuilderConfig(), testLogger())
	for _, snap := range []*domain.PriceSnapshot{nil, {}} {
		g := b.Build(snap)
		if g.NodeCount() != 0 || g.EdgeCount() != 0 {
			t.Errorf("empty snapshot should yield empty graph, got %d nodes / %d edges",
				g.NodeCount(), g.EdgeCount())
		}
	}
}

func TestStatistics(t *testing.T) {
	snap := &domain.PriceSnapshot{
		Prices: map[domain.VenueKind]map[string]domain.VenuePrices{
			domain.VenueCentralized: {
				"binance": {"BTC/USDT": {Bid: 48000, Ask: 48100}},
				"kraken":  {"BTC/USDT": {Bid: 48010, Ask: 48110}},
			},
		},
	}
	g := NewBuilder(DefaultBuilderConfig(), testLogger()).Build(snap)
	stats := g.Statistics()
	if stats.Nodes != 4 {
		t.Errorf("nodes = %d, want 4", stats.Nodes)
	}
	if stats.Edges != 4 {
		t.Errorf("edges = %d, want 4", stats.Edges)
	}
	if stats.Tokens != 2 {
		t.Errorf("tokens = %d, want 2", stats.Tokens)
	}
	if stats.Venues != 2 {
		t.Errorf("venues = %d, want 2", stats.Venues)
	}
	if stats.Density <= 0 {
		t.Errorf("density = %v, want > 0", stats.Density)
	}
}
