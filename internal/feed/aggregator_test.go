package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

type fakeProvider struct {
	name   string
	kind   domain.VenueKind
	prices domain.VenuePrices
	err    error
}

func (p *fakeProvider) Name() string           { return p.name }
func (p *fakeProvider) Kind() domain.VenueKind { return p.kind }
func (p *fakeProvider) Fetch(context.Context, []string) (domain.VenuePrices, error) {
	return p.prices, p.err
}

func quote(bid, ask float64) domain.PriceInfo {
	return domain.PriceInfo{Bid: bid, Ask: ask, Timestamp: time.Now()}
}

func testAggLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSnapshotMergesProviders(t *testing.T) {
	providers := []Provider{
		&fakeProvider{
			name: "binance", kind: domain.VenueCentralized,
			prices: domain.VenuePrices{"BTC/USDT": quote(48000, 48100)},
		},
		&fakeProvider{
			name: "kraken", kind: domain.VenueCentralized,
			prices: domain.VenuePrices{"BTC/USDT": quote(48050, 48150)},
		},
		&fakeProvider{
			name: "uniswap_v3", kind: domain.VenueDecentralized,
			prices: domain.VenuePrices{"WETH/USDT": quote(2995, 3010)},
		},
	}

	agg := NewAggregator(providers, AggregatorConfig{
		Pairs:  []string{"BTC/USDT"},
		Logger: testAggLogger(),
	})

	snap, err := agg.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if len(snap.Prices[domain.VenueCentralized]) != 2 {
		t.Errorf("centralized venues = %d, want 2", len(snap.Prices[domain.VenueCentralized]))
	}
	if len(snap.Prices[domain.VenueDecentralized]) != 1 {
		t.Errorf("decentralized venues = %d, want 1", len(snap.Prices[domain.VenueDecentralized]))
	}
	if snap.CapturedAt.IsZero() {
		t.Error("CapturedAt not set")
	}

	wantPairs := []string{"BTC/USDT", "WETH/USDT"}
	if len(snap.Pairs) != len(wantPairs) {
		t.Fatalf("pairs = %v, want %v", snap.Pairs, wantPairs)
	}
	for i, p := range wantPairs {
		if snap.Pairs[i] != p {
			t.Errorf("pairs[%d] = %q, want %q", i, snap.Pairs[i], p)
		}
	}

	// Tokens are collected from both sides of every pair, sorted.
	wantTokens := []string{"BTC", "USDT", "WETH"}
	if fmt.Sprint(snap.Tokens) != fmt.Sprint(wantTokens) {
		t.Errorf("tokens = %v, want %v", snap.Tokens, wantTokens)
	}
}

func TestSnapshotToleratesFailingProvider(t *testing.T) {
	providers := []Provider{
		&fakeProvider{
			name: "binance", kind: domain.VenueCentralized,
			prices: domain.VenuePrices{"BTC/USDT": quote(48000, 48100)},
		},
		&fakeProvider{name: "kraken", kind: domain.VenueCentralized, err: fmt.Errorf("503")},
	}

	agg := NewAggregator(providers, AggregatorConfig{
		Pairs:  []string{"BTC/USDT"},
		Logger: testAggLogger(),
	})

	snap, err := agg.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("one failing provider should not fail the snapshot: %v", err)
	}
	if _, ok := snap.Prices[domain.VenueCentralized]["binance"]; !ok {
		t.Error("surviving venue missing from snapshot")
	}
	if _, ok := snap.Prices[domain.VenueCentralized]["kraken"]; ok {
		t.Error("failed venue should be absent")
	}
}

func TestSnapshotFailsWhenAllProvidersFail(t *testing.T) {
	providers := []Provider{
		&fakeProvider{name: "binance", kind: domain.VenueCentralized, err: fmt.Errorf("down")},
	}
	agg := NewAggregator(providers, AggregatorConfig{Logger: testAggLogger()})

	if _, err := agg.Snapshot(context.Background()); err == nil {
		t.Error("all providers failing should be an error")
	}

	empty := NewAggregator(nil, AggregatorConfig{Logger: testAggLogger()})
	if _, err := empty.Snapshot(context.Background()); err == nil {
		t.Error("no providers should be an error")
	}
}

func TestStaticProviderIsReproducible(t *testing.T) {
	pairs := []string{"BTC/USDT", "ETH/USDT", "XYZ/USDT"}

	a, _ := NewStaticProvider("demo", domain.VenueCentralized, 42).Fetch(context.Background(), pairs)
	b, _ := NewStaticProvider("demo", domain.VenueCentralized, 42).Fetch(context.Background(), pairs)

	for _, pair := range pairs {
		if a[pair].Bid != b[pair].Bid || a[pair].Ask != b[pair].Ask {
			t.Errorf("%s: same seed produced different quotes", pair)
		}
		if a[pair].Bid >= a[pair].Ask {
			t.Errorf("%s: bid %v not below ask %v", pair, a[pair].Bid, a[pair].Ask)
		}
	}

	// Anchored pairs stay near their anchor; unknown pairs near the default.
	btcMid := a["BTC/USDT"].Mid()
	if btcMid < 49000 || btcMid > 51000 {
		t.Errorf("BTC mid %v outside anchor band", btcMid)
	}
	xyzMid := a["XYZ/USDT"].Mid()
	if xyzMid < 98 || xyzMid > 102 {
		t.Errorf("unknown pair mid %v outside default band", xyzMid)
	}

	dex, _ := NewStaticProvider("uniswap_v3", domain.VenueDecentralized, 7).Fetch(context.Background(), pairs)
	if dex["BTC/USDT"].Fee != 0.003 {
		t.Errorf("dex fee = %v, want 0.003", dex["BTC/USDT"].Fee)
	}
}
