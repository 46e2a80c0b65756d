package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/arbitrage"
	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
	"github.com/HonzaHezina/AIarbi/internal/risk"
	"github.com/HonzaHezina/AIarbi/internal/strategy"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// A CEX/DEX spread wide enough for the direct-exchange strategy to close a
// profitable two-hop loop.
func fixtureSnapshot() *domain.PriceSnapshot {
	return &domain.PriceSnapshot{
		Prices: map[domain.VenueKind]map[string]domain.VenuePrices{
			domain.VenueCentralized: {
				"binance": {
					"BTC/USDT": {Bid: 48000, Ask: 48100},
				},
			},
			domain.VenueDecentralized: {
				"uniswap_v3": {
					"BTC/USDT": {Bid: 49500, Ask: 49600, Fee: 0.003},
				},
			},
		},
		Tokens:     []string{"BTC", "USDT"},
		CapturedAt: time.Now().UTC(),
	}
}

type staticSource struct {
	snap *domain.PriceSnapshot
	err  error
}

func (s *staticSource) Snapshot(ctx context.Context) (*domain.PriceSnapshot, error) {
	return s.snap, s.err
}

type recordingCache struct {
	scanID string
	opps   []domain.Opportunity
	ttl    time.Duration
}

func (c *recordingCache) SetScan(ctx context.Context, scanID string, opps []domain.Opportunity, ttl time.Duration) error {
	c.scanID = scanID
	c.opps = opps
	c.ttl = ttl
	return nil
}

func (c *recordingCache) Latest(ctx context.Context) ([]domain.Opportunity, error) {
	return c.opps, nil
}

type recordingBus struct {
	channel string
	payload []byte
}

func (b *recordingBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.channel = channel
	b.payload = payload
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *recordingBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	return nil
}

func (b *recordingBus) StreamRead(ctx context.Context, stream string, lastID string, count int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type failingInjector struct{}

func (failingInjector) Name() string { return "broken" }

func (failingInjector) AddEdges(ctx context.Context, g *graph.Graph, snap *domain.PriceSnapshot) (int, error) {
	return 0, errors.New("venue unavailable")
}

func newFixtureEngine(src SnapshotSource, cache domain.OpportunityCache, bus domain.SignalBus, extra ...strategy.EdgeInjector) *Engine {
	logger := testLogger()
	registry := strategy.NewRegistry()
	registry.Register(strategy.NewDirectExchangeInjector(strategy.DirectExchangeConfig{}, logger))
	for _, inj := range extra {
		registry.Register(inj)
	}
	return NewEngine(Dependencies{
		Source:    src,
		Builder:   graph.NewBuilder(graph.DefaultBuilderConfig(), logger),
		Registry:  registry,
		Detector:  arbitrage.NewDetector(arbitrage.DetectorConfig{Logger: logger}),
		Simulator: arbitrage.NewSimulator(arbitrage.SimulatorConfig{Logger: logger}),
		Scorer:    risk.NewScorer(risk.ScorerConfig{Logger: logger}),

		Opportunities: cache,
		Bus:           bus,
	}, Config{Logger: logger})
}

func TestScanFindsAndRanksOpportunities(t *testing.T) {
	cache := &recordingCache{}
	bus := &recordingBus{}
	e := newFixtureEngine(&staticSource{snap: fixtureSnapshot()}, cache, bus)

	result, err := e.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.ScanID == "" {
		t.Error("scan id must be set")
	}
	if len(result.Opportunities) == 0 {
		t.Fatal("expected opportunities from the fixture spread")
	}

	best := result.Opportunities[0]
	if best.ProfitPct < 1.0 || best.ProfitPct > 5.0 {
		t.Errorf("best profit = %v%%, want a plausible single-digit gain", best.ProfitPct)
	}
	if best.Token != "BTC" {
		t.Errorf("token = %q, want BTC", best.Token)
	}
	if best.Status != "detected" {
		t.Errorf("status = %q, want detected", best.Status)
	}
	if best.ScanID != result.ScanID {
		t.Errorf("opportunity scan id = %q, want %q", best.ScanID, result.ScanID)
	}
	if best.PathSummary == "" {
		t.Error("path summary must be set")
	}
	if best.RiskLevel == "" {
		t.Error("risk level must be set")
	}
	if result.GraphStats.Nodes == 0 || result.GraphStats.Edges == 0 {
		t.Errorf("graph stats not populated: %+v", result.GraphStats)
	}
}

func TestScanFansOutToCacheAndBus(t *testing.T) {
	cache := &recordingCache{}
	bus := &recordingBus{}
	e := newFixtureEngine(&staticSource{snap: fixtureSnapshot()}, cache, bus)

	result, err := e.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if cache.scanID != result.ScanID {
		t.Errorf("cached scan id = %q, want %q", cache.scanID, result.ScanID)
	}
	if cache.ttl != 60*time.Second {
		t.Errorf("cache ttl = %v, want 60s", cache.ttl)
	}
	if len(cache.opps) != len(result.Opportunities) {
		t.Errorf("cached %d opportunities, want %d", len(cache.opps), len(result.Opportunities))
	}

	if bus.channel != OpportunityChannel {
		t.Errorf("publish channel = %q, want %q", bus.channel, OpportunityChannel)
	}
	var published ScanResult
	if err := json.Unmarshal(bus.payload, &published); err != nil {
		t.Fatalf("published payload is not valid JSON: %v", err)
	}
	if published.ScanID != result.ScanID {
		t.Errorf("published scan id = %q, want %q", published.ScanID, result.ScanID)
	}
}

func TestScanSurvivesInjectorFailure(t *testing.T) {
	e := newFixtureEngine(&staticSource{snap: fixtureSnapshot()}, nil, nil, failingInjector{})

	result, err := e.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan should survive a failing injector: %v", err)
	}
	if len(result.Opportunities) == 0 {
		t.Error("healthy injectors should still produce opportunities")
	}
}

func TestScanPropagatesSourceFailure(t *testing.T) {
	e := newFixtureEngine(&staticSource{err: errors.New("all venues down")}, nil, nil)
	if _, err := e.Scan(context.Background()); err == nil {
		t.Fatal("snapshot failure must fail the scan")
	}

	empty := &domain.PriceSnapshot{}
	e = newFixtureEngine(&staticSource{snap: empty}, nil, nil)
	if _, err := e.Scan(context.Background()); !errors.Is(err, domain.ErrInvalidSnapshot) {
		t.Fatalf("empty snapshot: err = %v, want ErrInvalidSnapshot", err)
	}
}
