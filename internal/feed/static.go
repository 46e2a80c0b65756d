package feed

import (
	"context"
	"math/rand"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// basePrices anchors the simulated quotes so relative prices stay
// consistent across pairs and venues.
var basePrices = map[string]float64{
	"BTC/USDT":   50000,
	"BTC/USDC":   50000,
	"ETH/USDT":   3000,
	"ETH/USDC":   3000,
	"BNB/USDT":   300,
	"BNB/USDC":   300,
	"ADA/USDT":   0.5,
	"ADA/USDC":   0.5,
	"SOL/USDT":   100,
	"SOL/USDC":   100,
	"ALGO/USDT":  0.18,
	"ALGO/USDC":  0.18,
	"DOT/USDT":   7.0,
	"LINK/USDT":  15.0,
	"MATIC/USDT": 0.85,
	"WETH/USDT":  3000,
	"WETH/USDC":  3000,
	"WBTC/USDT":  50000,
	"CAKE/USDT":  3.5,
	"DAI/USDT":   1.0,
	"USDT/USDC":  1.0,
}

// defaultStaticBase is used for pairs missing from the anchor table.
const defaultStaticBase = 100.0

// StaticProvider generates simulated quotes around fixed anchor prices.
// It stands in for a live venue in demo runs and tests. Decentralized
// venues get the wider spread live pools show.
type StaticProvider struct {
	name string
	kind domain.VenueKind
	rng  *rand.Rand
}

// NewStaticProvider creates a simulated venue. seed fixes the jitter
// sequence so demo runs are reproducible.
func NewStaticProvider(name string, kind domain.VenueKind, seed int64) *StaticProvider {
	return &StaticProvider{
		name: name,
		kind: kind,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (p *StaticProvider) Name() string           { return p.name }
func (p *StaticProvider) Kind() domain.VenueKind { return p.kind }

func (p *StaticProvider) Fetch(_ context.Context, pairs []string) (domain.VenuePrices, error) {
	spread := 0.001
	fee := 0.0
	if p.kind == domain.VenueDecentralized {
		spread = 0.005
		fee = 0.003
	}

	now := time.Now()
	out := make(domain.VenuePrices, len(pairs))
	for _, pair := range pairs {
		base, ok := basePrices[pair]
		if !ok {
			base = defaultStaticBase
		}

		// Jitter within ±1% simulates venues disagreeing about the price.
		mid := base * (0.99 + p.rng.Float64()*0.02)
		half := mid * spread / 2

		out[pair] = domain.PriceInfo{
			Bid:       mid - half,
			Ask:       mid + half,
			Fee:       fee,
			Liquidity: 5000 + p.rng.Float64()*45000,
			Timestamp: now,
		}
	}
	return out, nil
}

var _ Provider = (*StaticProvider)(nil)
