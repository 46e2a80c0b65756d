package strategy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
)

const (
	wrapFeePct = 0.0001
	// Wrapping is a cheaper contract call than a swap.
	wrapGasFactor = 0.6
	// Wrapping is only worth doing when gas stays under 1% of the value.
	wrapGasValueCap = 0.01
)

// Network fee for moving a wrapped token between venues, as a fraction.
var wrappedTransferFees = map[string]float64{
	"WBTC": 0.0001,
	"WETH": 0.005,
	"WBNB": 0.001,
}

// WrappedTokenConfig tunes the wrap/unwrap injector.
type WrappedTokenConfig struct {
	// Pairs maps native tokens to their wrapped representation. Empty means
	// the standard set.
	Pairs map[string]string
	// GasUSD overrides the per-protocol swap gas table.
	GasUSD map[string]float64
}

var defaultWrappedPairs = map[string]string{
	"BTC": "WBTC",
	"ETH": "WETH",
	"BNB": "WBNB",
}

// WrappedTokenInjector adds three edge families: wrap/unwrap within one
// venue (gas only, rate near 1), wrapped-token transfers across venues, and
// native<->wrapped conversions spanning venues. Every edge is a notional
// 1:1 representation change, so the transfer band applies throughout.
type WrappedTokenInjector struct {
	cfg    WrappedTokenConfig
	logger *slog.Logger
}

// NewWrappedTokenInjector creates the wrap/unwrap injector.
func NewWrappedTokenInjector(cfg WrappedTokenConfig, logger *slog.Logger) *WrappedTokenInjector {
	if len(cfg.Pairs) == 0 {
		cfg.Pairs = defaultWrappedPairs
	}
	return &WrappedTokenInjector{
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", StrategyWrappedToken)),
	}
}

// Name returns the strategy identifier.
func (w *WrappedTokenInjector) Name() string { return StrategyWrappedToken }

// AddEdges wires all three families for every native/wrapped pair. Edges
// are only added between nodes the base graph already knows about.
func (w *WrappedTokenInjector) AddEdges(ctx context.Context, g *graph.Graph, snap *domain.PriceSnapshot) (int, error) {
	if snap == nil {
		return 0, nil
	}
	added := 0
	for native, wrapped := range w.cfg.Pairs {
		select {
		case <-ctx.Done():
			return added, ctx.Err()
		default:
		}
		tokenUSD, ok := usdMid(snap, native)
		if !ok || tokenUSD <= 0 {
			continue
		}
		nativeNodes := nodesForToken(g, native)
		wrappedNodes := nodesForToken(g, wrapped)
		if len(wrappedNodes) == 0 {
			continue
		}

		// Same-venue wrap/unwrap.
		for _, nn := range nativeNodes {
			for _, wn := range wrappedNodes {
				if nn.Venue != wn.Venue {
					continue
				}
				added += w.addWrapEdges(g, nn, wn, tokenUSD)
			}
		}
		// Wrapped token moved between venues.
		fee, ok := wrappedTransferFees[strings.ToUpper(wrapped)]
		if !ok {
			fee = fallbackTransferFeePct
		}
		for i := 0; i < len(wrappedNodes); i++ {
			for j := i + 1; j < len(wrappedNodes); j++ {
				added += addTransferEdges(g, wrappedNodes[i], wrappedNodes[j],
					domain.TransferCost{Token: wrapped, FeePct: fee})
			}
		}
		// Native on one venue to wrapped on another: transfer then wrap.
		for _, nn := range nativeNodes {
			for _, wn := range wrappedNodes {
				if nn.Venue == wn.Venue {
					continue
				}
				added += w.addCrossVenueEdges(g, nn, wn, native, tokenUSD)
			}
		}
	}
	return added, nil
}

func (w *WrappedTokenInjector) addWrapEdges(g *graph.Graph, nn, wn graph.Node, tokenUSD float64) int {
	gas := swapGasUSD(w.cfg.GasUSD, wn.Venue) * wrapGasFactor
	if gas >= tokenUSD*wrapGasValueCap {
		w.logger.Debug("wrap not feasible, gas too high relative to value",
			slog.String("node", wn.Key()),
			slog.Float64("gas_usd", gas),
			slog.Float64("token_usd", tokenUSD))
		return 0
	}
	rate := 1.0 - gas/tokenUSD
	added := 0
	for _, dir := range [2][2]graph.Node{{nn, wn}, {wn, nn}} {
		if !graph.InTransferBand(rate * (1 - wrapFeePct)) {
			continue
		}
		weight, err := graph.EdgeWeight(rate, wrapFeePct)
		if err != nil {
			continue
		}
		err = g.AddEdge(graph.Edge{
			From:      dir[0].Key(),
			To:        dir[1].Key(),
			Weight:    weight,
			Rate:      rate,
			Fee:       wrapFeePct,
			Slippage:  DefaultSlippage,
			Strategy:  StrategyWrappedToken,
			Action:    domain.ActionSellBase,
			Pair:      nn.Token + "/" + wn.Token,
			BuyVenue:  dir[0].Venue,
			SellVenue: dir[1].Venue,
			GasUSD:    gas,
		})
		if err == nil {
			added++
		}
	}
	return added
}

func (w *WrappedTokenInjector) addCrossVenueEdges(g *graph.Graph, nn, wn graph.Node, native string, tokenUSD float64) int {
	cost := transferCost(nil, native)
	gas := swapGasUSD(w.cfg.GasUSD, wn.Venue) * wrapGasFactor
	if gas >= tokenUSD*wrapGasValueCap {
		return 0
	}
	rate := (1.0 - gas/tokenUSD - wrapFeePct) * (1 - cost.FeePct)
	added := 0
	for _, dir := range [2][2]graph.Node{{nn, wn}, {wn, nn}} {
		if !graph.InTransferBand(rate) {
			continue
		}
		weight, err := graph.EdgeWeight(rate, 0)
		if err != nil {
			continue
		}
		err = g.AddEdge(graph.Edge{
			From:      dir[0].Key(),
			To:        dir[1].Key(),
			Weight:    weight,
			Rate:      rate,
			Slippage:  DefaultSlippage,
			Strategy:  StrategyWrappedToken,
			Action:    domain.ActionSellBase,
			Pair:      nn.Token + "/" + wn.Token,
			BuyVenue:  dir[0].Venue,
			SellVenue: dir[1].Venue,
			GasUSD:    gas,
		})
		if err == nil {
			added++
		}
	}
	return added
}

// nodesForToken collects the graph's existing listings of one token.
func nodesForToken(g *graph.Graph, token string) []graph.Node {
	var nodes []graph.Node
	for _, key := range g.NodeKeys() {
		if n, ok := g.Node(key); ok && n.Token == token {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
