package graph

import (
	"log/slog"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// StrategyMarket tags the base buy/sell edges built straight from venue
// quotes, as opposed to edges injected by a named strategy.
const StrategyMarket = "market"

// BuilderConfig carries the per-venue-kind default fees.
type BuilderConfig struct {
	CEXFee float64
	DEXFee float64
}

// DefaultBuilderConfig matches the standard venue taker fees.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		CEXFee: 0.001,
		DEXFee: 0.003,
	}
}

// Builder turns a price snapshot into the base conversion graph.
type Builder struct {
	cfg    BuilderConfig
	logger *slog.Logger
}

// NewBuilder creates a graph builder.
func NewBuilder(cfg BuilderConfig, logger *slog.Logger) *Builder {
	if cfg.CEXFee == 0 {
		cfg.CEXFee = 0.001
	}
	if cfg.DEXFee == 0 {
		cfg.DEXFee = 0.003
	}
	return &Builder{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "graph_builder")),
	}
}

// Build emits up to two directed edges per (venue, pair): a sell edge
// base->quote at the bid and a buy edge quote->base at 1/ask, each
// fee-adjusted before taking the negative log. Malformed or out-of-band
// entries are skipped per edge; an empty snapshot yields an empty graph.
func (b *Builder) Build(snap *domain.PriceSnapshot) *Graph {
	g := New()
	if snap == nil {
		return g
	}
	for kind, byVenue := range snap.Prices {
		for venue, pairs := range byVenue {
			for pair, raw := range pairs {
				info, ok := raw.Normalized()
				if !ok {
					b.logger.Debug("skipping malformed quote",
						slog.String("venue", venue), slog.String("pair", pair))
					continue
				}
				base, quote, ok := domain.SplitPair(pair)
				if !ok {
					b.logger.Debug("skipping unparseable pair",
						slog.String("venue", venue), slog.String("pair", pair))
					continue
				}
				fee := b.feeFor(kind, info)

				from := Node{Token: base, Venue: venue, Kind: kind}
				to := Node{Token: quote, Venue: venue, Kind: kind}
				g.AddNode(from)
				g.AddNode(to)

				b.addTradeEdge(g, from, to, info.Bid, fee, pair, domain.ActionSellBase, venue)
				if info.Ask > 0 {
					b.addTradeEdge(g, to, from, 1/info.Ask, fee, pair, domain.ActionBuyBase, venue)
				}
			}
		}
	}
	return g
}

func (b *Builder) feeFor(kind domain.VenueKind, info domain.PriceInfo) float64 {
	if kind == domain.VenueDecentralized {
		if info.Fee > 0 {
			return info.Fee
		}
		return b.cfg.DEXFee
	}
	return b.cfg.CEXFee
}

func (b *Builder) addTradeEdge(g *Graph, from, to Node, rate, fee float64, pair string, action domain.HopAction, venue string) {
	weight, err := EdgeWeight(rate, fee)
	if err != nil {
		b.logger.Debug("dropping edge",
			slog.String("from", from.Key()),
			slog.String("to", to.Key()),
			slog.String("reason", err.Error()))
		return
	}
	edge := Edge{
		From:      from.Key(),
		To:        to.Key(),
		Weight:    weight,
		Rate:      rate,
		Fee:       fee,
		Strategy:  StrategyMarket,
		Action:    action,
		Pair:      pair,
		BuyVenue:  venue,
		SellVenue: venue,
	}
	if err := g.AddEdge(edge); err != nil {
		b.logger.Debug("dropping edge", slog.String("reason", err.Error()))
	}
}
