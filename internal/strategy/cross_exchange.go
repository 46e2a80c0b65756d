package strategy

import (
	"context"
	"log/slog"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
)

// Settlement-time risk discount applied per minute of transfer time,
// capped so slow chains do not zero the edge out.
const (
	transferRiskPerMin = 0.00005
	transferRiskCap    = 0.005
)

// CrossExchangeConfig tunes the CEX->CEX injector.
type CrossExchangeConfig struct {
	// ExchangeFees overrides the per-venue taker fee table.
	ExchangeFees map[string]float64
	// TransferCosts overrides the per-token withdrawal cost table.
	TransferCosts map[string]domain.TransferCost
}

// CrossExchangeInjector adds same-token edges between pairs of centralized
// venues: buy at one venue's ask, withdraw, sell at the other venue's bid,
// net of both taker fees, the withdrawal fee, and a settlement-time risk
// discount. Stablecoins move fast and cheap; base-layer assets cost more.
type CrossExchangeInjector struct {
	cfg    CrossExchangeConfig
	logger *slog.Logger
}

// NewCrossExchangeInjector creates the CEX->CEX injector.
func NewCrossExchangeInjector(cfg CrossExchangeConfig, logger *slog.Logger) *CrossExchangeInjector {
	return &CrossExchangeInjector{
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", StrategyCrossExchange)),
	}
}

// Name returns the strategy identifier.
func (c *CrossExchangeInjector) Name() string { return StrategyCrossExchange }

// AddEdges walks every ordered pair of centralized venues quoting the same
// token against a stablecoin.
func (c *CrossExchangeInjector) AddEdges(ctx context.Context, g *graph.Graph, snap *domain.PriceSnapshot) (int, error) {
	if snap == nil {
		return 0, nil
	}
	byVenue := snap.Prices[domain.VenueCentralized]
	added := 0
	for _, token := range snap.Tokens {
		cost := transferCost(c.cfg.TransferCosts, token)
		risk := transferRiskPerMin * cost.TimeMin
		if risk > transferRiskCap {
			risk = transferRiskCap
		}
		for buyVenue, buyPrices := range byVenue {
			_, buyInfo, ok := stableQuote(buyPrices, token)
			if !ok {
				continue
			}
			for sellVenue, sellPrices := range byVenue {
				if sellVenue == buyVenue {
					continue
				}
				sellPair, sellInfo, ok := stableQuote(sellPrices, token)
				if !ok {
					continue
				}
				if c.addEdge(g, token, buyVenue, sellVenue, sellPair, buyInfo, sellInfo, cost, risk) {
					added++
				}
			}
		}
		if !domain.IsStablecoin(token) {
			added += c.addTransfers(g, token, byVenue, cost)
		}
		select {
		case <-ctx.Done():
			return added, ctx.Err()
		default:
		}
	}
	return added, nil
}

func (c *CrossExchangeInjector) addEdge(g *graph.Graph, token, buyVenue, sellVenue, sellPair string, buyInfo, sellInfo domain.PriceInfo, cost domain.TransferCost, risk float64) bool {
	if buyInfo.Ask <= 0 || sellInfo.Bid <= 0 {
		return false
	}
	buyFee := exchangeFee(c.cfg.ExchangeFees, buyVenue)
	sellFee := exchangeFee(c.cfg.ExchangeFees, sellVenue)

	// Gross of the sell-side fee; withdrawal fee and settlement risk are
	// part of the conversion itself.
	rate := sellInfo.Bid * (1 - cost.FeePct) * (1 - risk) / (buyInfo.Ask * (1 + buyFee))
	if !graph.InTransferBand(rate * (1 - sellFee)) {
		c.logger.Debug("transfer rate outside sane band",
			slog.String("token", token),
			slog.String("buy", buyVenue),
			slog.String("sell", sellVenue),
			slog.Float64("rate", rate*(1-sellFee)))
		return false
	}
	weight, err := graph.EdgeWeight(rate, sellFee)
	if err != nil {
		c.logger.Debug("dropping edge", slog.String("reason", err.Error()))
		return false
	}
	from := graph.Node{Token: token, Venue: buyVenue, Kind: domain.VenueCentralized}
	to := graph.Node{Token: token, Venue: sellVenue, Kind: domain.VenueCentralized}
	g.AddNode(from)
	g.AddNode(to)
	err = g.AddEdge(graph.Edge{
		From:      from.Key(),
		To:        to.Key(),
		Weight:    weight,
		Rate:      rate,
		Fee:       sellFee,
		Slippage:  DefaultSlippage,
		Strategy:  StrategyCrossExchange,
		Action:    domain.ActionSellBase,
		Pair:      sellPair,
		BuyVenue:  buyVenue,
		SellVenue: sellVenue,
	})
	return err == nil
}

func (c *CrossExchangeInjector) addTransfers(g *graph.Graph, token string, byVenue map[string]domain.VenuePrices, cost domain.TransferCost) int {
	venues := make([]string, 0, len(byVenue))
	for venue, prices := range byVenue {
		if _, _, ok := stableQuote(prices, token); ok {
			venues = append(venues, venue)
		}
	}
	added := 0
	for i := 0; i < len(venues); i++ {
		for j := i + 1; j < len(venues); j++ {
			a := graph.Node{Token: token, Venue: venues[i], Kind: domain.VenueCentralized}
			b := graph.Node{Token: token, Venue: venues[j], Kind: domain.VenueCentralized}
			added += addTransferEdges(g, a, b, cost)
		}
	}
	return added
}
