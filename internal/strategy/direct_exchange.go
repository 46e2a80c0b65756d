package strategy

import (
	"context"
	"log/slog"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
)

// DirectExchangeConfig tunes the CEX<->DEX injector.
type DirectExchangeConfig struct {
	// ExchangeFees overrides the per-venue taker fee table.
	ExchangeFees map[string]float64
	// GasUSD overrides the per-protocol flat gas cost table.
	GasUSD map[string]float64
}

// DirectExchangeInjector adds bidirectional edges between a token's
// centralized and decentralized listings. Each edge folds the source-side
// taker fee and the DEX gas cost into its rate; the destination-side fee
// rides on the edge's Fee field so the log-weight identity holds.
type DirectExchangeInjector struct {
	cfg    DirectExchangeConfig
	logger *slog.Logger
}

// NewDirectExchangeInjector creates the CEX<->DEX injector.
func NewDirectExchangeInjector(cfg DirectExchangeConfig, logger *slog.Logger) *DirectExchangeInjector {
	return &DirectExchangeInjector{
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", StrategyDirectExchange)),
	}
}

// Name returns the strategy identifier.
func (d *DirectExchangeInjector) Name() string { return StrategyDirectExchange }

// AddEdges scans every token quoted against a stablecoin on both venue
// kinds and adds one edge per profitable-looking direction. Edges whose
// effective 1:1 rate falls outside the transfer band are evidence of a bad
// feed and are discarded.
func (d *DirectExchangeInjector) AddEdges(ctx context.Context, g *graph.Graph, snap *domain.PriceSnapshot) (int, error) {
	if snap == nil {
		return 0, nil
	}
	added := 0
	for cexVenue, cexPrices := range snap.Prices[domain.VenueCentralized] {
		for dexVenue, dexPrices := range snap.Prices[domain.VenueDecentralized] {
			for _, token := range snap.Tokens {
				if domain.IsStablecoin(token) {
					continue
				}
				cexPair, cexInfo, ok := stableQuote(cexPrices, token)
				if !ok {
					continue
				}
				dexPair, dexInfo, ok := stableQuote(dexPrices, token)
				if !ok {
					continue
				}
				gas := swapGasUSD(d.cfg.GasUSD, dexVenue)
				cexFee := exchangeFee(d.cfg.ExchangeFees, cexVenue)
				dexFee := dexInfo.Fee
				if dexFee <= 0 {
					dexFee = 0.003
				}

				cexNode := graph.Node{Token: token, Venue: cexVenue, Kind: domain.VenueCentralized}
				dexNode := graph.Node{Token: token, Venue: dexVenue, Kind: domain.VenueDecentralized}

				// Buy on the CEX, sell on the DEX. Gas is paid on the DEX leg.
				if d.addEdge(g, cexNode, dexNode, directLeg{
					buyAsk:  cexInfo.Ask,
					buyFee:  cexFee,
					sellBid: dexInfo.Bid - gas,
					sellFee: dexFee,
					pair:    dexPair,
					gasUSD:  gas,
				}) {
					added++
				}
				// Buy on the DEX, sell on the CEX.
				if d.addEdge(g, dexNode, cexNode, directLeg{
					buyAsk:  dexInfo.Ask + gas,
					buyFee:  dexFee,
					sellBid: cexInfo.Bid,
					sellFee: cexFee,
					pair:    cexPair,
					gasUSD:  gas,
				}) {
					added++
				}
				// Plain withdrawal edges let the detector close a cycle
				// without trading the token back at the worse price.
				added += addTransferEdges(g, cexNode, dexNode, transferCost(nil, token))
			}
		}
		select {
		case <-ctx.Done():
			return added, ctx.Err()
		default:
		}
	}
	return added, nil
}

type directLeg struct {
	buyAsk  float64
	buyFee  float64
	sellBid float64
	sellFee float64
	pair    string
	gasUSD  float64
}

func (d *DirectExchangeInjector) addEdge(g *graph.Graph, from, to graph.Node, leg directLeg) bool {
	if leg.buyAsk <= 0 || leg.sellBid <= 0 {
		return false
	}
	// Rate is gross of the destination fee, which rides on the edge itself.
	rate := leg.sellBid / (leg.buyAsk * (1 + leg.buyFee))
	if !graph.InTransferBand(rate * (1 - leg.sellFee)) {
		d.logger.Debug("transfer rate outside sane band",
			slog.String("from", from.Key()),
			slog.String("to", to.Key()),
			slog.Float64("rate", rate*(1-leg.sellFee)))
		return false
	}
	weight, err := graph.EdgeWeight(rate, leg.sellFee)
	if err != nil {
		d.logger.Debug("dropping edge", slog.String("reason", err.Error()))
		return false
	}
	g.AddNode(from)
	g.AddNode(to)
	err = g.AddEdge(graph.Edge{
		From:      from.Key(),
		To:        to.Key(),
		Weight:    weight,
		Rate:      rate,
		Fee:       leg.sellFee,
		Slippage:  DefaultSlippage,
		Strategy:  StrategyDirectExchange,
		Action:    domain.ActionSellBase,
		Pair:      leg.pair,
		BuyVenue:  from.Venue,
		SellVenue: to.Venue,
		GasUSD:    leg.gasUSD,
	})
	return err == nil
}
