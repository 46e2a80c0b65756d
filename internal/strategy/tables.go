package strategy

import (
	"strings"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
)

// Per-venue taker fees for centralized exchanges. Missing venues fall back
// to the standard 0.001.
var defaultExchangeFees = map[string]float64{
	"binance":  0.001,
	"coinbase": 0.005,
	"kraken":   0.0026,
	"okx":      0.001,
	"bybit":    0.001,
}

// Flat swap gas cost in USD per DEX protocol.
var defaultGasUSD = map[string]float64{
	"uniswap_v3":  15.0,
	"uniswap_v2":  20.0,
	"sushiswap":   18.0,
	"pancakeswap": 0.5,
}

const fallbackGasUSD = 10.0

// Withdrawal cost and settlement time for moving tokens between venues.
var defaultTransferCosts = map[string]domain.TransferCost{
	"BTC":  {Token: "BTC", FeePct: 0.0001, TimeMin: 30},
	"ETH":  {Token: "ETH", FeePct: 0.002, TimeMin: 15},
	"USDT": {Token: "USDT", FeePct: 0.0001, TimeMin: 10},
	"USDC": {Token: "USDC", FeePct: 0.0001, TimeMin: 10},
	"BNB":  {Token: "BNB", FeePct: 0.001, TimeMin: 5},
}

const (
	fallbackTransferFeePct  = 0.001
	fallbackTransferTimeMin = 30.0
)

// DefaultSlippage is the per-hop slippage estimate stamped on injected edges.
const DefaultSlippage = 0.0005

func exchangeFee(fees map[string]float64, venue string) float64 {
	if fees != nil {
		if fee, ok := fees[strings.ToLower(venue)]; ok {
			return fee
		}
	}
	if fee, ok := defaultExchangeFees[strings.ToLower(venue)]; ok {
		return fee
	}
	return 0.001
}

func swapGasUSD(gas map[string]float64, venue string) float64 {
	v := strings.ToLower(venue)
	if gas != nil {
		if g, ok := gas[v]; ok {
			return g
		}
	}
	if g, ok := defaultGasUSD[v]; ok {
		return g
	}
	for proto, g := range defaultGasUSD {
		if strings.Contains(v, proto) {
			return g
		}
	}
	return fallbackGasUSD
}

func transferCost(costs map[string]domain.TransferCost, token string) domain.TransferCost {
	if costs != nil {
		if c, ok := costs[strings.ToUpper(token)]; ok {
			return c
		}
	}
	if c, ok := defaultTransferCosts[strings.ToUpper(token)]; ok {
		return c
	}
	return domain.TransferCost{Token: token, FeePct: fallbackTransferFeePct, TimeMin: fallbackTransferTimeMin}
}

// Stablecoin quote preference when several stable pairs exist for a token.
var stableQuoteOrder = []string{"USDT", "USDC", "DAI", "BUSD"}

// stableQuote finds the token's stable-quoted pair on one venue.
func stableQuote(prices domain.VenuePrices, token string) (pair string, info domain.PriceInfo, ok bool) {
	for _, stable := range stableQuoteOrder {
		p := token + "/" + stable
		if raw, found := prices[p]; found {
			if norm, valid := raw.Normalized(); valid {
				return p, norm, true
			}
		}
	}
	return "", domain.PriceInfo{}, false
}

// addTransferEdges adds the pair of 1:1 withdrawal edges between two
// listings of the same token and returns how many were added.
func addTransferEdges(g *graph.Graph, a, b graph.Node, cost domain.TransferCost) int {
	added := 0
	for _, dir := range [2][2]graph.Node{{a, b}, {b, a}} {
		if !graph.InTransferBand(1 - cost.FeePct) {
			continue
		}
		weight, err := graph.EdgeWeight(1.0, cost.FeePct)
		if err != nil {
			continue
		}
		g.AddNode(dir[0])
		g.AddNode(dir[1])
		err = g.AddEdge(graph.Edge{
			From:      dir[0].Key(),
			To:        dir[1].Key(),
			Weight:    weight,
			Rate:      1.0,
			Fee:       cost.FeePct,
			Slippage:  DefaultSlippage,
			Strategy:  StrategyTransfer,
			Action:    domain.ActionSellBase,
			Pair:      a.Token + "/" + a.Token,
			BuyVenue:  dir[0].Venue,
			SellVenue: dir[1].Venue,
		})
		if err == nil {
			added++
		}
	}
	return added
}

// usdMid finds a USD reference price for a token anywhere in the snapshot.
func usdMid(snap *domain.PriceSnapshot, token string) (float64, bool) {
	if domain.IsStablecoin(token) {
		return 1.0, true
	}
	for _, byVenue := range snap.Prices {
		for _, prices := range byVenue {
			if _, info, ok := stableQuote(prices, token); ok {
				return info.Mid(), true
			}
		}
	}
	return 0, false
}
