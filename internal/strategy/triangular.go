package strategy

import (
	"context"
	"log/slog"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
)

// TriangularConfig tunes the single-venue triangle injector.
type TriangularConfig struct {
	// Majors limits triangle search to liquid currencies. Empty means the
	// standard set.
	Majors []string
}

var defaultMajors = []string{"BTC", "ETH", "USDT", "USDC", "BNB"}

// TriangularInjector adds, per venue, the three edges of every currency
// triangle whose pairs (or their reciprocals) all trade on that venue. The
// action on each hop is fixed by which literal pair string matched: the
// direct pair sells the base at the bid, the inverted pair buys it at the
// reciprocal of the ask. Actions are never inferred from hop position.
type TriangularInjector struct {
	cfg    TriangularConfig
	logger *slog.Logger
}

// NewTriangularInjector creates the triangle injector.
func NewTriangularInjector(cfg TriangularConfig, logger *slog.Logger) *TriangularInjector {
	if len(cfg.Majors) == 0 {
		cfg.Majors = defaultMajors
	}
	return &TriangularInjector{
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", StrategyTriangular)),
	}
}

// Name returns the strategy identifier.
func (t *TriangularInjector) Name() string { return StrategyTriangular }

// hop is one resolved leg of a triangle.
type hop struct {
	from, to string
	pair     string
	action   domain.HopAction
	rate     float64
	fee      float64
}

// AddEdges resolves triangles on every venue in the snapshot.
func (t *TriangularInjector) AddEdges(ctx context.Context, g *graph.Graph, snap *domain.PriceSnapshot) (int, error) {
	if snap == nil {
		return 0, nil
	}
	added := 0
	for kind, byVenue := range snap.Prices {
		for venue, prices := range byVenue {
			added += t.addForVenue(g, venue, kind, prices)
		}
		select {
		case <-ctx.Done():
			return added, ctx.Err()
		default:
		}
	}
	return added, nil
}

func (t *TriangularInjector) addForVenue(g *graph.Graph, venue string, kind domain.VenueKind, prices domain.VenuePrices) int {
	normalized := make(domain.VenuePrices, len(prices))
	present := make(map[string]bool)
	for pair, raw := range prices {
		info, ok := raw.Normalized()
		if !ok {
			continue
		}
		base, quote, ok := domain.SplitPair(pair)
		if !ok {
			continue
		}
		normalized[pair] = info
		present[base] = true
		present[quote] = true
	}

	var majors []string
	for _, c := range t.cfg.Majors {
		if present[c] {
			majors = append(majors, c)
		}
	}

	added := 0
	for _, a := range majors {
		for _, b := range majors {
			if b == a {
				continue
			}
			for _, c := range majors {
				if c == a || c == b {
					continue
				}
				added += t.addTriangle(g, venue, kind, normalized, a, b, c)
			}
		}
	}
	return added
}

func (t *TriangularInjector) addTriangle(g *graph.Graph, venue string, kind domain.VenueKind, prices domain.VenuePrices, a, b, c string) int {
	hops := make([]hop, 0, 3)
	for _, leg := range [3][2]string{{a, b}, {b, c}, {c, a}} {
		h, ok := t.resolveHop(prices, kind, leg[0], leg[1])
		if !ok {
			return 0
		}
		hops = append(hops, h)
	}

	// Only wire triangles whose post-fee round trip beats break-even.
	product := 1.0
	for _, h := range hops {
		product *= h.rate * (1 - h.fee)
	}
	if product <= 1.0 {
		return 0
	}

	added := 0
	for _, h := range hops {
		weight, err := graph.EdgeWeight(h.rate, h.fee)
		if err != nil {
			t.logger.Debug("dropping triangle edge",
				slog.String("venue", venue),
				slog.String("pair", h.pair),
				slog.String("reason", err.Error()))
			continue
		}
		from := graph.Node{Token: h.from, Venue: venue, Kind: kind}
		to := graph.Node{Token: h.to, Venue: venue, Kind: kind}
		g.AddNode(from)
		g.AddNode(to)
		err = g.AddEdge(graph.Edge{
			From:      from.Key(),
			To:        to.Key(),
			Weight:    weight,
			Rate:      h.rate,
			Fee:       h.fee,
			Slippage:  DefaultSlippage,
			Strategy:  StrategyTriangular,
			Action:    h.action,
			Pair:      h.pair,
			BuyVenue:  venue,
			SellVenue: venue,
		})
		if err == nil {
			added++
		}
	}
	return added
}

// resolveHop finds the pair carrying the from->to conversion. A literal
// "from/to" listing sells the base at the bid; only when that is absent
// does the inverted "to/from" listing buy the base at 1/ask.
func (t *TriangularInjector) resolveHop(prices domain.VenuePrices, kind domain.VenueKind, from, to string) (hop, bool) {
	if info, ok := prices[from+"/"+to]; ok && info.Bid > 0 {
		return hop{
			from:   from,
			to:     to,
			pair:   from + "/" + to,
			action: domain.ActionSellBase,
			rate:   info.Bid,
			fee:    t.feeFor(kind, info),
		}, true
	}
	if info, ok := prices[to+"/"+from]; ok && info.Ask > 0 {
		return hop{
			from:   from,
			to:     to,
			pair:   to + "/" + from,
			action: domain.ActionBuyBase,
			rate:   1 / info.Ask,
			fee:    t.feeFor(kind, info),
		}, true
	}
	return hop{}, false
}

func (t *TriangularInjector) feeFor(kind domain.VenueKind, info domain.PriceInfo) float64 {
	if kind == domain.VenueDecentralized {
		if info.Fee > 0 {
			return info.Fee
		}
		return 0.003
	}
	return 0.001
}
