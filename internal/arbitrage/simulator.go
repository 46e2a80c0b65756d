package arbitrage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// SimulatorConfig tunes the per-hop cost defaults.
type SimulatorConfig struct {
	DefaultFee      float64 // applied when a hop record carries no fee
	DefaultSlippage float64 // applied when a hop record carries no slippage
	PriceOverrides  map[string]float64
	Logger          *slog.Logger
}

// Simulator replays one cycle with real token quantities. Starting capital
// is converted into units of the starting token once, quantities propagate
// hop to hop, and only the entry and exit cross through USD. The result is
// fully determined by the cycle's edge_data and the snapshot: an
// independent recomputation from those inputs must reproduce it exactly.
type Simulator struct {
	defaultFee      float64
	defaultSlippage float64
	resolver        *PriceResolver
	logger          *slog.Logger
}

// NewSimulator creates a simulator.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.DefaultFee <= 0 {
		cfg.DefaultFee = 0.001
	}
	if cfg.DefaultSlippage <= 0 {
		cfg.DefaultSlippage = 0.0005
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		defaultFee:      cfg.DefaultFee,
		defaultSlippage: cfg.DefaultSlippage,
		resolver:        NewPriceResolver(cfg.PriceOverrides),
		logger:          logger.With(slog.String("component", "profit_simulator")),
	}
}

// Simulate replays the cycle with startingCapitalUSD. The returned error
// marks the cycle as unsimulatable; it never reflects a scan failure.
func (s *Simulator) Simulate(cycle domain.Cycle, snap *domain.PriceSnapshot, startingCapitalUSD float64) (domain.ProfitBreakdown, error) {
	if len(cycle.Path) < 3 {
		return domain.ProfitBreakdown{}, domain.ErrEmptyCycle
	}
	if startingCapitalUSD <= 0 {
		return domain.ProfitBreakdown{}, fmt.Errorf("starting capital must be positive, got %v", startingCapitalUSD)
	}

	startToken := tokenOf(cycle.Path[0])
	startPrice, ok := s.resolver.PriceUSD(snap, startToken)
	if !ok || startPrice <= 0 {
		return domain.ProfitBreakdown{}, fmt.Errorf("%w: %s", domain.ErrNoPrice, startToken)
	}

	quantity := startingCapitalUSD / startPrice
	breakdown := domain.ProfitBreakdown{
		StartCapitalUSD:  startingCapitalUSD,
		StartTokenAmount: quantity,
		StartPriceUSD:    startPrice,
		Hops:             make([]domain.HopResult, 0, len(cycle.Path)-1),
	}

	for i := 0; i+1 < len(cycle.Path); i++ {
		from, to := cycle.Path[i], cycle.Path[i+1]
		ed, ok := cycle.EdgeData[domain.HopKey(from, to)]
		if !ok {
			return domain.ProfitBreakdown{}, fmt.Errorf("cycle missing edge data for hop %s", domain.HopKey(from, to))
		}
		if ed.Rate <= 0 {
			return domain.ProfitBreakdown{}, fmt.Errorf("non-positive rate %v on hop %s", ed.Rate, domain.HopKey(from, to))
		}
		fee := ed.Fee
		if fee <= 0 {
			fee = s.defaultFee
		}
		slippage := ed.Slippage
		if slippage <= 0 {
			slippage = s.defaultSlippage
		}

		next := quantity * ed.Rate * (1 - fee - slippage)
		feeTokens := quantity * ed.Rate * (fee + slippage)
		// A token with no resolvable price contributes zero to the fee
		// total rather than failing the simulation.
		feeUSD := feeTokens * priceOrZero(s.resolver, snap, tokenOf(to))
		breakdown.TotalFeesUSD += feeUSD

		breakdown.Hops = append(breakdown.Hops, domain.HopResult{
			From:        from,
			To:          to,
			Pair:        ed.Pair,
			Action:      ed.Action,
			Rate:        ed.Rate,
			Fee:         fee,
			Slippage:    slippage,
			QuantityIn:  quantity,
			QuantityOut: next,
			FeeUSD:      feeUSD,
		})
		quantity = next
	}

	endToken := tokenOf(cycle.Path[len(cycle.Path)-1])
	endPrice, ok := s.resolver.PriceUSD(snap, endToken)
	if !ok || endPrice <= 0 {
		return domain.ProfitBreakdown{}, fmt.Errorf("%w: %s", domain.ErrNoPrice, endToken)
	}

	finalUSD := quantity * endPrice
	breakdown.FinalTokenAmount = quantity
	breakdown.FinalPriceUSD = endPrice
	breakdown.ProfitUSD = finalUSD - startingCapitalUSD
	breakdown.ProfitPct = breakdown.ProfitUSD / startingCapitalUSD * 100
	return breakdown, nil
}

func priceOrZero(r *PriceResolver, snap *domain.PriceSnapshot, token string) float64 {
	if price, ok := r.PriceUSD(snap, token); ok {
		return price
	}
	return 0
}

// tokenOf splits the token out of a "TOKEN@venue" node key.
func tokenOf(nodeKey string) string {
	if i := strings.IndexByte(nodeKey, '@'); i > 0 {
		return nodeKey[:i]
	}
	return nodeKey
}
