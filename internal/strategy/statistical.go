package strategy

import (
	"context"
	"log/slog"
	"math"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
)

// StatisticalConfig tunes the mean-reversion injector.
type StatisticalConfig struct {
	MinPoints       int     // observations required per node before acting
	MinRatios       int     // aligned ratio samples required
	ZThreshold      float64 // |z| that counts as an anomaly
	CorrelationMin  float64 // required cross-venue price correlation
	ConfidenceFloor float64 // anomalies below this confidence are ignored
	// WeightFactor scales how strongly confidence discounts the edge
	// weight: multiplier = 1 - confidence*WeightFactor.
	WeightFactor float64
}

// DefaultStatisticalConfig matches the standard anomaly thresholds.
func DefaultStatisticalConfig() StatisticalConfig {
	return StatisticalConfig{
		MinPoints:       20,
		MinRatios:       10,
		ZThreshold:      2.0,
		CorrelationMin:  0.7,
		ConfidenceFloor: 0.6,
		WeightFactor:    0.2,
	}
}

// StatisticalInjector watches the cross-venue price ratio of each token and,
// when the current ratio deviates from its history by more than the z
// threshold on a well-correlated pair, rescales the weight of the already
// existing edges in the anomaly's favored direction. It never creates
// edges: a missing edge means no upstream mechanism priced that move, and
// a statistical signal alone is not a trade.
type StatisticalInjector struct {
	cfg     StatisticalConfig
	tracker *PriceTracker
	logger  *slog.Logger
}

// NewStatisticalInjector creates the mean-reversion injector around a
// shared price tracker.
func NewStatisticalInjector(cfg StatisticalConfig, tracker *PriceTracker, logger *slog.Logger) *StatisticalInjector {
	if cfg.MinPoints <= 0 {
		cfg = DefaultStatisticalConfig()
	}
	return &StatisticalInjector{
		cfg:     cfg,
		tracker: tracker,
		logger:  logger.With(slog.String("strategy", StrategyStatistical)),
	}
}

// Name returns the strategy identifier.
func (s *StatisticalInjector) Name() string { return StrategyStatistical }

// Tracker exposes the shared history for the scan loop to feed.
func (s *StatisticalInjector) Tracker() *PriceTracker { return s.tracker }

// UpdateHistory records the snapshot's mid prices into the rolling history.
// The scan loop calls this before building the graph.
func (s *StatisticalInjector) UpdateHistory(ctx context.Context, snap *domain.PriceSnapshot) {
	if snap == nil {
		return
	}
	for _, byVenue := range snap.Prices {
		for venue, prices := range byVenue {
			for _, token := range snap.Tokens {
				if _, info, ok := stableQuote(prices, token); ok {
					key := token + "@" + venue
					s.tracker.Track(ctx, key, info.Mid(), snap.CapturedAt)
				}
			}
		}
	}
}

// AddEdges looks for ratio anomalies between every pair of venues listing
// the same token and rescales the favored direction's existing edges.
func (s *StatisticalInjector) AddEdges(ctx context.Context, g *graph.Graph, snap *domain.PriceSnapshot) (int, error) {
	if snap == nil {
		return 0, nil
	}
	rescaled := 0
	for _, token := range snap.Tokens {
		if domain.IsStablecoin(token) {
			continue
		}
		nodes := nodesForToken(g, token)
		for i := 0; i < len(nodes); i++ {
			for j := i + 1; j < len(nodes); j++ {
				rescaled += s.checkPair(g, nodes[i], nodes[j])
			}
		}
		select {
		case <-ctx.Done():
			return rescaled, ctx.Err()
		default:
		}
	}
	return rescaled, nil
}

func (s *StatisticalInjector) checkPair(g *graph.Graph, a, b graph.Node) int {
	keyA, keyB := a.Key(), b.Key()
	if s.tracker.Len(keyA) < s.cfg.MinPoints || s.tracker.Len(keyB) < s.cfg.MinPoints {
		return 0
	}
	if corr := s.tracker.Correlation(keyA, keyB); corr < s.cfg.CorrelationMin {
		return 0
	}

	pricesA, pricesB := s.tracker.AlignedTails(keyA, keyB)
	ratios := make([]float64, 0, len(pricesA))
	for i := range pricesA {
		if pricesB[i] > 0 {
			ratios = append(ratios, pricesA[i]/pricesB[i])
		}
	}
	if len(ratios) < s.cfg.MinRatios {
		return 0
	}
	m := mean(ratios)
	sd := stddev(ratios)
	if sd == 0 {
		return 0
	}
	current := ratios[len(ratios)-1]
	z := (current - m) / sd
	if math.Abs(z) <= s.cfg.ZThreshold {
		return 0
	}
	confidence := math.Min(0.99, math.Abs(z)/(2*s.cfg.ZThreshold))
	if confidence < s.cfg.ConfidenceFloor {
		return 0
	}

	// A high ratio means the token is rich on venue A: the favored trade
	// sells there and buys on venue B, which is the A->B direction.
	from, to := keyA, keyB
	if z < 0 {
		from, to = keyB, keyA
	}
	edges := g.EdgesBetween(from, to)
	if len(edges) == 0 {
		return 0
	}
	multiplier := 1 - confidence*s.cfg.WeightFactor
	rescaled := 0
	for _, e := range edges {
		next := e.Weight * multiplier
		if math.Abs(next) > graph.MaxWeight || e.Fee >= 1 {
			continue
		}
		// Keep the weight/rate identity intact so the simulator sees the
		// same conversion the detector scored.
		rate := math.Exp(-next) / (1 - e.Fee)
		if rate < graph.MinRate || rate > graph.MaxRate {
			continue
		}
		e.Weight = next
		e.Rate = rate
		e.Confidence = confidence
		rescaled++
	}
	if rescaled > 0 {
		s.logger.Debug("rescaled edges on ratio anomaly",
			slog.String("from", from),
			slog.String("to", to),
			slog.Float64("z", z),
			slog.Float64("confidence", confidence))
	}
	return rescaled
}
