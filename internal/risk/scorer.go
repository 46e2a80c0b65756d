package risk

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// Scoring weights for the composite ranking score.
const (
	weightProfit     = 0.4
	weightRisk       = 0.3
	weightComplexity = 0.2
	weightConfidence = 0.1

	// Execution times at or above this many seconds contribute nothing
	// to the complexity term.
	maxExecutionTimeSec = 300
)

// Venue substrings that mark a hop as on-chain. On-chain hops carry
// settlement latency and contract risk that centralized venues do not.
var riskyVenueMarkers = []string{"dex", "uniswap", "sushi", "pancake"}

// ScorerConfig holds the tunable parameters for opportunity scoring.
type ScorerConfig struct {
	Logger *slog.Logger
}

// Scorer assigns a risk assessment to each simulated cycle and ranks the
// resulting opportunities. Scoring is heuristic: additive penalty points
// mapped to a confidence value and a coarse risk bucket.
type Scorer struct {
	logger *slog.Logger
}

// NewScorer creates a Scorer.
func NewScorer(cfg ScorerConfig) *Scorer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		logger: logger.With(slog.String("component", "risk_scorer")),
	}
}

// Assess scores one simulated cycle. Penalty points accumulate for
// suspicious profit, thin margins, long paths, and on-chain venues;
// confidence is 1 - score/10 clamped to [0.1, 0.95].
func (s *Scorer) Assess(cycle domain.Cycle, breakdown domain.ProfitBreakdown) domain.RiskAssessment {
	score := 0

	switch {
	case breakdown.ProfitPct > 5.0:
		// Profits past 5% usually mean stale or corrupted quotes, not
		// free money.
		score += 3
	case breakdown.ProfitPct < 0.5:
		score += 1
	}

	if len(cycle.Path) > 4 {
		score += 2
	}

	for _, venue := range cycle.Venues {
		if isRiskyVenue(venue) {
			score++
		}
	}

	confidence := 1.0 - float64(score)/10.0
	if confidence < 0.1 {
		confidence = 0.1
	}
	if confidence > 0.95 {
		confidence = 0.95
	}

	var level domain.RiskLevel
	switch {
	case score <= 2:
		level = domain.RiskLow
	case score <= 5:
		level = domain.RiskMedium
	default:
		level = domain.RiskHigh
	}

	return domain.RiskAssessment{
		Confidence:       confidence,
		RiskLevel:        level,
		ExecutionTimeSec: estimateExecutionTime(cycle),
	}
}

// estimateExecutionTime approximates wall-clock settlement time: a fixed
// base, a per-hop cost, and a much larger cost per on-chain hop.
func estimateExecutionTime(cycle domain.Cycle) float64 {
	dexHops := 0
	for i := 0; i+1 < len(cycle.Path); i++ {
		if isRiskyVenue(cycle.Path[i]) {
			dexHops++
		}
	}
	return float64(10 + 5*cycle.Hops + 30*dexHops)
}

func isRiskyVenue(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range riskyVenueMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Score computes the composite ranking score in [0, 1] for one
// opportunity: profit 40%, risk bucket 30%, execution complexity 20%,
// confidence 10%.
func (s *Scorer) Score(opp domain.Opportunity) float64 {
	profitTerm := opp.ProfitPct / 2.0
	if profitTerm > 1.0 {
		profitTerm = 1.0
	}
	if profitTerm < 0 {
		profitTerm = 0
	}

	var riskTerm float64
	switch opp.RiskLevel {
	case domain.RiskLow:
		riskTerm = 1.0
	case domain.RiskMedium:
		riskTerm = 2.0 / 3.0
	default:
		riskTerm = 1.0 / 3.0
	}

	complexityTerm := 1.0 - opp.ExecutionTimeSec/maxExecutionTimeSec
	if complexityTerm < 0 {
		complexityTerm = 0
	}

	score := profitTerm*weightProfit +
		riskTerm*weightRisk +
		complexityTerm*weightComplexity +
		opp.Confidence*weightConfidence
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Rank sorts opportunities by composite score, best first. The sort is
// stable so equally scored opportunities keep their detection order.
func (s *Scorer) Rank(opps []domain.Opportunity) {
	scores := make([]float64, len(opps))
	for i := range opps {
		scores[i] = s.Score(opps[i])
	}
	indices := make([]int, len(opps))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return scores[indices[i]] > scores[indices[j]]
	})
	ranked := make([]domain.Opportunity, len(opps))
	for pos, idx := range indices {
		ranked[pos] = opps[idx]
	}
	copy(opps, ranked)
}
