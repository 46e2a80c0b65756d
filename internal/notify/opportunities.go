package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// EventOpportunities is the event type emitted after each scan.
const EventOpportunities = "opportunities"

// OpportunityNotifier formats the top findings of a scan and pushes them
// through the configured channels. Scans below the profit floor stay quiet.
type OpportunityNotifier struct {
	notifier     *Notifier
	minProfitPct float64
	topN         int
	logger       *slog.Logger
}

// OpportunityNotifierConfig holds the notifier's parameters.
type OpportunityNotifierConfig struct {
	// MinProfitPct is the floor below which an opportunity is not reported.
	MinProfitPct float64
	// TopN caps how many opportunities one message carries.
	TopN   int
	Logger *slog.Logger
}

// NewOpportunityNotifier wraps a channel dispatcher.
func NewOpportunityNotifier(notifier *Notifier, cfg OpportunityNotifierConfig) *OpportunityNotifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = 5
	}
	return &OpportunityNotifier{
		notifier:     notifier,
		minProfitPct: cfg.MinProfitPct,
		topN:         topN,
		logger:       logger.With(slog.String("component", "opportunity_notifier")),
	}
}

// Publish reports the ranked opportunities that clear the profit floor.
// Nothing is sent when none qualify.
func (o *OpportunityNotifier) Publish(ctx context.Context, opps []domain.Opportunity) error {
	qualified := make([]domain.Opportunity, 0, o.topN)
	for _, opp := range opps {
		if opp.ProfitPct < o.minProfitPct {
			continue
		}
		qualified = append(qualified, opp)
		if len(qualified) == o.topN {
			break
		}
	}

	if len(qualified) == 0 {
		o.logger.Debug("no opportunities above notification floor",
			slog.Int("scanned", len(opps)),
			slog.Float64("floor_pct", o.minProfitPct))
		return nil
	}

	title := fmt.Sprintf("%d arbitrage opportunities", len(qualified))
	return o.notifier.Notify(ctx, EventOpportunities, title, formatOpportunities(qualified))
}

// formatOpportunities renders one line per opportunity plus its path.
func formatOpportunities(opps []domain.Opportunity) string {
	var b strings.Builder
	for i, opp := range opps {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s %s %+.2f%% ($%.2f) risk %s ~%.0fs\n   %s",
			i+1,
			opp.Token,
			opp.Strategy,
			opp.ProfitPct,
			opp.ProfitUSD,
			opp.RiskLevel,
			opp.ExecutionTimeSec,
			opp.PathSummary,
		)
	}
	return b.String()
}
