package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// fetchTimeout bounds how long one provider may hold up a scan.
const fetchTimeout = 15 * time.Second

// Aggregator fans a snapshot request out to all providers and merges the
// responses. A venue that fails to quote is logged and skipped; the scan
// proceeds on whatever arrived.
type Aggregator struct {
	providers []Provider
	pairs     []string
	logger    *slog.Logger
}

// AggregatorConfig holds the aggregator's parameters.
type AggregatorConfig struct {
	Pairs  []string
	Logger *slog.Logger
}

// NewAggregator creates an Aggregator over the given providers.
func NewAggregator(providers []Provider, cfg AggregatorConfig) *Aggregator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		providers: providers,
		pairs:     cfg.Pairs,
		logger:    logger.With(slog.String("component", "feed_aggregator")),
	}
}

// Snapshot queries every provider concurrently and merges the results into
// one snapshot. It fails only when no provider produced a quote.
func (a *Aggregator) Snapshot(ctx context.Context) (*domain.PriceSnapshot, error) {
	if len(a.providers) == 0 {
		return nil, fmt.Errorf("feed: no providers configured")
	}

	type venueResult struct {
		name   string
		kind   domain.VenueKind
		prices domain.VenuePrices
	}

	var (
		mu      sync.Mutex
		results []venueResult
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range a.providers {
		p := p
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, fetchTimeout)
			defer cancel()

			start := time.Now()
			prices, err := p.Fetch(fctx, a.pairs)
			if err != nil {
				// One dead venue must not kill the whole snapshot.
				a.logger.Warn("provider fetch failed",
					slog.String("venue", p.Name()),
					slog.String("error", err.Error()))
				return nil
			}

			a.logger.Debug("provider fetch complete",
				slog.String("venue", p.Name()),
				slog.Int("quotes", len(prices)),
				slog.Duration("elapsed", time.Since(start)))

			mu.Lock()
			results = append(results, venueResult{name: p.Name(), kind: p.Kind(), prices: prices})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("feed: every provider failed")
	}

	snap := &domain.PriceSnapshot{
		Prices:     make(map[domain.VenueKind]map[string]domain.VenuePrices),
		CapturedAt: time.Now(),
	}

	pairSet := make(map[string]struct{})
	tokenSet := make(map[string]struct{})
	for _, res := range results {
		byKind := snap.Prices[res.kind]
		if byKind == nil {
			byKind = make(map[string]domain.VenuePrices)
			snap.Prices[res.kind] = byKind
		}
		byKind[res.name] = res.prices

		for pair := range res.prices {
			pairSet[pair] = struct{}{}
			if base, quote, ok := domain.SplitPair(pair); ok {
				tokenSet[base] = struct{}{}
				tokenSet[quote] = struct{}{}
			}
		}
	}

	snap.Pairs = sortedKeys(pairSet)
	snap.Tokens = sortedKeys(tokenSet)

	return snap, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
