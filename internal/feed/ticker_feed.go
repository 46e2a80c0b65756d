package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/platform/binance"
)

// TickerFeed keeps a live view of best bid/ask over the Binance WebSocket
// stream. Once running it answers Fetch from the in-memory book instead of
// hitting the REST API, so it can replace BinanceProvider in the aggregator.
type TickerFeed struct {
	ws     *binance.WSClient
	pairs  []string
	logger *slog.Logger

	mu     sync.RWMutex
	latest map[string]domain.PriceInfo // keyed by pair
}

// NewTickerFeed creates a feed over the given WebSocket client.
func NewTickerFeed(ws *binance.WSClient, pairs []string, logger *slog.Logger) *TickerFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &TickerFeed{
		ws:     ws,
		pairs:  pairs,
		logger: logger.With(slog.String("component", "ticker_feed")),
		latest: make(map[string]domain.PriceInfo),
	}
}

func (f *TickerFeed) Name() string           { return "binance" }
func (f *TickerFeed) Kind() domain.VenueKind { return domain.VenueCentralized }

// Run connects, subscribes to the configured pairs, and keeps the book
// updated until ctx is cancelled.
func (f *TickerFeed) Run(ctx context.Context) error {
	if len(f.pairs) == 0 {
		return fmt.Errorf("feed: no pairs to subscribe")
	}

	pairBySymbol := make(map[string]string, len(f.pairs))
	symbols := make([]string, len(f.pairs))
	for i, pair := range f.pairs {
		sym := binance.Symbol(pair)
		symbols[i] = sym
		pairBySymbol[sym] = pair
	}

	f.ws.OnTicker(func(t binance.BookTicker) {
		pair, ok := pairBySymbol[t.Symbol]
		if !ok {
			return
		}
		f.mu.Lock()
		f.latest[pair] = t.ToPriceInfo()
		f.mu.Unlock()
	})

	if err := f.ws.Connect(ctx); err != nil {
		return fmt.Errorf("feed: ticker feed connect: %w", err)
	}
	if err := f.ws.Subscribe(ctx, symbols); err != nil {
		return fmt.Errorf("feed: ticker feed subscribe: %w", err)
	}

	f.logger.Info("ticker feed running", slog.Int("pairs", len(f.pairs)))

	<-ctx.Done()
	if err := f.ws.Close(); err != nil {
		f.logger.Warn("ticker feed close", slog.String("error", err.Error()))
	}
	return ctx.Err()
}

// Fetch returns the current view of the book. Pairs with no tick yet are
// absent.
func (f *TickerFeed) Fetch(_ context.Context, pairs []string) (domain.VenuePrices, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(domain.VenuePrices, len(pairs))
	for _, pair := range pairs {
		if info, ok := f.latest[pair]; ok {
			out[pair] = info
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("feed: no live quotes yet")
	}
	return out, nil
}

var _ Provider = (*TickerFeed)(nil)
