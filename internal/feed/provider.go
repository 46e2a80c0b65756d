// Package feed assembles multi-venue price snapshots for the scan engine.
// Providers quote one venue each; the Aggregator fans out across them and
// merges the results into a single snapshot.
package feed

import (
	"context"
	"fmt"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/platform/binance"
	"github.com/HonzaHezina/AIarbi/internal/platform/uniswap"
)

// Provider quotes the configured pairs on one venue.
type Provider interface {
	Name() string
	Kind() domain.VenueKind
	Fetch(ctx context.Context, pairs []string) (domain.VenuePrices, error)
}

// BinanceProvider quotes spot pairs via the Binance REST API.
type BinanceProvider struct {
	client *binance.Client
}

// NewBinanceProvider wraps an existing REST client.
func NewBinanceProvider(client *binance.Client) *BinanceProvider {
	return &BinanceProvider{client: client}
}

func (p *BinanceProvider) Name() string           { return "binance" }
func (p *BinanceProvider) Kind() domain.VenueKind { return domain.VenueCentralized }

// Fetch quotes all pairs in one batched bookTicker call.
func (p *BinanceProvider) Fetch(ctx context.Context, pairs []string) (domain.VenuePrices, error) {
	symbols := make([]string, len(pairs))
	pairBySymbol := make(map[string]string, len(pairs))
	for i, pair := range pairs {
		sym := binance.Symbol(pair)
		symbols[i] = sym
		pairBySymbol[sym] = pair
	}

	tickers, err := p.client.BookTickers(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("feed: binance fetch: %w", err)
	}

	out := make(domain.VenuePrices, len(tickers))
	for _, t := range tickers {
		pair, ok := pairBySymbol[t.Symbol]
		if !ok {
			continue
		}
		out[pair] = t.ToPriceInfo()
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("feed: binance returned no usable quotes")
	}
	return out, nil
}

// UniswapProvider quotes on-chain pools. The pool set is fixed at reader
// construction, so the requested pairs are ignored.
type UniswapProvider struct {
	reader *uniswap.Reader
	venue  string
}

// NewUniswapProvider wraps an existing on-chain reader. venue is the name
// the quotes are published under, e.g. "uniswap_v3".
func NewUniswapProvider(reader *uniswap.Reader, venue string) *UniswapProvider {
	return &UniswapProvider{reader: reader, venue: venue}
}

func (p *UniswapProvider) Name() string           { return p.venue }
func (p *UniswapProvider) Kind() domain.VenueKind { return domain.VenueDecentralized }

func (p *UniswapProvider) Fetch(ctx context.Context, _ []string) (domain.VenuePrices, error) {
	return p.reader.Prices(ctx)
}

var (
	_ Provider = (*BinanceProvider)(nil)
	_ Provider = (*UniswapProvider)(nil)
)
