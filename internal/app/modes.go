package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/feed"
	"github.com/HonzaHezina/AIarbi/internal/platform/binance"
	"github.com/HonzaHezina/AIarbi/internal/server"
	"github.com/HonzaHezina/AIarbi/internal/server/handler"
	"github.com/HonzaHezina/AIarbi/internal/server/ws"
)

// ScanMode runs a single detection pass and writes the result to stdout as
// JSON. Exit status reflects whether the scan itself succeeded, not whether
// it found anything.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	result, err := deps.Engine.Scan(ctx)
	if err != nil {
		return fmt.Errorf("app: scan: %w", err)
	}

	if topN := a.cfg.Scan.TopN; topN > 0 && len(result.Opportunities) > topN {
		result.Opportunities = result.Opportunities[:topN]
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("app: encode scan result: %w", err)
	}

	a.logger.InfoContext(ctx, "scan complete",
		slog.String("scan_id", result.ScanID),
		slog.Int("opportunities", len(result.Opportunities)),
	)
	return nil
}

// ServeMode runs the scan loop and the HTTP + WebSocket API until the
// context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	startedAt := time.Now()
	trigger := make(chan struct{}, 1)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Engine.RunLoop(ctx, a.cfg.Scan.Interval.Duration, trigger)
	})

	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "api server disabled")
		return g.Wait()
	}

	// The handlers read from the cache first and fall back to the engine's
	// in-process copy, so the API stays useful without Redis.
	lastOpps := func() []domain.Opportunity {
		if result := deps.Engine.LastResult(); result != nil {
			return result.Opportunities
		}
		return nil
	}

	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(a.logger),
		Opportunities: handler.NewOpportunityHandler(deps.Opportunities, lastOpps, a.logger),
		Stats:         handler.NewStatsHandler(a.cfg.Mode, startedAt, deps.Engine.LastResult),
		Scan:          handler.NewScanHandler(a.logger).WithTriggerChannel(trigger),
	}

	var hub *ws.Hub
	if deps.Bus != nil {
		hub = ws.NewHub(deps.Bus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: startedAt,
		})
		g.Go(func() error { return hub.Run(ctx) })
	}

	srv := server.NewServer(server.Config{
		Addr:        a.cfg.Server.Addr,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		Limiter:     deps.RateLimiter,
	}, handlers, hub, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// FeedMode streams live Binance book tickers and logs them. It exists to
// verify connectivity and credentials without running the full pipeline.
func (a *App) FeedMode(ctx context.Context, _ *Dependencies) error {
	a.logger.InfoContext(ctx, "starting feed mode",
		slog.String("ws_url", a.cfg.Binance.WsURL),
		slog.Int("pairs", len(a.cfg.Venues.Pairs)),
	)

	wsClient := binance.NewWSClient(a.cfg.Binance.WsURL)
	wsClient.OnTicker(func(t binance.BookTicker) {
		a.logger.Info("tick",
			slog.String("symbol", t.Symbol),
			slog.Float64("bid", t.BidPrice),
			slog.Float64("ask", t.AskPrice),
		)
	})

	ticker := feed.NewTickerFeed(wsClient, a.cfg.Venues.Pairs, a.logger)
	if err := ticker.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("app: feed: %w", err)
	}
	return nil
}
