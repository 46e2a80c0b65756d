package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HonzaHezina/AIarbi/internal/arbitrage"
	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
	"github.com/HonzaHezina/AIarbi/internal/risk"
	"github.com/HonzaHezina/AIarbi/internal/strategy"
)

// OpportunityChannel is the pub/sub channel scan results are announced on.
const OpportunityChannel = "opportunities"

// SnapshotSource produces one consistent multi-venue price snapshot per call.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*domain.PriceSnapshot, error)
}

// Announcer pushes a scan's opportunities to an external channel, such as
// Telegram or Discord. Implementations decide which opportunities are worth
// announcing.
type Announcer interface {
	Publish(ctx context.Context, opps []domain.Opportunity) error
}

// Config holds the engine's tunable parameters. The zero value gets
// sensible defaults from NewEngine.
type Config struct {
	StartingCapitalUSD float64
	CacheTTL           time.Duration
	ScanLockTTL        time.Duration
	Logger             *slog.Logger
}

// Engine runs the detection pipeline: snapshot, graph build, strategy edge
// injection, negative-cycle detection, profit simulation, risk scoring and
// ranking. One Scan call is one complete pass; the engine holds no state
// between scans apart from the statistical price history.
type Engine struct {
	source      SnapshotSource
	builder     *graph.Builder
	registry    *strategy.Registry
	statistical *strategy.StatisticalInjector
	detector    *arbitrage.Detector
	simulator   *arbitrage.Simulator
	scorer      *risk.Scorer

	// Optional collaborators. A nil value disables the concern; the scan
	// itself never depends on any of them succeeding.
	opps      domain.OpportunityCache
	bus       domain.SignalBus
	archiver  domain.SnapshotArchiver
	locks     domain.LockManager
	announcer Announcer

	cfg    Config
	logger *slog.Logger

	mu   sync.RWMutex
	last *ScanResult
}

// Dependencies carries the engine's collaborators. Source, Builder,
// Registry, Detector, Simulator and Scorer are required; the rest are
// optional.
type Dependencies struct {
	Source      SnapshotSource
	Builder     *graph.Builder
	Registry    *strategy.Registry
	Statistical *strategy.StatisticalInjector
	Detector    *arbitrage.Detector
	Simulator   *arbitrage.Simulator
	Scorer      *risk.Scorer

	Opportunities domain.OpportunityCache
	Bus           domain.SignalBus
	Archiver      domain.SnapshotArchiver
	Locks         domain.LockManager
	Announcer     Announcer
}

// NewEngine creates an Engine.
func NewEngine(deps Dependencies, cfg Config) *Engine {
	if cfg.StartingCapitalUSD <= 0 {
		cfg.StartingCapitalUSD = 1000
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 60 * time.Second
	}
	if cfg.ScanLockTTL <= 0 {
		cfg.ScanLockTTL = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source:      deps.Source,
		builder:     deps.Builder,
		registry:    deps.Registry,
		statistical: deps.Statistical,
		detector:    deps.Detector,
		simulator:   deps.Simulator,
		scorer:      deps.Scorer,
		opps:        deps.Opportunities,
		bus:         deps.Bus,
		archiver:    deps.Archiver,
		locks:       deps.Locks,
		announcer:   deps.Announcer,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "engine")),
	}
}

// ScanResult summarizes one completed scan.
type ScanResult struct {
	ScanID        string               `json:"scan_id"`
	StartedAt     time.Time            `json:"started_at"`
	Duration      time.Duration        `json:"duration"`
	GraphStats    graph.Statistics     `json:"graph_stats"`
	CyclesFound   int                  `json:"cycles_found"`
	Opportunities []domain.Opportunity `json:"opportunities"`
}

// Scan runs one complete detection pass. It returns an error only when the
// pipeline cannot produce a result at all: no snapshot, or another scan
// holding the lock. Per-injector and per-cycle failures degrade the result
// instead of aborting it.
func (e *Engine) Scan(ctx context.Context) (*ScanResult, error) {
	started := time.Now().UTC()
	scanID := uuid.New().String()
	logger := e.logger.With(slog.String("scan_id", scanID))

	if e.locks != nil {
		unlock, err := e.locks.Acquire(ctx, "scan", e.cfg.ScanLockTTL)
		if err != nil {
			return nil, fmt.Errorf("engine: acquire scan lock: %w", err)
		}
		defer unlock()
	}

	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch snapshot: %w", err)
	}
	if snap == nil || len(snap.Prices) == 0 {
		return nil, domain.ErrInvalidSnapshot
	}

	if e.statistical != nil {
		e.statistical.UpdateHistory(ctx, snap)
	}

	g := e.builder.Build(snap)
	for _, inj := range e.registry.Injectors() {
		added, injErr := inj.AddEdges(ctx, g, snap)
		e.registry.RecordRun(inj.Name(), added, injErr)
		if injErr != nil {
			logger.Warn("injector failed, continuing scan",
				slog.String("injector", inj.Name()),
				slog.String("error", injErr.Error()),
			)
		}
	}

	stats := g.Statistics()
	logger.Info("graph built",
		slog.Int("nodes", stats.Nodes),
		slog.Int("edges", stats.Edges),
		slog.Int("tokens", stats.Tokens),
		slog.Int("venues", stats.Venues),
		slog.Float64("density", stats.Density),
	)

	cycles := e.detector.DetectAllCycles(g)
	opportunities := make([]domain.Opportunity, 0, len(cycles))
	for _, cycle := range cycles {
		breakdown, simErr := e.simulator.Simulate(cycle, snap, e.cfg.StartingCapitalUSD)
		if simErr != nil {
			logger.Debug("cycle dropped, simulation failed",
				slog.String("path", summarizePath(cycle.Path)),
				slog.String("error", simErr.Error()),
			)
			continue
		}
		assessment := e.scorer.Assess(cycle, breakdown)
		opportunities = append(opportunities, domain.Opportunity{
			ID:                 uuid.New().String(),
			ScanID:             scanID,
			Strategy:           cycle.StrategyType,
			Token:              tokenOf(cycle.Path[0]),
			Path:               cycle.Path,
			PathSummary:        summarizePath(cycle.Path),
			ProfitPct:          breakdown.ProfitPct,
			ProfitUSD:          breakdown.ProfitUSD,
			FeesTotalUSD:       breakdown.TotalFeesUSD,
			RequiredCapitalUSD: breakdown.StartCapitalUSD,
			Confidence:         assessment.Confidence,
			RiskLevel:          assessment.RiskLevel,
			ExecutionTimeSec:   assessment.ExecutionTimeSec,
			Status:             "detected",
			DetectedAt:         started,
			Cycle:              cycle,
		})
	}

	e.scorer.Rank(opportunities)

	result := &ScanResult{
		ScanID:        scanID,
		StartedAt:     started,
		Duration:      time.Since(started),
		GraphStats:    stats,
		CyclesFound:   len(cycles),
		Opportunities: opportunities,
	}

	e.mu.Lock()
	e.last = result
	e.mu.Unlock()

	e.fanOut(ctx, logger, result, snap)

	logger.Info("scan complete",
		slog.Int("cycles", len(cycles)),
		slog.Int("opportunities", len(opportunities)),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

// fanOut distributes a finished scan to the cache, the signal bus and cold
// storage. Every step is best-effort.
func (e *Engine) fanOut(ctx context.Context, logger *slog.Logger, result *ScanResult, snap *domain.PriceSnapshot) {
	if e.opps != nil {
		if err := e.opps.SetScan(ctx, result.ScanID, result.Opportunities, e.cfg.CacheTTL); err != nil {
			logger.Warn("opportunity cache write failed", slog.String("error", err.Error()))
		}
	}
	if e.bus != nil {
		payload, err := json.Marshal(result)
		if err == nil {
			err = e.bus.Publish(ctx, OpportunityChannel, payload)
		}
		if err != nil {
			logger.Warn("scan publish failed", slog.String("error", err.Error()))
		}
	}
	if e.archiver != nil {
		if path, err := e.archiver.ArchiveSnapshot(ctx, snap); err != nil {
			logger.Warn("snapshot archive failed", slog.String("error", err.Error()))
		} else {
			logger.Debug("snapshot archived", slog.String("path", path))
		}
	}
	if e.announcer != nil {
		if err := e.announcer.Publish(ctx, result.Opportunities); err != nil {
			logger.Warn("opportunity announcement failed", slog.String("error", err.Error()))
		}
	}
}

// LastResult returns the most recently completed scan, nil before the
// first one finishes.
func (e *Engine) LastResult() *ScanResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// RunLoop scans on a fixed interval until ctx is cancelled. The first scan
// runs immediately. A send on trigger forces an extra scan between ticks;
// trigger may be nil.
func (e *Engine) RunLoop(ctx context.Context, interval time.Duration, trigger <-chan struct{}) error {
	if interval <= 0 {
		return fmt.Errorf("engine: scan interval must be positive, got %v", interval)
	}
	e.logger.Info("scan loop starting", slog.Duration("interval", interval))

	if _, err := e.Scan(ctx); err != nil {
		e.logger.Error("scan failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-trigger:
			if _, err := e.Scan(ctx); err != nil {
				e.logger.Error("triggered scan failed", slog.String("error", err.Error()))
			}
		case <-ticker.C:
			if _, err := e.Scan(ctx); err != nil {
				e.logger.Error("scan failed", slog.String("error", err.Error()))
			}
		}
	}
}

func summarizePath(path []string) string {
	return strings.Join(path, " -> ")
}

func tokenOf(nodeKey string) string {
	if i := strings.IndexByte(nodeKey, '@'); i > 0 {
		return nodeKey[:i]
	}
	return nodeKey
}
