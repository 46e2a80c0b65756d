package strategy

import (
	"context"

	"github.com/HonzaHezina/AIarbi/internal/domain"
	"github.com/HonzaHezina/AIarbi/internal/graph"
)

// Strategy name tags carried on injected edges and on classified cycles.
const (
	StrategyDirectExchange = "dex_cex"
	StrategyCrossExchange  = "cross_exchange"
	StrategyTriangular     = "triangular"
	StrategyWrappedToken   = "wrapped_token"
	StrategyStatistical    = "statistical"

	// StrategyTransfer tags plain 1:1 withdrawal/deposit edges that move a
	// token between venues without trading. They close cycles opened by the
	// price-differential edges.
	StrategyTransfer = "transfer"
)

// EdgeInjector adds or reweights edges for one arbitrage mechanism. The
// pipeline runs every injector once per scan, in a fixed order, against the
// scan's own graph. Injectors never remove edges. AddEdges returns the
// number of edges added or rescaled; a returned error is diagnostic and
// never aborts the scan.
type EdgeInjector interface {
	Name() string
	AddEdges(ctx context.Context, g *graph.Graph, snap *domain.PriceSnapshot) (int, error)
}
