package strategy

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// PricePoint records a single price observation at a point in time.
type PricePoint struct {
	Price float64
	Time  time.Time
}

// PriceTracker maintains a bounded rolling price history for each
// token-at-venue node and exposes the statistical helpers the statistical
// injector relies on. The per-node window is capped at maxPoints; the oldest
// observation is evicted when a new one arrives at capacity. An optional
// PriceHistoryCache persists observations so the history survives restarts.
type PriceTracker struct {
	history   map[string][]PricePoint
	maxPoints int
	cache     domain.PriceHistoryCache
	mu        sync.RWMutex
}

// NewPriceTracker creates a PriceTracker with the given window capacity.
// cache may be nil, in which case history is in-memory only.
func NewPriceTracker(maxPoints int, cache domain.PriceHistoryCache) *PriceTracker {
	if maxPoints <= 0 {
		maxPoints = 100
	}
	return &PriceTracker{
		history:   make(map[string][]PricePoint),
		maxPoints: maxPoints,
		cache:     cache,
	}
}

// Track records a new observation for the node, evicting the oldest point
// once the window is full. Cache writes are best-effort.
func (pt *PriceTracker) Track(ctx context.Context, nodeKey string, price float64, ts time.Time) {
	pt.mu.Lock()
	pts := append(pt.history[nodeKey], PricePoint{Price: price, Time: ts})
	if len(pts) > pt.maxPoints {
		pts = pts[len(pts)-pt.maxPoints:]
	}
	pt.history[nodeKey] = pts
	pt.mu.Unlock()

	if pt.cache != nil {
		_ = pt.cache.Append(ctx, nodeKey, price, ts)
	}
}

// Warm preloads history for the given nodes from the cache.
func (pt *PriceTracker) Warm(ctx context.Context, nodeKeys []string) error {
	if pt.cache == nil {
		return nil
	}
	for _, key := range nodeKeys {
		prices, err := pt.cache.History(ctx, key, pt.maxPoints)
		if err != nil || len(prices) == 0 {
			continue
		}
		pts := make([]PricePoint, 0, len(prices))
		for _, p := range prices {
			pts = append(pts, PricePoint{Price: p})
		}
		pt.mu.Lock()
		if len(pt.history[key]) == 0 {
			pt.history[key] = pts
		}
		pt.mu.Unlock()
	}
	return nil
}

// History returns a copy of the node's window, oldest first.
func (pt *PriceTracker) History(nodeKey string) []PricePoint {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	src := pt.history[nodeKey]
	if len(src) == 0 {
		return nil
	}
	out := make([]PricePoint, len(src))
	copy(out, src)
	return out
}

// Len returns the number of points currently held for the node.
func (pt *PriceTracker) Len(nodeKey string) int {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return len(pt.history[nodeKey])
}

// Average returns the arithmetic mean of the node's window, 0 when empty.
func (pt *PriceTracker) Average(nodeKey string) float64 {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	pts := pt.history[nodeKey]
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		sum += p.Price
	}
	return sum / float64(len(pts))
}

// Volatility returns the population standard deviation of the node's window.
// Fewer than two points yields 0.
func (pt *PriceTracker) Volatility(nodeKey string) float64 {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return stddev(prices(pt.history[nodeKey]))
}

// Correlation returns the Pearson correlation of two nodes' price windows,
// aligned at their most recent points. It returns 0 when either window is
// too short or a series is constant.
func (pt *PriceTracker) Correlation(nodeA, nodeB string) float64 {
	pt.mu.RLock()
	a := prices(pt.history[nodeA])
	b := prices(pt.history[nodeB])
	pt.mu.RUnlock()

	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	meanA := mean(a)
	meanB := mean(b)
	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// AlignedTails returns the two price windows trimmed to a common length,
// most recent points last.
func (pt *PriceTracker) AlignedTails(nodeA, nodeB string) ([]float64, []float64) {
	pt.mu.RLock()
	a := prices(pt.history[nodeA])
	b := prices(pt.history[nodeB])
	pt.mu.RUnlock()

	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return a[len(a)-n:], b[len(b)-n:]
}

func prices(pts []PricePoint) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Price
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var variance float64
	for _, x := range xs {
		d := x - m
		variance += d * d
	}
	variance /= float64(len(xs))
	return math.Sqrt(variance)
}
