package domain

import (
	"context"
	"time"
)

// PriceHistoryCache persists the rolling per-node price history so the
// statistical strategy survives restarts. Node keys are "TOKEN@venue".
type PriceHistoryCache interface {
	Append(ctx context.Context, nodeKey string, price float64, ts time.Time) error
	History(ctx context.Context, nodeKey string, limit int) ([]float64, error)
}

// OpportunityCache holds the latest scan's results. A newer scan replaces
// the cached set wholesale; there is no partial merging.
type OpportunityCache interface {
	SetScan(ctx context.Context, scanID string, opps []Opportunity, ttl time.Duration) error
	Latest(ctx context.Context) ([]Opportunity, error)
}

// RateLimiter provides distributed rate limiting for venue API calls.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locking, used to keep concurrent scan
// triggers from running on top of each other.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StreamMessage represents a single entry from a Redis stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams for opportunity fan-out.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
