package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// historyMaxLen caps the stored history per node so the statistical strategy
// never reads more than its window needs.
const historyMaxLen = 1000

// historyTTL expires histories for nodes that stopped appearing in
// snapshots.
const historyTTL = 24 * time.Hour

// PriceHistoryCache implements domain.PriceHistoryCache using Redis lists.
// Each node's history lives at "history:{nodeKey}", newest first.
type PriceHistoryCache struct {
	rdb *redis.Client
}

// NewPriceHistoryCache creates a PriceHistoryCache backed by the given Client.
func NewPriceHistoryCache(c *Client) *PriceHistoryCache {
	return &PriceHistoryCache{rdb: c.Underlying()}
}

func historyKey(nodeKey string) string {
	return "history:" + nodeKey
}

// Append records one observed price for a node and trims the list to the
// retention cap.
func (hc *PriceHistoryCache) Append(ctx context.Context, nodeKey string, price float64, ts time.Time) error {
	key := historyKey(nodeKey)
	entry := strconv.FormatInt(ts.UnixNano(), 10) + ":" + strconv.FormatFloat(price, 'f', -1, 64)

	pipe := hc.rdb.Pipeline()
	pipe.LPush(ctx, key, entry)
	pipe.LTrim(ctx, key, 0, historyMaxLen-1)
	pipe.Expire(ctx, key, historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: append history %s: %w", nodeKey, err)
	}
	return nil
}

// History returns up to limit most recent prices for a node, oldest first so
// callers can replay them in observation order. A missing key yields an
// empty slice, not an error.
func (hc *PriceHistoryCache) History(ctx context.Context, nodeKey string, limit int) ([]float64, error) {
	if limit <= 0 || limit > historyMaxLen {
		limit = historyMaxLen
	}
	entries, err := hc.rdb.LRange(ctx, historyKey(nodeKey), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read history %s: %w", nodeKey, err)
	}

	// Entries come back newest first; reverse while parsing.
	prices := make([]float64, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		sep := -1
		for j := 0; j < len(entry); j++ {
			if entry[j] == ':' {
				sep = j
				break
			}
		}
		if sep < 0 {
			continue
		}
		price, parseErr := strconv.ParseFloat(entry[sep+1:], 64)
		if parseErr != nil {
			continue
		}
		prices = append(prices, price)
	}
	return prices, nil
}

// Compile-time interface check.
var _ domain.PriceHistoryCache = (*PriceHistoryCache)(nil)
