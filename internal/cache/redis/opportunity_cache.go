package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HonzaHezina/AIarbi/internal/domain"
)

// latestKey always points at the most recent scan's opportunity set. Per-scan
// keys keep a short-lived copy addressable by scan id.
const latestKey = "opportunities:latest"

// OpportunityCache implements domain.OpportunityCache. A scan's results are
// stored as one JSON document; a newer scan replaces the latest pointer
// wholesale.
type OpportunityCache struct {
	rdb *redis.Client
}

// NewOpportunityCache creates an OpportunityCache backed by the given Client.
func NewOpportunityCache(c *Client) *OpportunityCache {
	return &OpportunityCache{rdb: c.Underlying()}
}

func scanKey(scanID string) string {
	return "opportunities:scan:" + scanID
}

// SetScan stores the full opportunity set for one scan with the given TTL.
func (oc *OpportunityCache) SetScan(ctx context.Context, scanID string, opps []domain.Opportunity, ttl time.Duration) error {
	payload, err := json.Marshal(opps)
	if err != nil {
		return fmt.Errorf("redis: marshal opportunities: %w", err)
	}

	pipe := oc.rdb.Pipeline()
	pipe.Set(ctx, scanKey(scanID), payload, ttl)
	pipe.Set(ctx, latestKey, payload, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: store scan %s: %w", scanID, err)
	}
	return nil
}

// Latest returns the most recent scan's opportunities. It returns
// domain.ErrCacheMiss when no scan result is cached or the last one expired.
func (oc *OpportunityCache) Latest(ctx context.Context) ([]domain.Opportunity, error) {
	payload, err := oc.rdb.Get(ctx, latestKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: read latest opportunities: %w", err)
	}

	var opps []domain.Opportunity
	if err := json.Unmarshal(payload, &opps); err != nil {
		return nil, fmt.Errorf("redis: decode latest opportunities: %w", err)
	}
	return opps, nil
}

// Compile-time interface check.
var _ domain.OpportunityCache = (*OpportunityCache)(nil)
