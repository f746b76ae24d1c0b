package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"edgefinder/internal/market"
)

// SpreadCache stores orderbook spread percentages at "{prefix}spread:{tokenID}"
// with a TTL. It satisfies market.SpreadStore.
type SpreadCache struct {
	client *Client
}

func NewSpreadCache(c *Client) *SpreadCache {
	return &SpreadCache{client: c}
}

func (sc *SpreadCache) GetSpread(ctx context.Context, tokenID string) (float64, bool, error) {
	raw, err := sc.client.Underlying().Get(ctx, sc.client.Key("spread", tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis: get spread %s: %w", tokenID, err)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis: parse spread %s: %w", tokenID, err)
	}
	return v, true, nil
}

func (sc *SpreadCache) SetSpread(ctx context.Context, tokenID string, spread float64, ttl time.Duration) error {
	val := strconv.FormatFloat(spread, 'f', -1, 64)
	if err := sc.client.Underlying().Set(ctx, sc.client.Key("spread", tokenID), val, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set spread %s: %w", tokenID, err)
	}
	return nil
}

// Compile-time interface check.
var _ market.SpreadStore = (*SpreadCache)(nil)
