package market

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SpreadStore is a shared second-level cache for orderbook spreads.
type SpreadStore interface {
	GetSpread(ctx context.Context, tokenID string) (float64, bool, error)
	SetSpread(ctx context.Context, tokenID string, spread float64, ttl time.Duration) error
}

// SpreadCache provides a TTL-based in-memory cache of spread percentages keyed
// by CLOB token id, optionally backed by a SpreadStore.
type SpreadCache struct {
	mu      sync.RWMutex
	spreads map[string]cacheEntry
	ttl     time.Duration
	backing SpreadStore
	now     func() time.Time
}

type cacheEntry struct {
	spread    float64
	fetchedAt time.Time
}

// NewSpreadCache returns a cache. backing may be nil.
func NewSpreadCache(ttl time.Duration, backing SpreadStore) *SpreadCache {
	return &SpreadCache{
		spreads: make(map[string]cacheEntry),
		ttl:     ttl,
		backing: backing,
		now:     time.Now,
	}
}

func (c *SpreadCache) Get(ctx context.Context, tokenID string) (float64, bool) {
	c.mu.RLock()
	entry, ok := c.spreads[tokenID]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) <= c.ttl {
		return entry.spread, true
	}

	if c.backing == nil {
		return 0, false
	}
	spread, ok, err := c.backing.GetSpread(ctx, tokenID)
	if err != nil {
		slog.Debug("spread cache lookup failed", "token_id", tokenID, "error", err)
		return 0, false
	}
	if !ok {
		return 0, false
	}
	c.store(tokenID, spread)
	return spread, true
}

func (c *SpreadCache) Set(ctx context.Context, tokenID string, spread float64) {
	c.store(tokenID, spread)
	if c.backing == nil {
		return
	}
	if err := c.backing.SetSpread(ctx, tokenID, spread, c.ttl); err != nil {
		slog.Debug("spread cache write failed", "token_id", tokenID, "error", err)
	}
}

func (c *SpreadCache) store(tokenID string, spread float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spreads[tokenID] = cacheEntry{spread: spread, fetchedAt: c.now()}
}

// Prune drops expired entries and returns how many remain.
func (c *SpreadCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, entry := range c.spreads {
		if now.Sub(entry.fetchedAt) > c.ttl {
			delete(c.spreads, id)
		}
	}
	return len(c.spreads)
}
