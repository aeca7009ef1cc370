package services

import (
	"sync"
	"time"

	"github.com/SscSPs/vault_ledger/internal/core/domain"
)

type cachedRate struct {
	rate      domain.ResolvedRate
	expiresAt time.Time
}

// rateCache keeps resolved rates in process for ttl. A non-positive ttl disables it.
type rateCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cachedRate
	clock   func() time.Time
	swept   time.Time
}

func newRateCache(ttl time.Duration) *rateCache {
	return &rateCache{ttl: ttl, entries: make(map[string]cachedRate), clock: time.Now}
}

func (c *rateCache) get(key string) (domain.ResolvedRate, bool) {
	if c.ttl <= 0 {
		return domain.ResolvedRate{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || c.clock().After(entry.expiresAt) {
		return domain.ResolvedRate{}, false
	}
	return entry.rate, true
}

func (c *rateCache) set(key string, rate domain.ResolvedRate) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock()
	if now.Sub(c.swept) >= c.ttl {
		c.sweep(now)
	}
	c.entries[key] = cachedRate{rate: rate, expiresAt: now.Add(c.ttl)}
}

// sweep drops expired entries. Dated lookups rarely repeat, so expiry on read alone
// would let them pile up. Callers hold mu.
func (c *rateCache) sweep(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.swept = now
}

func (c *rateCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// purge drops every entry. Any stored rate can change the answer of a cross lookup,
// so writes invalidate the whole cache.
func (c *rateCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cachedRate)
}
