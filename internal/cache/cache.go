// Package cache memoizes pipeline results in process memory.
package cache

import (
	"sync"
	"time"

	"github.com/pauljones0/steam-deals-bot/internal/models"
)

type entry struct {
	value     []models.Offer
	expiresAt time.Time
}

// ResultCache maps a query key to a ranked offer list with a TTL. Entries
// expire lazily when read; there is no background sweep and no size bound.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func New() *ResultCache {
	return NewWithClock(time.Now)
}

// NewWithClock is New with an injectable clock.
func NewWithClock(now func() time.Time) *ResultCache {
	return &ResultCache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get returns the cached value for key, or false when absent or expired.
// Expired entries are removed.
func (c *ResultCache) Get(key string) ([]models.Offer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set replaces the entry for key wholesale. value must not be mutated by the
// caller afterwards.
func (c *ResultCache) Set(key string, value []models.Offer, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Len reports the number of stored entries, expired ones included.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
