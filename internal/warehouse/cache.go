package warehouse

import (
	"sync"
	"time"

	"github.com/ppiankov/snowspectre/internal/models"
)

// CacheEntry holds cached column stats with expiration
type CacheEntry struct {
	Stats     []models.ColumnStat
	ExpiresAt time.Time
}

// StatsCache provides thread-safe caching of table profiling results keyed
// by full table name. Profiling scans whole tables, so avoiding repeat scans
// inside one run matters more than freshness.
type StatsCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	ttl     time.Duration
	maxSize int
}

// NewStatsCache creates a cache with the given TTL
func NewStatsCache(ttl time.Duration) *StatsCache {
	return &StatsCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
		maxSize: 10000,
	}
}

// Get retrieves cached stats, or nil when absent or expired
func (c *StatsCache) Get(fullName string) []models.ColumnStat {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[fullName]
	if !exists {
		return nil
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil
	}
	return entry.Stats
}

// Set stores stats in the cache
func (c *StatsCache) Set(fullName string, stats []models.ColumnStat) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[fullName] = &CacheEntry{
		Stats:     stats,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// evictOldest removes expired entries, then trims 10% if still at capacity
func (c *StatsCache) evictOldest() {
	now := time.Now()
	var toDelete []string

	for name, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			toDelete = append(toDelete, name)
		}
	}
	for _, name := range toDelete {
		delete(c.entries, name)
	}

	if len(c.entries) >= c.maxSize {
		count := 0
		target := c.maxSize / 10
		for name := range c.entries {
			delete(c.entries, name)
			count++
			if count >= target {
				break
			}
		}
	}
}

// Clear removes all entries from the cache
func (c *StatsCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*CacheEntry)
}

// Size returns the current number of entries in the cache
func (c *StatsCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
