package cache

import (
	"sync"
	"time"
)

// ============================================================================
// CACHE SERVICE - IN-MEMORY CACHING WITH TTL
// ============================================================================
// Thread-safe cache with automatic expiration. Used in front of the external
// providers (Nominatim reverse lookups, OSRM route results) so repeated
// endpoint drags don't burn the public rate budget.
//
// Usage:
//   c := cache.New(5*time.Minute, 10*time.Minute)
//   c.Set("rev:6.11600,125.17100", label)
//   if v, found := c.Get("rev:6.11600,125.17100"); found {
//       return v.(string)
//   }

// Item is a cached value with its expiration timestamp.
type Item struct {
	Value      interface{}
	Expiration int64 // UnixNano; 0 means no expiration
}

// Cache is a thread-safe key-value store with per-item TTL.
type Cache struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	stopCleanup       chan bool
}

// New creates a cache with the given default TTL. cleanupInterval controls
// how often the janitor sweeps expired items.
func New(defaultExpiration, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		items:             make(map[string]Item),
		defaultExpiration: defaultExpiration,
		cleanupInterval:   cleanupInterval,
		stopCleanup:       make(chan bool),
	}

	go c.startCleanupTimer()

	return c
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultExpiration)
}

// SetWithTTL stores a value with a specific TTL.
func (c *Cache) SetWithTTL(key string, value interface{}, duration time.Duration) {
	var expiration int64
	if duration > 0 {
		expiration = time.Now().Add(duration).UnixNano()
	}

	c.mu.Lock()
	c.items[key] = Item{
		Value:      value,
		Expiration: expiration,
	}
	c.mu.Unlock()
}

// Get returns (value, true) when the key exists and has not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}

	if item.Expiration > 0 && time.Now().UnixNano() > item.Expiration {
		c.Delete(key)
		return nil, false
	}

	return item.Value, true
}

// Delete removes a key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear drops every item.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]Item)
	c.mu.Unlock()
}

// Count returns the number of items, expired ones included.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats summarizes cache occupancy for the health endpoint.
type Stats struct {
	TotalItems   int `json:"total_items"`
	ExpiredItems int `json:"expired_items"`
	ValidItems   int `json:"valid_items"`
}

// GetStats returns current occupancy counts.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{TotalItems: len(c.items)}

	now := time.Now().UnixNano()
	for _, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			stats.ExpiredItems++
		} else {
			stats.ValidItems++
		}
	}

	return stats
}

func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			delete(c.items, key)
		}
	}
}

// Stop halts the cleanup goroutine.
func (c *Cache) Stop() {
	c.stopCleanup <- true
}

// ============================================================================
// CACHE PRESETS
// ============================================================================

var (
	// GeocodeCache holds reverse-geocode labels (TTL: 5 minutes). Labels for
	// a fixed coordinate are effectively static; caching them keeps repeated
	// reconciliations idempotent and polite to Nominatim.
	GeocodeCache *Cache

	// RouteCache holds resolved routes (TTL: 1 minute). Marker drags often
	// revisit the same endpoint pair within seconds.
	RouteCache *Cache
)

// InitCaches initializes the preset caches.
func InitCaches() {
	GeocodeCache = New(5*time.Minute, 10*time.Minute)
	RouteCache = New(1*time.Minute, 5*time.Minute)
}

// StopCaches halts every preset cache.
func StopCaches() {
	if GeocodeCache != nil {
		GeocodeCache.Stop()
	}
	if RouteCache != nil {
		RouteCache.Stop()
	}
}

// GetAllCacheStats returns stats for every preset cache.
func GetAllCacheStats() map[string]Stats {
	stats := make(map[string]Stats)

	if GeocodeCache != nil {
		stats["geocode"] = GeocodeCache.GetStats()
	}
	if RouteCache != nil {
		stats["route"] = RouteCache.GetStats()
	}

	return stats
}
