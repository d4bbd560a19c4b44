// Package cache holds the byte caches behind recurrence previews: an
// in-process TTL cache and a Redis-backed one.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Config holds configuration for the in-memory cache.
type Config struct {
	TTL             time.Duration
	MaxEntries      int
	CleanupInterval time.Duration
}

// DefaultConfig returns the defaults used when Redis is not configured.
func DefaultConfig() Config {
	return Config{
		TTL:             15 * time.Minute,
		MaxEntries:      1000,
		CleanupInterval: 5 * time.Minute,
	}
}

type entry struct {
	value      []byte
	expiresAt  time.Time
	accessedAt time.Time
}

// MemoryCache is a TTL cache that evicts the least recently read entries
// once it grows past MaxEntries.
type MemoryCache struct {
	mu          sync.Mutex
	entries     map[string]*entry
	config      Config
	now         func() time.Time
	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// NewMemoryCache creates a cache and starts its cleanup loop.
func NewMemoryCache(config Config) *MemoryCache {
	defaults := DefaultConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = defaults.MaxEntries
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	c := &MemoryCache{
		entries:     make(map[string]*entry),
		config:      config,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the value stored under key if it has not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	now := c.now()
	if now.After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	e.accessedAt = now
	return slices.Clone(e.value), true, nil
}

// Set stores value under key for the configured TTL.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &entry{value: slices.Clone(value), expiresAt: now.Add(c.config.TTL), accessedAt: now}
	if len(c.entries) > c.config.MaxEntries {
		c.cleanup()
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the cleanup loop and drops every entry.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
	return nil
}

// cleanup must be called with mu held.
func (c *MemoryCache) cleanup() {
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
	excess := len(c.entries) - c.config.MaxEntries
	if excess <= 0 {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return c.entries[a].accessedAt.Compare(c.entries[b].accessedAt)
	})
	for _, key := range keys[:excess] {
		delete(c.entries, key)
	}
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.cleanup()
			c.mu.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}
