package bundlecache

import (
	"context"
	"sync"
	"time"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/pkg/logger"
)

type memoryEntry struct {
	bundle    *contracts.Bundle
	expiresAt time.Time
}

// Memory is a process-local bundle cache
// ⭐ SSOT: in-process bundle caching lives here
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
	logger  *logger.Logger
}

// NewMemory creates an empty in-memory cache
func NewMemory(log *logger.Logger) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		logger:  log,
	}
}

// WithClock replaces the time source (tests)
func (c *Memory) WithClock(now func() time.Time) *Memory {
	c.now = now
	return c
}

// Get returns the live bundle under key. Bundles are shared, not copied.
func (c *Memory) Get(ctx context.Context, key string) (*contracts.Bundle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, contracts.ErrCacheMiss
	}
	return entry.bundle, nil
}

// Set stores bundle for ttl
func (c *Memory) Set(ctx context.Context, key string, bundle *contracts.Bundle, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{bundle: bundle, expiresAt: c.now().Add(ttl)}

	c.logger.WithFields(map[string]interface{}{
		"key": key,
		"ttl": ttl,
	}).Debug("Stored bundle in memory cache")
	return nil
}

// Delete removes one key
func (c *Memory) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Clear drops every entry, live or expired
func (c *Memory) Clear(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]memoryEntry)
	c.logger.WithField("removed", n).Info("Cleared memory bundle cache")
	return n, nil
}

// CleanExpired evicts expired entries
func (c *Memory) CleanExpired(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, including expired ones
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
