package flights

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/skybot/internal/store"
)

// MemoryCache is a process-local domain.FlightCache used when no database is
// configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (c *MemoryCache) Put(ctx context.Context, key string, request, response []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]byte(nil), response...)
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
