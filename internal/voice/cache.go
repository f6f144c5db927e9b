package voice

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache wraps a Provider with a process-wide handle cache keyed by voice id.
// Concurrent first-loads of the same voice collapse to one underlying load.
type Cache struct {
	provider Provider

	mu      sync.RWMutex
	handles map[string]*Handle
	group   singleflight.Group
}

// NewCache creates a caching wrapper around provider.
func NewCache(provider Provider) *Cache {
	return &Cache{
		provider: provider,
		handles:  make(map[string]*Handle),
	}
}

func (c *Cache) Name() string { return c.provider.Name() }

// Load returns the cached handle for voiceID, loading it at most once even
// under concurrent callers.
func (c *Cache) Load(ctx context.Context, voiceID string) (*Handle, error) {
	c.mu.RLock()
	h, ok := c.handles[voiceID]
	c.mu.RUnlock()
	if ok {
		return h, nil
	}

	v, err, _ := c.group.Do(voiceID, func() (interface{}, error) {
		loaded, err := c.provider.Load(ctx, voiceID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.handles[voiceID] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Handle), nil
}

func (c *Cache) Synthesize(ctx context.Context, h *Handle, text string, lengthScale float64) ([]byte, error) {
	return c.provider.Synthesize(ctx, h, text, lengthScale)
}

func (c *Cache) Voices() ([]Voice, error) {
	return c.provider.Voices()
}
