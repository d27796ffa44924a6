// internal/store/memory.go
//
// In-memory coordinate store backed by go-cache.
// Used as the front tier of the geocode memo, and as the only tier when no
// SQLite path is configured.
//
// Characteristics:
//   - Entries expire after the configured TTL (0 means never).
//   - Concurrency-safe (go-cache locks internally).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/geocode"
)

const cleanupInterval = 10 * time.Minute

// Memory keeps coordinates keyed by normalized address.
type Memory struct {
	c *cache.Cache
}

// NewMemory constructs a Memory store whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	exp := ttl
	if exp <= 0 {
		exp = cache.NoExpiration
	}
	return &Memory{c: cache.New(exp, cleanupInterval)}
}

// Get looks up key.
func (m *Memory) Get(_ context.Context, key string) (geocode.Coordinates, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return geocode.Coordinates{}, false, nil
	}
	return v.(geocode.Coordinates), true, nil
}

// Save stores c under key with the default TTL.
func (m *Memory) Save(_ context.Context, key string, c geocode.Coordinates) error {
	m.c.SetDefault(key, c)
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int { return m.c.ItemCount() }
