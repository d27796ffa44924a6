package store

import (
	"context"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/geocode"
)

// Tiered reads through front to back and promotes back-tier hits.
// Writes go to both tiers.
type Tiered struct {
	front geocode.Store
	back  geocode.Store
}

// NewTiered layers front (fast, volatile) over back (durable).
func NewTiered(front, back geocode.Store) *Tiered {
	return &Tiered{front: front, back: back}
}

// Get implements geocode.Store.
func (t *Tiered) Get(ctx context.Context, key string) (geocode.Coordinates, bool, error) {
	if c, ok, err := t.front.Get(ctx, key); err == nil && ok {
		return c, true, nil
	}
	c, ok, err := t.back.Get(ctx, key)
	if err != nil || !ok {
		return c, ok, err
	}
	_ = t.front.Save(ctx, key, c)
	return c, true, nil
}

// Save implements geocode.Store.
func (t *Tiered) Save(ctx context.Context, key string, c geocode.Coordinates) error {
	if err := t.front.Save(ctx, key, c); err != nil {
		return err
	}
	return t.back.Save(ctx, key, c)
}
