// internal/geocode/cached.go
//
// Memoizing decorator for any Geocoder.
// Keys are normalized addresses (case and whitespace folded). Only resolved
// coordinates are stored, so a transient provider failure is retried on the
// next catalog read. Concurrent lookups of the same address share one call,
// which runs detached from the cancellation of the caller that started it.
// The wrapped Geocoder is expected to bound its own time.

package geocode

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/metrics"
)

// Store persists resolved coordinates.
type Store interface {
	Get(ctx context.Context, key string) (Coordinates, bool, error)
	Save(ctx context.Context, key string, c Coordinates) error
}

// Cached serves lookups from a Store before falling through to next.
type Cached struct {
	next  Geocoder
	store Store
	group singleflight.Group
}

// NewCached wraps next with store.
func NewCached(next Geocoder, store Store) *Cached {
	return &Cached{next: next, store: store}
}

type lookup struct {
	c  Coordinates
	ok bool
}

// Geocode implements Geocoder.
func (c *Cached) Geocode(ctx context.Context, address string) (Coordinates, bool) {
	key := Normalize(address)
	if key == "" {
		return Coordinates{}, false
	}

	if hit, ok, err := c.store.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("address", address).Msg("geocode cache read")
	} else if ok {
		metrics.GeocodeLookups.WithLabelValues(metrics.GeocodeCacheHit).Inc()
		return hit, true
	}

	// The flight is shared, so it must not die with whichever caller started it.
	fctx := context.WithoutCancel(ctx)
	v, _, _ := c.group.Do(key, func() (any, error) {
		// a flight that finished since our read may have filled the store
		if hit, ok, err := c.store.Get(fctx, key); err == nil && ok {
			return lookup{c: hit, ok: true}, nil
		}
		coords, ok := c.next.Geocode(fctx, address)
		if ok {
			if err := c.store.Save(fctx, key, coords); err != nil {
				log.Warn().Err(err).Str("address", address).Msg("geocode cache write")
			}
		}
		return lookup{c: coords, ok: ok}, nil
	})
	res := v.(lookup)
	return res.c, res.ok
}

// Normalize folds case and collapses whitespace.
func Normalize(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
