// internal/properties/service.go
//
// Catalog service: the player-facing projection of the catalog.
//
// Each PublicProperty carries everything shown before answering (address,
// notes, picture link, contract price) plus coordinates when they can be
// resolved. Ground-truth metrics are never copied into this view.
//
// Coordinates are resolved concurrently, one lookup per property; results are
// written by index so output order is catalog order, not completion order.

package properties

import (
	"context"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/catalog"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/geocode"
)

const defaultConcurrency = 8

// PublicProperty is the pre-answer view of a property.
// CatalogVersion names the catalog that issued ID; echo it on submit.
type PublicProperty struct {
	ID             int      `json:"id"`
	CatalogVersion string   `json:"catalogVersion"`
	Address        string   `json:"address"`
	Notes          string   `json:"notes"`
	Pictures       string   `json:"pictures"`
	ContractPrice  float64  `json:"contractPrice"`
	Lat            *float64 `json:"lat,omitempty"`
	Lng            *float64 `json:"lng,omitempty"`
}

// Service lists public properties.
type Service struct {
	catalogs    *catalog.Holder
	geocoder    geocode.Geocoder
	concurrency int
}

// NewService constructs a Service over the catalog holder.
func NewService(catalogs *catalog.Holder, geocoder geocode.Geocoder) *Service {
	return &Service{catalogs: catalogs, geocoder: geocoder, concurrency: defaultConcurrency}
}

// WithConcurrency caps simultaneous geocode lookups (n <= 0 means unlimited).
func (s *Service) WithConcurrency(n int) *Service {
	s.concurrency = n
	return s
}

// ListPublic returns the current catalog in order, enriched with coordinates.
func (s *Service) ListPublic(ctx context.Context) ([]PublicProperty, error) {
	return s.ListPublicFrom(ctx, s.catalogs.Current())
}

// ListPublicFrom projects a specific catalog snapshot.
func (s *Service) ListPublicFrom(ctx context.Context, c *catalog.Catalog) ([]PublicProperty, error) {
	records, version := c.All(), c.Version()
	out := lo.Map(records, func(r catalog.PropertyRecord, i int) PublicProperty {
		return PublicProperty{
			ID:             i,
			CatalogVersion: version,
			Address:        r.Address,
			Notes:          r.Notes,
			Pictures:       r.PictureLink,
			ContractPrice:  r.ContractPrice,
		}
	})
	if s.geocoder == nil {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i := range out {
		i := i
		g.Go(func() error {
			if out[i].Address == "" {
				return nil
			}
			coords, ok := s.geocoder.Geocode(gctx, out[i].Address)
			if ok {
				out[i].Lat = lo.ToPtr(coords.Lat)
				out[i].Lng = lo.ToPtr(coords.Lng)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
