package properties_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/catalog"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/geocode"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/properties"
)

// slowGeocoder answers later for earlier addresses, so completion order is
// the reverse of catalog order.
type slowGeocoder struct {
	n     int
	calls atomic.Int32
}

func (g *slowGeocoder) Geocode(ctx context.Context, address string) (geocode.Coordinates, bool) {
	g.calls.Add(1)
	var i int
	_, _ = fmt.Sscanf(address, "%d Main St", &i)
	time.Sleep(time.Duration(g.n-i) * 5 * time.Millisecond)
	if i%2 == 1 {
		return geocode.Coordinates{}, false
	}
	return geocode.Coordinates{Lat: float64(i), Lng: -float64(i)}, true
}

func testCatalog(n int) *catalog.Catalog {
	recs := make([]catalog.PropertyRecord, n)
	for i := range recs {
		recs[i] = catalog.PropertyRecord{
			Address:              fmt.Sprintf("%d Main St", i),
			Notes:                "No notes",
			PictureLink:          "https://example.com",
			ContractPrice:        float64(100000 + i),
			AfterRepairValue:     150000,
			RepairCost:           15000,
			MaxAllowableOffer:    105000,
			LowestAllowableOffer: 73500,
		}
	}
	return catalog.New(recs)
}

func TestListPublicKeepsCatalogOrder(t *testing.T) {
	rq := require.New(t)

	const n = 10
	geo := &slowGeocoder{n: n}
	svc := properties.NewService(catalog.NewHolder(testCatalog(n)), geo).WithConcurrency(0)

	out, err := svc.ListPublic(context.Background())
	rq.NoError(err)
	rq.Len(out, n)
	rq.Equal(int32(n), geo.calls.Load())

	for i, p := range out {
		rq.Equal(i, p.ID)
		rq.Equal(fmt.Sprintf("%d Main St", i), p.Address)
		rq.Equal(float64(100000+i), p.ContractPrice)
		if i%2 == 1 {
			rq.Nil(p.Lat)
			rq.Nil(p.Lng)
			continue
		}
		rq.NotNil(p.Lat)
		rq.Equal(float64(i), *p.Lat)
		rq.Equal(-float64(i), *p.Lng)
	}
}

func TestListPublicWithoutGeocodingKey(t *testing.T) {
	rq := require.New(t)

	geo := geocode.NewGoogle(geocode.Options{})
	svc := properties.NewService(catalog.NewHolder(testCatalog(3)), geo)

	out, err := svc.ListPublic(context.Background())
	rq.NoError(err)
	rq.Len(out, 3)
	for _, p := range out {
		rq.Nil(p.Lat)
		rq.Nil(p.Lng)
	}
}

func TestListPublicWithoutGeocoder(t *testing.T) {
	rq := require.New(t)

	svc := properties.NewService(catalog.NewHolder(testCatalog(2)), nil)
	out, err := svc.ListPublic(context.Background())
	rq.NoError(err)
	rq.Len(out, 2)
}

func TestListPublicEmptyCatalog(t *testing.T) {
	rq := require.New(t)

	svc := properties.NewService(catalog.NewHolder(catalog.New(nil)), &slowGeocoder{})
	out, err := svc.ListPublic(context.Background())
	rq.NoError(err)
	rq.NotNil(out)
	rq.Empty(out)
}

func TestListPublicFollowsHolderSwap(t *testing.T) {
	rq := require.New(t)

	h := catalog.NewHolder(testCatalog(1))
	svc := properties.NewService(h, nil)

	h.Swap(testCatalog(4))
	out, err := svc.ListPublic(context.Background())
	rq.NoError(err)
	rq.Len(out, 4)
}
