// internal/catalog/catalog.go
//
// Immutable, ordered property catalog plus a holder that lets the process
// swap in a freshly loaded catalog (SIGHUP) without locking readers.
//
// A property's identity is its 0-based position in the catalog it was read
// from, qualified by the catalog's Version. A client that echoes the version
// back on submit is told when a reload has reordered the ids under it.

package catalog

import (
	"sync/atomic"

	"github.com/rs/xid"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/apperr"
)

// ErrCatalogChanged is returned when an id was issued by a different catalog
// than the one now being served.
var ErrCatalogChanged = apperr.Conflict("catalog_changed", "The property list has changed, reload it and try again")

// Catalog is an ordered, read-only list of properties.
type Catalog struct {
	records []PropertyRecord
	version string
}

// New copies records into a new Catalog with a fresh version.
func New(records []PropertyRecord) *Catalog {
	cp := make([]PropertyRecord, len(records))
	copy(cp, records)
	return &Catalog{records: cp, version: xid.New().String()}
}

// Len reports the number of properties.
func (c *Catalog) Len() int { return len(c.records) }

// Version identifies this catalog instance. Two catalogs built from the same
// file still have different versions.
func (c *Catalog) Version() string { return c.version }

// GetVersioned is Get for an id issued by the catalog with the given version.
// An empty version skips the check.
func (c *Catalog) GetVersioned(id int, version string) (PropertyRecord, error) {
	if version != "" && version != c.version {
		return PropertyRecord{}, ErrCatalogChanged
	}
	return c.Get(id)
}

// Get returns the property with the given id.
// Out-of-range ids (negative or >= Len) yield a not-found error.
func (c *Catalog) Get(id int) (PropertyRecord, error) {
	if id < 0 || id >= len(c.records) {
		return PropertyRecord{}, apperr.NotFound("property_not_found", "Property not found")
	}
	return c.records[id], nil
}

// All returns a copy of every record in catalog order.
func (c *Catalog) All() []PropertyRecord {
	cp := make([]PropertyRecord, len(c.records))
	copy(cp, c.records)
	return cp
}

// Holder owns the current catalog.
type Holder struct {
	cur atomic.Pointer[Catalog]
}

// NewHolder constructs a Holder serving c.
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.cur.Store(c)
	return h
}

// Current returns the catalog snapshot to use for one request.
func (h *Holder) Current() *Catalog { return h.cur.Load() }

// Swap replaces the served catalog.
func (h *Holder) Swap(c *Catalog) { h.cur.Store(c) }
