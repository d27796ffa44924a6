// internal/metrics/metrics.go
//
// Prometheus collectors for the Deal Detective server, registered on the
// default registry and served at GET /metrics.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dealdetective"

// Geocode lookup outcomes.
const (
	GeocodeResolved = "resolved"
	GeocodeNoResult = "no_result"
	GeocodeError    = "error"
	GeocodeDisabled = "disabled"
	GeocodeCacheHit = "cache_hit"
)

// Submission outcomes.
const (
	SubmissionScored   = "scored"
	SubmissionInvalid  = "invalid"
	SubmissionNotFound = "not_found"
	SubmissionFailed   = "failed"
	SubmissionStale    = "stale"
)

var (
	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_lookups_total",
		Help:      "Geocode lookups by outcome.",
	}, []string{"outcome"})

	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Answer submissions by outcome.",
	}, []string{"outcome"})

	AverageScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "average_score",
		Help:      "Average score of scored submissions.",
		Buckets:   prometheus.LinearBuckets(1, 1, 10),
	})

	CatalogProperties = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_properties",
		Help:      "Properties in the currently served catalog.",
	})

	CatalogReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_reloads_total",
		Help:      "Catalog loads by result (ok, fallback).",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
