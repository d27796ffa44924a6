// internal/geocode/geocoder.go
//
// Geocoder adapter: address → latitude/longitude via the Google Geocoding API.
//
// Contract:
//   - Geocode never returns an error. Any failure yields (Coordinates{}, false).
//   - Without an API key no call is attempted; this is logged once, at warn,
//     separately from provider errors.
//   - One request per lookup, no retry. The HTTP client carries the timeout.

package geocode

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultBaseURL is the Google Geocoding JSON endpoint.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Coordinates is a resolved location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves addresses. ok is false when nothing could be resolved.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (c Coordinates, ok bool)
}

// Options configures a Google geocoder.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// Transport is the innermost round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Google calls the Google Geocoding API.
type Google struct {
	apiKey  string
	baseURL string
	client  *http.Client

	warnOnce sync.Once
}

// NewGoogle constructs a Google geocoder. Outbound calls are logged.
func NewGoogle(opts Options) *Google {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	next := opts.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	return &Google{
		apiKey:  opts.APIKey,
		baseURL: base,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: NewLoggingRoundTripper(next),
		},
	}
}

// Enabled reports whether an API key is configured.
func (g *Google) Enabled() bool { return g.apiKey != "" }

// googleResponse is the subset of the Geocoding API response we read.
type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode implements Geocoder.
func (g *Google) Geocode(ctx context.Context, address string) (Coordinates, bool) {
	if g.apiKey == "" {
		g.warnOnce.Do(func() {
			log.Warn().Msg("GOOGLE_MAPS_API_KEY not configured; coordinates disabled")
		})
		metrics.GeocodeLookups.WithLabelValues(metrics.GeocodeDisabled).Inc()
		return Coordinates{}, false
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("geocode: build request")
		metrics.GeocodeLookups.WithLabelValues(metrics.GeocodeError).Inc()
		return Coordinates{}, false
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("geocode: request failed")
		metrics.GeocodeLookups.WithLabelValues(metrics.GeocodeError).Inc()
		return Coordinates{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Str("address", address).Msg("geocode: provider error")
		metrics.GeocodeLookups.WithLabelValues(metrics.GeocodeError).Inc()
		return Coordinates{}, false
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Warn().Err(err).Str("address", address).Msg("geocode: decode response")
		metrics.GeocodeLookups.WithLabelValues(metrics.GeocodeError).Inc()
		return Coordinates{}, false
	}

	if len(body.Results) == 0 {
		ev := log.Debug()
		if body.Status != "" && body.Status != "OK" && body.Status != "ZERO_RESULTS" {
			ev = log.Warn().Str("detail", body.ErrorMessage)
		}
		ev.Str("status", body.Status).Str("address", address).Msg("geocode: no result")
		metrics.GeocodeLookups.WithLabelValues(metrics.GeocodeNoResult).Inc()
		return Coordinates{}, false
	}

	metrics.GeocodeLookups.WithLabelValues(metrics.GeocodeResolved).Inc()
	return body.Results[0].Geometry.Location, true
}
