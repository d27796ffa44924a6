// internal/geocode/transport.go
//
// Outbound request logging for provider calls.
// Each call gets its own xid so request/response lines can be paired.
// The API key is stripped from logged URLs.

package geocode

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggingRoundTripper logs every outbound request and its outcome.
type LoggingRoundTripper struct {
	next   http.RoundTripper
	logger *zerolog.Logger
}

// RoundTripperOption customizes a LoggingRoundTripper.
type RoundTripperOption func(*LoggingRoundTripper)

// WithLogger routes call logs to l instead of the global logger.
func WithLogger(l zerolog.Logger) RoundTripperOption {
	return func(rt *LoggingRoundTripper) { rt.logger = &l }
}

// NewLoggingRoundTripper wraps next.
func NewLoggingRoundTripper(next http.RoundTripper, opts ...RoundTripperOption) LoggingRoundTripper {
	rt := LoggingRoundTripper{next: next}
	for _, opt := range opts {
		opt(&rt)
	}
	return rt
}

// RoundTrip implements http.RoundTripper.
func (rt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	l := rt.logger
	if l == nil {
		l = &log.Logger
	}
	callID := xid.New().String()
	target := redactURL(req.URL)

	l.Debug().Str("call_id", callID).Str("method", req.Method).Str("url", target).Msg("outbound request")

	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		l.Warn().Err(err).Str("call_id", callID).Str("url", target).Int64("duration_ms", elapsed).Msg("outbound request failed")
		return nil, fmt.Errorf("next.RoundTrip: %w", err)
	}

	l.Debug().
		Str("call_id", callID).
		Int("status", resp.StatusCode).
		Int64("duration_ms", elapsed).
		Msg("outbound response")
	return resp, nil
}

// redactURL masks credentials carried in the query string.
func redactURL(u *url.URL) string {
	cp := *u
	q := cp.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		cp.RawQuery = q.Encode()
	}
	return cp.String()
}
