// internal/apiclient/client.go
//
// Typed HTTP client for the Deal Detective API.
// Used by the terminal client and by end-to-end tests.
//
// Non-2xx responses are decoded into *APIError when the body carries the
// standard {"error","code","requestId"} shape.

package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/deal-detective/apps/go-server/internal/apperr"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/properties"
	"github.com/robalobadob/deal-detective/apps/go-server/internal/scoring"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is match an *apperr.Error sentinel by code, so callers can
// test for catalog.ErrCatalogChanged without knowing the transport.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*apperr.Error)
	return ok && e.Code != "" && t.Code == e.Code
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

// Client talks to a running API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for baseURL. A nil httpClient gets a default with a timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// ListProperties fetches the public catalog.
func (c *Client) ListProperties(ctx context.Context) ([]properties.PublicProperty, error) {
	var out []properties.PublicProperty
	if err := c.do(ctx, http.MethodGet, "/api/properties", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type submitBody struct {
	PropertyID     int           `json:"propertyId"`
	CatalogVersion string        `json:"catalogVersion,omitempty"`
	Answers        scoring.Guess `json:"answers"`
}

// Submit scores a guess for a listed property. The property's catalog version
// is sent along, so a reload on the server since listing yields
// catalog.ErrCatalogChanged instead of a score against a different property.
func (c *Client) Submit(ctx context.Context, p properties.PublicProperty, g scoring.Guess) (scoring.Result, error) {
	var res scoring.Result
	body := submitBody{PropertyID: p.ID, CatalogVersion: p.CatalogVersion, Answers: g}
	err := c.do(ctx, http.MethodPost, "/api/submit", body, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, request, dest any) error {
	payload := io.Reader(http.NoBody)
	if request != nil {
		b, err := json.Marshal(request)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, payload)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	if request != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api call")

	return parseResponse(resp, dest)
}

func parseResponse(resp *http.Response, dest any) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if dest == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("json.Decode(success destination): %w", err)
		}
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil && !errors.Is(err, io.EOF) {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
