package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/careguide/careguide/pkg/types"
	"github.com/careguide/careguide/server/internal/config"
)

// guidelinesPath is appended to the configured base URL.
const guidelinesPath = "guidelines"

// maxBodySize caps how much of an upstream response is read.
const maxBodySize = 4 << 20

// ErrUnexpectedShape is returned when the upstream body is valid JSON but
// neither an array nor an object with a "results" or "data" array.
var ErrUnexpectedShape = errors.New("upstream: unexpected response shape")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: unexpected status %d", e.Code)
}

// Client calls the external guideline API.
type Client struct {
	endpoint *url.URL
	client   *http.Client
}

// New builds a Client for cfg. It returns an error if cfg.Base is empty or
// not a valid URL.
func New(cfg config.UpstreamConfig) (*Client, error) {
	if cfg.Base == "" {
		return nil, errors.New("upstream: base URL not configured")
	}
	base, err := url.Parse(cfg.Base)
	if err != nil {
		return nil, fmt.Errorf("upstream: parse base %q: %w", cfg.Base, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultUpstreamTimeout
	}
	return &Client{
		endpoint: base.JoinPath(guidelinesPath),
		client: &http.Client{
			Transport: &authRoundTripper{base: http.DefaultTransport, token: cfg.Key()},
			Timeout:   timeout,
		},
	}, nil
}

// Endpoint returns the guidelines URL without query parameters.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.client.Timeout
}

// authRoundTripper injects the bearer token into every outgoing request.
type authRoundTripper struct {
	base  http.RoundTripper
	token string
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(req)
}

// Fetch performs one GET against the guidelines endpoint and returns the
// upstream items. There are no retries.
func (c *Client) Fetch(ctx context.Context, q types.Query) ([]json.RawMessage, error) {
	u := *c.endpoint
	params := url.Values{}
	if q.Species != "" {
		params.Set("species", q.Species)
	}
	if q.Topic != "" {
		params.Set("topic", q.Topic)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("upstream: read body: %w", err)
	}
	if len(data) > maxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", errDecode, maxBodySize)
	}
	return ParseBody(data)
}

// Failure classes reported by Classify.
const (
	ClassTimeout = "timeout"
	ClassStatus  = "status"
	ClassShape   = "shape"
	ClassDecode  = "decode"
	ClassNetwork = "network"
)

// Classify maps a Fetch error to a short failure class for logs and metrics.
func Classify(err error) string {
	var statusErr *StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ClassTimeout
	case errors.As(err, &statusErr):
		return ClassStatus
	case errors.Is(err, ErrUnexpectedShape):
		return ClassShape
	case errors.Is(err, errDecode):
		return ClassDecode
	default:
		return ClassNetwork
	}
}
