// Package catalog fetches the document index from the remote catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"peptrack/internal/snapshot"
)

// DefaultURL is the PEP index API.
const DefaultURL = "https://peps.python.org/api/peps.json"

// ErrTimeout is returned when the catalog does not answer within the
// configured timeout.
var ErrTimeout = errors.New("connection timed out")

// ErrUnavailable wraps transport and decoding failures that are not
// timeouts.
var ErrUnavailable = errors.New("catalog unavailable")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API response code: %d", e.Code)
}

// Config tunes the HTTP client.
type Config struct {
	// Timeout bounds the whole request, body included.
	Timeout time.Duration

	DialTimeout    time.Duration
	TLSHandshake   time.Duration
	ResponseHeader time.Duration
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		Timeout:        15 * time.Second,
		DialTimeout:    5 * time.Second,
		TLSHandshake:   5 * time.Second,
		ResponseHeader: 10 * time.Second,
	}
}

// Client fetches catalog snapshots.
type Client struct {
	URL  string
	HTTP *http.Client
}

// NewClient creates a client for url.
func NewClient(url string, cfg Config) *Client {
	if url == "" {
		url = DefaultURL
	}
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}
	return &Client{
		URL:  url,
		HTTP: &http.Client{Transport: tr, Timeout: cfg.Timeout},
	}
}

// Fetch downloads and decodes the catalog. It does not retry.
func (c *Client) Fetch(ctx context.Context) (snapshot.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrUnavailable, c.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var payload snapshot.Payload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, c.URL, err)
	}
	return payload, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
