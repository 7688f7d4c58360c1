// Package sparql implements the graph-store port against a SPARQL 1.1
// endpoint (Blazegraph in production). Reads go through the query protocol,
// writes through the update protocol; both are rate limited and retried
// with exponential backoff.
package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/teca-labs/arcveil/internal/logger"
)

// Term is one RDF term in a query solution.
type Term struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Binding maps variable names to terms for one query solution.
type Binding map[string]Term

type resultSet struct {
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// Client speaks the SPARQL 1.1 protocol against a single endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	retries  uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRateLimit caps outgoing requests per second. Zero or negative
// disables the limiter.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithMaxRetries sets how many times a failed request is retried. Defaults
// to 2.
func WithMaxRetries(n uint64) ClientOption {
	return func(c *Client) {
		c.retries = n
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

// NewClient creates a client for the given endpoint URL. The timeout bounds
// each individual request.
func NewClient(endpoint string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(20), 1),
		retries:  2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select runs a SELECT query and returns its solutions.
func (c *Client) Select(ctx context.Context, query string) ([]Binding, error) {
	var out resultSet
	err := c.do(ctx, func() error {
		body := url.Values{"query": {strings.TrimSpace(query)}}.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
			strings.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/sparql-results+json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			return err
		}
		out = resultSet{}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return nil, fmt.Errorf("sparql select: %w", err)
	}
	return out.Results.Bindings, nil
}

// Update runs a SPARQL UPDATE request.
func (c *Client) Update(ctx context.Context, update string) error {
	err := c.do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
			strings.NewReader(strings.TrimSpace(update)))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/sparql-update")
		req.Header.Set("Accept", "text/plain")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		return checkStatus(resp)
	})
	if err != nil {
		return fmt.Errorf("sparql update: %w", err)
	}
	return nil
}

// do applies the rate limit and retry policy around one request attempt.
func (c *Client) do(ctx context.Context, attempt func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)

	return backoff.Retry(func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		if err := attempt(); err != nil {
			logger.Debug("SPARQL request failed, may retry: %v", err)
			return err
		}
		return nil
	}, policy)
}

// checkStatus drains error responses and classifies them: client errors are
// permanent, everything else is retryable.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return backoff.Permanent(err)
	}
	return err
}
