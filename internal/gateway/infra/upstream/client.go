package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/storefront/ordermonitor/internal/gateway/core/ports"
)

// Client performs one HTTP GET per call against a named backend
// service. It is safe for concurrent use; the underlying pooled
// http.Client is shared and read-only after construction.
type Client struct {
	http     *http.Client
	resolver Resolver
	timeout  time.Duration
}

// NewClient builds a client around the given resolver. Each call is
// bounded by timeout and cancelled when the inbound request's context
// is cancelled.
func NewClient(resolver Resolver, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		resolver: resolver,
		timeout:  timeout,
	}
}

// Get issues one GET to service/path, forwarding bearer as the
// Authorization header. A transport-level failure returns an error;
// any HTTP status maps onto the tagged Result instead.
func (c *Client) Get(ctx context.Context, service, path, bearer string) (ports.Result, error) {
	url := c.resolver.URL(service, path)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.Result{}, fmt.Errorf("upstream: build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.Result{}, fmt.Errorf("upstream: call %s: %w", url, err)
	}
	defer resp.Body.Close()

	res := ports.Result{Status: resp.StatusCode, URL: url}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		res.Outcome = ports.OutcomeUnauthorized
		return res, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		res.Outcome = ports.OutcomeFailed
		return res, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Result{}, fmt.Errorf("upstream: read body from %s: %w", url, err)
	}
	res.Outcome = ports.OutcomeOK
	res.Body = body
	return res, nil
}
