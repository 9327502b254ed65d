package prober

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const defaultIdleConnTimeout = 60 * time.Second // conservative: matches common ALB defaults

// Response holds the result of a HEAD request made by [Client].
type Response struct {
	// StatusCode is the final HTTP status code after redirects.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the time from issuing the request to receiving headers.
	Latency time.Duration

	// Error contains any error that prevented a response.
	// nil indicates a response arrived (though its code may be >= 400).
	Error error
}

// Client is an HTTP client wrapper for stream liveness checks.
//
// Client issues HEAD requests only, so no audio data is transferred. All
// requests share one pooled transport whose connection cap equals the
// concurrency limit of the pass. Timeouts are applied per request via
// context rather than as a global client timeout.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a [Client] whose transport holds at most maxConns
// connections per host, and at most maxConns idle connections overall.
//
// Redirects are followed using the net/http default policy, which keeps the
// HEAD method across 301, 302, 303, 307 and 308 and stops after 10 hops.
func NewClient(maxConns int, userAgent string) *Client {
	if maxConns < 1 {
		maxConns = 1
	}
	return &Client{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        maxConns,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
				IdleConnTimeout:     defaultIdleConnTimeout,
				ForceAttemptHTTP2:   true,
			},
		},
		userAgent: userAgent,
	}
}

// Head performs a HEAD request against url and returns a [Response].
//
// The timeout bounds the whole exchange including redirects. Head always
// returns a Response; errors are captured in the Error field rather than
// returned separately.
func (c *Client) Head(ctx context.Context, url string, timeout time.Duration) Response {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	latency := time.Since(start)
	_ = resp.Body.Close()

	return Response{
		StatusCode: resp.StatusCode,
		Latency:    latency,
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times and on a nil client. After Close the client
// remains usable, new connections are established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
