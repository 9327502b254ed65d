package streamcheck

import (
	"context"
	"time"

	"github.com/jpalmerr/streamcheck/internal/prober"
)

// Prober performs one liveness and latency check against a single endpoint.
//
// Implementations must be total: every call returns an [Outcome] for ep,
// converting any failure into an Offline outcome instead of an error. A
// Checker still guards each call with a panic recovery boundary, so a
// misbehaving Prober degrades to Offline rather than crashing the pass.
//
// Probe may be called from many goroutines at once.
type Prober interface {
	Probe(ctx context.Context, ep Endpoint, timeout time.Duration) Outcome
}

// ProberFunc adapts an ordinary function to the [Prober] interface.
type ProberFunc func(ctx context.Context, ep Endpoint, timeout time.Duration) Outcome

// Probe calls f(ctx, ep, timeout).
func (f ProberFunc) Probe(ctx context.Context, ep Endpoint, timeout time.Duration) Outcome {
	return f(ctx, ep, timeout)
}

// HTTPProber checks streams with a HEAD request.
//
// A response below 400 is Online, a response of 400 or more is ErrorHTTP
// with the measured latency, and anything that prevents a response is
// Offline with [SentinelLatencyMs]. Redirects are followed.
//
// HTTPProber owns a connection pool; call [HTTPProber.Close] when the pass
// is over to release idle connections.
type HTTPProber struct {
	client *prober.Client
}

// NewHTTPProber creates an [HTTPProber] whose connection pool is capped at
// maxConns and which identifies itself with userAgent.
func NewHTTPProber(maxConns int, userAgent string) *HTTPProber {
	return &HTTPProber{client: prober.NewClient(maxConns, userAgent)}
}

// Probe implements [Prober].
func (p *HTTPProber) Probe(ctx context.Context, ep Endpoint, timeout time.Duration) Outcome {
	checkedAt := time.Now()

	resp := p.client.Head(ctx, ep.address, timeout)
	if resp.Error != nil {
		return offlineOutcome(ep, resp.Error.Error(), checkedAt)
	}

	return Outcome{
		Endpoint:   ep,
		LatencyMs:  resp.Latency.Milliseconds(),
		Status:     StatusFromCode(resp.StatusCode),
		StatusCode: resp.StatusCode,
		CheckedAt:  checkedAt,
	}
}

// Close releases idle connections. Safe to call more than once.
func (p *HTTPProber) Close() {
	if p == nil {
		return
	}
	p.client.Close()
}
