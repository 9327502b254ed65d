package streamcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jpalmerr/streamcheck/internal/prober"
)

const (
	// DefaultConcurrency is the default cap on probes in flight.
	DefaultConcurrency = 50

	// DefaultTimeout is the default per-probe timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultThresholdMs is the default latency cutoff of the filtered report.
	DefaultThresholdMs int64 = 5000

	// DefaultUserAgent identifies probes to stream hosts.
	DefaultUserAgent = "StreamStabilityMonitor/1.0 (Broadcaster Quality Tool)"
)

// ErrInterrupted is returned by [Checker.Check] when a pass ended before
// every endpoint was probed: the context ended, or a rate limit could not
// start the remaining probes before the context deadline. The returned error
// also matches the underlying cause with errors.Is.
var ErrInterrupted = errors.New("check interrupted")

// Checker runs bounded-concurrency probing passes over endpoint lists.
//
// A Checker is created with [New] and is immutable afterwards. It carries
// no state between passes: every call to [Checker.Run] or [Checker.Check]
// builds its own worker pool and connection pool, so several passes may run
// concurrently on one Checker without interacting.
//
// The typical lifecycle is:
//
//	c, err := streamcheck.New(streamcheck.WithConcurrency(50))
//	if err != nil {
//	    return err
//	}
//	report, err := c.Check(ctx, endpoints)
type Checker struct {
	concurrency      int
	timeout          time.Duration
	thresholdMs      int64
	rateLimit        float64
	userAgent        string
	logger           *slog.Logger
	prober           Prober
	outcomeCallbacks []func(Outcome)
}

// New creates a [Checker] with the given options.
//
// Defaults:
//   - Concurrency: 50
//   - Timeout: 10 seconds
//   - Threshold: 5000 ms
//   - Rate limit: none
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Checker, error) {
	cfg := &checkerConfig{
		concurrency: DefaultConcurrency,
		timeout:     DefaultTimeout,
		thresholdMs: DefaultThresholdMs,
		userAgent:   DefaultUserAgent,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Checker{
		concurrency:      cfg.concurrency,
		timeout:          cfg.timeout,
		thresholdMs:      cfg.thresholdMs,
		rateLimit:        cfg.rateLimit,
		userAgent:        cfg.userAgent,
		logger:           logger,
		prober:           cfg.prober,
		outcomeCallbacks: cfg.outcomeCallbacks,
	}, nil
}

// Concurrency returns the configured cap on probes in flight.
func (c *Checker) Concurrency() int {
	return c.concurrency
}

// Timeout returns the configured per-probe timeout.
func (c *Checker) Timeout() time.Duration {
	return c.timeout
}

// ThresholdMs returns the configured latency cutoff in milliseconds.
func (c *Checker) ThresholdMs() int64 {
	return c.thresholdMs
}

// Check probes all endpoints and builds the filtered [Report].
//
// If the pass did not probe every endpoint, or ctx ended while probes were
// in flight, Check returns the report built from what was collected together
// with an error wrapping [ErrInterrupted] and the cause; callers should not
// persist that report.
func (c *Checker) Check(ctx context.Context, endpoints []Endpoint) (Report, error) {
	outcomes, err := c.run(ctx, endpoints)
	report := BuildReport(outcomes, c.thresholdMs)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return report, nil
}

// Run probes every endpoint and returns their outcomes in input order.
//
// result[i] always answers endpoints[i], whatever order probes finish in.
// At most the configured concurrency of probes is in flight at any time;
// each finished probe is immediately replaced by the next pending one.
//
// Run never fails. Probe failures become Offline outcomes, and if ctx ends
// no further probes are started: endpoints that were never probed get an
// Offline outcome with a "not probed" reason. The same happens when a rate
// limit cannot start the remaining probes before the ctx deadline. An empty
// input returns an empty slice without touching the network.
func (c *Checker) Run(ctx context.Context, endpoints []Endpoint) []Outcome {
	outcomes, _ := c.run(ctx, endpoints)
	return outcomes
}

// run is Run, also reporting why endpoints were left unprobed.
func (c *Checker) run(ctx context.Context, endpoints []Endpoint) ([]Outcome, error) {
	outcomes := make([]Outcome, len(endpoints))
	if len(endpoints) == 0 {
		return outcomes, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p := c.prober
	if p == nil {
		hp := NewHTTPProber(c.concurrency, c.userAgent)
		defer hp.Close()
		p = hp
	}

	var limiter *rate.Limiter
	if c.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.rateLimit), 1)
	}
	pool := prober.NewPool(c.concurrency, limiter)

	// completed outcomes fan in to a single goroutine for callbacks and logs
	completed := make(chan Outcome, len(endpoints))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for o := range completed {
			c.observe(o)
		}
	}()

	start := time.Now()
	stopErr := pool.Run(ctx,
		len(endpoints),
		func(ctx context.Context, i int) {
			outcomes[i] = c.safeProbe(ctx, p, endpoints[i])
			completed <- outcomes[i]
		},
		func(i int, reason error) {
			outcomes[i] = offlineOutcome(endpoints[i], "not probed: "+reason.Error(), time.Now())
		},
	)
	close(completed)
	wg.Wait()

	c.logger.Debug("pass finished",
		"endpoint_count", len(endpoints),
		"concurrency", pool.Limit(),
		"elapsed", time.Since(start).String(),
	)

	return outcomes, stopErr
}

// safeProbe calls the prober with panic recovery.
// If the prober panics, it logs the full stack trace with a correlation ID
// and returns an Offline outcome whose reason contains the ID.
func (c *Checker) safeProbe(ctx context.Context, p Prober, ep Endpoint) (outcome Outcome) {
	checkedAt := time.Now()
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			stack := debug.Stack()

			c.logger.Error("prober panic",
				"correlation_id", correlationID,
				"endpoint", ep.name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(stack),
			)

			outcome = offlineOutcome(ep, fmt.Sprintf("prober panic (correlation_id: %s)", correlationID), checkedAt)
		}
	}()

	outcome = p.Probe(ctx, ep, c.timeout)
	// a prober must answer for the endpoint it was given
	outcome.Endpoint = ep
	if outcome.Status.Kind() == KindOffline {
		outcome.LatencyMs = SentinelLatencyMs
	}
	return outcome
}

// observe logs a completed outcome and invokes outcome callbacks.
func (c *Checker) observe(o Outcome) {
	logAttrs := []any{
		"status", o.Status.String(),
		"endpoint", o.Endpoint.name,
		"address", o.Endpoint.address,
		"latency_ms", o.LatencyMs,
	}
	if o.Reason != "" {
		c.logger.Debug("probe completed", append(logAttrs, "reason", o.Reason)...)
	} else {
		c.logger.Debug("probe completed", logAttrs...)
	}

	for _, cb := range c.outcomeCallbacks {
		invokeCallbackSafe(cb, o, c.logger)
	}
}

// invokeCallbackSafe calls an outcome callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Outcome), o Outcome, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("outcome callback panicked",
				"panic", r,
				"endpoint", o.Endpoint.name,
			)
		}
	}()
	cb(o)
}
