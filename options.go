package streamcheck

import (
	"errors"
	"log/slog"
	"time"
)

// checkerConfig holds mutable state during Checker construction.
type checkerConfig struct {
	concurrency      int
	timeout          time.Duration
	thresholdMs      int64
	rateLimit        float64
	userAgent        string
	logger           *slog.Logger
	prober           Prober
	outcomeCallbacks []func(Outcome)
}

// Option is a function that configures a [Checker] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithConcurrency], [WithTimeout], [WithThreshold],
// [WithRateLimit], [WithUserAgent], [WithLogger], [WithOutcomeCallback],
// [WithProber].
type Option func(*checkerConfig) error

// WithConcurrency sets the maximum number of probes in flight at once.
//
// The limit also caps the connection pool shared by the probes of a pass.
// It exists to avoid overwhelming the local network stack or tripping abuse
// detection on stream hosts. Defaults to 50 if not specified.
//
// Example:
//
//	c, err := streamcheck.New(streamcheck.WithConcurrency(20))
//
// Returns an error if the value is zero or negative.
func WithConcurrency(n int) Option {
	return func(cfg *checkerConfig) error {
		if n <= 0 {
			return errors.New("concurrency must be positive")
		}
		cfg.concurrency = n
		return nil
	}
}

// WithTimeout sets the per-probe timeout.
//
// A probe that has not received response headers within this duration is
// classified Offline. The timeout covers redirects. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *checkerConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithThreshold sets the latency cutoff, in milliseconds, for the filtered
// report. Online outcomes at or below the threshold pass. Defaults to 5000.
//
// Returns an error if the threshold is negative.
func WithThreshold(ms int64) Option {
	return func(cfg *checkerConfig) error {
		if ms < 0 {
			return errors.New("threshold must not be negative")
		}
		cfg.thresholdMs = ms
		return nil
	}
}

// WithRateLimit caps how many probes are launched per second, on top of
// the concurrency limit. Zero disables the rate limit, which is the default.
//
// Example:
//
//	c, err := streamcheck.New(
//	    streamcheck.WithConcurrency(50),
//	    streamcheck.WithRateLimit(20), // at most 20 new probes per second
//	)
//
// Returns an error if the rate is negative.
func WithRateLimit(perSecond float64) Option {
	return func(cfg *checkerConfig) error {
		if perSecond < 0 {
			return errors.New("rate limit must not be negative")
		}
		cfg.rateLimit = perSecond
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent with every probe.
//
// Some stream hosts block the default Go user agent; a descriptive one
// helps probes get through. Defaults to [DefaultUserAgent].
//
// Returns an error if ua is empty.
func WithUserAgent(ua string) Option {
	return func(cfg *checkerConfig) error {
		if ua == "" {
			return errors.New("user agent cannot be empty")
		}
		cfg.userAgent = ua
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Checker.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *checkerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithOutcomeCallback registers a function to be called as each probe
// completes.
//
// Callbacks run in completion order, not input order, which makes them
// suitable for progress reporting and metrics. Multiple callbacks may be
// registered; they execute in registration order.
//
// Callbacks are invoked synchronously from a single goroutine and should
// return quickly; a slow callback does not hold back probes, but the pass
// does not finish until every callback has run. Panics within callbacks
// are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithOutcomeCallback(cb func(Outcome)) Option {
	return func(cfg *checkerConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.outcomeCallbacks = append(cfg.outcomeCallbacks, cb)
		return nil
	}
}

// WithProber replaces the default HTTP HEAD prober.
//
// Useful for tests and for non-HTTP stream protocols. The prober is shared
// by all passes run with the Checker and must be safe for concurrent use.
//
// Returns an error if p is nil.
func WithProber(p Prober) Option {
	return func(cfg *checkerConfig) error {
		if p == nil {
			return errors.New("prober cannot be nil")
		}
		cfg.prober = p
		return nil
	}
}
