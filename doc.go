// Package streamcheck probes audio stream endpoints for reachability and
// latency, and builds a filtered report of the streams worth keeping.
//
// A pass takes an ordered list of named endpoints, checks each one with a
// lightweight HEAD request under a global concurrency cap, classifies every
// result as Online, ErrorHTTP or Offline, and keeps the Online endpoints
// whose latency is at or below a threshold, in their original order.
//
// # Quick Start
//
//	ep, _ := streamcheck.NewEndpoint("Jazz FM", "https://stream.example.com/jazz")
//	c, _ := streamcheck.New(
//	    streamcheck.WithConcurrency(50),
//	    streamcheck.WithTimeout(10 * time.Second),
//	    streamcheck.WithThreshold(5000),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	report, err := c.Check(ctx, []streamcheck.Endpoint{ep})
//	if err != nil {
//	    return err // interrupted: do not persist the report
//	}
//	fmt.Println(report.Count(), "streams verified")
//
// # Components
//
//   - [Prober]: one liveness check against one endpoint; never fails, every
//     problem becomes an Offline [Outcome] with [SentinelLatencyMs]
//   - [Checker.Run]: the bounded fan-out; result[i] always answers endpoints[i]
//   - [BuildReport]: pure classification of outcomes against a threshold
//
// # Architecture
//
// The library consists of several packages:
//
//   - internal/prober: HEAD client with a capped connection pool, and the
//     indexed worker pool used by [Checker.Run]
//   - internal/playlist: reads M3U and plain text playlists into endpoints
//   - internal/sink: writes verified playlists and JSON reports
//   - internal/metrics: Prometheus metrics with textfile export
//   - config: YAML configuration for the streamcheck command
//
// The internal packages are not part of the public API and may change
// without notice.
package streamcheck
