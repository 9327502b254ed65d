package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/streamcheck"
)

func main() {
	// start mock stream server on a free port (see mock_server.go)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		slog.Error("failed to listen", "error", err)
		os.Exit(1)
	}
	srv := &http.Server{Handler: NewMockStreamHandler(), ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() { _ = srv.Close() }()

	base := "http://" + ln.Addr().String()
	stations := []struct{ name, path string }{
		{"Good FM", "/good"},
		{"Slow Jazz", "/slow"},
		{"Gone Radio", "/gone"},
		{"Moved Rock", "/moved"},
		{"Flaky News", "/flaky"},
		{"Dead Air", ""},
	}

	endpoints := make([]streamcheck.Endpoint, 0, len(stations))
	for _, s := range stations {
		addr := base + s.path
		if s.path == "" {
			// nothing listens on port 1
			addr = "http://127.0.0.1:1/live"
		}
		ep, err := streamcheck.NewEndpoint(s.name, addr)
		if err != nil {
			slog.Error("invalid endpoint", "name", s.name, "error", err)
			os.Exit(1)
		}
		endpoints = append(endpoints, ep)
	}

	checker, err := streamcheck.New(
		streamcheck.WithConcurrency(4),
		streamcheck.WithTimeout(3*time.Second),
		streamcheck.WithThreshold(1000),
		streamcheck.WithOutcomeCallback(func(o streamcheck.Outcome) {
			fmt.Printf("  checked %-12s %-10s %5dms\n", o.Endpoint.Name(), o.Status, o.LatencyMs)
		}),
	)
	if err != nil {
		slog.Error("failed to create checker", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println()
	fmt.Println("  streamcheck demo: 6 stations, threshold 1000ms")
	fmt.Println()

	report, err := checker.Check(ctx, endpoints)
	if err != nil {
		fmt.Println("  stopped by user")
		return
	}

	fmt.Println()
	fmt.Printf("  %d of %d stations verified:\n", report.Count(), len(endpoints))
	for _, o := range report.Passing {
		fmt.Printf("  • %s (%dms) %s\n", o.Endpoint.Name(), o.LatencyMs, o.Endpoint.Address())
	}
	fmt.Println()
}
