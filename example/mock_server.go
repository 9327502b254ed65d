package main

import (
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// slowDelay is longer than the demo threshold but shorter than its timeout.
const slowDelay = 1500 * time.Millisecond

// NewMockStreamHandler returns a handler with one mount per kind of stream:
//
//	/good    answers 200 after 50-200ms
//	/slow    answers 200 after slowDelay
//	/gone    answers 404
//	/moved   redirects to /good
//	/flaky   answers 200 or 503 at random
func NewMockStreamHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/good", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(slowDelay)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/good", http.StatusFound)
	})

	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		if rand.Intn(2) == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return logRequests(mux)
}

// logRequests logs each request at debug level.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("mock request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
