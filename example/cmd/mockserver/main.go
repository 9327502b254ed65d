// Standalone mock stream server for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver > playlists/mock.m3u
//
// Then in another terminal:
//
//	go run ./cmd/streamcheck check --threshold 1000
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"
)

const addr = "127.0.0.1:9999"

func main() {
	// the playlist goes to stdout so it can be redirected into playlists/
	fmt.Println("#EXTM3U")
	for _, s := range []struct{ name, path string }{
		{"Good FM", "/good"},
		{"Slow Jazz", "/slow"},
		{"Gone Radio", "/gone"},
		{"Moved Rock", "/moved"},
		{"Flaky News", "/flaky"},
	} {
		fmt.Printf("#EXTINF:-1,%s\nhttp://%s%s\n", s.name, addr, s.path)
	}

	slog.Info("mock stream server starting", "addr", addr)

	http.HandleFunc("/good", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	http.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	http.HandleFunc("/gone", http.NotFound)
	http.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/good", http.StatusFound)
	})
	http.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		if rand.Intn(2) == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
