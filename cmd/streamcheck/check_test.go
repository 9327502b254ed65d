package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpalmerr/streamcheck/config"
)

// newStreamServer serves /ok with 200 and everything else with 404.
func newStreamServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func readDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunCheck_WritesVerifiedPlaylist(t *testing.T) {
	srv := newStreamServer(t)
	dir := filepath.Join(t.TempDir(), "playlists")
	out := filepath.Join(t.TempDir(), "output")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	writeFile(t, filepath.Join(dir, "radio.m3u"), fmt.Sprintf(`#EXTM3U
#EXTINF:-1,Good
%[1]s/ok
#EXTINF:-1,Missing
%[1]s/missing
#EXTINF:-1,Good Two
%[1]s/ok?second
`, srv.URL))

	output, _, err := executeCmd(t, "check", "--dir", dir, "--out", out, "--timeout", "2s", "--json")
	if err != nil {
		t.Fatalf("check command error = %v", err)
	}
	if !strings.Contains(output, "radio: 2/3 streams verified") {
		t.Errorf("output = %q, want summary line", output)
	}

	files := readDir(t, out)
	if len(files) != 2 {
		t.Fatalf("output files = %v, want m3u and json", files)
	}

	var m3u string
	for _, f := range files {
		if strings.HasSuffix(f, ".m3u") {
			m3u = f
		}
	}
	if !strings.HasPrefix(m3u, "verified_streams_radio_") {
		t.Fatalf("m3u name = %q", m3u)
	}

	data, err := os.ReadFile(filepath.Join(out, m3u))
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "Missing") {
		t.Errorf("report contains rejected stream:\n%s", content)
	}
	good := strings.Index(content, "#EXTINF:-1,Good (")
	goodTwo := strings.Index(content, "#EXTINF:-1,Good Two (")
	if good == -1 || goodTwo == -1 || good > goodTwo {
		t.Errorf("report entries missing or out of order:\n%s", content)
	}
}

// TestRunCheck_ExplicitFiles verifies arguments replace directory discovery.
func TestRunCheck_ExplicitFiles(t *testing.T) {
	srv := newStreamServer(t)
	tmp := t.TempDir()
	out := filepath.Join(tmp, "output")

	path := filepath.Join(tmp, "news.txt")
	writeFile(t, path, srv.URL+"/ok\n")

	output, _, err := executeCmd(t, "check", "--dir", filepath.Join(tmp, "unused"), "--out", out, path)
	if err != nil {
		t.Fatalf("check command error = %v", err)
	}
	if !strings.Contains(output, "news: 1/1 streams verified") {
		t.Errorf("output = %q", output)
	}
	if _, err := os.Stat(filepath.Join(tmp, "unused")); !os.IsNotExist(err) {
		t.Error("playlist directory was touched despite explicit files")
	}
}

func TestRunCheck_MissingDirIsCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "playlists")

	output, _, err := executeCmd(t, "check", "--dir", dir)
	if err != nil {
		t.Fatalf("check command error = %v", err)
	}
	if !strings.Contains(output, "Created playlist directory") {
		t.Errorf("output = %q, want guidance", output)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("playlist directory not created: %v", err)
	}
}

func TestRunCheck_NothingPassing(t *testing.T) {
	srv := newStreamServer(t)
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "output")

	writeFile(t, filepath.Join(dir, "dead.m3u"), "#EXTM3U\n"+srv.URL+"/gone\n")
	writeFile(t, filepath.Join(dir, "empty.m3u"), "#EXTM3U\n")

	output, stderr, err := executeCmd(t, "check", "--dir", dir, "--out", out)
	if err != nil {
		t.Fatalf("check command error = %v", err)
	}
	if !strings.Contains(output, "dead: 0/1 streams verified, nothing saved") {
		t.Errorf("output = %q", output)
	}
	if !strings.Contains(stderr, "playlist has no endpoints") {
		t.Errorf("stderr missing empty playlist warning:\n%s", stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output directory created although nothing passed")
	}
}

func TestRunCheck_InvalidFlag(t *testing.T) {
	_, _, err := executeCmd(t, "check", "--dir", t.TempDir(), "--concurrency=-3")
	if err == nil {
		t.Fatal("check command expected error for negative concurrency, got nil")
	}
	if !strings.Contains(err.Error(), "concurrency must be positive") {
		t.Errorf("error = %v", err)
	}
}

// TestCheckPlaylists_Interrupted verifies an interrupted run saves nothing and is not an error.
func TestCheckPlaylists_Interrupted(t *testing.T) {
	srv := newStreamServer(t)
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "output")
	writeFile(t, filepath.Join(dir, "radio.m3u"), srv.URL+"/ok\n"+srv.URL+"/ok?2\n")

	cfg := config.Default()
	cfg.PlaylistDir = dir
	cfg.OutputDir = out
	cfg.MetricsFile = filepath.Join(t.TempDir(), "streamcheck.prom")

	var logs, stdout bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := checkPlaylists(ctx, cfg, nil, logger, &stdout); err != nil {
		t.Fatalf("checkPlaylists() error = %v, want nil", err)
	}
	if !strings.Contains(logs.String(), "monitor stopped by user") {
		t.Errorf("logs missing stop message:\n%s", logs.String())
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("report written for an interrupted run")
	}
	if _, err := os.Stat(cfg.MetricsFile); err != nil {
		t.Errorf("metrics file not written: %v", err)
	}
}

func TestCheckPlaylists_InlineEndpointsAndMetrics(t *testing.T) {
	srv := newStreamServer(t)
	out := filepath.Join(t.TempDir(), "output")

	cfg := config.Default()
	cfg.PlaylistDir = t.TempDir()
	cfg.OutputDir = out
	cfg.MetricsFile = filepath.Join(t.TempDir(), "streamcheck.prom")
	cfg.Endpoints = []config.EndpointConfig{
		{Name: "Inline", URL: srv.URL + "/ok"},
	}

	var stdout bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	if err := checkPlaylists(context.Background(), cfg, nil, logger, &stdout); err != nil {
		t.Fatalf("checkPlaylists() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "config: 1/1 streams verified") {
		t.Errorf("output = %q", stdout.String())
	}

	data, err := os.ReadFile(cfg.MetricsFile)
	if err != nil {
		t.Fatalf("failed to read metrics: %v", err)
	}
	if !strings.Contains(string(data), `streamcheck_passing_endpoints{playlist="config"} 1`) {
		t.Errorf("metrics missing passing gauge:\n%s", data)
	}
}

// TestCheckPlaylists_FailedPlaylistDoesNotStopOthers verifies a playlist
// that cannot be read fails alone while the next one is checked and saved.
func TestCheckPlaylists_FailedPlaylistDoesNotStopOthers(t *testing.T) {
	srv := newStreamServer(t)
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "output")

	writeFile(t, filepath.Join(dir, "a.m3u"), "http://"+strings.Repeat("x", 2<<20)+"\n")
	writeFile(t, filepath.Join(dir, "b.m3u"), srv.URL+"/ok\n")

	cfg := config.Default()
	cfg.PlaylistDir = dir
	cfg.OutputDir = out

	var logs, stdout bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	err := checkPlaylists(context.Background(), cfg, nil, logger, &stdout)
	if err == nil {
		t.Fatal("checkPlaylists() expected error for unreadable playlist, got nil")
	}
	if !strings.Contains(err.Error(), "a.m3u") {
		t.Errorf("error = %v, want it to name a.m3u", err)
	}
	if !strings.Contains(stdout.String(), "b: 1/1 streams verified") {
		t.Errorf("output = %q, want b checked", stdout.String())
	}
	if files := readDir(t, out); len(files) != 1 {
		t.Errorf("output files = %v, want b's report", files)
	}
	for _, unwanted := range []string{"playlist check interrupted", "monitor stopped by user"} {
		if strings.Contains(logs.String(), unwanted) {
			t.Errorf("logs contain %q:\n%s", unwanted, logs.String())
		}
	}
	if !strings.Contains(logs.String(), "playlist failed") {
		t.Errorf("logs missing failure:\n%s", logs.String())
	}
}

// TestCheckPlaylists_SameNameKeepsEveryReport verifies playlists sharing a
// name with each other or with the inline endpoints each get their own report.
func TestCheckPlaylists_SameNameKeepsEveryReport(t *testing.T) {
	srv := newStreamServer(t)
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "output")

	writeFile(t, filepath.Join(dir, "radio.m3u"), srv.URL+"/ok\n")
	writeFile(t, filepath.Join(dir, "radio.txt"), srv.URL+"/ok?txt\n")
	writeFile(t, filepath.Join(dir, "config.m3u"), srv.URL+"/ok?file\n")

	cfg := config.Default()
	cfg.PlaylistDir = dir
	cfg.OutputDir = out
	cfg.ParallelPlaylists = 4
	cfg.Endpoints = []config.EndpointConfig{
		{Name: "Inline", URL: srv.URL + "/ok?inline"},
	}

	var stdout bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	if err := checkPlaylists(context.Background(), cfg, nil, logger, &stdout); err != nil {
		t.Fatalf("checkPlaylists() error = %v", err)
	}

	for _, name := range []string{"radio", "radio_txt", "config", "config_m3u"} {
		if !strings.Contains(stdout.String(), name+": 1/1 streams verified") {
			t.Errorf("output missing %q:\n%s", name, stdout.String())
		}
	}
	if files := readDir(t, out); len(files) != 4 {
		t.Errorf("output files = %v, want 4 reports", files)
	}
}

func TestUniqueName(t *testing.T) {
	used := map[string]bool{config.InlinePlaylist: true}

	tests := []struct {
		path string
		want string
	}{
		{"lists/radio.m3u", "radio"},
		{"lists/radio.txt", "radio_txt"},
		{"other/radio.txt", "radio_txt_2"},
		{"lists/config.m3u", "config_m3u"},
		{"lists/news.m3u8", "news"},
	}
	for _, tt := range tests {
		if got := uniqueName(used, tt.path); got != tt.want {
			t.Errorf("uniqueName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "streamcheck.log")
	var stderr bytes.Buffer

	logger, closeLog, err := newLogger(config.LogConfig{
		Level:  "debug",
		Format: "text",
		File:   logFile,
	}, &stderr)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}

	logger.Debug("hello", "key", "value")
	if err := closeLog(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	if !strings.Contains(stderr.String(), "msg=hello") {
		t.Errorf("stderr = %q, want text log line", stderr.String())
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "key=value") {
		t.Errorf("log file = %q", data)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, _, err := newLogger(config.LogConfig{Level: "loud", Format: "json"}, &bytes.Buffer{}); err == nil {
		t.Error("newLogger() expected error for invalid level, got nil")
	}
}
