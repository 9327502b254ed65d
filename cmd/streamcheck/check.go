package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/streamcheck"
	"github.com/jpalmerr/streamcheck/config"
	"github.com/jpalmerr/streamcheck/internal/metrics"
	"github.com/jpalmerr/streamcheck/internal/playlist"
	"github.com/jpalmerr/streamcheck/internal/sink"
)

// checkCmd probes playlists and writes verified playlists.
var checkCmd = &cobra.Command{
	Use:   "check [playlist...]",
	Short: "Check playlists and write verified playlists",
	Long: `Check every stream in one or more playlists.

Without arguments, every .m3u, .m3u8 and .txt file in the playlist directory
is checked. Endpoints listed in the config file are checked as an extra
playlist named "config". Each playlist gets its own verified playlist in the
output directory, containing the Online streams at or below the threshold.

Press Ctrl+C to stop. No report is written for an interrupted playlist.

Settings are taken from, lowest to highest precedence: defaults, the config
file, STREAMCHECK_* environment variables (a .env file is loaded), flags.

Example:
  streamcheck check
  streamcheck check -c streamcheck.yaml --json
  streamcheck check --concurrency 100 --threshold 2000 radio.m3u`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	f := checkCmd.Flags()
	f.StringP("config", "c", "", "path to config file")
	f.String("dir", "", "playlist directory (default playlists)")
	f.String("out", "", "output directory (default output)")
	f.Int("concurrency", 0, "maximum probes in flight (default 50)")
	f.Duration("timeout", 0, "per-probe timeout (default 10s)")
	f.Int64("threshold", 0, "latency threshold in milliseconds (default 5000)")
	f.Float64("rate-limit", 0, "maximum probe launches per second, 0 for none")
	f.Int("parallel", 0, "playlists checked at once (default 1)")
	f.Bool("json", false, "also write a JSON report")
}

func runCheck(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	// cancel on SIGINT/SIGTERM: running probes finish, no new ones start
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return checkPlaylists(ctx, cfg, args, logger, cmd.OutOrStdout())
}

// loadConfig reads the config file, or the defaults without one, and applies
// environment overrides.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("dir") {
		cfg.PlaylistDir, _ = f.GetString("dir")
	}
	if f.Changed("out") {
		cfg.OutputDir, _ = f.GetString("out")
	}
	if f.Changed("concurrency") {
		cfg.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("timeout") {
		d, _ := f.GetDuration("timeout")
		cfg.Timeout = config.Duration(d)
	}
	if f.Changed("threshold") {
		cfg.ThresholdMs, _ = f.GetInt64("threshold")
	}
	if f.Changed("rate-limit") {
		cfg.RateLimit, _ = f.GetFloat64("rate-limit")
	}
	if f.Changed("parallel") {
		cfg.ParallelPlaylists, _ = f.GetInt("parallel")
	}
	if f.Changed("json") {
		cfg.JSONReport, _ = f.GetBool("json")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// source is one playlist to check: a file, or the inline config endpoints.
type source struct {
	name      string
	path      string
	endpoints []streamcheck.Endpoint
}

// checkPlaylists runs one pass per playlist, at most cfg.ParallelPlaylists
// at a time. Passes are independent: a playlist that fails is logged and
// reported in the returned error while the others carry on. An interrupted
// run is not an error.
func checkPlaylists(ctx context.Context, cfg *config.Config, files []string, logger *slog.Logger, out io.Writer) error {
	sources, err := collectSources(cfg, files, out)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return nil
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	recorder := metrics.New()
	printer := &syncWriter{w: out}

	logger.Info("starting check",
		"playlists", len(sources),
		"concurrency", cfg.Concurrency,
		"timeout", cfg.Timeout.Duration().String(),
		"threshold_ms", cfg.ThresholdMs,
	)

	var (
		mu          sync.Mutex
		failed      []error
		interrupted bool
	)
	var g errgroup.Group
	g.SetLimit(cfg.ParallelPlaylists)
	for _, src := range sources {
		g.Go(func() error {
			err := checkSource(ctx, cfg, src, runID, logger, recorder, printer)
			if err == nil {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, streamcheck.ErrInterrupted) {
				interrupted = true
				return nil
			}
			logger.Error("playlist failed", "playlist", src.name, "error", err)
			failed = append(failed, err)
			return nil
		})
	}
	_ = g.Wait()

	if cfg.MetricsFile != "" {
		if werr := recorder.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", werr)
		} else {
			logger.Debug("metrics written", "path", cfg.MetricsFile)
		}
	}

	if interrupted {
		logger.Info("monitor stopped by user")
	}
	return errors.Join(failed...)
}

// collectSources resolves the playlists to check. Explicit files win over
// directory discovery. A missing playlist directory is created and the user
// is told to fill it.
func collectSources(cfg *config.Config, files []string, out io.Writer) ([]source, error) {
	var sources []source

	if len(files) == 0 {
		discovered, err := playlist.Discover(cfg.PlaylistDir)
		switch {
		case errors.Is(err, playlist.ErrNoDir):
			if err := os.MkdirAll(cfg.PlaylistDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create playlist directory: %w", err)
			}
			fmt.Fprintf(out, "Created playlist directory %q. Add your .m3u or .txt playlists there and run again.\n", cfg.PlaylistDir)
		case err != nil:
			return nil, err
		default:
			files = discovered
		}
	}

	used := make(map[string]bool)
	if len(cfg.Endpoints) > 0 {
		used[config.InlinePlaylist] = true
	}
	for _, f := range files {
		sources = append(sources, source{name: uniqueName(used, f), path: f})
	}

	if len(cfg.Endpoints) > 0 {
		endpoints, err := config.Endpoints(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build endpoints: %w", err)
		}
		sources = append(sources, source{name: config.InlinePlaylist, endpoints: endpoints})
	}

	if len(sources) == 0 {
		fmt.Fprintf(out, "No playlists found in %q.\n", cfg.PlaylistDir)
	}
	return sources, nil
}

// uniqueName names the playlist at path after its file, keeping names distinct
// across one run: "radio" first, then "radio_m3u", then "radio_m3u_2".
func uniqueName(used map[string]bool, path string) string {
	name := playlist.NameOf(path)
	if used[name] {
		withExt := strings.ReplaceAll(filepath.Base(path), ".", "_")
		name = withExt
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", withExt, n)
		}
	}
	used[name] = true
	return name
}

// checkSource checks one playlist and saves its report.
func checkSource(
	ctx context.Context,
	cfg *config.Config,
	src source,
	runID string,
	logger *slog.Logger,
	recorder *metrics.Recorder,
	out io.Writer,
) error {
	logger = logger.With("playlist", src.name)

	endpoints := src.endpoints
	if src.path != "" {
		pl, err := playlist.Load(src.path)
		if err != nil {
			return err
		}
		for _, inv := range pl.Invalid {
			logger.Warn("skipping invalid entry", "entry", inv)
		}
		endpoints = pl.Endpoints
	}
	if len(endpoints) == 0 {
		logger.Warn("playlist has no endpoints, skipping")
		return nil
	}

	opts := append(config.Options(cfg),
		streamcheck.WithLogger(logger),
		streamcheck.WithOutcomeCallback(func(o streamcheck.Outcome) {
			recorder.ObserveOutcome(src.name, o)
		}),
	)
	checker, err := streamcheck.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create checker: %w", err)
	}

	logger.Info("checking playlist", "endpoints", len(endpoints))

	start := time.Now()
	report, err := checker.Check(ctx, endpoints)
	elapsed := time.Since(start)
	if err != nil {
		logger.Warn("playlist check interrupted, report not saved", "elapsed", elapsed.String())
		return fmt.Errorf("playlist %s: %w", src.name, err)
	}
	recorder.ObserveReport(src.name, report, elapsed)

	summary := report.Summary()
	logger.Info("playlist checked",
		"total", summary.Total,
		"online", summary.Online,
		"error_http", summary.ErrorHTTP,
		"offline", summary.Offline,
		"count", report.Count(),
		"elapsed", elapsed.String(),
	)

	if report.Count() == 0 {
		logger.Warn("no stable streams found, nothing saved")
		fmt.Fprintf(out, "%s: 0/%d streams verified, nothing saved\n", src.name, summary.Total)
		return nil
	}

	paths, err := sink.Save(cfg.OutputDir, report, sink.Meta{
		RunID:       runID,
		Playlist:    src.name,
		GeneratedAt: time.Now(),
	}, sink.Options{JSON: cfg.JSONReport})
	if err != nil {
		return fmt.Errorf("playlist %s: %w", src.name, err)
	}

	logger.Info("report saved", "path", paths.M3U, "json", paths.JSON)
	fmt.Fprintf(out, "%s: %d/%d streams verified -> %s\n", src.name, report.Count(), summary.Total, paths.M3U)
	return nil
}

// syncWriter serialises writes from concurrent playlist passes.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
