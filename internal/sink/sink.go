// Package sink persists streamcheck reports.
//
// The verified playlist is written as M3U so it can be loaded straight back
// into a player or aggregator; the optional JSON report carries every
// outcome, including the failed ones, for tooling.
package sink

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jpalmerr/streamcheck"
)

// timestampFormat is used in report file names.
const timestampFormat = "20060102_150405"

// Meta describes the pass a report belongs to.
type Meta struct {
	RunID       string
	Playlist    string
	GeneratedAt time.Time
}

// Options controls which files [Save] writes.
type Options struct {
	// JSON also writes a .json report next to the playlist.
	JSON bool
}

// Paths lists the files written by [Save]. JSON is empty when not written.
type Paths struct {
	M3U  string
	JSON string
}

// WriteM3U writes the passing outcomes of report as an extended M3U playlist.
//
// Each entry is written as "#EXTINF:-1,<name> (<latency>ms)" followed by
// the address, in report order.
func WriteM3U(w io.Writer, report streamcheck.Report) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("#EXTM3U\n"); err != nil {
		return err
	}
	for _, o := range report.Passing {
		if _, err := fmt.Fprintf(bw, "#EXTINF:-1,%s (%dms)\n%s\n", o.Endpoint.Name(), o.LatencyMs, o.Endpoint.Address()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// jsonEntry is the JSON shape of one outcome.
type jsonEntry struct {
	Name       string             `json:"name"`
	Address    string             `json:"address"`
	LatencyMs  int64              `json:"latency_ms"`
	Status     streamcheck.Status `json:"status"`
	StatusCode int                `json:"status_code,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	CheckedAt  *time.Time         `json:"checked_at,omitempty"`
}

// jsonReport is the JSON shape of a report.
type jsonReport struct {
	RunID       string              `json:"run_id,omitempty"`
	Playlist    string              `json:"playlist,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
	ThresholdMs int64               `json:"threshold_ms"`
	Count       int                 `json:"count"`
	Summary     streamcheck.Summary `json:"summary"`
	Passing     []jsonEntry         `json:"passing"`
	Outcomes    []jsonEntry         `json:"outcomes"`
}

// WriteJSON writes the full report as indented JSON.
func WriteJSON(w io.Writer, report streamcheck.Report, meta Meta) error {
	out := jsonReport{
		RunID:       meta.RunID,
		Playlist:    meta.Playlist,
		GeneratedAt: meta.GeneratedAt,
		ThresholdMs: report.ThresholdMs,
		Count:       report.Count(),
		Summary:     report.Summary(),
		Passing:     make([]jsonEntry, 0, len(report.Passing)),
		Outcomes:    make([]jsonEntry, 0, len(report.Outcomes)),
	}
	for _, o := range report.Passing {
		out.Passing = append(out.Passing, jsonEntry{
			Name:      o.Endpoint.Name(),
			Address:   o.Endpoint.Address(),
			LatencyMs: o.LatencyMs,
			Status:    o.Status,
		})
	}
	for _, o := range report.Outcomes {
		e := jsonEntry{
			Name:       o.Endpoint.Name(),
			Address:    o.Endpoint.Address(),
			LatencyMs:  o.LatencyMs,
			Status:     o.Status,
			StatusCode: o.StatusCode,
			Reason:     o.Reason,
		}
		if !o.CheckedAt.IsZero() {
			at := o.CheckedAt
			e.CheckedAt = &at
		}
		out.Outcomes = append(out.Outcomes, e)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// maxSuffix bounds the numbered variants [Save] tries for a taken name.
const maxSuffix = 1000

// FileName returns the base name of the verified playlist for a pass.
func FileName(playlist string, at time.Time) string {
	return stem(playlist, at, 1) + ".m3u"
}

// stem is the report name without extension. Variants after the first get a
// numeric suffix.
func stem(playlist string, at time.Time, n int) string {
	name := "verified_streams_"
	if playlist != "" {
		name += sanitize(playlist) + "_"
	}
	name += at.Format(timestampFormat)
	if n > 1 {
		name += fmt.Sprintf("_%d", n)
	}
	return name
}

// Save writes the report into dir and returns the paths written.
//
// The directory is created if needed. Every file is written to a temporary
// file in dir and linked into place, so readers never observe a partially
// written report, even if the process is killed mid-write. Existing files
// are never replaced: if the name for this pass is taken, for example by
// another playlist with the same sanitized name checked in the same second,
// a numbered variant such as "..._2.m3u" is used.
func Save(dir string, report streamcheck.Report, meta Meta, opts Options) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	at := meta.GeneratedAt
	if at.IsZero() {
		at = time.Now()
		meta.GeneratedAt = at
	}

	for n := 1; n <= maxSuffix; n++ {
		base := filepath.Join(dir, stem(meta.Playlist, at, n))
		paths, err := savePair(base, report, meta, opts)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return paths, err
	}
	return Paths{}, fmt.Errorf("failed to save report: no free name for %s", FileName(meta.Playlist, at))
}

// savePair writes base.m3u and, if requested, base.json. It fails with an
// error matching fs.ErrExist, leaving nothing behind, if either name is taken.
func savePair(base string, report streamcheck.Report, meta Meta, opts Options) (Paths, error) {
	paths := Paths{M3U: base + ".m3u"}
	if err := writeExclusive(paths.M3U, func(w io.Writer) error {
		return WriteM3U(w, report)
	}); err != nil {
		return Paths{}, err
	}

	if opts.JSON {
		paths.JSON = base + ".json"
		if err := writeExclusive(paths.JSON, func(w io.Writer) error {
			return WriteJSON(w, report, meta)
		}); err != nil {
			_ = os.Remove(paths.M3U)
			return Paths{}, err
		}
	}

	return paths, nil
}

// writeExclusive writes via a temp file in the target directory and links it
// to path. It fails with an error matching fs.ErrExist if path exists.
func writeExclusive(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Link(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}

// sanitize keeps playlist names safe for use in file names.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
