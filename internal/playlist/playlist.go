// Package playlist reads M3U and plain text playlists into endpoints.
//
// Both formats are read line by line. An "#EXTINF:<duration>,<name>" line
// names the next address; other comment lines are ignored; every remaining
// non-blank line is a stream address.
package playlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jpalmerr/streamcheck"
)

// DefaultName is used for addresses without a preceding #EXTINF line.
const DefaultName = "Unknown Station"

// maxLineSize bounds a single playlist line; some tokenised stream URLs are long.
const maxLineSize = 1 << 20 // 1MB

// extinfPrefix marks an M3U entry header.
const extinfPrefix = "#EXTINF"

// ErrNoDir is returned by [Discover] when the playlist directory is missing.
var ErrNoDir = errors.New("playlist directory does not exist")

// Playlist is the parsed content of one playlist file.
type Playlist struct {
	// Name identifies the playlist, the file name without extension.
	Name string

	// Endpoints holds the valid entries in file order.
	Endpoints []streamcheck.Endpoint

	// Invalid holds rejected entries as "line N: reason".
	Invalid []string
}

// extensions lists the playlist file types picked up by Discover.
var extensions = map[string]struct{}{
	".m3u":  {},
	".m3u8": {},
	".txt":  {},
}

// Discover returns the playlist files in dir, sorted by name.
//
// Only regular files with a .m3u, .m3u8 or .txt extension (any case) are
// returned. A missing directory yields an error wrapping [ErrNoDir].
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoDir, dir)
		}
		return nil, fmt.Errorf("failed to read playlist directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := extensions[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Load opens and parses the playlist at path.
func Load(path string) (Playlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return Playlist{}, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer func() { _ = f.Close() }()

	pl, err := Parse(f)
	if err != nil {
		return Playlist{}, fmt.Errorf("%s: %w", path, err)
	}
	pl.Name = NameOf(path)
	return pl, nil
}

// NameOf derives a playlist name from its path: the base name without extension.
func NameOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse reads playlist entries from r.
//
// Entries keep file order. An address takes the name of the closest
// preceding #EXTINF line, or [DefaultName] before the first one; a name
// applies to every address up to the next #EXTINF. Addresses that
// are not valid endpoints are reported in Playlist.Invalid instead of
// failing the parse. Parse only fails on read errors.
func Parse(r io.Reader) (Playlist, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var pl Playlist
	pending := ""
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, extinfPrefix) {
			pending = extinfName(line)
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		name := pending
		if name == "" {
			name = DefaultName
		}

		ep, err := streamcheck.NewEndpoint(name, line)
		if err != nil {
			pl.Invalid = append(pl.Invalid, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}
		pl.Endpoints = append(pl.Endpoints, ep)
	}
	if err := scanner.Err(); err != nil {
		return Playlist{}, fmt.Errorf("failed to read playlist: %w", err)
	}

	return pl, nil
}

// extinfName extracts the station name from "#EXTINF:-1 tvg-id=..,Name".
// The name is the text after the last comma.
func extinfName(line string) string {
	idx := strings.LastIndex(line, ",")
	if idx == -1 {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}
