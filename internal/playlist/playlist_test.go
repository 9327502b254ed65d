package playlist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_M3U(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1,Jazz FM
http://jazz.example.com/live

#EXTINF:0,Rock Radio
https://rock.example.com:8443/stream.mp3
`
	pl, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(pl.Endpoints) != 2 {
		t.Fatalf("len(Endpoints) = %d, want 2", len(pl.Endpoints))
	}

	tests := []struct {
		name    string
		address string
	}{
		{"Jazz FM", "http://jazz.example.com/live"},
		{"Rock Radio", "https://rock.example.com:8443/stream.mp3"},
	}
	for i, tt := range tests {
		if got := pl.Endpoints[i].Name(); got != tt.name {
			t.Errorf("Endpoints[%d].Name() = %q, want %q", i, got, tt.name)
		}
		if got := pl.Endpoints[i].Address(); got != tt.address {
			t.Errorf("Endpoints[%d].Address() = %q, want %q", i, got, tt.address)
		}
	}
}

func TestParse_PlainText(t *testing.T) {
	input := "http://a.example.com/1\nhttp://b.example.com/2\n"

	pl, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(pl.Endpoints) != 2 {
		t.Fatalf("len(Endpoints) = %d, want 2", len(pl.Endpoints))
	}
	for i, ep := range pl.Endpoints {
		if ep.Name() != DefaultName {
			t.Errorf("Endpoints[%d].Name() = %q, want %q", i, ep.Name(), DefaultName)
		}
	}
}

// TestParse_NameCarriesToNextExtinf verifies a name labels every address
// until the next #EXTINF line.
func TestParse_NameCarriesToNextExtinf(t *testing.T) {
	input := `http://a.example.com/0
#EXTINF:-1,Named
http://a.example.com/1
http://b.example.com/2
#EXTINF:-1,Other
http://c.example.com/3
`
	pl, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{DefaultName, "Named", "Named", "Other"}
	if len(pl.Endpoints) != len(want) {
		t.Fatalf("len(Endpoints) = %d, want %d", len(pl.Endpoints), len(want))
	}
	for i, name := range want {
		if got := pl.Endpoints[i].Name(); got != name {
			t.Errorf("Endpoints[%d].Name() = %q, want %q", i, got, name)
		}
	}
}

func TestParse_ExtinfWithAttributes(t *testing.T) {
	input := `#EXTINF:-1 tvg-id="x" group-title="News, Talk",BBC World Service
http://bbc.example.com/ws
`
	pl, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := pl.Endpoints[0].Name(); got != "BBC World Service" {
		t.Errorf("Name() = %q, want %q", got, "BBC World Service")
	}
}

func TestParse_ExtinfWithoutComma(t *testing.T) {
	input := "#EXTINF:-1\nhttp://a.example.com/1\n"

	pl, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := pl.Endpoints[0].Name(); got != DefaultName {
		t.Errorf("Name() = %q, want %q", got, DefaultName)
	}
}

func TestParse_InvalidEntriesCollected(t *testing.T) {
	input := `http://good.example.com/1
not a url
/relative/path
http://good.example.com/2
`
	pl, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(pl.Endpoints) != 2 {
		t.Errorf("len(Endpoints) = %d, want 2", len(pl.Endpoints))
	}
	if len(pl.Invalid) != 2 {
		t.Fatalf("len(Invalid) = %d, want 2: %v", len(pl.Invalid), pl.Invalid)
	}
	if !strings.HasPrefix(pl.Invalid[0], "line 2:") {
		t.Errorf("Invalid[0] = %q, want prefix %q", pl.Invalid[0], "line 2:")
	}
}

func TestParse_BOMAndWhitespace(t *testing.T) {
	input := "\ufeff#EXTM3U\r\n  #EXTINF:-1,  Spaced Name  \r\n  http://a.example.com/1  \r\n"

	pl, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(pl.Endpoints) != 1 {
		t.Fatalf("len(Endpoints) = %d, want 1", len(pl.Endpoints))
	}
	if got := pl.Endpoints[0].Name(); got != "Spaced Name" {
		t.Errorf("Name() = %q, want %q", got, "Spaced Name")
	}
	if got := pl.Endpoints[0].Address(); got != "http://a.example.com/1" {
		t.Errorf("Address() = %q, want %q", got, "http://a.example.com/1")
	}
}

func TestParse_Empty(t *testing.T) {
	pl, err := Parse(strings.NewReader("#EXTM3U\n\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(pl.Endpoints) != 0 {
		t.Errorf("len(Endpoints) = %d, want 0", len(pl.Endpoints))
	}
}

func TestParse_LongLine(t *testing.T) {
	long := "http://a.example.com/?token=" + strings.Repeat("x", 200*1024)

	pl, err := Parse(strings.NewReader(long + "\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(pl.Endpoints) != 1 {
		t.Errorf("len(Endpoints) = %d, want 1", len(pl.Endpoints))
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	files := []string{"b.m3u", "a.txt", "c.M3U8", "notes.md", "image.png"}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", f, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.m3u"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	got, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.m3u"),
		filepath.Join(dir, "c.M3U8"),
	}
	if len(got) != len(want) {
		t.Fatalf("Discover() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Discover()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrNoDir) {
		t.Errorf("Discover() error = %v, want ErrNoDir", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lbi.m3u")
	content := "#EXTM3U\n#EXTINF:-1,Station\nhttp://a.example.com/1\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write playlist: %v", err)
	}

	pl, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if pl.Name != "lbi" {
		t.Errorf("Name = %q, want %q", pl.Name, "lbi")
	}
	if len(pl.Endpoints) != 1 {
		t.Errorf("len(Endpoints) = %d, want 1", len(pl.Endpoints))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.m3u"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to open playlist") {
		t.Errorf("error = %v, want 'failed to open playlist'", err)
	}
}
