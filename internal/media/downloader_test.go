package media

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IshaanNene/wantedcrawl/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var jpeg = []byte{0xff, 0xd8, 0xff, 0xe0, 'J', 'F', 'I', 'F'}

func record(url, image string) *types.Record {
	rec := types.NewRecord(url)
	rec.Set(types.ColImageURL, image)
	return rec
}

func newPhotoServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpeg)
	})
	mux.HandleFunc("/noext", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	})
	mux.HandleFunc("/big.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 64))
	})
	mux.HandleFunc("/missing.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadAll(t *testing.T) {
	var hits atomic.Int64
	srv := newPhotoServer(t, &hits)
	dir := t.TempDir()
	d := NewDownloader(dir, 32, 1, "test-agent", 5*time.Second, testLogger)

	records := []*types.Record{
		record(srv.URL+"/en/most-wanted/popescu-ion", "/img/popescu.jpg"),
		record(srv.URL+"/en/most-wanted/no-photo", types.NotAvailable),
		record(srv.URL+"/en/most-wanted/ionescu", srv.URL+"/missing.jpg"),
		record(srv.URL+"/en/most-wanted/large", "/big.jpg"),
		record(srv.URL+"/en/most-wanted/shared", "/img/popescu.jpg"),
	}

	photos, err := d.DownloadAll(context.Background(), records)
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(photos))
	}

	first := photos[0]
	if first.LocalPath != filepath.Join(dir, "popescu-ion.jpg") {
		t.Errorf("unexpected path %s", first.LocalPath)
	}
	data, err := os.ReadFile(first.LocalPath)
	if err != nil || !bytes.Equal(data, jpeg) {
		t.Errorf("photo content mismatch: %v", err)
	}
	if photos[1].RecordURL != records[4].URL || photos[1].LocalPath != first.LocalPath {
		t.Errorf("shared photo should reuse the first download, got %+v", photos[1])
	}
	if d.Failed() != 2 {
		t.Errorf("expected 2 failures (404 and too large), got %d", d.Failed())
	}
	if _, err := os.Stat(filepath.Join(dir, "large.jpg")); !os.IsNotExist(err) {
		t.Error("oversized photo should be removed")
	}
}

func TestDownloadSharedPhotoFetchedOnce(t *testing.T) {
	var hits atomic.Int64
	srv := newPhotoServer(t, &hits)
	d := NewDownloader(t.TempDir(), 0, 1, "test-agent", 5*time.Second, testLogger)

	for _, slug := range []string{"a", "b", "c"} {
		if _, err := d.Download(context.Background(), record(srv.URL+"/"+slug, "/img/same.jpg")); err != nil {
			t.Fatalf("Download: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected one request for a shared photo, got %d", hits.Load())
	}
	if d.Downloaded() != 1 {
		t.Errorf("expected 1 file written, got %d", d.Downloaded())
	}
}

func TestDownloadExtensionFromContentType(t *testing.T) {
	var hits atomic.Int64
	srv := newPhotoServer(t, &hits)
	d := NewDownloader(t.TempDir(), 0, 1, "test-agent", 5*time.Second, testLogger)

	photo, err := d.Download(context.Background(), record(srv.URL+"/en/most-wanted/x", "/noext"))
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if filepath.Ext(photo.LocalPath) != ".png" {
		t.Errorf("expected .png extension, got %s", photo.LocalPath)
	}
}

func TestDownloadAllCancelled(t *testing.T) {
	var hits atomic.Int64
	srv := newPhotoServer(t, &hits)
	d := NewDownloader(t.TempDir(), 0, 1, "test-agent", 5*time.Second, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.DownloadAll(ctx, []*types.Record{record(srv.URL+"/a", "/img/a.jpg")}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestPhotoURL(t *testing.T) {
	tests := []struct {
		image string
		want  string
		ok    bool
	}{
		{"/img/a.jpg", "https://wanted.test/img/a.jpg", true},
		{"https://cdn.test/a.jpg", "https://cdn.test/a.jpg", true},
		{"  img/b.jpg ", "https://wanted.test/en/img/b.jpg", true},
		{types.NotAvailable, "", false},
		{"", "", false},
		{"data:image/png;base64,AAAA", "", false},
	}
	for _, tt := range tests {
		got, ok := PhotoURL(record("https://wanted.test/en/most-wanted", tt.image))
		if got != tt.want || ok != tt.ok {
			t.Errorf("PhotoURL(%q) = %q, %v; want %q, %v", tt.image, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		record, photo, contentType, want string
	}{
		{"https://wanted.test/en/most-wanted/popescu-ion", "https://wanted.test/a.JPG", "", "popescu-ion.jpg"},
		{"https://wanted.test/en/most-wanted/popescu-ion/", "https://wanted.test/a", "image/png", "popescu-ion.png"},
		{"https://wanted.test/en/most-wanted/ion?x=1", "https://wanted.test/a.webp", "", "ion.webp"},
		{"https://wanted.test/en/most-wanted/ăbc", "https://wanted.test/a.jpg", "", "_bc.jpg"},
	}
	for _, tt := range tests {
		if got := FileName(tt.record, tt.photo, tt.contentType); got != tt.want {
			t.Errorf("FileName(%q, %q) = %q, want %q", tt.record, tt.photo, got, tt.want)
		}
	}
}
