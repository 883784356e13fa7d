package wantedcrawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/IshaanNene/wantedcrawl/internal/engine"
	"github.com/IshaanNene/wantedcrawl/internal/observability"
	"github.com/IshaanNene/wantedcrawl/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var fixedDate = time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)

type upperTranslator struct{}

func (upperTranslator) Translate(_ context.Context, text string) (string, error) {
	return strings.ToUpper(text), nil
}

type failingTranslator struct{}

func (failingTranslator) Translate(context.Context, string) (string, error) {
	return "", errors.New("service unavailable")
}

// newSite serves two listing pages with two detail pages each.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/en/most-wanted", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" {
			page = "1"
		}
		fmt.Fprint(w, "<html><body>")
		for i := 1; i <= 2; i++ {
			fmt.Fprintf(w, `<h3 class="descNume"><a href="/en/most-wanted/p%s-%d">x</a></h3>`, page, i)
		}
		if page == "1" {
			fmt.Fprint(w, `<a class="buttonPaginatie next" href="/en/most-wanted?page=2">Next</a>`)
		}
		fmt.Fprint(w, "</body></html>")
	})
	mux.HandleFunc("/en/most-wanted/", func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimPrefix(r.URL.Path, "/en/most-wanted/")
		fmt.Fprintf(w, `<html><body>
<div class="descDetaliiDisparuti">
  <h3>Person %s</h3>
  <p>Date of birth: 05-03-1990</p>
  <p>Citizenship: romanian</p>
</div>
<div class="pozaDetaliiDisparuti"><img src="/photos/%s.jpg"></div>
</body></html>`, slug, slug)
	})
	mux.HandleFunc("/photos/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8, 0xff})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestCrawler(t *testing.T, srv *httptest.Server, opts ...Option) (*Crawler, string) {
	t.Helper()
	dir := t.TempDir()
	base := []Option{
		WithStartURL(srv.URL + "/en/most-wanted"),
		WithOutputDir(dir),
		WithLogger(testLogger),
		WithClock(func() time.Time { return fixedDate }),
		WithConcurrency(2),
	}
	return NewCrawler(append(base, opts...)...), dir
}

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	return rows
}

func TestRunExportsResultAndTranslation(t *testing.T) {
	srv := newSite(t)
	metrics := observability.NewMetrics(testLogger)
	c, dir := newTestCrawler(t, srv, WithTranslator(upperTranslator{}), WithMetrics(metrics))

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(result.Records))
	}

	resultPath := filepath.Join(dir, "politiaromana_20240307.xlsx")
	translatedPath := filepath.Join(dir, "translated_politiaromana_20240307.xlsx")
	if len(result.Files) != 2 || result.Files[0] != resultPath || result.Files[1] != translatedPath {
		t.Fatalf("unexpected files: %v", result.Files)
	}

	rows := readSheet(t, resultPath)
	if len(rows) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(rows))
	}
	if got := strings.Join(rows[0][:3], ","); got != "id,url,name" {
		t.Errorf("expected pinned columns, got %q", got)
	}
	if rows[1][0] != "1" || rows[1][2] != "Person p1-1" {
		t.Errorf("unexpected first row: %v", rows[1])
	}

	translated := readSheet(t, translatedPath)
	if translated[1][0] != "1" {
		t.Errorf("id column should be untouched, got %q", translated[1][0])
	}
	if translated[1][2] != "PERSON P1-1" {
		t.Errorf("expected translated name, got %q", translated[1][2])
	}

	snap := metrics.Snapshot()
	if snap["wantedcrawl_listing_pages_total"] != 2 {
		t.Errorf("expected 2 listing pages in metrics, got %d", snap["wantedcrawl_listing_pages_total"])
	}
	if snap["wantedcrawl_translations_total"] == 0 {
		t.Error("expected translation counter to be registered")
	}
	if got := snap["wantedcrawl_engine_state"]; got != int64(engine.StateStopped) {
		t.Errorf("engine_state = %d, want stopped (%d)", got, engine.StateStopped)
	}
}

func TestRunFailingTranslatorKeepsOriginalText(t *testing.T) {
	srv := newSite(t)
	c, _ := newTestCrawler(t, srv, WithTranslator(failingTranslator{}))

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Translated == nil {
		t.Fatal("expected a translated table")
	}
	if diff := cmp.Diff(result.Table, result.Translated); diff != "" {
		t.Errorf("translated table differs from result table (-result +translated):\n%s", diff)
	}
}

func TestRunWithoutTranslation(t *testing.T) {
	srv := newSite(t)
	c, dir := newTestCrawler(t, srv, WithTranslation(false), WithMaxPages(1))

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Records) != 2 {
		t.Errorf("expected 2 records from one page, got %d", len(result.Records))
	}
	if result.Translated != nil {
		t.Error("translation should be skipped")
	}
	if _, err := os.Stat(filepath.Join(dir, "translated_politiaromana_20240307.xlsx")); !os.IsNotExist(err) {
		t.Errorf("translated file should not exist, stat err = %v", err)
	}
}

func TestRunCancelledExportsPartialResult(t *testing.T) {
	srv := newSite(t)
	c, dir := newTestCrawler(t, srv, WithTranslator(upperTranslator{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := c.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.Translated != nil {
		t.Fatal("expected a partial result without translation")
	}
	if _, err := os.Stat(filepath.Join(dir, "politiaromana_20240307.xlsx")); err != nil {
		t.Errorf("partial result should still be exported: %v", err)
	}
}

func TestRunDownloadsPhotos(t *testing.T) {
	srv := newSite(t)
	c, dir := newTestCrawler(t, srv, WithTranslation(false), WithPhotos(true))

	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Photos) != 4 {
		t.Fatalf("expected 4 photos, got %d", len(result.Photos))
	}
	if _, err := os.Stat(filepath.Join(dir, "photos", "p1-1.jpg")); err != nil {
		t.Errorf("expected photo named after the record slug: %v", err)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	c := NewCrawler(WithStartURL("ftp://nowhere"), WithLogger(testLogger))
	if _, err := c.Run(context.Background()); err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestRunWithInjectedFetcher(t *testing.T) {
	f := &stubFetcher{}
	c := NewCrawler(
		WithStartURL("https://wanted.test/list"),
		WithOutputDir(t.TempDir()),
		WithFormats("json"),
		WithTranslation(false),
		WithFetcher(f),
		WithLogger(testLogger),
	)
	result, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
	if name, _ := result.Records[0].Get(types.ColName); name != "Solo" {
		t.Errorf("expected name Solo, got %q", name)
	}
	if !f.closed {
		t.Error("fetcher should be closed after the run")
	}
	if !strings.HasSuffix(result.Files[0], ".json") {
		t.Errorf("expected json export, got %v", result.Files)
	}
}

type stubFetcher struct{ closed bool }

func (s *stubFetcher) Fetch(_ context.Context, req *types.Request) (*types.Response, error) {
	body := `<html><body><div class="descDetaliiDisparuti"><h3>Solo</h3></div></body></html>`
	if req.IsListing() {
		body = `<html><body><h3 class="descNume"><a href="/detail/solo">Solo</a></h3></body></html>`
	}
	return &types.Response{Request: req, StatusCode: http.StatusOK, Body: []byte(body), FinalURL: req.URLString()}, nil
}

func (s *stubFetcher) Close() error {
	s.closed = true
	return nil
}
