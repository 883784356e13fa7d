package observability

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics(testLogger)

	var pages atomic.Int64
	pages.Store(3)
	m.Counter("listing_pages", "Listing pages fetched", pages.Load)
	m.Gauge("records", "Records aggregated", func() int64 { return 7 })

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		"# TYPE wantedcrawl_listing_pages_total counter",
		"wantedcrawl_listing_pages_total 3",
		"# TYPE wantedcrawl_records gauge",
		"wantedcrawl_records 7",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q:\n%s", want, body)
		}
	}

	if strings.Index(body, "wantedcrawl_listing_pages_total") > strings.Index(body, "wantedcrawl_records") {
		t.Error("metrics should be sorted by name")
	}

	pages.Add(1)
	if got := m.Snapshot()["wantedcrawl_listing_pages_total"]; got != 4 {
		t.Errorf("snapshot = %d, want live value 4", got)
	}
}

func TestShutdownWithoutServer(t *testing.T) {
	if err := NewMetrics(testLogger).Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
