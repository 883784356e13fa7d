package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Namespace prefixes every exported metric name.
const Namespace = "wantedcrawl"

type metric struct {
	name  string
	help  string
	kind  string
	value func() int64
}

// Metrics is a registry of counters and gauges read on demand from the
// components that own them.
type Metrics struct {
	mu      sync.RWMutex
	metrics map[string]metric
	server  *http.Server
	logger  *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		metrics: make(map[string]metric),
		logger:  logger.With("component", "metrics"),
	}
}

// Counter registers a monotonically increasing value.
func (m *Metrics) Counter(name, help string, value func() int64) {
	m.register(metric{name: Namespace + "_" + name + "_total", help: help, kind: "counter", value: value})
}

// Gauge registers a value that can go up and down.
func (m *Metrics) Gauge(name, help string, value func() int64) {
	m.register(metric{name: Namespace + "_" + name, help: help, kind: "gauge", value: value})
}

func (m *Metrics) register(mt metric) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[mt.name] = mt
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	for _, mt := range m.sorted() {
		fmt.Fprintf(w, "# HELP %s %s\n", mt.name, mt.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", mt.name, mt.kind)
		fmt.Fprintf(w, "%s %d\n", mt.name, mt.value())
	}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	for _, mt := range m.sorted() {
		out[mt.name] = mt.value()
	}
	return out
}

func (m *Metrics) sorted() []metric {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]metric, 0, len(m.metrics))
	for _, mt := range m.metrics {
		list = append(list, mt)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
	return list
}

// StartServer starts the metrics HTTP server in the background.
func (m *Metrics) StartServer(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", m.server.Addr, "path", path)

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
}

// Shutdown stops the metrics server if it was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
