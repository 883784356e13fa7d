package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsManager fetches, caches and enforces robots.txt per origin.
type RobotsManager struct {
	enabled bool
	agent   string
	cache   map[string]*robotstxt.RobotsData
	mu      sync.RWMutex
	client  *http.Client
	logger  *slog.Logger
}

// NewRobotsManager creates a new RobotsManager that tests paths for the given user agent.
func NewRobotsManager(enabled bool, agent string, logger *slog.Logger) *RobotsManager {
	return &RobotsManager{
		enabled: enabled,
		agent:   agent,
		cache:   make(map[string]*robotstxt.RobotsData),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With("component", "robots"),
	}
}

// IsAllowed checks if a URL is allowed by its origin's robots.txt.
// An unreachable robots.txt allows everything.
func (rm *RobotsManager) IsAllowed(ctx context.Context, rawURL string) bool {
	if !rm.enabled {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	data := rm.robotsFor(ctx, u)
	if data == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, rm.agent)
}

// CrawlDelay returns the Crawl-delay declared for our agent, if any.
func (rm *RobotsManager) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	if !rm.enabled {
		return 0
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	data := rm.robotsFor(ctx, u)
	if data == nil {
		return 0
	}
	if group := data.FindGroup(rm.agent); group != nil {
		return group.CrawlDelay
	}
	return 0
}

// robotsFor returns cached robots data for the URL's origin, fetching it on first use.
func (rm *RobotsManager) robotsFor(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	origin := u.Scheme + "://" + u.Host

	rm.mu.RLock()
	data, ok := rm.cache[origin]
	rm.mu.RUnlock()
	if ok {
		return data
	}

	data, final := rm.fetch(ctx, origin)
	if !final {
		return data
	}

	rm.mu.Lock()
	rm.cache[origin] = data
	rm.mu.Unlock()

	return data
}

// fetch downloads and parses robots.txt. Network errors yield nil. The
// result is final unless the request was cancelled or timed out, in which
// case the next call retries.
func (rm *RobotsManager) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, true
	}
	if rm.agent != "" {
		req.Header.Set("User-Agent", rm.agent)
	}

	resp, err := rm.client.Do(req)
	if err != nil {
		rm.logger.Debug("robots.txt unreachable", "origin", origin, "error", err)
		return nil, !isTransient(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, !isTransient(ctx, err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		rm.logger.Warn("robots.txt unparseable", "origin", origin, "error", err)
		return nil, true
	}
	return data, true
}

func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr interface{ Timeout() bool }
	return errors.As(err, &nerr) && nerr.Timeout()
}
